package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/RiBaSoOrg/BasketService/internal/catalog"
	"github.com/RiBaSoOrg/BasketService/internal/domain"
	"github.com/RiBaSoOrg/BasketService/internal/repository"
	apperrors "github.com/RiBaSoOrg/BasketService/pkg/errors"
	pkgkafka "github.com/RiBaSoOrg/BasketService/pkg/kafka"
)

// Kafka topics for the administrative feeds.
const (
	TopicAdminPriceChange = "bookstore.admin.price_change"
	TopicAdminItemSync    = "bookstore.admin.item_sync"
)

// Event types carried on the administrative feeds.
const (
	EventTypePriceChanged = "admin.price_changed"
	EventTypeItemSynced   = "admin.item_synced"
)

// AdminConsumer applies administrative updates to stored baskets: price
// changes for single items and bulk item sync. Payloads are comma-delimited
// strings inherited from the admin tooling's export format, wrapped in the
// standard event envelope as a JSON string.
type AdminConsumer struct {
	repo   repository.BasketRepository
	logger *slog.Logger
}

// NewAdminConsumer creates a consumer for the administrative feeds.
func NewAdminConsumer(repo repository.BasketRepository, logger *slog.Logger) *AdminConsumer {
	return &AdminConsumer{
		repo:   repo,
		logger: logger,
	}
}

// HandlePriceChange processes a price-change message with payload
// "basketID,itemID,newPrice". Malformed payloads and updates for absent
// baskets or items are logged and skipped; retrying them cannot succeed.
func (c *AdminConsumer) HandlePriceChange(ctx context.Context, event *pkgkafka.Event) error {
	fields, err := decodeDelimited(event, 3)
	if err != nil {
		c.logger.ErrorContext(ctx, "malformed price change payload skipped",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	basketID, itemID, rawPrice := fields[0], fields[1], fields[2]

	price := catalog.ParsePrice(rawPrice)
	if price.IsNegative() {
		c.logger.ErrorContext(ctx, "negative price change rejected",
			slog.String("basket_id", basketID),
			slog.String("item_id", itemID),
			slog.String("raw_price", rawPrice),
		)
		return nil
	}
	if err := c.repo.UpdateItemPrice(ctx, basketID, itemID, price); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.logger.WarnContext(ctx, "price change for unknown basket item skipped",
				slog.String("basket_id", basketID),
				slog.String("item_id", itemID),
			)
			return nil
		}
		// Transient store failures are returned so the consumer retries.
		return fmt.Errorf("update item price: %w", err)
	}

	c.logger.InfoContext(ctx, "item price updated",
		slog.String("basket_id", basketID),
		slog.String("item_id", itemID),
		slog.String("price", price.StringFixed(2)),
	)
	return nil
}

// HandleItemSync processes a bulk sync message with payload
// "basketID,itemID,amount,price". The feed is authoritative: the item is
// inserted or its quantity and price overwritten.
func (c *AdminConsumer) HandleItemSync(ctx context.Context, event *pkgkafka.Event) error {
	fields, err := decodeDelimited(event, 4)
	if err != nil {
		c.logger.ErrorContext(ctx, "malformed item sync payload skipped",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	basketID, itemID, rawAmount, rawPrice := fields[0], fields[1], fields[2], fields[3]

	amount, err := strconv.Atoi(strings.TrimSpace(rawAmount))
	if err != nil || amount <= 0 {
		c.logger.ErrorContext(ctx, "item sync with non-positive amount skipped",
			slog.String("basket_id", basketID),
			slog.String("item_id", itemID),
			slog.String("raw_amount", rawAmount),
		)
		return nil
	}

	price := catalog.ParsePrice(rawPrice)
	if price.IsNegative() {
		c.logger.ErrorContext(ctx, "item sync with negative price skipped",
			slog.String("basket_id", basketID),
			slog.String("item_id", itemID),
			slog.String("raw_price", rawPrice),
		)
		return nil
	}

	exists, err := c.repo.BasketExists(ctx, basketID)
	if err != nil {
		return fmt.Errorf("check basket exists: %w", err)
	}
	if !exists {
		c.logger.WarnContext(ctx, "item sync for unknown basket skipped",
			slog.String("basket_id", basketID),
			slog.String("item_id", itemID),
		)
		return nil
	}

	// The sync feed carries no title; the upsert only overwrites quantity
	// and price for existing items, so a stored name is preserved.
	item := &domain.Item{
		ID:        itemID,
		Name:      itemID,
		Quantity:  amount,
		UnitPrice: price,
	}
	if err := c.repo.UpsertItem(ctx, basketID, item); err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}

	c.logger.InfoContext(ctx, "item synced",
		slog.String("basket_id", basketID),
		slog.String("item_id", itemID),
		slog.Int("quantity", amount),
		slog.String("price", price.StringFixed(2)),
	)
	return nil
}

// decodeDelimited unwraps the JSON-string payload and splits it into exactly
// n comma-separated fields.
func decodeDelimited(event *pkgkafka.Event, n int) ([]string, error) {
	var payload string
	if err := event.UnmarshalData(&payload); err != nil {
		return nil, fmt.Errorf("unwrap payload: %w", err)
	}

	fields := strings.Split(payload, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d fields, got %d", n, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
		if fields[i] == "" {
			return nil, fmt.Errorf("field %d is empty", i)
		}
	}
	return fields, nil
}
