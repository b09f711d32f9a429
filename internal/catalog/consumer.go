package catalog

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
	"github.com/RiBaSoOrg/BasketService/pkg/kafka"
)

// ReplyHandler consumes catalog reply events and resolves the matching
// pending lookup through the registry. Replies whose correlation token is
// unknown (late arrivals after a timeout, duplicates) are dropped silently by
// the registry.
type ReplyHandler struct {
	registry *Registry
	logger   *slog.Logger
}

// NewReplyHandler creates a handler bound to the given registry.
func NewReplyHandler(registry *Registry, logger *slog.Logger) *ReplyHandler {
	return &ReplyHandler{
		registry: registry,
		logger:   logger,
	}
}

// Handle processes one reply event. It never returns an error for malformed
// or unexpected replies: retrying them cannot help, and the waiting caller is
// protected by its own timeout.
func (h *ReplyHandler) Handle(ctx context.Context, event *kafka.Event) error {
	if event.CorrelationID == "" {
		h.logger.WarnContext(ctx, "catalog reply without correlation id dropped",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	switch event.EventType {
	case EventTypeBookResolved:
		h.handleResolved(ctx, event)
	case EventTypeBookNotFound:
		h.registry.Resolve(event.CorrelationID, Result{NotFound: true})
	default:
		h.logger.DebugContext(ctx, "ignoring unexpected event on reply topic",
			slog.String("event_type", event.EventType),
		)
	}
	return nil
}

func (h *ReplyHandler) handleResolved(ctx context.Context, event *kafka.Event) {
	var data BookReplyData
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.ErrorContext(ctx, "malformed catalog reply payload dropped",
			slog.String("correlation_id", event.CorrelationID),
			slog.String("error", err.Error()),
		)
		return
	}

	price := ParsePrice(data.Price)
	if price.IsZero() && data.Price != "" {
		h.logger.WarnContext(ctx, "unparseable catalog price, falling back to zero",
			slog.String("book_id", data.ID),
			slog.String("raw_price", data.Price),
		)
	}
	if price.IsNegative() {
		h.logger.WarnContext(ctx, "negative catalog price clamped to zero",
			slog.String("book_id", data.ID),
			slog.String("raw_price", data.Price),
		)
		price = decimal.Zero
	}

	h.registry.Resolve(event.CorrelationID, Result{
		Record: &domain.CatalogRecord{
			ID:    data.ID,
			Title: data.Title,
			Price: price,
		},
	})

	h.logger.DebugContext(ctx, "catalog reply resolved",
		slog.String("book_id", data.ID),
		slog.String("correlation_id", event.CorrelationID),
	)
}
