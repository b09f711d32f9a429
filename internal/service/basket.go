package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RiBaSoOrg/BasketService/internal/catalog"
	"github.com/RiBaSoOrg/BasketService/internal/domain"
	"github.com/RiBaSoOrg/BasketService/internal/event"
	"github.com/RiBaSoOrg/BasketService/internal/repository"
	apperrors "github.com/RiBaSoOrg/BasketService/pkg/errors"
)

// CatalogGateway resolves book IDs against the catalog. The call blocks up to
// the gateway's configured timeout; it never holds basket state while waiting.
type CatalogGateway interface {
	Lookup(ctx context.Context, bookID string) (*domain.CatalogRecord, error)
}

// BasketService implements the business logic for basket operations.
type BasketService struct {
	repo     repository.BasketRepository
	catalog  CatalogGateway
	producer *event.Producer
	logger   *slog.Logger
}

// NewBasketService creates a new basket service. producer may be nil to
// disable outbound domain events.
func NewBasketService(repo repository.BasketRepository, catalogGW CatalogGateway, producer *event.Producer, logger *slog.Logger) *BasketService {
	return &BasketService{
		repo:     repo,
		catalog:  catalogGW,
		producer: producer,
		logger:   logger,
	}
}

// CreateBasket creates a new, empty basket for the given user. Multiple
// baskets per user are permitted; lookups by user return the newest one.
func (s *BasketService) CreateBasket(ctx context.Context, userID string) (*domain.Basket, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}

	now := time.Now().UTC()
	basket := &domain.Basket{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     []domain.Item{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateBasket(ctx, basket); err != nil {
		return nil, fmt.Errorf("create basket: %w", err)
	}

	s.logger.InfoContext(ctx, "basket created",
		slog.String("basket_id", basket.ID),
		slog.String("user_id", userID),
	)

	if s.producer != nil {
		if err := s.producer.PublishBasketCreated(ctx, basket); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish basket.created event",
				slog.String("basket_id", basket.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return basket, nil
}

// GetBasket retrieves a basket with all its items.
func (s *BasketService) GetBasket(ctx context.Context, basketID string) (*domain.Basket, error) {
	basket, err := s.repo.GetBasket(ctx, basketID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.UnknownBasket(basketID)
		}
		return nil, fmt.Errorf("get basket: %w", err)
	}
	return basket, nil
}

// DeleteBasket removes a basket and all its items.
func (s *BasketService) DeleteBasket(ctx context.Context, basketID string) error {
	if err := s.repo.DeleteBasket(ctx, basketID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.UnknownBasket(basketID)
		}
		return fmt.Errorf("delete basket: %w", err)
	}

	s.logger.InfoContext(ctx, "basket deleted", slog.String("basket_id", basketID))

	if s.producer != nil {
		if err := s.producer.PublishBasketDeleted(ctx, basketID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish basket.deleted event",
				slog.String("basket_id", basketID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// GetBasketIDForUser returns the ID of the user's most recently created basket.
func (s *BasketService) GetBasketIDForUser(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", apperrors.InvalidInput("user_id is required")
	}

	id, err := s.repo.GetBasketIDByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.UnknownBasket("for user " + userID)
		}
		return "", fmt.Errorf("get basket id for user: %w", err)
	}
	return id, nil
}

// GetItem retrieves a single line item from a basket.
func (s *BasketService) GetItem(ctx context.Context, basketID, itemID string) (*domain.Item, error) {
	if err := s.requireBasket(ctx, basketID); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, basketID, itemID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.UnknownItem(itemID)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetTotalCost computes the basket total as the exact decimal sum of unit
// price times quantity over all items. The total is recomputed on every call.
func (s *BasketService) GetTotalCost(ctx context.Context, basketID string) (decimal.Decimal, error) {
	basket, err := s.GetBasket(ctx, basketID)
	if err != nil {
		return decimal.Zero, err
	}
	return basket.TotalCost(), nil
}

// AddItem adds amount units of a book to the basket. When the item is already
// present its quantity is incremented locally with no catalog round trip;
// otherwise the catalog is consulted first and the item is created from the
// resolved record. No mutation happens on any failure path.
func (s *BasketService) AddItem(ctx context.Context, basketID, itemID string, amount int) (*domain.Item, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidAmount("amount must be greater than zero")
	}
	if itemID == "" {
		return nil, apperrors.InvalidInput("item_id is required")
	}
	if err := s.requireBasket(ctx, basketID); err != nil {
		return nil, err
	}

	// Fast path: the item is already in the basket.
	found, err := s.repo.IncrementItemQuantity(ctx, basketID, itemID, amount)
	if err != nil {
		return nil, fmt.Errorf("increment item quantity: %w", err)
	}
	if !found {
		// Slow path: resolve the book against the catalog before any
		// write. No basket state is held while waiting for the reply.
		record, err := s.catalog.Lookup(ctx, itemID)
		if err != nil {
			return nil, s.mapLookupError(ctx, itemID, err)
		}

		item := &domain.Item{
			ID:        record.ID,
			Name:      record.Title,
			Quantity:  amount,
			UnitPrice: record.Price,
		}

		err = s.repo.InsertItem(ctx, basketID, item)
		if errors.Is(err, apperrors.ErrConflict) {
			// A racing AddItem created the item while we were waiting
			// on the catalog; fold this add into an increment.
			if _, err := s.repo.IncrementItemQuantity(ctx, basketID, itemID, amount); err != nil {
				return nil, fmt.Errorf("increment item quantity after insert conflict: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
	}

	item, err := s.repo.GetItem(ctx, basketID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item after add: %w", err)
	}

	s.logger.InfoContext(ctx, "item added to basket",
		slog.String("basket_id", basketID),
		slog.String("item_id", itemID),
		slog.Int("amount", amount),
		slog.Int("quantity", item.Quantity),
	)

	if s.producer != nil {
		if err := s.producer.PublishItemAdded(ctx, basketID, item, amount); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish basket.item_added event",
				slog.String("basket_id", basketID),
				slog.String("item_id", itemID),
				slog.String("error", err.Error()),
			)
		}
	}

	return item, nil
}

// RemoveItem subtracts amount units from a line item. Reaching exactly zero
// removes the item from the basket; removing more than is present fails with
// no mutation.
func (s *BasketService) RemoveItem(ctx context.Context, basketID, itemID string, amount int) error {
	if amount <= 0 {
		return apperrors.InvalidAmount("amount must be greater than zero")
	}
	if err := s.requireBasket(ctx, basketID); err != nil {
		return err
	}

	remaining, err := s.repo.DecrementItemQuantity(ctx, basketID, itemID, amount)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return apperrors.UnknownItem(itemID)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			return apperrors.InvalidAmount("amount exceeds item quantity")
		default:
			return fmt.Errorf("decrement item quantity: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "item removed from basket",
		slog.String("basket_id", basketID),
		slog.String("item_id", itemID),
		slog.Int("amount", amount),
		slog.Int("remaining", remaining),
	)

	if s.producer != nil {
		if err := s.producer.PublishItemRemoved(ctx, basketID, itemID, amount, remaining); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish basket.item_removed event",
				slog.String("basket_id", basketID),
				slog.String("item_id", itemID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// requireBasket fails with UnknownBasket when the basket does not exist.
func (s *BasketService) requireBasket(ctx context.Context, basketID string) error {
	exists, err := s.repo.BasketExists(ctx, basketID)
	if err != nil {
		return fmt.Errorf("check basket exists: %w", err)
	}
	if !exists {
		return apperrors.UnknownBasket(basketID)
	}
	return nil
}

// mapLookupError translates catalog gateway failures into the basket error
// taxonomy. Not-found and timeout both mean the book cannot be added;
// infrastructure failures surface as unavailability instead of a masked 404.
func (s *BasketService) mapLookupError(ctx context.Context, itemID string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return apperrors.UnknownItem(itemID)
	case errors.Is(err, catalog.ErrTimedOut):
		s.logger.WarnContext(ctx, "catalog lookup timed out",
			slog.String("item_id", itemID),
		)
		return apperrors.UnknownItem(itemID)
	case errors.Is(err, catalog.ErrUnavailable):
		return apperrors.Unavailable("catalog lookup unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return apperrors.Internal(fmt.Errorf("catalog lookup: %w", err))
	}
}
