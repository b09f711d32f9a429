package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
)

// BasketRepository defines the interface for basket persistence operations.
// Item mutations are single atomic statements or short transactions, so two
// racing mutations on the same basket never produce a lost update.
type BasketRepository interface {
	// CreateBasket inserts a new, empty basket.
	CreateBasket(ctx context.Context, basket *domain.Basket) error

	// GetBasket retrieves a basket with all its items, or ErrNotFound.
	GetBasket(ctx context.Context, basketID string) (*domain.Basket, error)

	// BasketExists reports whether a basket with the given ID exists.
	BasketExists(ctx context.Context, basketID string) (bool, error)

	// DeleteBasket removes a basket and, via cascade, its items. Returns
	// ErrNotFound if the basket is absent.
	DeleteBasket(ctx context.Context, basketID string) error

	// GetBasketIDByUser returns the ID of the most recently created basket
	// for the user, or ErrNotFound if the user has none.
	GetBasketIDByUser(ctx context.Context, userID string) (string, error)

	// GetItem retrieves a single line item, or ErrNotFound.
	GetItem(ctx context.Context, basketID, itemID string) (*domain.Item, error)

	// InsertItem adds a new line item. Returns ErrConflict when an item
	// with the same ID already exists in the basket.
	InsertItem(ctx context.Context, basketID string, item *domain.Item) error

	// IncrementItemQuantity atomically adds amount to an existing item's
	// quantity. Returns false when the item is not in the basket.
	IncrementItemQuantity(ctx context.Context, basketID, itemID string, amount int) (bool, error)

	// DecrementItemQuantity atomically subtracts amount from an item's
	// quantity and deletes the row when it reaches exactly zero. Returns
	// the remaining quantity, ErrNotFound when the item is absent, or
	// ErrInvalidAmount when amount exceeds the current quantity.
	DecrementItemQuantity(ctx context.Context, basketID, itemID string, amount int) (int, error)

	// UpdateItemPrice sets a new unit price on an existing item. Returns
	// ErrNotFound when the item is absent.
	UpdateItemPrice(ctx context.Context, basketID, itemID string, price decimal.Decimal) error

	// UpsertItem inserts a line item or overwrites the quantity and price
	// of an existing one. Used by the administrative sync feed.
	UpsertItem(ctx context.Context, basketID string, item *domain.Item) error
}
