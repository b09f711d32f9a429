package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Basket represents a user's shopping basket with its line items.
type Basket struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a single line item in a basket. Its ID doubles as the catalog's
// book identifier, so item IDs are unique within a basket. Name and UnitPrice
// are set once from the catalog lookup result.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// TotalCost computes the basket total as Σ unit_price × quantity using exact
// decimal arithmetic. The total is always recomputed, never cached.
func (b *Basket) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemCount returns the total number of units across all line items.
func (b *Basket) ItemCount() int {
	var count int
	for _, item := range b.Items {
		count += item.Quantity
	}
	return count
}

// FindItem returns the line item with the given ID, or false if absent.
func (b *Basket) FindItem(itemID string) (*Item, bool) {
	for i := range b.Items {
		if b.Items[i].ID == itemID {
			return &b.Items[i], true
		}
	}
	return nil, false
}
