package domain

import "github.com/shopspring/decimal"

// CatalogRecord is the catalog's authoritative view of a book, resolved
// through the asynchronous lookup bridge. Price is already normalized from
// the catalog's raw string representation.
type CatalogRecord struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}
