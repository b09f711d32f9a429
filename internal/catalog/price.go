package catalog

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// priceSanitizer strips everything that is not a digit, decimal point, or
// minus sign. Catalog prices arrive as free-form strings ("$10.00",
// "1,299.99 EUR") and need normalizing before exact decimal parsing.
var priceSanitizer = regexp.MustCompile(`[^0-9.\-]+`)

// ParsePrice normalizes a raw catalog price string into an exact decimal.
// An empty or unparseable value yields decimal.Zero rather than an error;
// callers that must treat a malformed price as a fault check for the zero
// sentinel themselves.
func ParsePrice(raw string) decimal.Decimal {
	cleaned := priceSanitizer.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
