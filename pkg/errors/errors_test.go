package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := UnknownBasket("b-1")
	assert.Contains(t, err.Error(), "UNKNOWN_BASKET_ID")
	assert.Contains(t, err.Error(), "b-1")
}

func TestAppError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, UnknownBasket("b-1"), ErrNotFound)
	assert.ErrorIs(t, UnknownItem("i-1"), ErrNotFound)
	assert.ErrorIs(t, InvalidAmount("amount must be greater than zero"), ErrInvalidAmount)
	assert.ErrorIs(t, Conflict("concurrent update"), ErrConflict)
	assert.ErrorIs(t, Unavailable("catalog unreachable"), ErrUnavailable)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown basket", UnknownBasket("b-1"), http.StatusNotFound},
		{"unknown item", UnknownItem("i-1"), http.StatusNotFound},
		{"invalid amount", InvalidAmount("nope"), http.StatusBadRequest},
		{"invalid input", InvalidInput("nope"), http.StatusBadRequest},
		{"conflict", Conflict("busy"), http.StatusConflict},
		{"unavailable", Unavailable("down"), http.StatusServiceUnavailable},
		{"wrapped sentinel", fmt.Errorf("outer: %w", ErrNotFound), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("outer: %w", UnknownItem("i-1")), http.StatusNotFound},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
