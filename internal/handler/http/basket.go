package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/RiBaSoOrg/BasketService/internal/service"
	"github.com/RiBaSoOrg/BasketService/pkg/httputil"
	"github.com/RiBaSoOrg/BasketService/pkg/validator"
)

// BasketHandler handles HTTP requests for basket endpoints.
type BasketHandler struct {
	service *service.BasketService
	logger  *slog.Logger
}

// NewBasketHandler creates a new basket HTTP handler.
func NewBasketHandler(svc *service.BasketService, logger *slog.Logger) *BasketHandler {
	return &BasketHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request / Response DTOs ---

// CreateBasketRequest is the JSON request body for creating a basket.
type CreateBasketRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// AddItemRequest is the JSON request body for adding an item.
type AddItemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	Amount int    `json:"amount" validate:"required,gt=0"`
}

// BasketIDResponse carries a bare basket ID.
type BasketIDResponse struct {
	BasketID string `json:"basket_id"`
}

// TotalCostResponse carries the recomputed basket total as an exact decimal
// string.
type TotalCostResponse struct {
	BasketID string `json:"basket_id"`
	Total    string `json:"total"`
}

// --- Handlers ---

// CreateBasket handles POST /api/v1/baskets
func (h *BasketHandler) CreateBasket(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateBasketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	basket, err := h.service.CreateBasket(r.Context(), req.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: basket})
}

// GetBasket handles GET /api/v1/baskets/{basketID}
func (h *BasketHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")

	basket, err := h.service.GetBasket(r.Context(), basketID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: basket})
}

// DeleteBasket handles DELETE /api/v1/baskets/{basketID}
func (h *BasketHandler) DeleteBasket(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")

	if err := h.service.DeleteBasket(r.Context(), basketID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetBasketIDForUser handles GET /api/v1/baskets/user/{userID}
func (h *BasketHandler) GetBasketIDForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	id, err := h.service.GetBasketIDForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: BasketIDResponse{BasketID: id}})
}

// GetTotalCost handles GET /api/v1/baskets/{basketID}/total
func (h *BasketHandler) GetTotalCost(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")

	total, err := h.service.GetTotalCost(r.Context(), basketID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: TotalCostResponse{BasketID: basketID, Total: total.StringFixed(2)},
	})
}

// GetItem handles GET /api/v1/baskets/{basketID}/items/{itemID}
func (h *BasketHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")
	itemID := chi.URLParam(r, "itemID")

	item, err := h.service.GetItem(r.Context(), basketID, itemID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// AddItem handles POST /api/v1/baskets/{basketID}/items
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	basketID := chi.URLParam(r, "basketID")

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item, err := h.service.AddItem(r.Context(), basketID, req.ItemID, req.Amount)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// RemoveItem handles DELETE /api/v1/baskets/{basketID}/items/{itemID}?amount=N
// amount defaults to 1 when omitted.
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")
	itemID := chi.URLParam(r, "itemID")

	amount := 1
	if v := r.URL.Query().Get("amount"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "amount must be a valid integer"},
			})
			return
		}
		amount = parsed
	}

	if err := h.service.RemoveItem(r.Context(), basketID, itemID, amount); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
