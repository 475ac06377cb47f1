package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// AddItemRequest is the body of POST /api/cart/items.
type AddItemRequest struct {
	ItemID string `json:"item_id"`
}

// QuantityRequest is the body of PUT /api/cart/items/{id}. A pointer tells
// a missing quantity from zero.
type QuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// CartHandler serves the cart of the customer dashboard.
type CartHandler struct {
	service service.CustomerService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CustomerService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Cart())
}

// Add handles POST /api/cart/items requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.ItemID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "item_id is required", h.logger)
		return
	}

	snap, err := h.service.AddToCart(req.ItemID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Update handles PUT /api/cart/items/{id} requests.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Quantity == nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidQuantity, model.ErrInvalidQuantity.Message, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.service.UpdateCartItem(r.PathValue("id"), *req.Quantity))
}

// Remove handles DELETE /api/cart/items/{id} requests.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.RemoveCartItem(r.PathValue("id")))
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ClearCart())
}
