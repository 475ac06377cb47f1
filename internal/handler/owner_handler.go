package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// StatusRequest is the body of a status change.
type StatusRequest struct {
	Status string `json:"status"`
}

// OwnerHandler serves the owner-only actions.
type OwnerHandler struct {
	service service.OwnerService
	logger  zerolog.Logger
}

// NewOwnerHandler creates a new owner handler.
func NewOwnerHandler(service service.OwnerService, logger zerolog.Logger) *OwnerHandler {
	return &OwnerHandler{
		service: service,
		logger:  logger.With().Str("handler", "owner").Logger(),
	}
}

// UpdateStatus handles PUT /api/orders/{id}/status requests.
func (h *OwnerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Status == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "status is required", h.logger)
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), r.PathValue("id"), model.OrderStatus(req.Status)); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Order status update requested"})
}

// UpdatePaymentStatus handles PUT /api/orders/{id}/payment-status requests.
func (h *OwnerHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Status == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "status is required", h.logger)
		return
	}

	if err := h.service.UpdatePaymentStatus(r.Context(), r.PathValue("id"), model.PaymentStatus(req.Status)); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Payment status update requested"})
}

// Revenue handles GET /api/revenue requests.
func (h *OwnerHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Revenue(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
