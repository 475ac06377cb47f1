package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler serves the order ledger of either dashboard.
type OrderHandler struct {
	dashboard service.Dashboard
	logger    zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(dashboard service.Dashboard, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		dashboard: dashboard,
		logger:    logger.With().Str("handler", "order").Logger(),
	}
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders := h.dashboard.Orders()
	writeJSON(w, http.StatusOK, map[string]any{
		"scope":  h.dashboard.Scope(),
		"orders": orders,
		"count":  len(orders),
	})
}

// Refresh handles POST /api/orders/refresh requests.
func (h *OrderHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.RefreshOrders(r.Context()); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	h.List(w, r)
}

// Get handles GET /api/orders/{id} requests. It opens the order's detail
// view.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if orderID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "order ID is required", h.logger)
		return
	}

	order, err := h.dashboard.OpenOrder(orderID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// CloseDetail handles DELETE /api/orders/detail requests.
func (h *OrderHandler) CloseDetail(w http.ResponseWriter, r *http.Request) {
	h.dashboard.CloseOrder()
	w.WriteHeader(http.StatusNoContent)
}

// Notices handles GET /api/notices requests. The optional after query
// parameter skips notices already seen.
func (h *OrderHandler) Notices(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid after parameter", h.logger)
			return
		}
		after = parsed
	}
	writeJSON(w, http.StatusOK, map[string]any{"notices": h.dashboard.Notices(after)})
}
