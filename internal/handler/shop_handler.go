package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// ShopHandler serves the catalog of the customer dashboard.
type ShopHandler struct {
	service service.CustomerService
	logger  zerolog.Logger
}

// NewShopHandler creates a new shop handler.
func NewShopHandler(service service.CustomerService, logger zerolog.Logger) *ShopHandler {
	return &ShopHandler{
		service: service,
		logger:  logger.With().Str("handler", "shop").Logger(),
	}
}

// List handles GET /api/shops requests.
func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	shops, err := h.service.Shops(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shops": shops, "count": len(shops)})
}

// Select handles POST /api/shops/{id}/select requests.
func (h *ShopHandler) Select(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("id")
	if shopID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "shop ID is required", h.logger)
		return
	}

	view, err := h.service.SelectShop(r.Context(), shopID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Menu handles GET /api/menu requests.
func (h *ShopHandler) Menu(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Menu()
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
