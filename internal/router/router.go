package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// Handlers groups the handlers of one dashboard. Customer or owner handlers
// are nil on the other kind of dashboard.
type Handlers struct {
	Orders   *handler.OrderHandler
	Shops    *handler.ShopHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Owner    *handler.OwnerHandler
}

// HandlersFor builds the handlers matching the kind of dashboard.
func HandlersFor(dashboard service.Dashboard, logger zerolog.Logger) Handlers {
	h := Handlers{Orders: handler.NewOrderHandler(dashboard, logger)}
	if customer, ok := dashboard.(service.CustomerService); ok {
		h.Shops = handler.NewShopHandler(customer, logger)
		h.Cart = handler.NewCartHandler(customer, logger)
		h.Checkout = handler.NewCheckoutHandler(customer, logger)
	}
	if owner, ok := dashboard.(service.OwnerService); ok {
		h.Owner = handler.NewOwnerHandler(owner, logger)
	}
	return h
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", handler.Health)

	mux.HandleFunc("GET /api/orders", h.Orders.List)
	mux.HandleFunc("POST /api/orders/refresh", h.Orders.Refresh)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.Get)
	mux.HandleFunc("DELETE /api/orders/detail", h.Orders.CloseDetail)
	mux.HandleFunc("GET /api/notices", h.Orders.Notices)

	if h.Shops != nil {
		mux.HandleFunc("GET /api/shops", h.Shops.List)
		mux.HandleFunc("POST /api/shops/{id}/select", h.Shops.Select)
		mux.HandleFunc("GET /api/menu", h.Shops.Menu)
	}

	if h.Cart != nil {
		mux.HandleFunc("GET /api/cart", h.Cart.Get)
		mux.HandleFunc("DELETE /api/cart", h.Cart.Clear)
		mux.HandleFunc("POST /api/cart/items", h.Cart.Add)
		mux.HandleFunc("PUT /api/cart/items/{id}", h.Cart.Update)
		mux.HandleFunc("DELETE /api/cart/items/{id}", h.Cart.Remove)
	}

	if h.Checkout != nil {
		mux.HandleFunc("GET /api/checkout", h.Checkout.Status)
		mux.HandleFunc("POST /api/checkout", h.Checkout.Begin)
		mux.HandleFunc("DELETE /api/checkout", h.Checkout.Cancel)
		mux.HandleFunc("POST /api/checkout/proof", h.Checkout.UploadProof)
		mux.HandleFunc("POST /api/checkout/submit", h.Checkout.Submit)
	}

	if h.Owner != nil {
		mux.HandleFunc("PUT /api/orders/{id}/status", h.Owner.UpdateStatus)
		mux.HandleFunc("PUT /api/orders/{id}/payment-status", h.Owner.UpdatePaymentStatus)
		mux.HandleFunc("GET /api/revenue", h.Owner.Revenue)
	}

	// Apply middleware in order: Recovery -> Logging -> RequestID -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
