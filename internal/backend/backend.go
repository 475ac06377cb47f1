package backend

import (
	"context"
	"io"

	"storefront/internal/model"
)

// CatalogAPI defines read access to shops and menus.
type CatalogAPI interface {
	// ListShops retrieves every shop.
	ListShops(ctx context.Context) ([]model.Shop, error)

	// ListMenuItems retrieves the menu of a shop.
	ListMenuItems(ctx context.Context, shopID string) ([]model.MenuItem, error)

	// GetShopPaymentDetails retrieves the payment methods a shop accepts.
	GetShopPaymentDetails(ctx context.Context, shopID string) (*model.PaymentDetails, error)
}

// ImageAPI defines the proof-image upload endpoint.
type ImageAPI interface {
	// UploadImage uploads an image and returns its public URL.
	UploadImage(ctx context.Context, filename, contentType string, data io.Reader) (string, error)
}

// CheckoutAPI defines the combined verify-and-create-order endpoint.
type CheckoutAPI interface {
	// VerifyPaymentAndCreateOrder relays the payment proof and creates the order.
	// The idempotency key identifies the pending payment across resubmissions.
	VerifyPaymentAndCreateOrder(ctx context.Context, req *model.VerifyPaymentRequest, idempotencyKey string) (*model.VerifyPaymentResponse, error)
}

// OrderAPI defines order listing and owner-side status updates.
type OrderAPI interface {
	// ListUserOrders retrieves the orders of the logged-in customer.
	ListUserOrders(ctx context.Context) ([]model.Order, error)

	// ListShopOrders retrieves the orders of the logged-in owner's shops.
	ListShopOrders(ctx context.Context) ([]model.Order, error)

	// UpdateOrderStatus requests a fulfilment status change.
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error

	// UpdatePaymentStatus requests a payment verification status change.
	UpdatePaymentStatus(ctx context.Context, orderID, paymentID string, status model.PaymentStatus) error
}

// PaymentAPI defines the owner-side payment lookups used for enrichment.
type PaymentAPI interface {
	// GetPaymentInfo retrieves the payment identifier attached to an order.
	GetPaymentInfo(ctx context.Context, orderID string) (*model.PaymentInfo, error)

	// GetPaymentRecord retrieves the payment method and verification details.
	GetPaymentRecord(ctx context.Context, paymentID string) (*model.PaymentInfo, error)
}

// AuthAPI defines token verification.
type AuthAPI interface {
	// VerifyToken checks a bearer token and returns its user.
	VerifyToken(ctx context.Context, token string) (*model.User, error)
}

// DashboardAPI defines the owner revenue report endpoints.
type DashboardAPI interface {
	// OwnerShops retrieves the shops managed by the logged-in owner.
	OwnerShops(ctx context.Context) ([]model.Shop, error)

	// ShopDashboard retrieves the revenue report of a shop.
	ShopDashboard(ctx context.Context, shopID string) (*model.ShopDashboard, error)
}

// TokenSource supplies the bearer credential of the current session.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token() string {
	return string(t)
}
