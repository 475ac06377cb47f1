// Package service wires the catalog, cart, checkout, ledger and live channel
// into one dashboard per logged-in identity.
package service

import (
	"context"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/proof"
)

// Dashboard is the lifetime and order view shared by both identities.
type Dashboard interface {
	// Open loads the orders, subscribes to pushes and starts the refresher.
	Open(ctx context.Context) error

	// Close tears the dashboard down. No order changes after it returns.
	Close()

	// Scope returns whose orders the dashboard shows.
	Scope() model.Scope

	// Orders returns the ledger, newest first.
	Orders() []model.Order

	// RefreshOrders reloads the ledger from the backend.
	RefreshOrders(ctx context.Context) error

	// OpenOrder opens the detail view of an order.
	OpenOrder(orderID string) (model.Order, error)

	// CloseOrder closes the detail view.
	CloseOrder()

	// Notices returns the notices published after the given id.
	Notices(after uint64) []Notice
}

// ShopView is the selected shop with its menu and payment methods.
type ShopView struct {
	Shop           model.Shop            `json:"shop"`
	Items          []model.MenuItem      `json:"items"`
	PaymentDetails *model.PaymentDetails `json:"payment_details"`
}

// CustomerService defines the customer dashboard.
type CustomerService interface {
	Dashboard

	// Shops lists the shops a customer can order from.
	Shops(ctx context.Context) ([]model.Shop, error)

	// SelectShop loads a shop's menu and payment methods.
	SelectShop(ctx context.Context, shopID string) (*ShopView, error)

	// Menu returns the selected shop.
	Menu() (*ShopView, error)

	// Cart returns the current cart.
	Cart() cart.Snapshot

	// AddToCart adds one unit of a menu item of the selected shop.
	AddToCart(itemID string) (cart.Snapshot, error)

	// UpdateCartItem sets a line quantity; below one removes the line.
	UpdateCartItem(itemID string, quantity int) cart.Snapshot

	// RemoveCartItem removes a line.
	RemoveCartItem(itemID string) cart.Snapshot

	// ClearCart empties the cart.
	ClearCart() cart.Snapshot

	// BeginCheckout starts paying for the cart with the given method.
	BeginCheckout(ctx context.Context, method model.PaymentMethodType) (checkout.Status, error)

	// UploadProof uploads the screenshot stored under ref.
	UploadProof(ctx context.Context, ref string) (checkout.Status, error)

	// UploadProofImage uploads a screenshot sent by the front end.
	UploadProofImage(ctx context.Context, img *proof.Image) (checkout.Status, error)

	// SubmitOrder verifies the payment and creates the order.
	SubmitOrder(ctx context.Context) (*model.Order, error)

	// CancelCheckout abandons the checkout.
	CancelCheckout() (checkout.Status, error)

	// CheckoutStatus returns the checkout state.
	CheckoutStatus() checkout.Status
}

// OwnerService defines the shop owner dashboard.
type OwnerService interface {
	Dashboard

	// UpdateOrderStatus asks the backend to move an order to status.
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error

	// UpdatePaymentStatus asks the backend to mark an order's payment.
	UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error

	// Revenue returns the revenue report of the owner's first shop.
	Revenue(ctx context.Context) (*model.ShopDashboard, error)
}
