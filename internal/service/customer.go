package service

import (
	"context"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/ledger"
	"storefront/internal/live"
	"storefront/internal/model"
	"storefront/internal/proof"

	"github.com/rs/zerolog"
)

// customerDashboard implements CustomerService.
type customerDashboard struct {
	*dashboard
	catalog  *catalog.Cache
	cart     *cart.Cart
	checkout *checkout.Handoff
}

// NewCustomerDashboard creates a customer dashboard. channel may be nil when
// push updates are disabled; the refresher then keeps the ledger current.
func NewCustomerDashboard(
	cat *catalog.Cache,
	c *cart.Cart,
	handoff *checkout.Handoff,
	l *ledger.Ledger,
	refresher *ledger.Refresher,
	channel *live.Channel,
	logger zerolog.Logger,
) CustomerService {
	d := &customerDashboard{
		dashboard: newDashboard(model.ScopeCustomer, l, refresher, channel,
			logger.With().Str("service", "customer").Logger()),
		catalog:  cat,
		cart:     c,
		checkout: handoff,
	}
	handoff.OnComplete(d.orderPlaced)
	return d
}

// Open implements Dashboard.
func (d *customerDashboard) Open(ctx context.Context) error {
	return d.open(ctx, d)
}

// Close implements Dashboard.
func (d *customerDashboard) Close() {
	d.close()
}

// OnNewOrder implements live.Handler.
func (d *customerDashboard) OnNewOrder(order model.Order) {
	d.ledger.MergeInsert(order)
}

// OnOrderUpdate implements live.Handler.
func (d *customerDashboard) OnOrderUpdate(order model.Order) {
	if d.ledger.ApplyUpdate(order) {
		d.notices.Publish(LevelInfo, fmt.Sprintf("Order %s is now %s", order.OrderID, order.Status))
	}
}

// orderPlaced puts a new order in the ledger, empties the cart and reloads
// the ledger in the background.
func (d *customerDashboard) orderPlaced(order model.Order) {
	d.ledger.MergeInsert(order)
	d.cart.Clear()
	d.notices.Publish(LevelSuccess, "Order placed successfully")

	d.spawn(func(ctx context.Context) {
		if err := d.ledger.LoadInitial(ctx); err != nil && ctx.Err() == nil {
			d.logger.Warn().Err(err).Str("order_id", order.OrderID).Msg("refresh after order failed")
		}
	})
}

// Shops implements CustomerService.
func (d *customerDashboard) Shops(ctx context.Context) ([]model.Shop, error) {
	return d.catalog.Shops(ctx)
}

// SelectShop implements CustomerService. A shop whose payment methods could
// not be loaded is still selected; checkout then fails until it is reselected.
func (d *customerDashboard) SelectShop(ctx context.Context, shopID string) (*ShopView, error) {
	if err := d.catalog.SelectShop(ctx, shopID); err != nil {
		selected, ok := d.catalog.SelectedShop()
		if !ok || selected.ID != shopID {
			return nil, err
		}
		d.notices.Publish(LevelWarning, "Payment methods for this shop are unavailable")
	}
	return d.Menu()
}

// Menu implements CustomerService.
func (d *customerDashboard) Menu() (*ShopView, error) {
	shop, ok := d.catalog.SelectedShop()
	if !ok {
		return nil, model.ErrNoShopSelected
	}
	return &ShopView{
		Shop:           shop,
		Items:          d.catalog.Menu(),
		PaymentDetails: d.catalog.PaymentDetails(),
	}, nil
}

// Cart implements CustomerService.
func (d *customerDashboard) Cart() cart.Snapshot {
	return d.cart.Snapshot()
}

// AddToCart implements CustomerService.
func (d *customerDashboard) AddToCart(itemID string) (cart.Snapshot, error) {
	if _, ok := d.catalog.SelectedShop(); !ok {
		return d.cart.Snapshot(), model.ErrNoShopSelected
	}
	item, ok := d.catalog.Item(itemID)
	if !ok {
		return d.cart.Snapshot(), model.ErrItemNotFound
	}
	if err := d.cart.AddItem(item); err != nil {
		return d.cart.Snapshot(), err
	}
	return d.cart.Snapshot(), nil
}

// UpdateCartItem implements CustomerService.
func (d *customerDashboard) UpdateCartItem(itemID string, quantity int) cart.Snapshot {
	d.cart.UpdateQuantity(itemID, quantity)
	return d.cart.Snapshot()
}

// RemoveCartItem implements CustomerService.
func (d *customerDashboard) RemoveCartItem(itemID string) cart.Snapshot {
	d.cart.RemoveItem(itemID)
	return d.cart.Snapshot()
}

// ClearCart implements CustomerService.
func (d *customerDashboard) ClearCart() cart.Snapshot {
	d.cart.Clear()
	return d.cart.Snapshot()
}

// BeginCheckout implements CustomerService. The payment methods are those of
// the shop the cart belongs to, loading it when another shop is selected.
func (d *customerDashboard) BeginCheckout(ctx context.Context, method model.PaymentMethodType) (checkout.Status, error) {
	snap := d.cart.Snapshot()
	if snap.IsEmpty() {
		return d.checkout.Status(), model.ErrEmptyCart
	}

	if selected, ok := d.catalog.SelectedShop(); !ok || selected.ID != snap.ShopID {
		if err := d.catalog.SelectShop(ctx, snap.ShopID); err != nil {
			return d.checkout.Status(), err
		}
	}

	if err := d.checkout.Begin(snap, d.catalog.PaymentDetails(), method); err != nil {
		return d.checkout.Status(), err
	}
	return d.checkout.Status(), nil
}

// UploadProof implements CustomerService.
func (d *customerDashboard) UploadProof(ctx context.Context, ref string) (checkout.Status, error) {
	err := d.checkout.UploadProof(ctx, ref)
	return d.checkout.Status(), err
}

// UploadProofImage implements CustomerService.
func (d *customerDashboard) UploadProofImage(ctx context.Context, img *proof.Image) (checkout.Status, error) {
	err := d.checkout.UploadImage(ctx, img)
	return d.checkout.Status(), err
}

// SubmitOrder implements CustomerService.
func (d *customerDashboard) SubmitOrder(ctx context.Context) (*model.Order, error) {
	order, err := d.checkout.Submit(ctx)
	if err != nil {
		if !model.IsValidation(err) {
			d.notices.Publish(LevelError, "Payment verification failed, please try again")
		}
		return nil, err
	}
	return order, nil
}

// CancelCheckout implements CustomerService.
func (d *customerDashboard) CancelCheckout() (checkout.Status, error) {
	err := d.checkout.Cancel()
	return d.checkout.Status(), err
}

// CheckoutStatus implements CustomerService.
func (d *customerDashboard) CheckoutStatus() checkout.Status {
	return d.checkout.Status()
}
