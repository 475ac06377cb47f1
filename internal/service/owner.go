package service

import (
	"context"
	"fmt"

	"storefront/internal/backend"
	"storefront/internal/ledger"
	"storefront/internal/live"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// ownerDashboard implements OwnerService.
type ownerDashboard struct {
	*dashboard
	orders   backend.OrderAPI
	reports  backend.DashboardAPI
	enricher *ledger.Enricher
}

// NewOwnerDashboard creates a shop owner dashboard. The ledger should be
// built with enricher so every load attaches payment info.
func NewOwnerDashboard(
	orders backend.OrderAPI,
	reports backend.DashboardAPI,
	l *ledger.Ledger,
	enricher *ledger.Enricher,
	refresher *ledger.Refresher,
	channel *live.Channel,
	logger zerolog.Logger,
) OwnerService {
	return &ownerDashboard{
		dashboard: newDashboard(model.ScopeOwner, l, refresher, channel,
			logger.With().Str("service", "owner").Logger()),
		orders:   orders,
		reports:  reports,
		enricher: enricher,
	}
}

// Open implements Dashboard.
func (d *ownerDashboard) Open(ctx context.Context) error {
	return d.open(ctx, d)
}

// Close implements Dashboard.
func (d *ownerDashboard) Close() {
	d.close()
}

// OnNewOrder implements live.Handler. The order shows at once; its payment
// info follows when the lookup finishes.
func (d *ownerDashboard) OnNewOrder(order model.Order) {
	if !d.ledger.MergeInsert(order) {
		return
	}
	d.notices.Publish(LevelInfo, "New order received")

	if d.enricher == nil || order.PaymentInfo != nil {
		return
	}
	orderID := order.OrderID
	d.spawn(func(ctx context.Context) {
		info, err := d.enricher.Lookup(ctx, orderID)
		if err != nil || ctx.Err() != nil {
			return
		}
		d.ledger.SetPaymentInfo(orderID, info)
	})
}

// OnOrderUpdate implements live.Handler.
func (d *ownerDashboard) OnOrderUpdate(order model.Order) {
	d.ledger.ApplyUpdate(order)
}

// UpdateOrderStatus implements OwnerService. The ledger changes only when
// the backend pushes the updated order or on the next refresh.
func (d *ownerDashboard) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if !status.Valid() {
		return model.ErrInvalidStatus
	}
	if _, ok := d.ledger.Get(orderID); !ok {
		return model.ErrOrderNotFound
	}

	if err := d.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		d.logger.Error().Err(err).Str("order_id", orderID).Str("status", string(status)).Msg("failed to update order status")
		d.notices.Publish(LevelError, "Failed to update order status")
		return model.NewUpdateError("order status", err)
	}

	d.logger.Info().Str("order_id", orderID).Str("status", string(status)).Msg("order status update requested")
	d.notices.Publish(LevelSuccess, fmt.Sprintf("Order %s marked %s", orderID, status))
	return nil
}

// UpdatePaymentStatus implements OwnerService. It needs the payment id from
// enrichment.
func (d *ownerDashboard) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	if !status.Valid() {
		return model.ErrInvalidStatus
	}
	order, ok := d.ledger.Get(orderID)
	if !ok {
		return model.ErrOrderNotFound
	}
	if order.PaymentInfo == nil || order.PaymentInfo.PaymentID == "" {
		return model.ErrNoPaymentInfo
	}

	paymentID := order.PaymentInfo.PaymentID
	if err := d.orders.UpdatePaymentStatus(ctx, orderID, paymentID, status); err != nil {
		d.logger.Error().Err(err).Str("order_id", orderID).Str("payment_id", paymentID).Msg("failed to update payment status")
		d.notices.Publish(LevelError, "Failed to update payment status")
		return model.NewUpdateError("payment status", err)
	}

	d.logger.Info().Str("order_id", orderID).Str("status", string(status)).Msg("payment status update requested")
	d.notices.Publish(LevelSuccess, fmt.Sprintf("Payment for order %s marked %s", orderID, status))
	return nil
}

// Revenue implements OwnerService.
func (d *ownerDashboard) Revenue(ctx context.Context) (*model.ShopDashboard, error) {
	shops, err := d.reports.OwnerShops(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to fetch owner shops")
		return nil, model.NewFetchError("owner shops", err)
	}
	if len(shops) == 0 {
		return nil, model.ErrNoShops
	}

	report, err := d.reports.ShopDashboard(ctx, shops[0].ID)
	if err != nil {
		d.logger.Error().Err(err).Str("shop_id", shops[0].ID).Msg("failed to fetch shop dashboard")
		return nil, model.NewFetchError("shop dashboard", err)
	}
	return report, nil
}
