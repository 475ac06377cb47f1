// Package ledger keeps the reconciled, de-duplicated view of the orders the
// current identity can see.
package ledger

import (
	"context"
	"sort"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/telemetry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Fetcher lists the orders in scope for an identity.
type Fetcher interface {
	FetchOrders(ctx context.Context) ([]model.Order, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]model.Order, error)

// FetchOrders calls f.
func (f FetcherFunc) FetchOrders(ctx context.Context) ([]model.Order, error) {
	return f(ctx)
}

// CustomerOrders fetches the orders a customer placed.
func CustomerOrders(api backend.OrderAPI) Fetcher {
	return FetcherFunc(api.ListUserOrders)
}

// ShopOrders fetches the orders of the shops an owner manages.
func ShopOrders(api backend.OrderAPI) Fetcher {
	return FetcherFunc(api.ListShopOrders)
}

// Ledger holds orders newest first, unique by order id. Pull (LoadInitial)
// and push (MergeInsert, ApplyUpdate) go through the same replace-by-id
// path, so replaying a snapshot leaves the ledger unchanged.
type Ledger struct {
	fetcher  Fetcher
	enricher *Enricher
	logger   zerolog.Logger

	mu       sync.RWMutex
	orders   []model.Order
	loaded   bool
	detailID string
	detail   *model.Order

	// loadSeq numbers LoadInitial calls; appliedSeq is the newest one whose
	// snapshot is in orders.
	loadSeq    uint64
	appliedSeq uint64
}

// New creates an empty ledger. enricher may be nil; the owner view passes
// one to attach payment info after every load.
func New(fetcher Fetcher, enricher *Enricher, logger zerolog.Logger) *Ledger {
	return &Ledger{
		fetcher:  fetcher,
		enricher: enricher,
		logger:   logger.With().Str("component", "ledger").Logger(),
	}
}

// LoadInitial fetches every order in scope and replaces the ledger
// wholesale. On failure the previous content is kept. A load that finishes
// after a later-started one has been applied is discarded.
func (l *Ledger) LoadInitial(ctx context.Context) error {
	ctx, span := telemetry.Tracer("ledger").Start(ctx, "ledger.load")
	defer span.End()

	l.mu.Lock()
	l.loadSeq++
	seq := l.loadSeq
	l.mu.Unlock()

	orders, err := l.fetcher.FetchOrders(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		l.logger.Error().Err(err).Msg("failed to fetch orders")
		return model.NewFetchError("orders", err)
	}

	if l.enricher != nil {
		orders = l.enricher.Enrich(ctx, orders)
	}

	fresh := make([]model.Order, len(orders))
	for i := range orders {
		fresh[i] = orders[i].Clone()
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.After(fresh[j].CreatedAt)
	})
	fresh = dedupe(fresh)

	l.mu.Lock()
	if seq < l.appliedSeq {
		l.mu.Unlock()
		span.SetAttributes(attribute.Bool("stale", true))
		l.logger.Debug().Uint64("load", seq).Msg("discarding stale order snapshot")
		return nil
	}
	l.appliedSeq = seq
	l.orders = fresh
	l.loaded = true
	if l.detailID != "" {
		if i := l.indexOf(l.detailID); i >= 0 {
			l.setDetailLocked(l.orders[i])
		}
	}
	l.mu.Unlock()

	span.SetAttributes(attribute.Int("orders", len(fresh)))
	l.logger.Debug().Int("orders", len(fresh)).Msg("orders loaded")
	return nil
}

// MergeInsert prepends an order with a new id or replaces the stored record
// of a known one. It reports whether the order was new.
func (l *Ledger) MergeInsert(order model.Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexOf(order.OrderID); i >= 0 {
		l.replaceLocked(i, order)
		return false
	}

	o := order.Clone()
	l.orders = append([]model.Order{o}, l.orders...)
	if l.detailID == o.OrderID {
		l.setDetailLocked(o)
	}

	l.logger.Debug().Str("order_id", o.OrderID).Msg("order inserted")
	return true
}

// ApplyUpdate replaces the stored record of a known order and reports
// whether it did. Updates for unknown ids are dropped; the next LoadInitial
// picks those orders up.
func (l *Ledger) ApplyUpdate(order model.Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(order.OrderID)
	if i < 0 {
		l.logger.Debug().Str("order_id", order.OrderID).Msg("dropping update for unknown order")
		return false
	}
	l.replaceLocked(i, order)
	return true
}

// SetPaymentInfo attaches enrichment to a known order without touching its
// server fields.
func (l *Ledger) SetPaymentInfo(orderID string, info *model.PaymentInfo) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(orderID)
	if i < 0 {
		return false
	}
	if info == nil {
		l.orders[i].PaymentInfo = nil
	} else {
		pi := info.Clone()
		l.orders[i].PaymentInfo = &pi
	}
	if l.detailID == orderID {
		l.setDetailLocked(l.orders[i])
	}
	return true
}

// Orders returns a copy of the ledger, newest first.
func (l *Ledger) Orders() []model.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Order, len(l.orders))
	for i := range l.orders {
		out[i] = l.orders[i].Clone()
	}
	return out
}

// Get returns a copy of one order.
func (l *Ledger) Get(orderID string) (model.Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.indexOf(orderID); i >= 0 {
		return l.orders[i].Clone(), true
	}
	return model.Order{}, false
}

// Len returns the number of orders.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.orders)
}

// Loaded reports whether a LoadInitial has succeeded.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.loaded
}

// OpenDetail opens the detail view of an order. The open copy follows every
// later update of that order.
func (l *Ledger) OpenDetail(orderID string) (model.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(orderID)
	if i < 0 {
		return model.Order{}, model.ErrOrderNotFound
	}
	l.detailID = orderID
	l.setDetailLocked(l.orders[i])
	return l.detail.Clone(), nil
}

// CloseDetail closes the detail view.
func (l *Ledger) CloseDetail() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.detailID = ""
	l.detail = nil
}

// Detail returns the order shown in the detail view, if one is open.
func (l *Ledger) Detail() (model.Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.detail == nil {
		return model.Order{}, false
	}
	return l.detail.Clone(), true
}

// replaceLocked swaps in order at i. Payment info is client-side
// enrichment, so an incoming record without it keeps the stored one.
func (l *Ledger) replaceLocked(i int, order model.Order) {
	o := order.Clone()
	if o.PaymentInfo == nil && l.orders[i].PaymentInfo != nil {
		o.PaymentInfo = l.orders[i].PaymentInfo
	}
	l.orders[i] = o
	if l.detailID == o.OrderID {
		l.setDetailLocked(o)
	}

	l.logger.Debug().
		Str("order_id", o.OrderID).
		Str("status", string(o.Status)).
		Str("payment_status", string(o.PaymentStatus)).
		Msg("order replaced")
}

func (l *Ledger) setDetailLocked(o model.Order) {
	d := o.Clone()
	l.detail = &d
}

func (l *Ledger) indexOf(orderID string) int {
	for i := range l.orders {
		if l.orders[i].OrderID == orderID {
			return i
		}
	}
	return -1
}

// dedupe keeps the first record of each order id.
func dedupe(orders []model.Order) []model.Order {
	seen := make(map[string]struct{}, len(orders))
	out := orders[:0]
	for _, o := range orders {
		if _, ok := seen[o.OrderID]; ok {
			continue
		}
		seen[o.OrderID] = struct{}{}
		out = append(out, o)
	}
	return out
}
