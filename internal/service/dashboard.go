package service

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/ledger"
	"storefront/internal/live"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

const noticeCapacity = 50

// dashboard is the mounted lifetime shared by both identities: a ledger,
// its refresher and the live channel feeding it.
type dashboard struct {
	scope     model.Scope
	ledger    *ledger.Ledger
	refresher *ledger.Refresher
	channel   *live.Channel
	notices   *Notices
	logger    zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newDashboard(scope model.Scope, l *ledger.Ledger, refresher *ledger.Refresher, channel *live.Channel, logger zerolog.Logger) *dashboard {
	return &dashboard{
		scope:     scope,
		ledger:    l,
		refresher: refresher,
		channel:   channel,
		notices:   NewNotices(noticeCapacity),
		logger:    logger,
	}
}

// open mounts the dashboard. A failed initial load is reported as a notice
// and the push channel and refresher still start.
func (d *dashboard) open(ctx context.Context, h live.Handler) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return live.ErrAlreadyOpen
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	runCtx := d.ctx
	d.mu.Unlock()

	if err := d.ledger.LoadInitial(runCtx); err != nil {
		d.logger.Warn().Err(err).Msg("initial order load failed")
		d.notices.Publish(LevelError, "Failed to load orders")
	}

	// Close, and even a newer Open, may have run during the load.
	d.mu.Lock()
	current := d.ctx == runCtx
	if !current || runCtx.Err() != nil {
		d.mu.Unlock()
		if current {
			d.close()
		}
		return fmt.Errorf("dashboard closed while opening: %w", context.Canceled)
	}
	if d.channel != nil {
		if err := d.channel.Open(runCtx, h); err != nil {
			d.mu.Unlock()
			d.close()
			return err
		}
	}
	d.mu.Unlock()

	if d.refresher != nil {
		d.spawn(d.refresher.Run)
	}

	d.logger.Info().Str("scope", string(d.scope)).Int("orders", d.ledger.Len()).Msg("dashboard opened")
	return nil
}

// close unmounts the dashboard and waits for every goroutine it started.
func (d *dashboard) close() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel, d.ctx = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if d.channel != nil {
		d.channel.Close()
	}
	d.wg.Wait()

	d.logger.Info().Str("scope", string(d.scope)).Msg("dashboard closed")
}

// spawn runs fn in the background for as long as the dashboard is open.
// It does nothing on a closed dashboard.
func (d *dashboard) spawn(fn func(ctx context.Context)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel == nil {
		return false
	}
	ctx := d.ctx
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(ctx)
	}()
	return true
}

// Scope implements Dashboard.
func (d *dashboard) Scope() model.Scope {
	return d.scope
}

// Orders implements Dashboard.
func (d *dashboard) Orders() []model.Order {
	return d.ledger.Orders()
}

// RefreshOrders implements Dashboard.
func (d *dashboard) RefreshOrders(ctx context.Context) error {
	return d.ledger.LoadInitial(ctx)
}

// OpenOrder implements Dashboard.
func (d *dashboard) OpenOrder(orderID string) (model.Order, error) {
	return d.ledger.OpenDetail(orderID)
}

// CloseOrder implements Dashboard.
func (d *dashboard) CloseOrder() {
	d.ledger.CloseDetail()
}

// Notices implements Dashboard.
func (d *dashboard) Notices(after uint64) []Notice {
	return d.notices.Since(after)
}
