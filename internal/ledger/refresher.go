package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Refresher reloads a ledger on a fixed interval as a fallback to the push
// channel.
type Refresher struct {
	ledger   *Ledger
	interval time.Duration
	logger   zerolog.Logger
}

// NewRefresher creates a refresher. A non-positive interval disables it.
func NewRefresher(ledger *Ledger, interval time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		ledger:   ledger,
		interval: interval,
		logger:   logger.With().Str("component", "ledger-refresher").Logger(),
	}
}

// Run reloads the ledger every interval until ctx is done. Failures are
// logged and the next tick tries again.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug().Dur("interval", r.interval).Msg("refresher started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug().Msg("refresher stopped")
			return
		case <-ticker.C:
			if err := r.ledger.LoadInitial(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn().Err(err).Msg("periodic order refresh failed")
			}
		}
	}
}
