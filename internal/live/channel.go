package live

import (
	"context"
	"sync"
	"time"

	"storefront/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Channel owns the push subscription of one dashboard. At most one
// subscription goroutine runs at a time; after Close returns no event is
// delivered.
type Channel struct {
	transport  Transport
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewChannel creates a closed channel. Failed connections are retried with
// exponential backoff between minBackoff and maxBackoff.
func NewChannel(transport Transport, minBackoff, maxBackoff time.Duration, logger zerolog.Logger) *Channel {
	return &Channel{
		transport:  transport,
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
		logger: logger.With().
			Str("component", "live-channel").
			Str("transport", transport.Name()).
			Logger(),
	}
}

// Open starts the subscription and delivers its events to h until Close or
// until ctx is done.
func (c *Channel) Open(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return ErrAlreadyOpen
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		c.run(runCtx, h)

		// run only returns early when the parent ctx ended; release the
		// slot unless Close already did.
		c.mu.Lock()
		if c.done == done {
			c.cancel, c.done = nil, nil
			cancel()
		}
		c.mu.Unlock()
	}()

	c.logger.Info().Msg("live channel opened")
	return nil
}

// Close stops the subscription and waits for it to finish. It is safe to
// call at any time, any number of times.
func (c *Channel) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	c.logger.Info().Msg("live channel closed")
}

// IsOpen reports whether a subscription is running.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cancel != nil
}

func (c *Channel) run(ctx context.Context, h Handler) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.minBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	deliver := func(ev Event) {
		if ctx.Err() != nil {
			return
		}
		if err := ev.Validate(); err != nil {
			c.logger.Warn().Err(err).Msg("ignoring malformed event")
			return
		}
		c.dispatch(h, ev)
	}

	for {
		start := time.Now()
		err := c.transport.Run(ctx, deliver)
		if ctx.Err() != nil {
			return
		}

		// A connection that stayed up for a while starts the backoff over.
		if time.Since(start) > c.maxBackoff {
			b.Reset()
		}
		wait := b.NextBackOff()

		c.logger.Warn().
			Err(model.NewChannelError(err)).
			Dur("retry_in", wait).
			Msg("live channel disconnected")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (c *Channel) dispatch(h Handler, ev Event) {
	c.logger.Debug().
		Str("event", string(ev.Kind)).
		Str("order_id", ev.Order.OrderID).
		Str("status", string(ev.Order.Status)).
		Msg("event received")

	switch ev.Kind {
	case KindNewOrder:
		h.OnNewOrder(ev.Order)
	case KindOrderUpdate:
		h.OnOrderUpdate(ev.Order)
	}
}
