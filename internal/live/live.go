// Package live keeps one push subscription per dashboard and delivers order
// events to it in arrival order.
package live

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
)

// Kind names a push event.
type Kind string

const (
	KindNewOrder    Kind = "newOrder"
	KindOrderUpdate Kind = "orderUpdate"
)

// Event is one push notification.
type Event struct {
	Kind  Kind        `json:"event"`
	Order model.Order `json:"order"`
}

// Validate checks the event can be applied.
func (e Event) Validate() error {
	if e.Kind != KindNewOrder && e.Kind != KindOrderUpdate {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Order.OrderID == "" {
		return errors.New("event order has no id")
	}
	return nil
}

// Handler receives the events of a channel.
type Handler interface {
	OnNewOrder(order model.Order)
	OnOrderUpdate(order model.Order)
}

// Transport is one connection to the push source. Run blocks, calling
// deliver for each event from its own goroutine, until ctx is done or the
// connection fails.
type Transport interface {
	Name() string
	Run(ctx context.Context, deliver func(Event)) error
}

// ErrAlreadyOpen is returned by Channel.Open on an open channel.
var ErrAlreadyOpen = errors.New("live channel already open")
