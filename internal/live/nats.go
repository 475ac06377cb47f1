package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/backend"
	"storefront/internal/model"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSTransport receives order events published on
// orders.<scope>.<id>.new and orders.<scope>.<id>.update.
type NATSTransport struct {
	url    string
	scope  model.Scope
	id     string
	tokens backend.TokenSource
	logger zerolog.Logger
}

// NewNATSTransport creates a transport for the orders of the identity id
// within scope.
func NewNATSTransport(url string, scope model.Scope, id string, tokens backend.TokenSource, logger zerolog.Logger) *NATSTransport {
	return &NATSTransport{
		url:    url,
		scope:  scope,
		id:     id,
		tokens: tokens,
		logger: logger.With().Str("component", "live-nats").Logger(),
	}
}

// Name implements Transport.
func (t *NATSTransport) Name() string {
	return "nats"
}

// Subject returns the wildcard subject the transport subscribes to.
func (t *NATSTransport) Subject() string {
	return fmt.Sprintf("orders.%s.%s.*", t.scope, t.id)
}

// Run implements Transport. The client reconnects on its own a few times;
// Run returns once the connection is closed for good.
func (t *NATSTransport) Run(ctx context.Context, deliver func(Event)) error {
	closed := make(chan struct{})
	opts := []nats.Option{
		nats.Name("storefront-dashboard"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				t.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			t.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			close(closed)
		}),
	}
	if t.tokens != nil {
		if token := t.tokens.Token(); token != "" {
			opts = append(opts, nats.Token(token))
		}
	}

	nc, err := nats.Connect(t.url, opts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", t.url, err)
	}
	defer nc.Close()

	msgs := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(t.Subject(), msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", t.Subject(), err)
	}
	defer sub.Unsubscribe()

	t.logger.Info().Str("subject", t.Subject()).Msg("NATS subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return errors.New("NATS connection closed")
		case msg := <-msgs:
			ev, err := eventFromMsg(msg.Subject, msg.Data)
			if err != nil {
				t.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("ignoring unreadable message")
				continue
			}
			deliver(ev)
		}
	}
}

// eventFromMsg maps the last subject token to the event kind. The payload is
// either a bare order or a full event envelope.
func eventFromMsg(subject string, data []byte) (Event, error) {
	var kind Kind
	switch subject[strings.LastIndexByte(subject, '.')+1:] {
	case "new":
		kind = KindNewOrder
	case "update":
		kind = KindOrderUpdate
	default:
		return Event{}, fmt.Errorf("unknown subject %q", subject)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err == nil && ev.Order.OrderID != "" {
		ev.Kind = kind
		return ev, nil
	}

	var order model.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return Event{}, fmt.Errorf("decode order: %w", err)
	}
	return Event{Kind: kind, Order: order}, nil
}
