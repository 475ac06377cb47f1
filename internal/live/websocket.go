package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"storefront/internal/backend"
	"storefront/internal/model"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// WebSocketTransport receives JSON events over a websocket connection.
type WebSocketTransport struct {
	url          string
	scope        model.Scope
	tokens       backend.TokenSource
	pingInterval time.Duration
	dialer       *websocket.Dialer
	logger       zerolog.Logger
}

// NewWebSocketTransport creates a transport dialling rawURL for the given
// order scope. A ping is written every pingInterval; a peer that stays silent
// for two intervals is treated as gone.
func NewWebSocketTransport(rawURL string, scope model.Scope, tokens backend.TokenSource, pingInterval time.Duration, logger zerolog.Logger) *WebSocketTransport {
	return &WebSocketTransport{
		url:          rawURL,
		scope:        scope,
		tokens:       tokens,
		pingInterval: pingInterval,
		dialer:       websocket.DefaultDialer,
		logger:       logger.With().Str("component", "live-websocket").Logger(),
	}
}

// Name implements Transport.
func (t *WebSocketTransport) Name() string {
	return "websocket"
}

func (t *WebSocketTransport) endpoint() (string, error) {
	u, err := url.Parse(t.url)
	if err != nil {
		return "", fmt.Errorf("invalid live URL %q: %w", t.url, err)
	}
	q := u.Query()
	q.Set("scope", string(t.scope))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run implements Transport.
func (t *WebSocketTransport) Run(ctx context.Context, deliver func(Event)) error {
	endpoint, err := t.endpoint()
	if err != nil {
		return err
	}

	header := http.Header{}
	if t.tokens != nil {
		if token := t.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: status %d: %w", t.url, resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", t.url, err)
	}
	t.logger.Info().Str("scope", string(t.scope)).Msg("websocket connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		conn.Close()
	}()

	if t.pingInterval > 0 {
		deadline := 2 * t.pingInterval
		conn.SetReadDeadline(time.Now().Add(deadline))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(deadline))
		})
		go t.ping(conn, stop)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("server closed the connection")
			}
			return fmt.Errorf("read: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.logger.Warn().Err(err).Msg("ignoring unreadable frame")
			continue
		}
		deliver(ev)
	}
}

func (t *WebSocketTransport) ping(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				t.logger.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
