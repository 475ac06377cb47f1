// Package session holds the identity the dashboard acts for and persists it
// across restarts.
package session

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"
)

// ErrNotFound is returned by a Store that holds no session for a key.
var ErrNotFound = errors.New("session not found")

// Session is the authenticated context passed down to every backend call.
type Session struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	BaseURL   string     `json:"base_url"`
	CreatedAt time.Time  `json:"created_at"`
}

// Scope returns the order scope of the session's user.
func (s *Session) Scope() model.Scope {
	return s.User.Scope()
}

// Store persists sessions by key.
type Store interface {
	// Load returns ErrNotFound when key holds no live session.
	Load(ctx context.Context, key string) (*Session, error)
	Save(ctx context.Context, key string, s *Session) error
	Delete(ctx context.Context, key string) error
}
