package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/backend"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Manager owns the current session. It implements backend.TokenSource so the
// backend client always sends the token of the live session.
type Manager struct {
	auth    backend.AuthAPI
	store   Store
	key     string
	baseURL string
	logger  zerolog.Logger

	mu      sync.RWMutex
	current *Session
}

var _ backend.TokenSource = (*Manager)(nil)

// NewManager creates a manager persisting under key in store.
func NewManager(auth backend.AuthAPI, store Store, key, baseURL string, logger zerolog.Logger) *Manager {
	return &Manager{
		auth:    auth,
		store:   store,
		key:     key,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// Restore loads the stored session and re-verifies its token. A token the
// backend refuses is cleared and reported as model.ErrNotAuthenticated; a
// transport failure keeps the stored session for the next attempt.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	stored, err := m.store.Load(ctx, m.key)
	if errors.Is(err, ErrNotFound) {
		return nil, model.ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}

	user, err := m.auth.VerifyToken(ctx, stored.Token)
	if err != nil {
		var se *backend.StatusError
		if !errors.As(err, &se) {
			m.logger.Warn().Err(err).Msg("token verification unavailable, keeping stored session")
			return nil, model.NewFetchError("session", err)
		}
		m.logger.Info().Err(err).Msg("stored token refused, clearing session")
		m.clear(ctx)
		return nil, model.ErrNotAuthenticated
	}

	stored.User = *user
	m.set(stored)

	m.logger.Info().
		Str("user_id", user.ID).
		Str("scope", string(user.Scope())).
		Msg("session restored")

	return m.Current(), nil
}

// Login verifies token, persists the resulting session and makes it current.
// On failure every trace of a previous session is removed.
func (m *Manager) Login(ctx context.Context, token string) (*Session, error) {
	user, err := m.auth.VerifyToken(ctx, token)
	if err != nil {
		m.clear(ctx)
		return nil, fmt.Errorf("login failed: %w", err)
	}

	s := &Session{
		Token:     token,
		User:      *user,
		BaseURL:   m.baseURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Save(ctx, m.key, s); err != nil {
		return nil, err
	}
	m.set(s)

	m.logger.Info().
		Str("user_id", user.ID).
		Str("scope", string(user.Scope())).
		Msg("logged in")

	return m.Current(), nil
}

// Logout forgets the current session everywhere.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Delete(ctx, m.key); err != nil {
		return err
	}
	m.logger.Info().Msg("logged out")
	return nil
}

// Current returns a copy of the current session, or nil.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// Token returns the bearer token of the current session, or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return ""
	}
	return m.current.Token
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Delete(ctx, m.key); err != nil {
		m.logger.Warn().Err(err).Msg("failed to delete stored session")
	}
}
