package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresStore keeps sessions in the dashboard_sessions table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	ttl    time.Duration
	logger zerolog.Logger
}

// NewPostgresStore creates a store on an existing pool. The table is created
// by database.Migrate.
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		ttl:    ttl,
		logger: logger.With().Str("component", "postgres-session-store").Logger(),
	}
}

func (p *PostgresStore) Load(ctx context.Context, key string) (*Session, error) {
	query := `
		SELECT token, user_data, base_url, created_at
		FROM dashboard_sessions
		WHERE session_key = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`

	var (
		s        Session
		userData []byte
	)
	err := p.pool.QueryRow(ctx, query, key).Scan(&s.Token, &userData, &s.BaseURL, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		p.logger.Error().Err(err).Str("session_key", key).Msg("failed to load session")
		return nil, fmt.Errorf("failed to load session %s: %w", key, err)
	}

	if err := json.Unmarshal(userData, &s.User); err != nil {
		p.logger.Warn().Err(err).Str("session_key", key).Msg("discarding unreadable session")
		return nil, ErrNotFound
	}

	return &s, nil
}

func (p *PostgresStore) Save(ctx context.Context, key string, s *Session) error {
	userData, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}

	var expiresAt *time.Time
	if p.ttl > 0 {
		t := time.Now().Add(p.ttl)
		expiresAt = &t
	}

	query := `
		INSERT INTO dashboard_sessions (session_key, token, user_data, base_url, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_key) DO UPDATE
		SET token = EXCLUDED.token,
			user_data = EXCLUDED.user_data,
			base_url = EXCLUDED.base_url,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err = p.pool.Exec(ctx, query, key, s.Token, userData, s.BaseURL, s.CreatedAt, expiresAt)
	if err != nil {
		p.logger.Error().Err(err).Str("session_key", key).Msg("failed to save session")
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}

	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM dashboard_sessions WHERE session_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", key, err)
	}
	return nil
}
