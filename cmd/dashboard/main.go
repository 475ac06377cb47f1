package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/ledger"
	"storefront/internal/live"
	"storefront/internal/model"
	"storefront/internal/proof"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/telemetry"

	"github.com/rs/zerolog"
)

const writeTimeoutMargin = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront dashboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialise tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	store, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// The auth client carries no token source: VerifyToken sends the token
	// being checked explicitly.
	authClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, nil, logger)
	sessions := session.NewManager(authClient, store, cfg.Session.Key, cfg.Backend.BaseURL, logger)

	sess, err := startSession(ctx, sessions, cfg.Auth.Token, logger)
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, sessions, logger)

	channel, err := newChannel(cfg.Live, sess, sessions, logger)
	if err != nil {
		return err
	}

	dashboard := newDashboard(ctx, cfg, sess.Scope(), client, channel, logger)
	if err := dashboard.Open(ctx); err != nil {
		return fmt.Errorf("failed to open dashboard: %w", err)
	}
	defer dashboard.Close()

	mux := router.New(router.HandlersFor(dashboard, logger), cfg.Auth.APIKey, logger)

	server := newServer(cfg, mux)

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("scope", string(sess.Scope())).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newServer builds the local API server. Handlers wait on the backend, so
// the write deadline leaves room for a full backend call.
func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + writeTimeoutMargin,
		IdleTimeout:  60 * time.Second,
	}
}

// newSessionStore builds the configured session store and the function that
// releases it.
func newSessionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case "redis":
		store, err := session.NewRedisStoreFromURL(ctx, cfg.Session.RedisURL, cfg.Session.TTL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise redis session store: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close redis session store")
			}
		}, nil

	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate session schema: %w", err)
		}
		return session.NewPostgresStore(pool, cfg.Session.TTL, logger), pool.Close, nil

	default:
		logger.Info().Msg("using in-memory session store, sessions will not survive restarts")
		return session.NewMemoryStore(), func() {}, nil
	}
}

// startSession restores the stored session, falling back to a login with
// token when nothing usable is stored.
func startSession(ctx context.Context, sessions *session.Manager, token string, logger zerolog.Logger) (*session.Session, error) {
	sess, err := sessions.Restore(ctx)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, model.ErrNotAuthenticated) {
		logger.Warn().Err(err).Msg("failed to restore session")
	}
	if token == "" {
		return nil, fmt.Errorf("no stored session and BACKEND_TOKEN is not set: %w", err)
	}

	sess, err = sessions.Login(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	return sess, nil
}

// newChannel builds the push channel for the configured transport. It
// returns nil when push is disabled.
func newChannel(cfg config.LiveConfig, sess *session.Session, tokens backend.TokenSource, logger zerolog.Logger) (*live.Channel, error) {
	var transport live.Transport
	switch cfg.Transport {
	case "websocket":
		transport = live.NewWebSocketTransport(cfg.URL, sess.Scope(), tokens, cfg.PingInterval, logger)
	case "nats":
		transport = live.NewNATSTransport(cfg.NATSURL, sess.Scope(), sess.User.ID, tokens, logger)
	case "none":
		logger.Info().Msg("live updates disabled, relying on periodic refresh")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown live transport %q", cfg.Transport)
	}
	return live.NewChannel(transport, cfg.MinBackoff, cfg.MaxBackoff, logger), nil
}

// newDashboard assembles the customer or owner dashboard for scope.
func newDashboard(
	ctx context.Context,
	cfg *config.Config,
	scope model.Scope,
	client *backend.Client,
	channel *live.Channel,
	logger zerolog.Logger,
) service.Dashboard {
	if scope == model.ScopeOwner {
		enricher := ledger.NewEnricher(client, logger)
		orders := ledger.New(ledger.ShopOrders(client), enricher, logger)
		refresher := ledger.NewRefresher(orders, cfg.Ledger.OwnerRefreshInterval, logger)
		return service.NewOwnerDashboard(client, client, orders, enricher, refresher, channel, logger)
	}

	handoff := checkout.New(client, client, newProofSource(ctx, cfg.S3, logger), logger)
	orders := ledger.New(ledger.CustomerOrders(client), nil, logger)
	refresher := ledger.NewRefresher(orders, cfg.Ledger.RefreshInterval, logger)
	return service.NewCustomerDashboard(
		catalog.New(client, logger),
		cart.New(logger),
		handoff,
		orders,
		refresher,
		channel,
		logger,
	)
}

// newProofSource reads payment screenshots from S3 when enabled, with the
// local file system as fallback.
func newProofSource(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) proof.Source {
	fileSource := proof.NewFileSource(logger)
	if !cfg.Enabled {
		logger.Info().Msg("using local file system for payment screenshots (S3 disabled)")
		return fileSource
	}

	s3Source, err := proof.NewS3Source(ctx, cfg.Bucket, cfg.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 source, falling back to local file system only")
		return fileSource
	}
	return proof.NewFallbackSource(s3Source, fileSource, cfg.Prefix, true, logger)
}
