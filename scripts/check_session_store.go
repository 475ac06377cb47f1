package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// Checks that the configured session store is reachable and reports the
// session stored under SESSION_KEY.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger := zerolog.Nop()

	var store session.Store
	switch cfg.Session.Store {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()

		var dbName string
		if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
			fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully connected to database: %s\n", dbName)
		store = session.NewPostgresStore(pool, cfg.Session.TTL, logger)

	case "redis":
		rs, err := session.NewRedisStoreFromURL(ctx, cfg.Session.RedisURL, cfg.Session.TTL, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to redis: %v\n", err)
			os.Exit(1)
		}
		defer rs.Close()
		fmt.Println("Successfully connected to redis")
		store = rs

	default:
		fmt.Println("Session store is in memory; nothing survives a restart")
		return
	}

	s, err := store.Load(ctx, cfg.Session.Key)
	switch {
	case errors.Is(err, session.ErrNotFound):
		fmt.Printf("No session stored under %q\n", cfg.Session.Key)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
		os.Exit(1)
	default:
		fmt.Printf("Session for %s (%s, scope %s) created %s\n",
			s.User.Name, s.User.ID, s.Scope(), s.CreatedAt.Format(time.RFC3339))
	}
}
