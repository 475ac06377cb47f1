package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Session   SessionConfig
	Live      LiveConfig
	Ledger    LedgerConfig
	S3        S3Config
	Telemetry TelemetryConfig
}

// ServerConfig holds the local dashboard HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"127.0.0.1"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// BackendConfig holds the remote storefront backend configuration.
type BackendConfig struct {
	BaseURL string        `env:"BACKEND_URL" envDefault:"http://localhost:5000/api"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig holds database-related configuration for the postgres
// session store.
type DatabaseConfig struct {
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"postgres"`
	Password        string `env:"DB_PASSWORD"`
	Database        string `env:"DB_NAME" envDefault:"storefront"`
	MaxConnections  int    `env:"DB_MAX_CONNECTIONS" envDefault:"5"`
	MinConnections  int    `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	MaxConnLifetime int    `env:"DB_MAX_CONN_LIFETIME" envDefault:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// APIKey protects the local dashboard API.
	APIKey string `env:"API_KEY"`
	// Token is an optional bearer token used to log in at startup when no
	// stored session exists.
	Token string `env:"BACKEND_TOKEN"`
}

// SessionConfig selects where the session survives restarts.
type SessionConfig struct {
	Store    string        `env:"SESSION_STORE" envDefault:"memory"` // memory, redis or postgres
	RedisURL string        `env:"SESSION_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	TTL      time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	Key      string        `env:"SESSION_KEY" envDefault:"default"`
}

// LiveConfig holds push channel configuration.
type LiveConfig struct {
	Transport    string        `env:"LIVE_TRANSPORT" envDefault:"websocket"` // websocket, nats or none
	URL          string        `env:"LIVE_URL" envDefault:"ws://localhost:5000/live"`
	NATSURL      string        `env:"LIVE_NATS_URL" envDefault:"nats://localhost:4222"`
	MinBackoff   time.Duration `env:"LIVE_MIN_BACKOFF" envDefault:"1s"`
	MaxBackoff   time.Duration `env:"LIVE_MAX_BACKOFF" envDefault:"30s"`
	PingInterval time.Duration `env:"LIVE_PING_INTERVAL" envDefault:"25s"`
}

// LedgerConfig holds order ledger configuration.
type LedgerConfig struct {
	// RefreshInterval is the fallback polling period of the customer view.
	RefreshInterval time.Duration `env:"LEDGER_REFRESH_INTERVAL" envDefault:"30s"`
	// OwnerRefreshInterval is zero by default: the owner view relies on push.
	OwnerRefreshInterval time.Duration `env:"LEDGER_OWNER_REFRESH_INTERVAL" envDefault:"0s"`
}

// S3Config holds AWS S3 configuration for payment screenshots.
type S3Config struct {
	Enabled bool   `env:"S3_ENABLED" envDefault:"false"`
	Bucket  string `env:"S3_BUCKET"`
	Region  string `env:"S3_REGION" envDefault:"us-east-1"`
	Prefix  string `env:"S3_PREFIX" envDefault:"screenshots/"` // Path prefix within bucket
}

// TelemetryConfig holds tracing configuration.
type TelemetryConfig struct {
	Enabled     bool   `env:"TRACING_ENABLED" envDefault:"false"`
	ServiceName string `env:"TRACING_SERVICE_NAME" envDefault:"storefront-dashboard"`
}

// Load loads configuration from a .env file (if present) and environment
// variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend URL: %q", c.Backend.BaseURL)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session redis URL is required when session store is redis")
		}
	case "postgres":
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid session store: %s (must be memory, redis, or postgres)", c.Session.Store)
	}

	switch c.Live.Transport {
	case "none":
	case "websocket":
		if c.Live.URL == "" {
			return fmt.Errorf("live URL is required when live transport is websocket")
		}
	case "nats":
		if c.Live.NATSURL == "" {
			return fmt.Errorf("live NATS URL is required when live transport is nats")
		}
	default:
		return fmt.Errorf("invalid live transport: %s (must be websocket, nats, or none)", c.Live.Transport)
	}

	if c.Live.MinBackoff <= 0 || c.Live.MaxBackoff < c.Live.MinBackoff {
		return fmt.Errorf("live backoff must satisfy 0 < min <= max")
	}

	if c.Ledger.RefreshInterval < 0 || c.Ledger.OwnerRefreshInterval < 0 {
		return fmt.Errorf("ledger refresh intervals cannot be negative")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
