// Package config holds the process configuration, read from the environment
// (optionally seeded from a .env file), and the tracker's constants.
package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	// MinWindowMinutes is the smallest accepted inactivity window.
	MinWindowMinutes = 1

	// EventsChannel is the Redis Pub/Sub channel carrying message events to the lease holder.
	EventsChannel = "rollcall:events"
	// OwnerLeaseKey holds the instance ID of the process that owns the tracker.
	OwnerLeaseKey = "rollcall:owner"

	// SnapshotPushInterval is how often the websocket view pushes a snapshot.
	SnapshotPushInterval = 5 * time.Second
	// APITokenTTL is the lifetime of operator API tokens issued by the admin CLI.
	APITokenTTL = 72 * time.Hour
	// APITokenIssuer is the "iss" claim of operator API tokens.
	APITokenIssuer = "rollcall-service"

	defaultDatabaseDSN = "host=localhost user=user password=password dbname=rollcalldb port=5432 sslmode=disable"
)

// Config is the runtime configuration of the bot process.
type Config struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	HTTPAddr      string `env:"HTTP_ADDR,default=:8080"`
	DatabaseDSN   string `env:"DATABASE_DSN"`

	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6380"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWTSecret string `env:"JWT_SECRET"`

	LocalesDir      string `env:"LOCALES_DIR,default=internal/localization"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE,default=en"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL,default=0s"`
	LeaseTTL      time.Duration `env:"LEASE_TTL,default=15s"`
	InstanceID    string        `env:"INSTANCE_ID"`
}

// Load reads the configuration and validates it for the bot process.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads .env (if present) and decodes the environment into a Config
// without validating it. Tools that need only part of the settings use it.
func Read() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env is normal outside local development.
		fmt.Println("Warning: .env file not loaded")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDatabaseDSN
	}
	return &cfg, nil
}

// Validate checks invariants between settings.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if c.LeaseTTL < time.Second {
		return fmt.Errorf("LEASE_TTL must be at least 1s, got %s", c.LeaseTTL)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must not be negative, got %s", c.SweepInterval)
	}
	return nil
}

// RelayEnabled reports whether a Redis address is configured.
func (c *Config) RelayEnabled() bool {
	return c.RedisAddr != ""
}
