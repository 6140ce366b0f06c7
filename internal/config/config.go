// Package config loads application configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	// HTTP server configuration.
	HTTP HTTPConfig

	// DatabaseURL is the Postgres DSN used for users, products, orders, and
	// refresh rotation state.
	DatabaseURL string `env:"DATABASE_URL"`

	// Redis configuration for the revocation blacklist.
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Auth holds the signing secret and token lifetimes.
	Auth AuthConfig
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":3000"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// CORSOrigins are the allowed browser origins, comma separated.
	CORSOrigins []string `env:"CORS_ORIGIN" envSeparator:"," envDefault:"http://localhost:4200"`
}

// RedisConfig configures the blacklist store client.
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// AuthConfig configures the session core.
type AuthConfig struct {
	// Secret signs every issued token. Required, minimum 32 bytes.
	Secret string `env:"JWT_SECRET"`
	// Issuer is stamped into and checked on every token when set.
	Issuer string `env:"JWT_ISSUER" envDefault:"coffeeshop"`

	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Load reads .env if present, then parses the environment. It fails fast on
// missing required settings so a misconfigured deployment never serves.
func Load() (*Config, error) {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies guardrails to the parsed values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.Auth.Secret) < 32 {
		return errors.New("JWT_SECRET is required and must be at least 32 bytes")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Auth.AccessTTL >= c.Auth.RefreshTTL {
		return errors.New("access token lifetime must be shorter than refresh lifetime")
	}
	return nil
}
