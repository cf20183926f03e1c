package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration, loaded from the
// environment
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"3000"`

	// Database: in-memory by default, Postgres when a DSN is set
	UseMemoryDB bool   `env:"USE_MEMORY_DB" envDefault:"true"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`

	// Second factor. OTPExpiry bounds how long a login challenge
	// stays answerable.
	OTPEnabled bool          `env:"OTP_ENABLED" envDefault:"true"`
	OTPExpiry  time.Duration `env:"OTP_EXPIRY" envDefault:"5m"`

	// Invitations expire after this window; expired invitations are
	// terminal and never produce a membership.
	InvitationExpiry time.Duration `env:"INVITATION_EXPIRY" envDefault:"336h"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load parses the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.PostgresDSN = strings.TrimSpace(cfg.PostgresDSN)
	if cfg.PostgresDSN != "" {
		cfg.UseMemoryDB = false
	}

	if cfg.IsProduction() {
		cfg.Debug = false
	}

	return cfg, nil
}

// Validate checks the configuration for fatal misconfiguration
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.JWTSecret == "" || c.JWTSecret == "your-secret-key-change-in-production" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	if !c.UseMemoryDB && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when USE_MEMORY_DB is false")
	}

	if c.IsProduction() && c.UseMemoryDB {
		return fmt.Errorf("production requires POSTGRES_DSN; the in-memory database loses all data on restart")
	}

	return nil
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
