package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all process configuration, loaded from the environment.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"clearsky.db"`
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret    string `env:"JWT_SECRET,required"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"12"`

	LighthousePath string        `env:"LIGHTHOUSE_PATH" envDefault:"lighthouse"`
	ChromePath     string        `env:"CHROME_PATH"`
	AuditTimeout   time.Duration `env:"AUDIT_TIMEOUT" envDefault:"120s"`

	TelnyxAPIKey       string `env:"TELNYX_API_KEY"`
	TelnyxConnectionID string `env:"TELNYX_CONNECTION_ID"`
	TelnyxSyncUserID   int64  `env:"TELNYX_SYNC_USER_ID"`
}

// Load parses configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cfg.BcryptCost)
	}
	if cfg.AuditTimeout <= 0 {
		return nil, fmt.Errorf("AUDIT_TIMEOUT must be positive, got %s", cfg.AuditTimeout)
	}

	return cfg, nil
}
