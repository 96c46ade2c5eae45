package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the client-wide settings. It is read from the environment
// once at process start and treated as immutable afterwards.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://api.example.com". The
	// versioned API root is appended by the API client.
	BaseURL string `env:"TRADEKIT_BASE_URL,required,notEmpty"`

	// RequestTimeout is the default per-call deadline. Individual calls may
	// override it with their own context deadline.
	RequestTimeout time.Duration `env:"TRADEKIT_REQUEST_TIMEOUT" envDefault:"15s"`

	// StorePath is where the encrypted credential store lives.
	StorePath string `env:"TRADEKIT_STORE_PATH" envDefault:"tradekit.db"`

	// StorePassphrase seals secrets at rest. Required: an unencrypted
	// credential store is not an option.
	StorePassphrase string `env:"TRADEKIT_STORE_PASSPHRASE,required,notEmpty"`

	LogLevel string `env:"TRADEKIT_LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("TRADEKIT_REQUEST_TIMEOUT must be positive")
	}
	return cfg, nil
}
