// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server needs, populated from PAYBACK_*
// environment variables.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string `default:":8080"`

	// DBPath is the SQLite database location.
	DBPath string `split_words:"true" default:"./data/payback.db"`

	// JWTSecret signs session and invite tokens. Required.
	JWTSecret string `split_words:"true" required:"true"`

	// TokenTTL is how long session tokens stay valid.
	TokenTTL time.Duration `split_words:"true" default:"24h"`

	// InviteTTL is how long invite links stay valid.
	InviteTTL time.Duration `split_words:"true" default:"168h"`

	// ReconcileCooldown throttles friend-roster reconciliation.
	ReconcileCooldown time.Duration `split_words:"true" default:"5m"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `split_words:"true" default:"info"`

	// RequestsPerMinute caps each client IP on the API.
	RequestsPerMinute int `split_words:"true" default:"120"`
}

// Load reads configuration from PAYBACK_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("payback", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
