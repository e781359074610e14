// Package server provides configuration helpers that define runtime defaults
// and environment-variable loading for the chat relay.
package server

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
)

// Config holds the server configuration settings including security controls.
// AllowedOrigins is a comma-separated list; "*" allows every origin.
type Config struct {
	Port            string        `env:"SERVER_PORT,default=:8080"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST,default=10"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW,default=1s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// NewConfig returns a Config populated with default values for all settings.
func NewConfig() Config {
	cfg := Config{}
	cfg.sanitize()
	return cfg
}

// LoadConfig builds a Config from environment variables, falling back to the
// defaults declared on the struct tags.
func LoadConfig() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.sanitize()
	return cfg, nil
}

// sanitize replaces zero or negative values with safe defaults so configs
// constructed directly (e.g. in tests) behave like loaded ones.
func (c *Config) sanitize() {
	if c.Port == "" {
		c.Port = ":8080"
	}
	if c.AllowedOrigins == "" {
		c.AllowedOrigins = "http://localhost:8080"
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 10
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Origins returns the configured origin list with whitespace trimmed and
// empty entries removed.
func (c Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
