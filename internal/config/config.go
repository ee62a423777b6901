package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the inbox-sync
// service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"inbox-sync"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8084"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	PlatformAPIURL string        `env:"PLATFORM_API_URL" envDefault:"http://localhost:8080"`
	StreamTimeout  time.Duration `env:"STREAM_TIMEOUT" envDefault:"120s"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"2500ms"`
	SessionWindow  time.Duration `env:"SESSION_WINDOW" envDefault:"24h"`
	CapabilityTTL  time.Duration `env:"CAPABILITY_TTL" envDefault:"30s"`

	AuthEnabled     bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer      string `env:"AUTH_ISSUER"`
	AuthAudience    string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL     string `env:"AUTH_JWKS_URL"`
	DefaultCanWrite bool   `env:"DEFAULT_CAN_WRITE" envDefault:"true"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthAudience) == "" {
			return nil, fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2500 * time.Millisecond
	}

	if cfg.SessionWindow <= 0 {
		cfg.SessionWindow = 24 * time.Hour
	}

	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = 120 * time.Second
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
