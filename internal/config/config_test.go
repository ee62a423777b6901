package config_test

import (
	"testing"
	"time"

	"chatdeck/services/inbox-sync/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServiceName != "inbox-sync" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.HTTPPort != 8084 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.PollInterval != 2500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.SessionWindow != 24*time.Hour {
		t.Errorf("SessionWindow = %v", cfg.SessionWindow)
	}
	if cfg.Addr() != ":8084" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_AuthValidation(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_ISSUER", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load() expected error when auth is enabled without issuer")
	}

	t.Setenv("AUTH_ISSUER", "https://issuer.example.com")
	t.Setenv("AUTH_AUDIENCE", "inbox-sync")
	t.Setenv("AUTH_JWKS_URL", "https://issuer.example.com/jwks")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.AuthEnabled {
		t.Error("AuthEnabled = false")
	}
}

func TestLoad_NonPositiveDurationsFallBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "0s")
	t.Setenv("SESSION_WINDOW", "0s")
	t.Setenv("STREAM_TIMEOUT", "0s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PollInterval != 2500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.SessionWindow != 24*time.Hour {
		t.Errorf("SessionWindow = %v", cfg.SessionWindow)
	}
	if cfg.StreamTimeout != 120*time.Second {
		t.Errorf("StreamTimeout = %v", cfg.StreamTimeout)
	}
}
