package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DATABASE_SSL", "NOTIFY_QUEUE", "EMAIL_PROVIDER", "CORS_ALLOWED_ORIGINS", "NOTIFY_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if !cfg.DatabaseSSL {
		t.Fatalf("expected database ssl enabled by default")
	}
	if cfg.NotifyQueue != "memory" {
		t.Fatalf("expected memory notify queue, got %s", cfg.NotifyQueue)
	}
	if cfg.EmailProvider != "auto" {
		t.Fatalf("expected auto email provider, got %s", cfg.EmailProvider)
	}
	if cfg.NotifyTimeout != 20*time.Second {
		t.Fatalf("expected default notify timeout, got %s", cfg.NotifyTimeout)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", " postgres://user@host/db ")
	t.Setenv("DATABASE_SSL", "false")
	t.Setenv("DATABASE_MAX_CONNS", "25")
	t.Setenv("EMAIL_PROVIDER", " SES ")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	t.Setenv("NOTIFY_QUEUE", "Redis")
	t.Setenv("NOTIFY_TIMEOUT", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected trimmed db override, got %q", cfg.DatabaseURL)
	}
	if cfg.DatabaseSSL {
		t.Fatalf("expected database ssl disabled")
	}
	if cfg.DatabaseMaxConns != 25 {
		t.Fatalf("expected max conns override, got %d", cfg.DatabaseMaxConns)
	}
	if cfg.EmailProvider != "ses" {
		t.Fatalf("expected ses provider, got %q", cfg.EmailProvider)
	}
	if cfg.AdminEmail != "ops@example.com" {
		t.Fatalf("expected admin email override, got %s", cfg.AdminEmail)
	}
	if cfg.NotifyQueue != "redis" {
		t.Fatalf("expected redis queue, got %s", cfg.NotifyQueue)
	}
	if cfg.NotifyTimeout != 45*time.Second {
		t.Fatalf("expected notify timeout override, got %s", cfg.NotifyTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingDatabaseURL) {
		t.Fatalf("expected ErrMissingDatabaseURL, got %v", err)
	}
	cfg.DatabaseURL = "postgres://localhost/leads"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
