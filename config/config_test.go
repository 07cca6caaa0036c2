package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ErlanBelekov/contacts-api/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/contacts")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "local" || cfg.JWTAlgorithm != "HS256" {
		t.Errorf("env=%s alg=%s", cfg.Env, cfg.JWTAlgorithm)
	}
	if cfg.SessionCacheTTL != 15*time.Minute || cfg.EmailTokenTTL != time.Hour {
		t.Errorf("session ttl=%s email ttl=%s", cfg.SessionCacheTTL, cfg.EmailTokenTTL)
	}
	if cfg.RateLimitRequests != 3 || cfg.RateLimitWindow != 5*time.Second {
		t.Errorf("rate limit %d/%s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("level = %v", cfg.SlogLevel())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"short secret", "JWT_SECRET", "too-short"},
		{"unknown algorithm", "JWT_ALGORITHM", "RS256"},
		{"bad env", "ENV", "dev"},
		{"bcrypt cost too high", "BCRYPT_COST", "40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			if _, err := config.Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_ProductionRequiresResend(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error without RESEND_API_KEY")
	}

	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("RESEND_FROM", "noreply@example.com")
	t.Setenv("PUBLIC_BASE_URL", "https://contacts.example.com")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
}

func TestLoad_PublicBaseURLRequiredOutsideLocal(t *testing.T) {
	for _, envName := range []string{"staging", "production"} {
		t.Run(envName, func(t *testing.T) {
			setRequired(t)
			t.Setenv("ENV", envName)
			t.Setenv("RESEND_API_KEY", "re_123")
			t.Setenv("RESEND_FROM", "noreply@example.com")

			if _, err := config.Load(); err == nil {
				t.Fatal("expected error without PUBLIC_BASE_URL")
			}

			t.Setenv("PUBLIC_BASE_URL", "not a url")
			if _, err := config.Load(); err == nil {
				t.Fatal("expected error for malformed PUBLIC_BASE_URL")
			}

			t.Setenv("PUBLIC_BASE_URL", "https://contacts.example.com")
			if _, err := config.Load(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	setRequired(t)
	if _, err := config.Load(); err != nil {
		t.Fatalf("local without PUBLIC_BASE_URL: %v", err)
	}
}
