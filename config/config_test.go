package config

import (
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	if got := getEnv("TEST_STRING", "default"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := getEnv("TEST_STRING_MISSING", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}

	t.Setenv("TEST_DURATION", "30")
	if got := getDurationEnv("TEST_DURATION", time.Hour); got != 30*time.Minute {
		t.Fatalf("expected 30m, got %s", got)
	}
	t.Setenv("TEST_DURATION_BAD", "not-a-number")
	if got := getDurationEnv("TEST_DURATION_BAD", time.Hour); got != time.Hour {
		t.Fatalf("expected fallback 1h, got %s", got)
	}

	t.Setenv("TEST_INT", "3")
	if got := getIntEnv("TEST_INT", 7); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := getIntEnv("TEST_INT_MISSING", 7); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/auth")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MYSQL_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when MYSQL_DSN is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/auth")
	t.Setenv("APP_ENV", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !cfg.IsDevelopment() {
		t.Fatal("expected development environment by default")
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m access token TTL, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d refresh token TTL, got %s", cfg.RefreshTokenTTL)
	}
	if cfg.ConfirmTokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h confirm token TTL, got %s", cfg.ConfirmTokenTTL)
	}
	if cfg.ResetTokenTTL != time.Hour {
		t.Fatalf("expected 1h reset token TTL, got %s", cfg.ResetTokenTTL)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}
}
