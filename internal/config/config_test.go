package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/portfolio_test")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "development" {
		t.Fatalf("Env = %q", cfg.Env)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.RateLimitDefault != 60 || cfg.RateLimitAuth != 5 {
		t.Fatalf("rate limits = %d/%d", cfg.RateLimitDefault, cfg.RateLimitAuth)
	}
	if cfg.CookieSecure() {
		t.Fatal("cookies must not require Secure outside production")
	}
}

func TestLoadSubstitutesDevSecret(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/portfolio_test")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UsingDevSecret() {
		t.Fatal("expected the development secret to be substituted")
	}
	if cfg.JWTSecret == "" {
		t.Fatal("JWTSecret must never be empty after Load")
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/portfolio_test")
	t.Setenv("APP_ENV", "production")

	_, err := Load(context.Background())
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v, want ErrMissingSecret", err)
	}
}

func TestLoadProductionWithSecret(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/portfolio_test")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UsingDevSecret() {
		t.Fatal("configured secret reported as dev secret")
	}
	if !cfg.CookieSecure() {
		t.Fatal("production cookies must carry Secure")
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected an error when DB_DSN is unset")
	}
}
