package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PAYMENTS_ENABLED", "")
	t.Setenv("SHOP_TIMEZONE", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.PaymentsEnabled {
		t.Fatalf("expected payments disabled by default")
	}
	if cfg.ShopTimezone != "America/New_York" {
		t.Fatalf("expected default timezone, got %s", cfg.ShopTimezone)
	}
	if cfg.ShopLocation != "Empire Cuts Barbershop" {
		t.Fatalf("expected default location, got %s", cfg.ShopLocation)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected default session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.WebhookTimeout != 15*time.Second {
		t.Fatalf("expected default webhook timeout, got %s", cfg.WebhookTimeout)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("BOOKING_WEBHOOK_URL", "https://hooks.example.com/booking")
	t.Setenv("BOOKING_WEBHOOK_TIMEOUT", "3s")
	t.Setenv("PAYMENTS_ENABLED", "true")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "7")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.WebhookURL != "https://hooks.example.com/booking" {
		t.Fatalf("expected webhook override, got %s", cfg.WebhookURL)
	}
	if cfg.WebhookTimeout != 3*time.Second {
		t.Fatalf("expected webhook timeout override, got %s", cfg.WebhookTimeout)
	}
	if !cfg.PaymentsEnabled {
		t.Fatalf("expected payments enabled")
	}
	if cfg.SessionTTL != 45*time.Minute {
		t.Fatalf("expected session ttl override, got %s", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 7 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			WebhookURL:   "https://hooks.example.com/booking",
			ShopTimezone: "UTC",
			SessionTTL:   time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing webhook", mutate: func(c *Config) { c.WebhookURL = "" }, wantErr: "BOOKING_WEBHOOK_URL is required"},
		{name: "relative webhook", mutate: func(c *Config) { c.WebhookURL = "/hook" }, wantErr: "absolute http(s) URL"},
		{name: "payments without key", mutate: func(c *Config) { c.PaymentsEnabled = true }, wantErr: "STRIPE_SECRET_KEY"},
		{name: "fake payments without key", mutate: func(c *Config) { c.PaymentsEnabled = true; c.AllowFakePayments = true }},
		{name: "bad timezone", mutate: func(c *Config) { c.ShopTimezone = "Mars/Olympus" }, wantErr: "SHOP_TIMEZONE"},
		{name: "zero ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: "SESSION_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{ShopTimezone: "Nowhere/Invalid"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
}
