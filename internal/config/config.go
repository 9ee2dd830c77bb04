package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Notification receiver
	WebhookURL     string
	WebhookTimeout time.Duration

	// Payment variant
	PaymentsEnabled      bool
	StripePublishableKey string
	StripeSecretKey      string
	StripeBaseURL        string
	AllowFakePayments    bool

	// Calendar export
	ShopTimezone      string
	ShopLocation      string
	CalendarUIDDomain string

	// Sessions
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		WebhookURL:     strings.TrimSpace(getEnv("BOOKING_WEBHOOK_URL", "")),
		WebhookTimeout: getEnvAsDuration("BOOKING_WEBHOOK_TIMEOUT", 15*time.Second),

		PaymentsEnabled:      getEnvAsBool("PAYMENTS_ENABLED", false),
		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeBaseURL:        getEnv("STRIPE_BASE_URL", ""),
		AllowFakePayments:    getEnvAsBool("ALLOW_FAKE_PAYMENTS", false),

		ShopTimezone:      getEnv("SHOP_TIMEZONE", "America/New_York"),
		ShopLocation:      getEnv("SHOP_LOCATION", "Empire Cuts Barbershop"),
		CalendarUIDDomain: getEnv("CALENDAR_UID_DOMAIN", "empirecuts.com"),

		SessionTTL:    getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// Validate reports configuration that the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.WebhookURL == "" {
		errs = append(errs, errors.New("BOOKING_WEBHOOK_URL is required"))
	} else if parsed, err := url.Parse(c.WebhookURL); err != nil || parsed.Host == "" ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") {
		errs = append(errs, fmt.Errorf("BOOKING_WEBHOOK_URL must be an absolute http(s) URL, got %q", c.WebhookURL))
	}
	if c.PaymentsEnabled && !c.AllowFakePayments && strings.TrimSpace(c.StripeSecretKey) == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required when PAYMENTS_ENABLED is set"))
	}
	if _, err := time.LoadLocation(c.ShopTimezone); err != nil {
		errs = append(errs, fmt.Errorf("SHOP_TIMEZONE %q: %w", c.ShopTimezone, err))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Location returns the shop time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ShopTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
