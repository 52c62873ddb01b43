package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application. It is built once
// at startup and handed to constructors; nothing reads the environment
// after Load returns.
type Config struct {
	Port          string
	Env           string
	WebhookSecret string
	DatabaseURL   string
	RedisURL      string
	LogLevel      zerolog.Level

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	WebhookRateLimit   int      // webhook requests per IP per minute
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// A missing WEBHOOK_SECRET is not fatal: the service starts but never
// reports ready and rejects every webhook.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		Env:              getEnv("ENV", "development"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		DatabaseURL:      getEnv("DATABASE_URL", "sqlite:////data/app.db"),
		RedisURL:         os.Getenv("REDIS_URL"),
		LogLevel:         parseLevel(getEnv("LOG_LEVEL", "info")),
		WebhookRateLimit: getEnvInt("WEBHOOK_RATE_LIMIT", 600),
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// SecretConfigured reports whether a webhook secret is set.
func (c *Config) SecretConfigured() bool {
	return c.WebhookSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

// parseLevel accepts zerolog names in any case ("INFO", "debug").
// "WARNING" is accepted as an alias for warn.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}
