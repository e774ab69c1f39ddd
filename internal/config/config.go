package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	RedisURL string

	JWTSecret string

	ResendAPIKey string
	FromEmail    string

	// NotificationPollInterval is the cadence clients are told to poll
	// unread counts at. Delivery is pull-based; there is no push channel.
	NotificationPollInterval time.Duration

	// RateLimitSubmit throttles request submission per user.
	RateLimitSubmit time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@alumniportal.local"),
	}

	var err error
	cfg.NotificationPollInterval, err = parseDuration(getEnv("NOTIFICATION_POLL_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_POLL_INTERVAL: %w", err)
	}
	cfg.RateLimitSubmit, err = parseDuration(getEnv("RATE_LIMIT_SUBMIT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SUBMIT: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
