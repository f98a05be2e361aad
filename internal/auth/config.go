// Package auth handles admin sign-in: magic links, passkeys, DB-backed
// sessions, API keys for the CLI, and the request guards built on them.
package auth

import (
	"os"
	"strings"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/email"
)

const defaultCacheTTL = 30 * time.Second

// Config holds server configuration read from TA_* environment variables.
type Config struct {
	AdminEmail string
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	DevMode    bool
	BaseURL    string // e.g. http://localhost:8080

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
	BlobDir       string
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		AdminEmail:    os.Getenv("TA_ADMIN_EMAIL"),
		SMTPHost:      os.Getenv("TA_SMTP_HOST"),
		SMTPPort:      envOrDefault("TA_SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("TA_SMTP_USER"),
		SMTPPass:      os.Getenv("TA_SMTP_PASS"),
		SMTPFrom:      os.Getenv("TA_SMTP_FROM"),
		DevMode:       os.Getenv("TA_DEV_MODE") == "true",
		BaseURL:       strings.TrimRight(envOrDefault("TA_BASE_URL", "http://localhost:8080"), "/"),
		RedisAddr:     os.Getenv("TA_REDIS_ADDR"),
		RedisPassword: os.Getenv("TA_REDIS_PASSWORD"),
		CacheTTL:      durationOrDefault("TA_CACHE_TTL", defaultCacheTTL),
		BlobDir:       os.Getenv("TA_BLOB_DIR"),
	}
}

// SMTP returns the outgoing mail settings.
func (c Config) SMTP() email.SMTPConfig {
	return email.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Pass:     c.SMTPPass,
		From:     c.SMTPFrom,
		FromName: "Tenant Assessment",
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
