package auth

import (
	"testing"
	"time"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"TA_ADMIN_EMAIL", "TA_SMTP_PORT", "TA_BASE_URL", "TA_DEV_MODE", "TA_CACHE_TTL", "TA_REDIS_ADDR"} {
		t.Setenv(k, "")
	}

	cfg := ConfigFromEnv()
	if cfg.SMTPPort != "587" {
		t.Errorf("SMTPPort = %q, want 587", cfg.SMTPPort)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DevMode {
		t.Error("DevMode should default to false")
	}
	if cfg.CacheTTL != defaultCacheTTL {
		t.Errorf("CacheTTL = %v, want %v", cfg.CacheTTL, defaultCacheTTL)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TA_ADMIN_EMAIL", "boss@example.com")
	t.Setenv("TA_BASE_URL", "https://ta.example.com/")
	t.Setenv("TA_DEV_MODE", "true")
	t.Setenv("TA_CACHE_TTL", "2m")
	t.Setenv("TA_REDIS_ADDR", "localhost:6379")
	t.Setenv("TA_SMTP_HOST", "smtp.example.com")
	t.Setenv("TA_SMTP_FROM", "noreply@example.com")

	cfg := ConfigFromEnv()
	if cfg.AdminEmail != "boss@example.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
	if cfg.BaseURL != "https://ta.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if !cfg.DevMode {
		t.Error("DevMode = false")
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if !cfg.SMTP().IsConfigured() {
		t.Error("SMTP should be configured")
	}
}

func TestConfigBadTTL(t *testing.T) {
	t.Setenv("TA_CACHE_TTL", "soon")
	if got := ConfigFromEnv().CacheTTL; got != defaultCacheTTL {
		t.Errorf("CacheTTL = %v, want default", got)
	}
}
