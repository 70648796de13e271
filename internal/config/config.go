package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	// Route gateway credentials. All three are required at startup so a
	// misconfigured deployment fails before it accepts traffic.
	GatewayKeyID         string
	GatewayKeySecret     string
	GatewayWebhookSecret string
	GatewayBaseURL       string
	GatewayTimeout       time.Duration

	// PlatformFeePercent is the default commission retained on split orders
	// when a request does not carry its own fee.
	PlatformFeePercent int64

	// SandboxAccountID, when set, substitutes for a missing recipient account
	// on split orders. Refused in production: a placeholder recipient in a
	// live configuration would silently misroute funds.
	SandboxAccountID string

	WebhookReplayTTL time.Duration
	IdempotencyTTL   time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:               valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                 valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:             k.String("REDIS_URL"),
		CORSAllowedOrigins:   splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		GatewayKeyID:         strings.TrimSpace(k.String("GATEWAY_KEY_ID")),
		GatewayKeySecret:     strings.TrimSpace(k.String("GATEWAY_KEY_SECRET")),
		GatewayWebhookSecret: strings.TrimSpace(k.String("GATEWAY_WEBHOOK_SECRET")),
		GatewayBaseURL:       valueOrDefault(k.String("GATEWAY_BASE_URL"), "https://api.razorpay.com"),
		GatewayTimeout:       parseDuration(k.String("GATEWAY_TIMEOUT"), "10s"),
		PlatformFeePercent:   int64(k.Int("PLATFORM_FEE_PERCENT")),
		SandboxAccountID:     strings.TrimSpace(k.String("GATEWAY_SANDBOX_ACCOUNT")),
		WebhookReplayTTL:     parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "24h"),
		IdempotencyTTL:       parseDuration(k.String("IDEMPOTENCY_TTL"), "15m"),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.GatewayKeyID == "" {
		return nil, errors.New("GATEWAY_KEY_ID is required")
	}
	if cfg.GatewayKeySecret == "" {
		return nil, errors.New("GATEWAY_KEY_SECRET is required")
	}
	if cfg.GatewayWebhookSecret == "" {
		return nil, errors.New("GATEWAY_WEBHOOK_SECRET is required")
	}
	if cfg.PlatformFeePercent < 0 || cfg.PlatformFeePercent > 100 {
		return nil, fmt.Errorf("PLATFORM_FEE_PERCENT must be within [0,100], got %d", cfg.PlatformFeePercent)
	}
	if cfg.SandboxAccountID != "" && cfg.IsProduction() {
		return nil, errors.New("GATEWAY_SANDBOX_ACCOUNT must not be set when APP_ENV=production")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in a production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
