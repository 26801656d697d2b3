// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvProduction is the APP_ENV value that enables production checks.
const EnvProduction = "production"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the minimum zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// SupabaseURL is the base URL of the hosted backend project (e.g. https://xyz.supabase.co).
	SupabaseURL string `mapstructure:"SUPABASE_URL"`
	// SupabaseAnonKey is the public anon key sent as apikey on every auth request.
	SupabaseAnonKey string `mapstructure:"SUPABASE_ANON_KEY"`
	// DatabaseURL is the Postgres DSN of the backend database.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// RedisAddr is the Redis address for the session store. Empty selects the in-memory store.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// SessionCookieName is the name of the cookie that carries the opaque session id.
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`
	// SessionTTL is the absolute session lifetime (e.g. "24h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// SessionRefreshWindow is how long before access-token expiry a refresh is attempted (e.g. "60s").
	SessionRefreshWindow string `mapstructure:"SESSION_REFRESH_WINDOW"`
	// CookieSecure forces the Secure attribute on cookies. Always true in production.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`

	// BackendTimeout bounds every call to the auth provider and database (e.g. "5s").
	BackendTimeout string `mapstructure:"BACKEND_TIMEOUT"`
	// ProfileFetchTimeout bounds the auth-state observer's profile fetch (e.g. "2s").
	ProfileFetchTimeout string `mapstructure:"PROFILE_FETCH_TIMEOUT"`

	// TrustedProxies is a comma-separated list of proxy IPs or CIDRs whose X-Forwarded-For
	// header is believed. Empty trusts none.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_ANON_KEY", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_COOKIE_NAME", "cp_session")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_REFRESH_WINDOW", "60s")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("BACKEND_TIMEOUT", "5s")
	v.SetDefault("PROFILE_FETCH_TIMEOUT", "2s")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "church-portal")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.SessionCookieName == "" {
		return nil, errors.New("config: SESSION_COOKIE_NAME must be set")
	}
	for _, d := range []struct{ key, value string }{
		{"SESSION_TTL", cfg.SessionTTL},
		{"SESSION_REFRESH_WINDOW", cfg.SessionRefreshWindow},
		{"BACKEND_TIMEOUT", cfg.BackendTimeout},
		{"PROFILE_FETCH_TIMEOUT", cfg.ProfileFetchTimeout},
	} {
		if dur, err := time.ParseDuration(d.value); err != nil || dur <= 0 {
			return nil, fmt.Errorf("config: %s must be a positive duration (e.g. 5s), got %q", d.key, d.value)
		}
	}

	if cfg.IsProduction() {
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, errors.New("config: SUPABASE_URL and SUPABASE_ANON_KEY must be set when APP_ENV=production")
		}
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when APP_ENV=production")
		}
		cfg.CookieSecure = true
	}

	return &cfg, nil
}

// TrustedProxyList splits TrustedProxies on commas, dropping blanks.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == EnvProduction
}

// SessionLifetime parses SessionTTL. Load rejects invalid values; the 24h fallback covers
// a Config built by hand.
func (c *Config) SessionLifetime() time.Duration {
	return parsePositive(c.SessionTTL, 24*time.Hour)
}

// RefreshWindow parses SessionRefreshWindow. Returns 60s if unset or invalid.
func (c *Config) RefreshWindow() time.Duration {
	return parsePositive(c.SessionRefreshWindow, 60*time.Second)
}

// BackendCallTimeout parses BackendTimeout. Returns 5s if unset or invalid.
func (c *Config) BackendCallTimeout() time.Duration {
	return parsePositive(c.BackendTimeout, 5*time.Second)
}

// ProfileTimeout parses ProfileFetchTimeout. Returns 2s if unset or invalid.
func (c *Config) ProfileTimeout() time.Duration {
	return parsePositive(c.ProfileFetchTimeout, 2*time.Second)
}

func parsePositive(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
