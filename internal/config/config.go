// Package config provides environment-driven configuration for revisor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Dispatch modes.
const (
	DispatchSync  = "sync"
	DispatchAsync = "async"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	StoreBackend string
	DatabaseURL  Secret
	DBMaxConns   int
	Port         string
	ListenHost   string
	CORSOrigins  []string
	LogLevel     string
	LogFormat    string

	DispatchMode      string
	DispatchQueueSize int

	DirectoryCacheSize int
	DirectoryCacheTTL  time.Duration

	AuditRetentionDays        int
	NotificationRetentionDays int
	RetentionSchedule         string

	PublicPathPrefix  string
	BootstrapAdminKey Secret
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend:      envOrDefault("STORE_BACKEND", BackendPostgres),
		DatabaseURL:       Secret(envOrDefault("DATABASE_URL", "")),
		Port:              envOrDefault("PORT", "3040"),
		ListenHost:        envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		DispatchMode:      envOrDefault("DISPATCH_MODE", DispatchSync),
		RetentionSchedule: envOrDefault("RETENTION_SCHEDULE", "0 3 * * *"),
		PublicPathPrefix:  envOrDefault("PUBLIC_PATH_PREFIX", "/content"),
		BootstrapAdminKey: Secret(envOrDefault("BOOTSTRAP_ADMIN_KEY", "")),
	}

	var err error

	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", 21, 2, 200); err != nil {
		return nil, err
	}

	if cfg.DispatchQueueSize, err = envInt("DISPATCH_QUEUE_SIZE", 1000, 1, 1_000_000); err != nil {
		return nil, err
	}

	if cfg.DirectoryCacheSize, err = envInt("DIRECTORY_CACHE_SIZE", 1024, 1, 1_000_000); err != nil {
		return nil, err
	}

	if cfg.AuditRetentionDays, err = envInt("AUDIT_RETENTION_DAYS", 90, 1, 36500); err != nil {
		return nil, err
	}

	if cfg.NotificationRetentionDays, err = envInt("NOTIFICATION_RETENTION_DAYS", 30, 1, 36500); err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(envOrDefault("DIRECTORY_CACHE_TTL", "5m"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("DIRECTORY_CACHE_TTL must be a positive duration")
	}
	cfg.DirectoryCacheTTL = ttl

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// UsesPostgres reports whether the configured backend needs a database.
func (c *Config) UsesPostgres() bool {
	return c.StoreBackend == BackendPostgres
}

func envInt(key string, fallback, lo, hi int) (int, error) {
	v, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(fallback)))
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}

	return v, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
