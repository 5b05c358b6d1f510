package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/deptdocs/revisor/internal/schedule"
)

func (c *Config) validate() error {
	return errors.Join(
		c.validateDatabase(),
		c.validateNetwork(),
		c.validateCORS(),
		c.validateLogging(),
		c.validateDispatch(),
		c.validateRetention(),
	)
}

func (c *Config) validateDatabase() error {
	switch c.StoreBackend {
	case BackendMemory:
		if c.DatabaseURL.Value() != "" {
			return fmt.Errorf("DATABASE_URL must be empty when STORE_BACKEND is memory")
		}

		return nil
	case BackendPostgres:
		if c.BootstrapAdminKey.Value() != "" {
			return fmt.Errorf("BOOTSTRAP_ADMIN_KEY is only supported with STORE_BACKEND=memory")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be 'postgres' or 'memory', got %q", c.StoreBackend)
	}

	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		sslmode := dbURL.Query().Get("sslmode")
		if sslmode == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local deployments; 0.0.0.0/:: for containers whose
	// network boundary is enforced externally.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got %q", c.LogFormat)
	}

	return nil
}

func (c *Config) validateDispatch() error {
	if c.DispatchMode != DispatchSync && c.DispatchMode != DispatchAsync {
		return fmt.Errorf("DISPATCH_MODE must be 'sync' or 'async', got %q", c.DispatchMode)
	}

	if !strings.HasPrefix(c.PublicPathPrefix, "/") && !strings.HasPrefix(c.PublicPathPrefix, "http") {
		return fmt.Errorf("PUBLIC_PATH_PREFIX must be an absolute path or URL, got %q", c.PublicPathPrefix)
	}

	return nil
}

func (c *Config) validateRetention() error {
	if err := schedule.ValidateSpec(c.RetentionSchedule); err != nil {
		return fmt.Errorf("RETENTION_SCHEDULE: %w", err)
	}

	return nil
}
