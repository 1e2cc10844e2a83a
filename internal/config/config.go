package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the pantry service
// Environment variables are automatically parsed from PANTRY_ prefix
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration; empty path resolves to the per-user data dir
	SQLitePath string `envconfig:"SQLITE_PATH" default:""`

	// Spanner Configuration
	SpannerProject  string `envconfig:"SPANNER_PROJECT" default:""`
	SpannerInstance string `envconfig:"SPANNER_INSTANCE" default:""`
	SpannerDatabase string `envconfig:"SPANNER_DATABASE" default:""`

	// Auth Configuration. DevMode swaps the static key table for the
	// hardcoded local development keys.
	DevMode bool   `envconfig:"DEV_MODE" default:"false"`
	APIKeys string `envconfig:"API_KEYS" default:""`

	// Expiry window applied when a report request does not name one
	ExpiringDefaultDays int `envconfig:"EXPIRING_DEFAULT_DAYS" default:"7"`

	// Health Configuration
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`

	// Bootstrap Configuration
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev":
		defaultDB = "postgres"
	case "cloud":
		defaultDB = "spanner"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"memory": true, "sqlite": true, "postgres": true, "spanner": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.ExpiringDefaultDays <= 0 {
		return fmt.Errorf("EXPIRING_DEFAULT_DAYS must be positive, got %d", c.ExpiringDefaultDays)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with PANTRY_
// Example: PANTRY_DB_DRIVER, PANTRY_HTTP_PORT
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PANTRY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("dev_mode", cfg.DevMode).
		Int("expiring_default_days", cfg.ExpiringDefaultDays).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Str("sqlite_path", cfg.SQLitePath).
		Str("spanner_project", cfg.SpannerProject).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,
	}

	cfg.HTTPPort = 8080

	cfg.BuildTarget = "local"
	cfg.DBDriver = "memory"
	cfg.DevMode = true

	cfg.ExpiringDefaultDays = 7
	cfg.HealthIntervalSeconds = 30
	cfg.HealthProbeTimeoutSeconds = 5
	cfg.BootstrapTimeoutSeconds = 5

	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// IsDevMode returns true if development mode is enabled
func (c *Config) IsDevMode() bool {
	return c.DevMode
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
