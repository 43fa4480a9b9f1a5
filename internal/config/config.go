// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"slices"
	"time"
)

// Data sources accepted by DataSource.
const (
	DataSourceMemory   = "memory"
	DataSourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataSource selects the store: memory or postgres.
	DataSource string `koanf:"data_source"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string `koanf:"database_url"`

	// FixturesPath is an optional YAML fixtures file for the memory store.
	FixturesPath string `koanf:"fixtures_path"`

	// RedisAddr enables the display-name cache when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// NameCacheTTLSeconds is how long a cached display name lives.
	NameCacheTTLSeconds int `koanf:"name_cache_ttl_seconds"`

	// JWTSecret signs and verifies HS256 bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// DefaultWindow and DefaultLimit apply when a risk request omits k or limit.
	DefaultWindow int `koanf:"default_window"`
	DefaultLimit  int `koanf:"default_limit"`

	// MaxTrainingIterations bounds classifier fitting.
	MaxTrainingIterations int `koanf:"max_training_iterations"`

	// Metrics settings. Labels and latency buckets are read from the YAML
	// file only.
	MetricsEnabled                bool              `koanf:"metrics_enabled"`
	MetricsNamespace              string            `koanf:"metrics_namespace"`
	MetricsSubsystem              string            `koanf:"metrics_subsystem"`
	MetricsPrefix                 string            `koanf:"metrics_prefix"`
	MetricsRefreshIntervalSeconds int               `koanf:"metrics_refresh_interval_seconds"`
	MetricsLabels                 map[string]string `koanf:"metrics_labels"`
	MetricsLatencyBuckets         []float64         `koanf:"metrics_latency_buckets"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DataSource:            DataSourceMemory,
		NameCacheTTLSeconds:   600,
		DefaultWindow:         5,
		DefaultLimit:          50,
		MaxTrainingIterations: 100,

		MetricsEnabled:                true,
		MetricsNamespace:              "rollcall",
		MetricsSubsystem:              "analytics",
		MetricsRefreshIntervalSeconds: 10,
	}
}

// NameCacheTTL returns the cache TTL as a duration.
func (c *Config) NameCacheTTL() time.Duration {
	return time.Duration(c.NameCacheTTLSeconds) * time.Second
}

// MetricsRefreshInterval returns the system metrics sampling interval.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshIntervalSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !slices.Contains([]string{DataSourceMemory, DataSourcePostgres}, c.DataSource):
		return fmt.Errorf("%w: unknown data_source %q", ErrInvalidConfig, c.DataSource)
	case c.DataSource == DataSourcePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for postgres", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	case c.NameCacheTTLSeconds < 0:
		return fmt.Errorf("%w: name_cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.DefaultWindow < 0 || c.DefaultLimit < 0 || c.MaxTrainingIterations < 0:
		return fmt.Errorf("%w: default_window, default_limit and max_training_iterations must not be negative", ErrInvalidConfig)
	case c.MetricsRefreshIntervalSeconds < 0:
		return fmt.Errorf("%w: metrics_refresh_interval_seconds must not be negative", ErrInvalidConfig)
	case !slices.IsSorted(c.MetricsLatencyBuckets) || hasDuplicate(c.MetricsLatencyBuckets):
		return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
	}
	return nil
}

func hasDuplicate(sorted []float64) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return true
		}
	}
	return false
}
