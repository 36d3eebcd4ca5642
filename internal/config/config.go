/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
// Per-invocation build parameters may be overridden by CLI flags.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string
	DBBackend   DatabaseBackend
	DBDSN       string
	Timezone    string

	// Plan build parameters
	WindowHours     int
	GridStepMinutes int
	MinGapMinutes   int
	LeadPadMinutes  int
	TrailPadMinutes int
	PadAllEvents    bool
	SeedLanes       int
	LaneFile        string // optional YAML lane directory; overrides seeding

	// Rebuild loop
	RebuildInterval time.Duration
	PlanRetention   int // plans kept when pruning; 0 disables pruning

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("GRIDCAST_ENV", "development"),
		HTTPBind:    getEnv("GRIDCAST_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("GRIDCAST_HTTP_PORT", 8093),
		MetricsBind: getEnv("GRIDCAST_METRICS_BIND", "127.0.0.1:9000"),
		DBBackend:   DatabaseBackend(getEnv("GRIDCAST_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:       getEnv("GRIDCAST_DB_DSN", "data/gridcast.sqlite3"),
		Timezone:    getEnv("GRIDCAST_TZ", "America/New_York"),

		WindowHours:     getEnvInt("GRIDCAST_WINDOW_HOURS", 72),
		GridStepMinutes: getEnvInt("GRIDCAST_GRID_STEP_MINUTES", 30),
		MinGapMinutes:   getEnvInt("GRIDCAST_MIN_GAP_MINUTES", 30),
		LeadPadMinutes:  getEnvInt("GRIDCAST_LEAD_PAD_MINUTES", 0),
		TrailPadMinutes: getEnvInt("GRIDCAST_TRAIL_PAD_MINUTES", 0),
		PadAllEvents:    getEnvBool("GRIDCAST_PAD_ALL_EVENTS", false),
		SeedLanes:       getEnvInt("GRIDCAST_SEED_LANES", 40),
		LaneFile:        getEnv("GRIDCAST_LANE_FILE", ""),

		RebuildInterval: time.Duration(getEnvInt("GRIDCAST_REBUILD_INTERVAL_MINUTES", 360)) * time.Minute,
		PlanRetention:   getEnvInt("GRIDCAST_PLAN_RETENTION", 10),

		TracingEnabled:    getEnvBool("GRIDCAST_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("GRIDCAST_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("GRIDCAST_TRACING_SAMPLE_RATE", 1.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.DBBackend {
	case DatabasePostgres, DatabaseMySQL, DatabaseSQLite:
	default:
		return fmt.Errorf("unknown database backend: %s", c.DBBackend)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("GRIDCAST_DB_DSN is required")
	}
	if c.WindowHours <= 0 {
		return fmt.Errorf("window hours must be positive, got %d", c.WindowHours)
	}
	if c.GridStepMinutes <= 0 {
		return fmt.Errorf("grid step must be positive, got %d", c.GridStepMinutes)
	}
	if c.MinGapMinutes < 0 {
		return fmt.Errorf("min gap must not be negative, got %d", c.MinGapMinutes)
	}
	if c.LeadPadMinutes < 0 || c.TrailPadMinutes < 0 {
		return fmt.Errorf("padding must not be negative")
	}
	if c.SeedLanes <= 0 && c.LaneFile == "" {
		return fmt.Errorf("either GRIDCAST_SEED_LANES or GRIDCAST_LANE_FILE must be set")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// GridStep returns the alignment step as a duration.
func (c *Config) GridStep() time.Duration {
	return time.Duration(c.GridStepMinutes) * time.Minute
}

// MinGap returns the minimum placeholder gap as a duration.
func (c *Config) MinGap() time.Duration {
	return time.Duration(c.MinGapMinutes) * time.Minute
}

// Window returns the build window length as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
