/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 8093 {
		t.Errorf("HTTPPort = %d, want 8093", cfg.HTTPPort)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Errorf("DBBackend = %s, want sqlite", cfg.DBBackend)
	}
	if cfg.GridStep() != 30*time.Minute {
		t.Errorf("GridStep = %s, want 30m", cfg.GridStep())
	}
	if cfg.Window() != 72*time.Hour {
		t.Errorf("Window = %s, want 72h", cfg.Window())
	}
	if cfg.RebuildInterval != 6*time.Hour {
		t.Errorf("RebuildInterval = %s, want 6h", cfg.RebuildInterval)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRIDCAST_WINDOW_HOURS", "24")
	t.Setenv("GRIDCAST_GRID_STEP_MINUTES", "15")
	t.Setenv("GRIDCAST_SEED_LANES", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Window() != 24*time.Hour {
		t.Errorf("Window = %s, want 24h", cfg.Window())
	}
	if cfg.GridStep() != 15*time.Minute {
		t.Errorf("GridStep = %s, want 15m", cfg.GridStep())
	}
	if cfg.SeedLanes != 8 {
		t.Errorf("SeedLanes = %d, want 8", cfg.SeedLanes)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.DBBackend = "oracle" }},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }},
		{"zero window", func(c *Config) { c.WindowHours = 0 }},
		{"zero grid step", func(c *Config) { c.GridStepMinutes = 0 }},
		{"negative min gap", func(c *Config) { c.MinGapMinutes = -1 }},
		{"negative padding", func(c *Config) { c.LeadPadMinutes = -5 }},
		{"no lanes at all", func(c *Config) { c.SeedLanes = 0; c.LaneFile = "" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
