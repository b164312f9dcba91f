// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"FN_DB_PATH" envDefault:"./data/fucknotion.db"`
	LegacyPath string `env:"FN_LEGACY_PATH" envDefault:"./data/legacy.json"`
	ServerHost string `env:"FN_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"FN_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"FN_ENV" envDefault:"development"`
	LogLevel   string `env:"FN_LOG_LEVEL" envDefault:"info"`

	// Editor save coalescing window in milliseconds.
	DebounceMs int `env:"FN_DEBOUNCE_MS" envDefault:"750"`

	// Page version retention for the maintenance job, in days.
	VersionRetentionDays int `env:"FN_VERSION_RETENTION_DAYS" envDefault:"30"`

	// Whether legacy cleanup keeps a backup blob before deleting keys.
	KeepLegacyBackup bool `env:"FN_KEEP_LEGACY_BACKUP" envDefault:"true"`

	// API rate limiting for write endpoints.
	RateLimitRPS   float64 `env:"FN_RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"FN_RATE_LIMIT_BURST" envDefault:"100"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.VersionRetentionDays < 1 {
		return nil, fmt.Errorf("FN_VERSION_RETENTION_DAYS must be at least 1, got %d", cfg.VersionRetentionDays)
	}
	if cfg.DebounceMs < 0 {
		return nil, fmt.Errorf("FN_DEBOUNCE_MS must not be negative, got %d", cfg.DebounceMs)
	}

	return cfg, nil
}
