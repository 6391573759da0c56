// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

// Package config defines the Chartshelf configuration model and its
// koanf-based loading pipeline: struct defaults, then an optional YAML
// file, then CHARTSHELF_-prefixed environment overrides.
//
// The configuration feeds construction only. Core operations always
// take the request identity (user, year offset, play count filter) as
// explicit parameters; nothing here is ambient mutable state.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the chart engine.
type Config struct {
	Lastfm      LastfmConfig      `koanf:"lastfm"`
	Cache       CacheConfig       `koanf:"cache"`
	Precache    PrecacheConfig    `koanf:"precache"`
	Chart       ChartConfig       `koanf:"chart"`
	MemoryWatch MemoryWatchConfig `koanf:"memory_watch"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// LastfmConfig configures the remote API client.
type LastfmConfig struct {
	// URL is the API base endpoint.
	URL string `koanf:"url" validate:"required,url"`

	// APIKey authenticates every request. Placeholder values are
	// rejected before any network call is made.
	APIKey string `koanf:"api_key"`

	// Timeout is the transport-level request timeout.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimitPerSecond paces outbound requests. Zero disables pacing.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second" validate:"gte=0"`
}

// CacheConfig configures the durable on-disk caches.
type CacheConfig struct {
	// Dir is the directory for chart/list/info JSON entries.
	Dir string `koanf:"dir" validate:"required"`

	// ImageDir is the directory for prefetched artwork bytes.
	ImageDir string `koanf:"image_dir" validate:"required"`

	// ClearOnStart wipes both cache directories during engine
	// construction. Intended for development builds.
	ClearOnStart bool `koanf:"clear_on_start"`
}

// PrecacheConfig configures background cache warm-up.
type PrecacheConfig struct {
	Enabled bool `koanf:"enabled"`

	// DetailConcurrency caps simultaneous per-album detail fetches
	// within one precache run.
	DetailConcurrency int `koanf:"detail_concurrency" validate:"gt=0"`
}

// ChartConfig configures chart presentation defaults.
type ChartConfig struct {
	// PlayCountFilter is the initial threshold; only entries with a
	// weekly play count strictly greater than it are published.
	PlayCountFilter int `koanf:"play_count_filter" validate:"gte=0"`
}

// MemoryWatchConfig configures the memory pressure monitor that
// cancels precache work when the host runs hot.
type MemoryWatchConfig struct {
	Enabled      bool          `koanf:"enabled"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gt=0"`

	// Used-memory percentages at which pressure is classified as
	// moderate and critical.
	ModeratePercent float64 `koanf:"moderate_percent" validate:"gt=0,lte=100"`
	CriticalPercent float64 `koanf:"critical_percent" validate:"gt=0,lte=100"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns a Config with all default values applied.
func Default() *Config {
	return &Config{
		Lastfm: LastfmConfig{
			URL:                "https://ws.audioscrobbler.com/2.0/",
			APIKey:             "",
			Timeout:            30 * time.Second,
			RateLimitPerSecond: 4,
		},
		Cache: CacheConfig{
			Dir:          "cache/charts",
			ImageDir:     "cache/images",
			ClearOnStart: false,
		},
		Precache: PrecacheConfig{
			Enabled:           true,
			DetailConcurrency: 5,
		},
		Chart: ChartConfig{
			PlayCountFilter: 0,
		},
		MemoryWatch: MemoryWatchConfig{
			Enabled:         true,
			PollInterval:    15 * time.Second,
			ModeratePercent: 80,
			CriticalPercent: 92,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for structural and cross-field
// consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if c.MemoryWatch.CriticalPercent <= c.MemoryWatch.ModeratePercent {
		return fmt.Errorf("config validation: memory_watch critical_percent (%.0f) must exceed moderate_percent (%.0f)",
			c.MemoryWatch.CriticalPercent, c.MemoryWatch.ModeratePercent)
	}
	if c.Cache.Dir == c.Cache.ImageDir {
		return fmt.Errorf("config validation: cache dir and image_dir must differ (both %q)", c.Cache.Dir)
	}
	return nil
}
