// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// CHARTSHELF_LASTFM_API_KEY overrides lastfm.api_key.
const envPrefix = "CHARTSHELF_"

// Load builds a Config from defaults, an optional YAML file and
// environment overrides, in that order of precedence (lowest first).
// An empty path skips the file layer; a missing file at an explicit
// path is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// CHARTSHELF_LASTFM_API_KEY -> lastfm.api_key. Single-underscore
	// segments map to key separators; koanf keys themselves use
	// underscores, so only the first underscore splits sections.
	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envToKey maps an environment variable name to a koanf key. The first
// underscore-delimited segment selects the section; the remainder is
// the field name with underscores preserved.
//
//	CHARTSHELF_LASTFM_API_KEY       -> lastfm.api_key
//	CHARTSHELF_PRECACHE_ENABLED     -> precache.enabled
//	CHARTSHELF_MEMORY_WATCH_ENABLED -> memory_watch.enabled
func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))

	// memory_watch is the one two-word section name.
	if rest, ok := strings.CutPrefix(s, "memory_watch_"); ok {
		return "memory_watch." + rest
	}

	section, field, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + field
}
