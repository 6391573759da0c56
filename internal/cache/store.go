// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/flindt/chartshelf/internal/metrics"
)

// Store is a durable key -> JSON-blob cache with one file per key.
// Safe for concurrent use within a single process; concurrent writers
// to the same key race benignly (last atomic replace wins).
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created
// lazily on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the backing file path for a key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Put serializes v and atomically replaces the entry for key.
// Returns ErrWriteFailure (wrapped) on any I/O or encoding error.
func (s *Store) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		metrics.CacheWriteErrors.Inc()
		return fmt.Errorf("%w: marshal %s: %v", ErrWriteFailure, key, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		metrics.CacheWriteErrors.Inc()
		return fmt.Errorf("%w: mkdir %s: %v", ErrWriteFailure, s.dir, err)
	}

	path := s.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		metrics.CacheWriteErrors.Inc()
		return fmt.Errorf("%w: write %s: %v", ErrWriteFailure, key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		metrics.CacheWriteErrors.Inc()
		return fmt.Errorf("%w: replace %s: %v", ErrWriteFailure, key, err)
	}
	return nil
}

// Get deserializes the entry for key into out. Returns (false, nil)
// when no entry exists and (false, ErrReadFailure-wrapped) when the
// entry cannot be read or decoded.
func (s *Store) Get(key string, out any) (bool, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.CacheMisses.Inc()
			return false, nil
		}
		metrics.CacheMisses.Inc()
		return false, fmt.Errorf("%w: read %s: %v", ErrReadFailure, key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		metrics.CacheMisses.Inc()
		return false, fmt.Errorf("%w: %w: decode %s: %v", ErrReadFailure, ErrInvalidData, key, err)
	}

	metrics.CacheHits.Inc()
	return true, nil
}

// Has reports whether an entry exists for key without decoding it.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Remove deletes the entry for key. Removing an absent key is not an
// error.
func (s *Store) Remove(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrWriteFailure, key, err)
	}
	return nil
}

// Clear deletes the whole cache directory and recreates it empty.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrWriteFailure, s.dir, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: recreate %s: %v", ErrWriteFailure, s.dir, err)
	}
	return nil
}

// sanitizeKey maps a cache key onto a safe filename. Keys built by
// this package are already lowercase word characters, but arbitrary
// artist and album names can reach this through the album-info key.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
