// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package cache

import "errors"

var (
	// ErrWriteFailure wraps any I/O or serialization error during a
	// store operation (e.g. disk full).
	ErrWriteFailure = errors.New("cache write failure")

	// ErrReadFailure wraps I/O or deserialization errors during
	// retrieval. Callers must treat it as a cache miss and continue
	// to the remote fetch, never as a hard error.
	ErrReadFailure = errors.New("cache read failure")

	// ErrNotFound reports a key with no backing file.
	ErrNotFound = errors.New("cache entry not found")

	// ErrInvalidData reports a backing file whose contents do not
	// decode into the requested shape.
	ErrInvalidData = errors.New("cache entry invalid")
)
