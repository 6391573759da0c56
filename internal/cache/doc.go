// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

/*
Package cache implements the durable on-disk caches backing the chart
pipeline.

Store is a process-wide key -> JSON-blob store with one file per key
under a dedicated directory. There is no TTL, no eviction and no
in-memory layer: entries live until they are removed or the whole
store is cleared. Writes are whole-value atomic replaces (temp file +
rename), so a cancelled or crashed writer can skip a key but never
corrupt it.

Keys are pure functions of (operation kind, normalized parameters),
built by the Key* functions in keys.go; two logically identical
requests always produce the same key.

ImageStore is a parallel byte store for prefetched artwork, keyed by
source URL. Images are stored as raw bytes only, never decoded.

Read failures are intentionally soft: callers must treat them as cache
misses and fall through to the remote service.
*/
package cache
