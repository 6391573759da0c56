// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

/*
Package precache runs the background cache warm-up pipeline.

The Coordinator tracks cancellable background tasks by key. Starting a
task under an occupied key cancels and replaces the previous task, so
at most one warm-up runs per target. Cancellation is cooperative and
reasons are recorded for diagnostics only; behavior does not vary by
reason. A memory pressure subscription cancels everything at moderate
pressure or above.

The Warmer implements the per-year workflow: resolve the target
period, skip if its chart is already cached, otherwise fetch and cache
it, enrich its filtered entries under a bounded-concurrency semaphore,
and hand the collected artwork URLs to a fire-and-forget Prefetcher
that writes raw bytes to the disk image cache.

Precaching is best-effort by contract: every error in this package is
logged and swallowed, never surfaced to the user.
*/
package precache
