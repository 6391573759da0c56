// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

// Package metrics defines the Prometheus collectors instrumenting the
// chart sync and precache pipeline: remote request latency and error
// kinds, durable cache efficiency, and background precache activity.
// Collectors are registered on the default registry via promauto; the
// embedding application decides whether and where to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Remote client metrics
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lastfm_request_duration_seconds",
			Help:    "Duration of remote API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	RemoteRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lastfm_request_errors_total",
			Help: "Total number of remote API request failures by mapped kind",
		},
		[]string{"method", "kind"},
	)

	// Circuit breaker state: 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lastfm_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Durable cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chart_cache_hits_total",
			Help: "Total number of durable cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chart_cache_misses_total",
			Help: "Total number of durable cache misses (including read failures)",
		},
	)

	CacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chart_cache_write_errors_total",
			Help: "Total number of durable cache write failures",
		},
	)

	// Precache metrics
	PrecacheTasksStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "precache_tasks_started_total",
			Help: "Total number of background precache tasks started",
		},
	)

	PrecacheTasksCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precache_tasks_cancelled_total",
			Help: "Total number of background precache tasks cancelled, by reason",
		},
		[]string{"reason"},
	)

	PrecacheTasksCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "precache_tasks_completed_total",
			Help: "Total number of background precache tasks that ran to completion",
		},
	)

	PrecacheDetailInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "precache_detail_fetches_inflight",
			Help: "Per-album detail fetches currently in flight during precache runs",
		},
	)

	ImagesPrefetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "precache_images_prefetched_total",
			Help: "Total number of artwork images written to the disk image cache",
		},
	)
)
