// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

// Package memwatch classifies host memory pressure into discrete
// levels and fans level changes out to subscribers. The precache
// coordinator subscribes and cancels all background work when pressure
// reaches moderate or above.
package memwatch

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/flindt/chartshelf/internal/config"
	"github.com/flindt/chartshelf/internal/logging"
)

// Level is a discrete memory pressure classification.
type Level int

const (
	LevelNormal Level = iota
	LevelModerate
	LevelCritical
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelModerate:
		return "moderate"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Monitor polls host memory usage and publishes level transitions.
// It implements suture.Service via Serve.
type Monitor struct {
	interval time.Duration
	moderate float64
	critical float64

	// usedPercent is replaceable for tests; defaults to gopsutil.
	usedPercent func() (float64, error)

	mu   sync.Mutex
	last Level
	subs []chan Level
}

// New creates a monitor from configuration.
func New(cfg config.MemoryWatchConfig) *Monitor {
	return &Monitor{
		interval: cfg.PollInterval,
		moderate: cfg.ModeratePercent,
		critical: cfg.CriticalPercent,
		usedPercent: func() (float64, error) {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return vm.UsedPercent, nil
		},
	}
}

// SetProbe replaces the memory probe. Tests only.
func (m *Monitor) SetProbe(probe func() (float64, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usedPercent = probe
}

// Subscribe returns a channel receiving every level transition. The
// channel is buffered; a slow subscriber misses intermediate
// transitions but always observes the most recent one eventually.
func (m *Monitor) Subscribe() <-chan Level {
	ch := make(chan Level, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Serve polls until ctx is cancelled. Suture restarts it on failure;
// probe errors are logged and skipped rather than returned, since a
// transient probe failure is not worth a service restart.
func (m *Monitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Monitor) poll() {
	m.mu.Lock()
	probe := m.usedPercent
	m.mu.Unlock()

	used, err := probe()
	if err != nil {
		logging.Warn().Err(err).Msg("memory probe failed")
		return
	}

	level := m.classify(used)

	m.mu.Lock()
	changed := level != m.last
	m.last = level
	subs := m.subs
	m.mu.Unlock()

	if !changed {
		return
	}

	logging.Info().Float64("used_percent", used).Str("level", level.String()).Msg("memory pressure level changed")
	for _, ch := range subs {
		// Drop the stale value if the subscriber hasn't drained it;
		// only the latest level matters.
		select {
		case ch <- level:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- level:
			default:
			}
		}
	}
}

func (m *Monitor) classify(usedPercent float64) Level {
	switch {
	case usedPercent >= m.critical:
		return LevelCritical
	case usedPercent >= m.moderate:
		return LevelModerate
	default:
		return LevelNormal
	}
}

// Poll runs one probe cycle immediately. Tests only.
func (m *Monitor) Poll() { m.poll() }

// String implements suture's friendly service naming.
func (m *Monitor) String() string { return "memwatch" }
