// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package precache

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/flindt/chartshelf/internal/logging"
	"github.com/flindt/chartshelf/internal/memwatch"
	"github.com/flindt/chartshelf/internal/metrics"
)

// Reason describes why background work was cancelled. Diagnostic
// only; every reason cancels the same way.
type Reason string

const (
	ReasonUserNavigated    Reason = "user-navigated"
	ReasonMemoryPressure   Reason = "memory-pressure"
	ReasonNetworkDegraded  Reason = "network-degraded"
	ReasonExplicit         Reason = "explicit"
	ReasonOwnerDeallocated Reason = "owner-deallocated"
	ReasonViewDismissed    Reason = "view-dismissed"
)

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Coordinator owns the set of in-flight background warm-up tasks and
// their associated image prefetchers. It is the only writer and
// canceller of that set.
type Coordinator struct {
	log zerolog.Logger

	mu          sync.Mutex
	tasks       map[string]*task
	prefetchers map[string]*Prefetcher
	closed      bool
	stop        chan struct{}
}

// NewCoordinator creates a coordinator. When levels is non-nil the
// coordinator subscribes to it and cancels all work whenever pressure
// reaches moderate or above.
func NewCoordinator(levels <-chan memwatch.Level) *Coordinator {
	c := &Coordinator{
		log:         logging.With().Str("component", "precache").Logger(),
		tasks:       make(map[string]*task),
		prefetchers: make(map[string]*Prefetcher),
		stop:        make(chan struct{}),
	}
	if levels != nil {
		go c.watchPressure(levels)
	}
	return c
}

func (c *Coordinator) watchPressure(levels <-chan memwatch.Level) {
	for {
		select {
		case <-c.stop:
			return
		case level, ok := <-levels:
			if !ok {
				return
			}
			if level >= memwatch.LevelModerate {
				c.log.Info().Str("level", level.String()).Msg("memory pressure, cancelling precache work")
				c.CancelAll(ReasonMemoryPressure)
			}
		}
	}
}

// Start runs op as a background task under key, cancelling and
// replacing any task already tracked under the same key. Errors from
// op, including cooperative cancellation, are logged and swallowed.
func (c *Coordinator) Start(key string, op func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	prev := c.tasks[key]
	prevPrefetcher := c.prefetchers[key]
	delete(c.prefetchers, key)
	c.tasks[key] = t
	c.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	if prevPrefetcher != nil {
		prevPrefetcher.Cancel()
	}

	metrics.PrecacheTasksStarted.Inc()

	go func() {
		defer close(t.done)
		err := op(ctx)

		c.mu.Lock()
		if c.tasks[key] == t {
			delete(c.tasks, key)
		}
		c.mu.Unlock()

		switch {
		case err == nil:
			metrics.PrecacheTasksCompleted.Inc()
			c.log.Debug().Str("key", key).Msg("precache task completed")
		case errors.Is(err, context.Canceled):
			c.log.Debug().Str("key", key).Msg("precache task cancelled")
		default:
			// Best-effort by contract: log and swallow.
			c.log.Debug().Err(err).Str("key", key).Msg("precache task failed")
		}
	}()
}

// RegisterPrefetcher associates a running image prefetcher with key so
// a later Cancel stops it too. An existing prefetcher under the same
// key is cancelled and replaced.
func (c *Coordinator) RegisterPrefetcher(key string, p *Prefetcher) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		p.Cancel()
		return
	}
	prev := c.prefetchers[key]
	c.prefetchers[key] = p
	c.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
}

// Cancel stops and removes the task and prefetcher tracked under key,
// if any.
func (c *Coordinator) Cancel(key string, reason Reason) {
	c.mu.Lock()
	t := c.tasks[key]
	p := c.prefetchers[key]
	delete(c.tasks, key)
	delete(c.prefetchers, key)
	c.mu.Unlock()

	if t == nil && p == nil {
		return
	}

	c.log.Debug().Str("key", key).Str("reason", string(reason)).Msg("cancelling precache task")
	metrics.PrecacheTasksCancelled.WithLabelValues(string(reason)).Inc()
	if t != nil {
		t.cancel()
	}
	if p != nil {
		p.Cancel()
	}
}

// CancelAll stops and removes every tracked task and prefetcher.
func (c *Coordinator) CancelAll(reason Reason) {
	c.mu.Lock()
	tasks := c.tasks
	prefetchers := c.prefetchers
	c.tasks = make(map[string]*task)
	c.prefetchers = make(map[string]*Prefetcher)
	c.mu.Unlock()

	for key, t := range tasks {
		c.log.Debug().Str("key", key).Str("reason", string(reason)).Msg("cancelling precache task")
		metrics.PrecacheTasksCancelled.WithLabelValues(string(reason)).Inc()
		t.cancel()
	}
	for _, p := range prefetchers {
		p.Cancel()
	}
}

// ActiveKeys returns the keys of currently tracked tasks.
func (c *Coordinator) ActiveKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.tasks))
	for k := range c.tasks {
		keys = append(keys, k)
	}
	return keys
}

// Wait blocks until the task tracked under key at call time finishes.
// Returns immediately when no task is tracked. Tests only.
func (c *Coordinator) Wait(key string) {
	c.mu.Lock()
	t := c.tasks[key]
	c.mu.Unlock()
	if t != nil {
		<-t.done
	}
}

// Close cancels all work and stops the pressure watcher. The
// coordinator accepts no new tasks afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	c.CancelAll(ReasonOwnerDeallocated)
}
