// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package precache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flindt/chartshelf/internal/memwatch"
)

func TestCoordinatorStartAndComplete(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil)
	t.Cleanup(c.Close)

	var ran atomic.Bool
	c.Start("key", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	c.Wait("key")

	if !ran.Load() {
		t.Error("task did not run")
	}
	if keys := c.ActiveKeys(); len(keys) != 0 {
		t.Errorf("ActiveKeys() = %v after completion, want empty", keys)
	}
}

func TestCoordinatorReplaceCancelsPrevious(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil)
	t.Cleanup(c.Close)

	firstCancelled := make(chan struct{})
	started := make(chan struct{})
	c.Start("key", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(firstCancelled)
		return ctx.Err()
	})
	<-started

	c.Start("key", func(ctx context.Context) error { return nil })

	select {
	case <-firstCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("replacing a task did not cancel the previous one")
	}
	c.Wait("key")
}

func TestCoordinatorCancel(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil)
	t.Cleanup(c.Close)

	done := make(chan struct{})
	c.Start("key", func(ctx context.Context) error {
		<-ctx.Done()
		close(done)
		return ctx.Err()
	})

	c.Cancel("key", ReasonUserNavigated)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel() did not stop the task")
	}
	if keys := c.ActiveKeys(); len(keys) != 0 {
		t.Errorf("ActiveKeys() = %v after Cancel, want empty", keys)
	}

	// Cancelling an unknown key is harmless.
	c.Cancel("no_such_key", ReasonExplicit)
}

func TestCoordinatorCancelAll(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil)
	t.Cleanup(c.Close)

	var cancelled atomic.Int32
	for _, key := range []string{"a", "b", "c"} {
		c.Start(key, func(ctx context.Context) error {
			<-ctx.Done()
			cancelled.Add(1)
			return ctx.Err()
		})
	}

	c.CancelAll(ReasonMemoryPressure)

	deadline := time.After(2 * time.Second)
	for cancelled.Load() != 3 {
		select {
		case <-deadline:
			t.Fatalf("cancelled %d of 3 tasks", cancelled.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if keys := c.ActiveKeys(); len(keys) != 0 {
		t.Errorf("ActiveKeys() = %v after CancelAll, want empty", keys)
	}
}

func TestCoordinatorMemoryPressure(t *testing.T) {
	t.Parallel()

	levels := make(chan memwatch.Level, 1)
	c := NewCoordinator(levels)
	t.Cleanup(c.Close)

	done := make(chan struct{})
	c.Start("key", func(ctx context.Context) error {
		<-ctx.Done()
		close(done)
		return ctx.Err()
	})

	levels <- memwatch.LevelModerate

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("moderate pressure did not cancel precache work")
	}
}

func TestCoordinatorNormalPressureKeepsTasks(t *testing.T) {
	t.Parallel()

	levels := make(chan memwatch.Level, 1)
	c := NewCoordinator(levels)
	t.Cleanup(c.Close)

	release := make(chan struct{})
	c.Start("key", func(ctx context.Context) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	levels <- memwatch.LevelNormal
	time.Sleep(50 * time.Millisecond)

	if keys := c.ActiveKeys(); len(keys) != 1 {
		t.Errorf("ActiveKeys() = %v, want the task to survive normal pressure", keys)
	}
	close(release)
	c.Wait("key")
}

func TestCoordinatorClose(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil)

	done := make(chan struct{})
	c.Start("key", func(ctx context.Context) error {
		<-ctx.Done()
		close(done)
		return ctx.Err()
	})

	c.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not cancel running tasks")
	}

	// A closed coordinator rejects new work.
	var ran atomic.Bool
	c.Start("other", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	time.Sleep(20 * time.Millisecond)
	if ran.Load() {
		t.Error("task ran after Close()")
	}
	if keys := c.ActiveKeys(); len(keys) != 0 {
		t.Errorf("ActiveKeys() = %v after Close", keys)
	}
}
