// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/flindt/chartshelf/internal/models"
)

// scriptedAPI returns a fixed error (or fixed data) from every call.
type scriptedAPI struct {
	mu      sync.Mutex
	err     error
	periods []models.ChartPeriod
	calls   int
}

func (s *scriptedAPI) WeeklyChartList(ctx context.Context, user string) ([]models.ChartPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.periods, s.err
}

func (s *scriptedAPI) WeeklyAlbumChart(ctx context.Context, user string, from, to time.Time) ([]models.AlbumChartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil, s.err
}

func (s *scriptedAPI) AlbumInfo(ctx context.Context, q AlbumQuery) (*models.AlbumDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.AlbumDetail{}, nil
}

func (s *scriptedAPI) UserInfo(ctx context.Context, user string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{Username: user}, nil
}

func (s *scriptedAPI) UserFriends(ctx context.Context, user string, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil, s.err
}

func (s *scriptedAPI) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	t.Parallel()

	inner := &scriptedAPI{periods: []models.ChartPeriod{{From: time.Unix(100, 0), To: time.Unix(200, 0)}}}
	b := NewBreakerClient(inner)

	periods, err := b.WeeklyChartList(context.Background(), "testuser")
	if err != nil {
		t.Fatalf("WeeklyChartList() error = %v", err)
	}
	if len(periods) != 1 {
		t.Errorf("len(periods) = %d, want 1", len(periods))
	}
}

func TestBreakerOpensOnAvailabilityFailures(t *testing.T) {
	t.Parallel()

	inner := &scriptedAPI{err: ErrUnavailable}
	b := NewBreakerClient(inner)

	// Drive enough consecutive availability failures to trip.
	for range 10 {
		if _, err := b.WeeklyChartList(context.Background(), "testuser"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("error = %v, want ErrUnavailable", err)
		}
	}

	before := inner.callCount()
	_, err := b.WeeklyChartList(context.Background(), "testuser")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable from open breaker", err)
	}
	if inner.callCount() != before {
		t.Error("open breaker still forwarded the request upstream")
	}
}

func TestBreakerIgnoresDeterministicErrors(t *testing.T) {
	t.Parallel()

	inner := &scriptedAPI{err: ErrUserNotFound}
	b := NewBreakerClient(inner)

	// Deterministic answers never open the breaker, no matter how many.
	for range 20 {
		if _, err := b.UserInfo(context.Background(), "nobody"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("error = %v, want ErrUserNotFound", err)
		}
	}

	before := inner.callCount()
	b.UserInfo(context.Background(), "nobody")
	if inner.callCount() != before+1 {
		t.Error("breaker stopped forwarding despite only deterministic errors")
	}
}
