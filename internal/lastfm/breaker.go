// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/flindt/chartshelf/internal/logging"
	"github.com/flindt/chartshelf/internal/metrics"
	"github.com/flindt/chartshelf/internal/models"
)

// BreakerClient wraps an API with a circuit breaker so that a dead or
// degraded upstream stops generating doomed requests, which matters
// most for background precache traffic. A rejected request maps to
// ErrUnavailable, the same soft failure callers already handle.
type BreakerClient struct {
	api  API
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerClient wraps api with a circuit breaker. The breaker opens
// after a 60% failure rate over at least 10 requests, waits 2 minutes
// before probing, and allows 3 concurrent probes in half-open state.
func NewBreakerClient(api API) *BreakerClient {
	name := "lastfm-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Only availability-shaped failures should open the
			// breaker. Not-found users, bad credentials and decode
			// problems are deterministic answers, not outages.
			if err == nil {
				return true
			}
			return !errors.Is(err, ErrUnavailable) && !errors.Is(err, ErrServiceUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{api: api, cb: cb, name: name}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// execute runs fn through the breaker, mapping breaker rejections to
// ErrUnavailable.
func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit breaker %s: %w", b.name, ErrUnavailable)
		}
		return nil, err
	}
	return result, nil
}

func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return v, nil
}

// WeeklyChartList implements API.
func (b *BreakerClient) WeeklyChartList(ctx context.Context, user string) ([]models.ChartPeriod, error) {
	return castResult[[]models.ChartPeriod](b.execute(func() (any, error) {
		return b.api.WeeklyChartList(ctx, user)
	}))
}

// WeeklyAlbumChart implements API.
func (b *BreakerClient) WeeklyAlbumChart(ctx context.Context, user string, from, to time.Time) ([]models.AlbumChartEntry, error) {
	return castResult[[]models.AlbumChartEntry](b.execute(func() (any, error) {
		return b.api.WeeklyAlbumChart(ctx, user, from, to)
	}))
}

// AlbumInfo implements API.
func (b *BreakerClient) AlbumInfo(ctx context.Context, q AlbumQuery) (*models.AlbumDetail, error) {
	return castResult[*models.AlbumDetail](b.execute(func() (any, error) {
		return b.api.AlbumInfo(ctx, q)
	}))
}

// UserInfo implements API.
func (b *BreakerClient) UserInfo(ctx context.Context, user string) (*models.User, error) {
	return castResult[*models.User](b.execute(func() (any, error) {
		return b.api.UserInfo(ctx, user)
	}))
}

// UserFriends implements API.
func (b *BreakerClient) UserFriends(ctx context.Context, user string, limit int) ([]models.User, error) {
	return castResult[[]models.User](b.execute(func() (any, error) {
		return b.api.UserFriends(ctx, user, limit)
	}))
}
