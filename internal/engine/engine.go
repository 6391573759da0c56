// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

// Package engine assembles the chart pipeline from configuration and
// exposes its public operations to the embedding application.
//
// Construction wires the remote client (behind a circuit breaker),
// the durable caches, the period resolver, the loader and the
// precache coordinator, and runs the memory pressure monitor under a
// suture supervisor. The engine holds no ambient global state: every
// operation takes its identity (user, year offset, filter) as
// explicit parameters.
package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/flindt/chartshelf/internal/cache"
	"github.com/flindt/chartshelf/internal/chart"
	"github.com/flindt/chartshelf/internal/config"
	"github.com/flindt/chartshelf/internal/lastfm"
	"github.com/flindt/chartshelf/internal/loader"
	"github.com/flindt/chartshelf/internal/logging"
	"github.com/flindt/chartshelf/internal/memwatch"
	"github.com/flindt/chartshelf/internal/models"
	"github.com/flindt/chartshelf/internal/precache"
)

// Engine is the assembled chart pipeline.
type Engine struct {
	cfg      *config.Config
	api      lastfm.API
	store    *cache.Store
	images   *cache.ImageStore
	resolver *chart.Resolver
	loader   *loader.Loader
	warmer   *precache.Warmer
	coord    *precache.Coordinator
	monitor  *memwatch.Monitor

	supCancel context.CancelFunc
	supErr    <-chan error
}

// New builds an engine from configuration. A nil cfg uses defaults
// (which will fail credential validation on first remote call until
// an API key is configured).
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	store := cache.NewStore(cfg.Cache.Dir)
	images := cache.NewImageStore(cfg.Cache.ImageDir)
	if cfg.Cache.ClearOnStart {
		if err := store.Clear(); err != nil {
			return nil, fmt.Errorf("clearing chart cache: %w", err)
		}
		if err := images.Clear(); err != nil {
			return nil, fmt.Errorf("clearing image cache: %w", err)
		}
	}

	var api lastfm.API = lastfm.NewClient(&cfg.Lastfm)
	api = lastfm.NewBreakerClient(api)

	resolver := chart.NewResolver()

	var monitor *memwatch.Monitor
	var levels <-chan memwatch.Level
	if cfg.MemoryWatch.Enabled {
		monitor = memwatch.New(cfg.MemoryWatch)
		levels = monitor.Subscribe()
	}
	coord := precache.NewCoordinator(levels)

	var warmer *precache.Warmer
	var pre loader.Precacher
	if cfg.Precache.Enabled {
		imageClient := &http.Client{Timeout: cfg.Lastfm.Timeout}
		warmer = precache.NewWarmer(api, store, images, resolver, coord,
			imageClient, cfg.Chart.PlayCountFilter, cfg.Precache.DetailConcurrency)
		pre = warmer
	}

	ldr := loader.New(api, store, resolver, pre, cfg.Chart.PlayCountFilter)

	e := &Engine{
		cfg:      cfg,
		api:      api,
		store:    store,
		images:   images,
		resolver: resolver,
		loader:   ldr,
		warmer:   warmer,
		coord:    coord,
		monitor:  monitor,
	}

	if monitor != nil {
		handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
		sup := suture.New("chartshelf", suture.Spec{EventHook: handler.MustHook()})
		sup.Add(monitor)

		ctx, cancel := context.WithCancel(context.Background())
		e.supCancel = cancel
		e.supErr = sup.ServeBackground(ctx)
	}

	return e, nil
}

// LoadAlbums loads and publishes the weekly album chart for
// (user, yearOffset). See loader.Loader.LoadAlbums.
func (e *Engine) LoadAlbums(ctx context.Context, user string, yearOffset int, forceReload bool) error {
	return e.loader.LoadAlbums(ctx, user, yearOffset, forceReload)
}

// UpdatePlayCountFilter changes the play count threshold, re-deriving
// the published chart when it applies to the current view.
func (e *Engine) UpdatePlayCountFilter(ctx context.Context, filter int, user string, yearOffset int) error {
	if e.warmer != nil {
		e.warmer.SetFilter(filter)
	}
	return e.loader.UpdatePlayCountFilter(ctx, filter, user, yearOffset)
}

// IsDataLoaded reports whether the published state matches exactly
// this (user, yearOffset, filter).
func (e *Engine) IsDataLoaded(user string, yearOffset, filter int) bool {
	return e.loader.IsDataLoaded(user, yearOffset, filter)
}

// GetYear returns the calendar year for a year offset.
func (e *Engine) GetYear(yearOffset int) int { return e.loader.GetYear(yearOffset) }

// CanNavigate reports whether yearOffset is a valid navigation target.
func (e *Engine) CanNavigate(yearOffset int) bool { return e.loader.CanNavigate(yearOffset) }

// AvailableYearRange returns the inclusive year span of the user's
// chart history.
func (e *Engine) AvailableYearRange() (first, last int, ok bool) {
	return e.loader.AvailableYearRange()
}

// State returns the loader's published state.
func (e *Engine) State() loader.State { return e.loader.State() }

// WeekInfo returns the currently resolved week summary, or nil.
func (e *Engine) WeekInfo() *models.WeekInfo { return e.loader.WeekInfo() }

// SetOnChange registers a state transition callback.
func (e *Engine) SetOnChange(fn func(loader.State)) { e.loader.SetOnChange(fn) }

// LoadAlbum lazily enriches one chart entry with album detail.
func (e *Engine) LoadAlbum(ctx context.Context, entry *models.AlbumChartEntry, user string) {
	e.loader.LoadAlbum(ctx, entry, user)
}

// Clear resets the published state. The durable cache is untouched.
func (e *Engine) Clear() { e.loader.Clear() }

// UserInfo returns the user's profile, cache-first.
func (e *Engine) UserInfo(ctx context.Context, user string) (*models.User, error) {
	key := cache.KeyUserInfo(user)
	var cached models.User
	found, err := e.store.Get(key, &cached)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("user info cache read failed, treating as miss")
	}
	if found {
		return &cached, nil
	}

	u, err := e.api.UserInfo(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := e.store.Put(key, u); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("user info cache write failed")
	}
	return u, nil
}

// UserFriends returns up to limit of the user's friends, cache-first.
func (e *Engine) UserFriends(ctx context.Context, user string, limit int) ([]models.User, error) {
	key := cache.KeyUserFriends(user)
	var cached []models.User
	found, err := e.store.Get(key, &cached)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("friends cache read failed, treating as miss")
	}
	if found {
		return cached, nil
	}

	friends, err := e.api.UserFriends(ctx, user, limit)
	if err != nil {
		return nil, err
	}
	if err := e.store.Put(key, friends); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("friends cache write failed")
	}
	return friends, nil
}

// CancelPrecache cancels all background warm-up work.
func (e *Engine) CancelPrecache(reason precache.Reason) { e.coord.CancelAll(reason) }

// ClearCache wipes both durable caches.
func (e *Engine) ClearCache() error {
	if err := e.store.Clear(); err != nil {
		return err
	}
	return e.images.Clear()
}

// Close stops background work: supervisor, precache tasks and the
// pressure watcher. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e.supCancel != nil {
		e.supCancel()
		<-e.supErr
	}
	e.coord.Close()
}
