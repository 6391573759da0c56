// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

// Package loader orchestrates the resolver, durable cache and remote
// client into the weekly albums pipeline.
//
// The Loader owns the single in-memory "currently displayed" state for
// one (user, year offset) at a time and moves it through
// Initialized -> Loading -> Loaded | Failed. Any state may transition
// back to Loading; when concurrent loads race, the newest call wins
// (generation-guarded last write).
//
// Data is always cache-first: a cache read failure is logged and
// treated as a miss, a cache write failure is reported to the caller
// but never rolls back an already-published Loaded state.
package loader

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flindt/chartshelf/internal/cache"
	"github.com/flindt/chartshelf/internal/chart"
	"github.com/flindt/chartshelf/internal/lastfm"
	"github.com/flindt/chartshelf/internal/logging"
	"github.com/flindt/chartshelf/internal/models"
)

// Precacher warms the cache for an adjacent year offset in the
// background. Implemented by precache.Warmer.
type Precacher interface {
	WarmYear(user string, yearOffset int)
}

// loadedIdentity records which (user, offset, filter) combination the
// current Loaded state belongs to, so identical repeat calls are
// no-ops.
type loadedIdentity struct {
	user       string
	yearOffset int
	filter     int
}

// Loader produces the filtered, sorted weekly album list for a user
// and year offset. All methods are safe for concurrent use; state
// transitions are serialized internally.
type Loader struct {
	api       lastfm.API
	store     *cache.Store
	resolver  *chart.Resolver
	precacher Precacher
	log       zerolog.Logger

	mu       sync.Mutex
	gen      uint64
	filter   int
	state    State
	week     *models.WeekInfo
	loaded   *loadedIdentity
	onChange func(State)
}

// New creates a loader. precacher may be nil to disable background
// warm-up; filter is the initial play count threshold.
func New(api lastfm.API, store *cache.Store, resolver *chart.Resolver, precacher Precacher, filter int) *Loader {
	return &Loader{
		api:       api,
		store:     store,
		resolver:  resolver,
		precacher: precacher,
		filter:    filter,
		log:       logging.With().Str("component", "loader").Logger(),
		state:     State{Phase: PhaseInitialized},
	}
}

// SetOnChange registers a callback invoked after every published state
// transition. The callback runs outside the loader's lock.
func (l *Loader) SetOnChange(fn func(State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// State returns the currently published state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// WeekInfo returns the summary of the currently resolved period, or
// nil before the first successful load.
func (l *Loader) WeekInfo() *models.WeekInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.week == nil {
		return nil
	}
	w := *l.week
	return &w
}

// PlayCountFilter returns the active play count threshold.
func (l *Loader) PlayCountFilter() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// IsDataLoaded reports whether the published state already holds data
// for exactly this (user, yearOffset, filter) combination.
func (l *Loader) IsDataLoaded(user string, yearOffset, filter int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isLoadedLocked(userKey(user), yearOffset, filter)
}

func (l *Loader) isLoadedLocked(user string, yearOffset, filter int) bool {
	return l.loaded != nil &&
		l.loaded.user == user &&
		l.loaded.yearOffset == yearOffset &&
		l.loaded.filter == filter
}

// GetYear returns the calendar year for a year offset.
func (l *Loader) GetYear(yearOffset int) int {
	return l.resolver.Year(yearOffset)
}

// CanNavigate reports whether yearOffset is a valid navigation target.
func (l *Loader) CanNavigate(yearOffset int) bool {
	return l.resolver.CanNavigate(yearOffset)
}

// AvailableYearRange returns the inclusive span of years covered by
// the user's chart history.
func (l *Loader) AvailableYearRange() (first, last int, ok bool) {
	return l.resolver.AvailableYearRange()
}

// Clear resets the loader to its initial state, drops the tracked
// loaded identity and uninstalls the resolver's period list. The
// durable cache is untouched.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.gen++
	l.state = State{Phase: PhaseInitialized}
	l.week = nil
	l.loaded = nil
	cb, st := l.onChange, l.state
	l.mu.Unlock()
	l.resolver.Reset()
	notify(cb, st)
}

// LoadAlbums loads the weekly album chart for (user, yearOffset),
// cache-first with remote fallback, and publishes the filtered,
// sorted result.
//
// The returned error is nil on success; a cache write failure is
// returned even though the Loaded state was already published, so a
// forced reload can surface persistence problems.
func (l *Loader) LoadAlbums(ctx context.Context, user string, yearOffset int, forceReload bool) error {
	key := userKey(user)

	l.mu.Lock()
	if !forceReload && l.isLoadedLocked(key, yearOffset, l.filter) {
		l.mu.Unlock()
		return nil
	}
	l.gen++
	gen := l.gen
	filter := l.filter
	l.state = State{Phase: PhaseLoading}
	cb, st := l.onChange, l.state
	l.mu.Unlock()
	notify(cb, st)

	log := l.log.With().
		Str("run_id", uuid.NewString()).
		Str("user", user).
		Int("year_offset", yearOffset).
		Logger()

	var writeErr error

	if err := l.ensurePeriods(ctx, user, &writeErr, log); err != nil {
		l.fail(gen, err)
		return err
	}

	period, ok := l.resolver.Resolve(l.resolver.TargetDate(yearOffset))
	if !ok {
		log.Debug().Msg("no period covers target date")
		l.fail(gen, ErrNoDataAvailable)
		return ErrNoDataAvailable
	}

	entries, err := l.chartFor(ctx, user, period, forceReload, &writeErr, log)
	if err != nil {
		l.fail(gen, err)
		return err
	}

	visible := FilterAndSort(entries, filter)
	log.Debug().Int("total", len(entries)).Int("visible", len(visible)).Msg("chart loaded")

	l.mu.Lock()
	if gen == l.gen {
		l.state = State{Phase: PhaseLoaded, Albums: visible}
		week := models.NewWeekInfo(period, user)
		l.week = &week
		l.loaded = &loadedIdentity{user: key, yearOffset: yearOffset, filter: filter}
	}
	cb, st = l.onChange, l.state
	l.mu.Unlock()
	notify(cb, st)

	if l.precacher != nil && l.resolver.CanNavigate(yearOffset+1) {
		l.precacher.WarmYear(user, yearOffset+1)
	}

	return writeErr
}

// UpdatePlayCountFilter changes the play count threshold. When the
// filter actually changes and the current Loaded state belongs to
// (user, yearOffset), the chart is re-derived (from cache; no remote
// call is needed for data already on disk).
func (l *Loader) UpdatePlayCountFilter(ctx context.Context, filter int, user string, yearOffset int) error {
	l.mu.Lock()
	if filter == l.filter {
		l.mu.Unlock()
		return nil
	}
	matches := l.loaded != nil && l.loaded.user == userKey(user) && l.loaded.yearOffset == yearOffset
	l.filter = filter
	l.mu.Unlock()

	if !matches {
		return nil
	}
	return l.LoadAlbums(ctx, user, yearOffset, false)
}

// LoadAlbum lazily enriches one chart entry with album detail.
// Idempotent: entries already enriched (or already failed) are
// skipped. A fetch failure marks the entry as having no artwork and is
// not retried automatically; it never fails the surrounding list.
func (l *Loader) LoadAlbum(ctx context.Context, entry *models.AlbumChartEntry, user string) {
	if entry == nil || entry.Enriched() {
		return
	}

	key, cacheable := cache.KeyAlbumInfo(entry.Artist, entry.Name, entry.MBID, user)
	if cacheable {
		var detail models.AlbumDetail
		found, err := l.store.Get(key, &detail)
		if err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("album detail cache read failed, treating as miss")
		}
		if found {
			entry.Detail = &detail
			return
		}
	}

	detail, err := l.api.AlbumInfo(ctx, lastfm.AlbumQuery{
		Artist:   entry.Artist,
		Album:    entry.Name,
		MBID:     entry.MBID,
		Username: user,
	})
	if err != nil {
		l.log.Debug().Err(err).Str("artist", entry.Artist).Str("album", entry.Name).Msg("album detail fetch failed")
		entry.DetailFailed = true
		return
	}

	entry.Detail = detail
	if cacheable {
		if err := l.store.Put(key, detail); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("album detail cache write failed")
		}
	}
}

// ensurePeriods populates the resolver with this user's period list,
// cache-first. A list installed for a different user is replaced, never
// reused: period lists are per-user state. A cache write failure is
// recorded in writeErr but does not stop the load.
func (l *Loader) ensurePeriods(ctx context.Context, user string, writeErr *error, log zerolog.Logger) error {
	if l.resolver.LoadedFor(user) {
		return nil
	}

	key := cache.KeyWeeklyChartList(user)
	var periods []models.ChartPeriod
	found, err := l.store.Get(key, &periods)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("period list cache read failed, treating as miss")
	}

	if !found || len(periods) == 0 {
		periods, err = l.api.WeeklyChartList(ctx, user)
		if err != nil {
			return err
		}
		if err := l.store.Put(key, periods); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("period list cache write failed")
			*writeErr = err
		}
	}

	l.resolver.SetPeriods(user, periods)
	return nil
}

// chartFor loads the album chart for one period, cache-first unless
// forceReload bypasses the cache read.
func (l *Loader) chartFor(ctx context.Context, user string, period models.ChartPeriod, forceReload bool, writeErr *error, log zerolog.Logger) ([]models.AlbumChartEntry, error) {
	key := cache.KeyWeeklyChart(user, period.From, period.To)

	if !forceReload {
		var entries []models.AlbumChartEntry
		found, err := l.store.Get(key, &entries)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("chart cache read failed, treating as miss")
		}
		if found {
			return entries, nil
		}
	}

	entries, err := l.api.WeeklyAlbumChart(ctx, user, period.From, period.To)
	if err != nil {
		return nil, err
	}
	if err := l.store.Put(key, entries); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("chart cache write failed")
		*writeErr = err
	}
	return entries, nil
}

// fail publishes a Failed state and clears the week info and loaded
// identity, unless a newer load has already superseded this one.
func (l *Loader) fail(gen uint64, err error) {
	l.mu.Lock()
	if gen == l.gen {
		l.state = State{Phase: PhaseFailed, Err: err}
		l.week = nil
		l.loaded = nil
	}
	cb, st := l.onChange, l.state
	l.mu.Unlock()
	notify(cb, st)
}

// FilterAndSort keeps entries with a play count strictly greater than
// filter and orders them by descending play count. The sort is stable,
// so ties keep the service's original order.
func FilterAndSort(entries []models.AlbumChartEntry, filter int) []models.AlbumChartEntry {
	out := make([]models.AlbumChartEntry, 0, len(entries))
	for _, e := range entries {
		if e.PlayCount > filter {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayCount > out[j].PlayCount
	})
	return out
}

func userKey(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}

func notify(cb func(State), st State) {
	if cb != nil {
		cb(st)
	}
}
