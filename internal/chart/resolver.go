// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

// Package chart resolves year offsets onto the remote service's weekly
// reporting periods.
//
// The Resolver holds one user's ordered period list at a time,
// together with the normalized username it belongs to. The list is
// fetched once per user (cache-first) by the loader and installed with
// SetPeriods; switching to a different user invalidates it. Year
// arithmetic is calendar-based, not a fixed 365-day shift, so resolved
// dates stay aligned with the service's week boundaries across leap
// years.
package chart

import (
	"strings"
	"sync"
	"time"

	"github.com/flindt/chartshelf/internal/models"
)

// Resolver maps target dates onto a user's weekly reporting periods.
// Safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	owner   string
	periods []models.ChartPeriod

	// now is replaceable for tests.
	now func() time.Time
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// SetNow replaces the resolver's clock. Tests only.
func (r *Resolver) SetNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// SetPeriods installs user's period list, replacing any previous
// user's list. The username is normalized for ownership checks.
func (r *Resolver) SetPeriods(user string, periods []models.ChartPeriod) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = normalizeUser(user)
	r.periods = periods
}

// Reset clears the period list and its owner, forcing the next load to
// fetch it.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = ""
	r.periods = nil
}

// Loaded reports whether a period list is installed.
func (r *Resolver) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.periods) > 0
}

// LoadedFor reports whether the installed period list belongs to user.
// Another user's list never resolves a request; the caller must fetch
// and install the right one first.
func (r *Resolver) LoadedFor(user string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.periods) > 0 && r.owner == normalizeUser(user)
}

// Resolve returns the first period whose window contains target, or
// ok=false when no period covers it (e.g. the target predates the
// user's first scrobble).
func (r *Resolver) Resolve(target time.Time) (models.ChartPeriod, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.periods {
		if p.Contains(target) {
			return p, true
		}
	}
	return models.ChartPeriod{}, false
}

// TargetDate shifts now back by yearOffset calendar years.
func (r *Resolver) TargetDate(yearOffset int) time.Time {
	r.mu.RLock()
	now := r.now
	r.mu.RUnlock()
	return now().AddDate(-yearOffset, 0, 0)
}

// Year returns the calendar year yearOffset years before now.
func (r *Resolver) Year(yearOffset int) int {
	return r.TargetDate(yearOffset).Year()
}

// AvailableYearRange returns the inclusive year span covered by the
// period list, from the year of the earliest period's start to the
// year of the latest period's end. ok=false when no list is installed.
func (r *Resolver) AvailableYearRange() (first, last int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.periods) == 0 {
		return 0, 0, false
	}

	first = r.periods[0].From.Year()
	last = r.periods[0].To.Year()
	for _, p := range r.periods[1:] {
		if y := p.From.Year(); y < first {
			first = y
		}
		if y := p.To.Year(); y > last {
			last = y
		}
	}
	return first, last, true
}

func normalizeUser(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}

// CanNavigate reports whether yearOffset is a valid navigation target:
// never offset 0 (that is the implicit starting point), and never a
// year outside the available range.
func (r *Resolver) CanNavigate(yearOffset int) bool {
	if yearOffset == 0 {
		return false
	}
	first, last, ok := r.AvailableYearRange()
	if !ok {
		return false
	}
	year := r.Year(yearOffset)
	return year >= first && year <= last
}
