// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package loader

import (
	"errors"

	"github.com/flindt/chartshelf/internal/models"
)

// ErrNoDataAvailable reports that no chart period covers the requested
// target date, e.g. the date predates the user's first scrobble.
var ErrNoDataAvailable = errors.New("no chart data available for the requested period")

// Phase is the loader's lifecycle phase. Consumers should switch over
// all four values; there is no implicit default state.
type Phase int

const (
	PhaseInitialized Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "initialized"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the loader's published state: the phase plus its associated
// data. Albums is non-nil only in PhaseLoaded; Err is non-nil only in
// PhaseFailed.
type State struct {
	Phase  Phase
	Albums []models.AlbumChartEntry
	Err    error
}
