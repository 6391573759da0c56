// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package models

import (
	"strings"
	"time"
)

// User is an immutable identity snapshot for a scrobbling user.
// Username is the identity key and is matched case-insensitively;
// the remaining fields are optional display metadata.
type User struct {
	Username  string `json:"username"`
	RealName  string `json:"real_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	PlayCount int64  `json:"play_count,omitempty"`
}

// Key returns the canonical identity key for the user.
func (u User) Key() string {
	return strings.ToLower(strings.TrimSpace(u.Username))
}

// ChartPeriod is one service-defined weekly reporting window. Both
// bounds are inclusive. The windows are defined by the remote service
// and are not necessarily calendar-aligned.
type ChartPeriod struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the period, bounds included.
func (p ChartPeriod) Contains(t time.Time) bool {
	return !t.Before(p.From) && !t.After(p.To)
}

// Week returns the ISO 8601 week number and week-year derived from the
// period start.
func (p ChartPeriod) Week() (year, week int) {
	return p.From.ISOWeek()
}

// AlbumChartEntry is one album's appearance within a specific weekly
// chart. Identity for de-duplication is (artist, album name) within a
// (user, period); Rank and MBID are supplementary.
type AlbumChartEntry struct {
	Artist    string `json:"artist"`
	Name      string `json:"name"`
	MBID      string `json:"mbid,omitempty"`
	URL       string `json:"url,omitempty"`
	PlayCount int    `json:"play_count"`
	Rank      int    `json:"rank,omitempty"`

	// Detail is populated by a successful per-album enrichment fetch.
	// DetailFailed records a failed fetch so the entry is not retried.
	Detail       *AlbumDetail `json:"detail,omitempty"`
	DetailFailed bool         `json:"-"`
}

// Enriched reports whether a detail fetch has already been attempted
// for this entry, successfully or not.
func (e *AlbumChartEntry) Enriched() bool {
	return e.Detail != nil || e.DetailFailed
}

// AlbumDetail is the lazily-fetched enrichment for a chart entry:
// artwork, description and all-time play counts.
type AlbumDetail struct {
	ImageURL       string `json:"image_url,omitempty"`
	Description    string `json:"description,omitempty"`
	TotalPlayCount int64  `json:"total_play_count,omitempty"`
	UserPlayCount  int64  `json:"user_play_count,omitempty"`
}

// WeekInfo is the presentation-facing summary of a resolved period.
// Derived on each load, never persisted.
type WeekInfo struct {
	Week     int
	Year     int
	Username string
}

// NewWeekInfo derives a WeekInfo from a resolved period.
func NewWeekInfo(p ChartPeriod, username string) WeekInfo {
	year, week := p.Week()
	return WeekInfo{Week: week, Year: year, Username: username}
}
