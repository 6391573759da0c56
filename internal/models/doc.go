// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

/*
Package models defines the core domain types shared across Chartshelf.

These are the in-memory and cache-serialized representations of chart
data: users, weekly reporting periods, album chart entries and their
lazily-fetched detail enrichment. Wire-format types for the remote
service live in the models/lastfm subpackage; this package never
imports it.

All types here are plain data. ChartPeriod and AlbumChartEntry are
serialized to JSON for the durable cache, so field tags are part of the
on-disk format and must stay stable.
*/
package models
