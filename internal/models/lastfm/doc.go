// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

/*
Package lastfm defines the wire-format response types for the remote
audioscrobbler-style API.

The service wraps every successful response in a method-specific
envelope and encodes most numeric fields (play counts, unix timestamps,
ranks) as JSON strings. The Number type absorbs that quirk so the rest
of the codebase only sees integers.

Error responses share a single envelope:

	{"error": 6, "message": "User not found"}

Mapping of error codes to the client error taxonomy happens in
internal/lastfm, not here.
*/
package lastfm
