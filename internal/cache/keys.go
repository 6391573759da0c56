// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package cache

import (
	"fmt"
	"strings"
	"time"
)

// Key builders are pure and deterministic: the same logical request
// always yields the same key. Usernames and free-text identities are
// normalized (lowercased, spaces to underscores); timestamps are
// truncated to whole seconds for stability.

// KeyWeeklyChart keys one user's album chart for one reporting window.
func KeyWeeklyChart(user string, from, to time.Time) string {
	return fmt.Sprintf("weeklychart_%s_%d_%d", normalize(user), from.Unix(), to.Unix())
}

// KeyWeeklyChartList keys the full list of reporting windows for a user.
func KeyWeeklyChartList(user string) string {
	return "weeklychartlist_" + normalize(user)
}

// KeyAlbumInfo keys per-album detail. The mbid is preferred when
// present since it is a more stable identity than free-text
// artist/album pairs. Returns ok=false when neither identity is
// available; callers must bypass the cache for that request.
func KeyAlbumInfo(artist, album, mbid, user string) (key string, ok bool) {
	suffix := ""
	if user != "" {
		suffix = "_" + normalize(user)
	}

	if mbid != "" {
		return "albuminfo_mbid_" + mbid + suffix, true
	}
	if artist != "" && album != "" {
		return "albuminfo_" + normalize(artist) + "_" + normalize(album) + suffix, true
	}
	return "", false
}

// KeyUserInfo keys a user's profile info.
func KeyUserInfo(user string) string {
	return "userinfo_" + normalize(user)
}

// KeyUserFriends keys a user's friend list.
func KeyUserFriends(user string) string {
	return "userfriends_" + normalize(user)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
