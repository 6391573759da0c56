// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

import (
	"regexp"
	"strings"
)

// NoDescription is published when an album has no usable free-text
// description after cleaning.
const NoDescription = "No description available."

// readMoreLink matches the trailing "Read more on Last.fm" anchor the
// service appends to wiki summaries.
var readMoreLink = regexp.MustCompile(`<a href="[^"]*">\s*Read more on Last\.fm\s*</a>\s*\.?`)

// ccBoilerplate is the fixed attribution sentence appended to
// user-contributed descriptions.
const ccBoilerplate = "User-contributed text is available under the Creative Commons By-SA License; additional terms may apply."

// CleanDescription strips the service's "read more" link and license
// boilerplate from a wiki summary and trims whitespace. An empty
// result becomes NoDescription.
func CleanDescription(s string) string {
	s = readMoreLink.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ccBoilerplate, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDescription
	}
	return s
}
