// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

// ErrorEnvelope is the service-wide error response body, returned with
// a non-2xx HTTP status.
type ErrorEnvelope struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// Service error codes with dedicated client-side mappings. All other
// codes surface as a generic APIError.
const (
	ErrorCodeInvalidParams    = 6  // also used for unknown users
	ErrorCodeInvalidAPIKey    = 10
	ErrorCodeServiceOffline   = 11
	ErrorCodeTemporaryFailure = 16
	ErrorCodeSuspendedAPIKey  = 26
	ErrorCodeRateLimited      = 29
)

// TextNode is the common {"mbid": ..., "#text": ...} object the API
// uses for artist references inside chart entries.
type TextNode struct {
	MBID string `json:"mbid"`
	Text string `json:"#text"`
}

// Image is one entry of the image arrays attached to albums and users.
type Image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// LargestImage picks the best URL out of an image array. The service
// orders entries small to large, so scan from the end and skip blanks.
func LargestImage(images []Image) string {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}

// WeeklyChartListResponse is the user.getweeklychartlist envelope.
type WeeklyChartListResponse struct {
	WeeklyChartList struct {
		Chart []WeeklyChartRange `json:"chart"`
	} `json:"weeklychartlist"`
}

// WeeklyChartRange is one reporting window, bounds in unix seconds.
type WeeklyChartRange struct {
	From Number `json:"from"`
	To   Number `json:"to"`
}

// WeeklyAlbumChartResponse is the user.getweeklyalbumchart envelope.
type WeeklyAlbumChartResponse struct {
	WeeklyAlbumChart struct {
		Album []WeeklyAlbum `json:"album"`
	} `json:"weeklyalbumchart"`
}

// WeeklyAlbum is one album row of a weekly chart.
type WeeklyAlbum struct {
	Artist    TextNode `json:"artist"`
	MBID      string   `json:"mbid"`
	URL       string   `json:"url"`
	Name      string   `json:"name"`
	PlayCount Number   `json:"playcount"`
	Attr      RankAttr `json:"@attr"`
}

// RankAttr carries the service-assigned chart rank.
type RankAttr struct {
	Rank Number `json:"rank"`
}

// AlbumInfoResponse is the album.getinfo envelope.
type AlbumInfoResponse struct {
	Album AlbumInfo `json:"album"`
}

// AlbumInfo is the detailed album payload, including the optional wiki
// block with the free-text description.
type AlbumInfo struct {
	Name          string  `json:"name"`
	Artist        string  `json:"artist"`
	MBID          string  `json:"mbid"`
	URL           string  `json:"url"`
	Image         []Image `json:"image"`
	PlayCount     Number  `json:"playcount"`
	UserPlayCount Number  `json:"userplaycount"`
	Wiki          *Wiki   `json:"wiki,omitempty"`
}

// Wiki is the free-text description block on album.getinfo responses.
type Wiki struct {
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
}

// UserInfoResponse is the user.getinfo envelope.
type UserInfoResponse struct {
	User UserInfo `json:"user"`
}

// UserInfo is the user payload shared by user.getinfo and
// user.getfriends.
type UserInfo struct {
	Name      string  `json:"name"`
	RealName  string  `json:"realname"`
	Image     []Image `json:"image"`
	PlayCount Number  `json:"playcount"`
}

// UserFriendsResponse is the user.getfriends envelope.
type UserFriendsResponse struct {
	Friends struct {
		User []UserInfo `json:"user"`
	} `json:"friends"`
}
