// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flindt/chartshelf/internal/config"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.LastfmConfig{
		URL:     srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}), srv
}

func TestClientWeeklyChartList(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"method":  r.URL.Query().Get("method"),
			"api_key": r.URL.Query().Get("api_key"),
			"format":  r.URL.Query().Get("format"),
			"user":    r.URL.Query().Get("user"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"weeklychartlist":{"chart":[
			{"from":"1136160000","to":"1136764800"},
			{"from":"1136764800","to":"1137369600"}
		]}}`))
	}))

	periods, err := client.WeeklyChartList(context.Background(), "testuser")
	if err != nil {
		t.Fatalf("WeeklyChartList() error = %v", err)
	}

	want := map[string]string{
		"method":  "user.getweeklychartlist",
		"api_key": "test-key",
		"format":  "json",
		"user":    "testuser",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(periods) != 2 {
		t.Fatalf("len(periods) = %d, want 2", len(periods))
	}
	if got := periods[0].From.Unix(); got != 1136160000 {
		t.Errorf("periods[0].From = %d, want 1136160000", got)
	}
	if got := periods[1].To.Unix(); got != 1137369600 {
		t.Errorf("periods[1].To = %d, want 1137369600", got)
	}
}

func TestClientWeeklyAlbumChart(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "user.getweeklyalbumchart" {
			t.Errorf("method = %q", q.Get("method"))
		}
		if q.Get("from") != "1136160000" || q.Get("to") != "1136764800" {
			t.Errorf("from/to = %q/%q", q.Get("from"), q.Get("to"))
		}
		w.Write([]byte(`{"weeklyalbumchart":{"album":[
			{"artist":{"mbid":"83d91898","#text":"Pink Floyd"},"name":"The Wall",
			 "mbid":"a84b9fea","url":"https://last.fm/pf","playcount":"25","@attr":{"rank":"1"}},
			{"artist":{"#text":"Low"},"name":"Trust","playcount":"5","@attr":{"rank":"2"}}
		]}}`))
	}))

	entries, err := client.WeeklyAlbumChart(context.Background(), "testuser",
		time.Unix(1136160000, 0), time.Unix(1136764800, 0))
	if err != nil {
		t.Fatalf("WeeklyAlbumChart() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	first := entries[0]
	if first.Artist != "Pink Floyd" || first.Name != "The Wall" || first.MBID != "a84b9fea" {
		t.Errorf("entries[0] = %+v", first)
	}
	if first.PlayCount != 25 || first.Rank != 1 {
		t.Errorf("entries[0] playcount/rank = %d/%d, want 25/1", first.PlayCount, first.Rank)
	}
	if entries[1].PlayCount != 5 || entries[1].MBID != "" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestClientAlbumInfo(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("mbid") != "a84b9fea" {
			t.Errorf("mbid = %q, want a84b9fea", q.Get("mbid"))
		}
		if q.Get("artist") != "" {
			t.Error("artist param set alongside mbid")
		}
		if q.Get("username") != "testuser" {
			t.Errorf("username = %q", q.Get("username"))
		}
		w.Write([]byte(`{"album":{
			"name":"The Wall","artist":"Pink Floyd",
			"image":[
				{"#text":"https://img/small.png","size":"small"},
				{"#text":"https://img/mega.png","size":"mega"}
			],
			"playcount":"3000000","userplaycount":"42",
			"wiki":{"summary":"A rock opera. <a href=\"https://last.fm/pf\">Read more on Last.fm</a>."}
		}}`))
	}))

	detail, err := client.AlbumInfo(context.Background(), AlbumQuery{
		Artist: "Pink Floyd", Album: "The Wall", MBID: "a84b9fea", Username: "testuser",
	})
	if err != nil {
		t.Fatalf("AlbumInfo() error = %v", err)
	}

	if detail.ImageURL != "https://img/mega.png" {
		t.Errorf("ImageURL = %q, want largest image", detail.ImageURL)
	}
	if detail.Description != "A rock opera." {
		t.Errorf("Description = %q, want boilerplate stripped", detail.Description)
	}
	if detail.TotalPlayCount != 3000000 || detail.UserPlayCount != 42 {
		t.Errorf("play counts = %d/%d", detail.TotalPlayCount, detail.UserPlayCount)
	}
}

func TestClientAlbumInfoNoWiki(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"album":{"name":"Trust","artist":"Low","playcount":"100"}}`))
	}))

	detail, err := client.AlbumInfo(context.Background(), AlbumQuery{Artist: "Low", Album: "Trust"})
	if err != nil {
		t.Fatalf("AlbumInfo() error = %v", err)
	}
	if detail.Description != "" {
		t.Errorf("Description = %q, want empty without wiki", detail.Description)
	}
	if detail.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty without images", detail.ImageURL)
	}
}

func TestClientUserInfo(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"name":"RJ","realname":"Richard","playcount":"123456",
			"image":[{"#text":"https://img/avatar.png","size":"large"}]}}`))
	}))

	u, err := client.UserInfo(context.Background(), "rj")
	if err != nil {
		t.Fatalf("UserInfo() error = %v", err)
	}
	if u.Username != "RJ" || u.RealName != "Richard" || u.PlayCount != 123456 {
		t.Errorf("UserInfo() = %+v", u)
	}
	if u.AvatarURL != "https://img/avatar.png" {
		t.Errorf("AvatarURL = %q", u.AvatarURL)
	}
}

func TestClientUserFriends(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want 10", got)
		}
		w.Write([]byte(`{"friends":{"user":[{"name":"alice"},{"name":"bob"}]}}`))
	}))

	friends, err := client.UserFriends(context.Background(), "rj", 10)
	if err != nil {
		t.Fatalf("UserFriends() error = %v", err)
	}
	if len(friends) != 2 || friends[0].Username != "alice" || friends[1].Username != "bob" {
		t.Errorf("UserFriends() = %+v", friends)
	}
}

func TestClientErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantAPI bool
	}{
		{
			name:    "invalid params means unknown user",
			status:  http.StatusBadRequest,
			body:    `{"error":6,"message":"User not found"}`,
			wantErr: ErrUserNotFound,
		},
		{
			name:    "invalid api key",
			status:  http.StatusForbidden,
			body:    `{"error":10,"message":"Invalid API key"}`,
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "suspended api key",
			status:  http.StatusForbidden,
			body:    `{"error":26,"message":"Suspended API key"}`,
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "service offline",
			status:  http.StatusServiceUnavailable,
			body:    `{"error":11,"message":"Service Offline"}`,
			wantErr: ErrServiceUnavailable,
		},
		{
			name:    "temporary failure",
			status:  http.StatusInternalServerError,
			body:    `{"error":16,"message":"Temporary error"}`,
			wantErr: ErrServiceUnavailable,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":29,"message":"Rate limit exceeded"}`,
			wantErr: ErrServiceUnavailable,
		},
		{
			name:    "unmapped code becomes APIError",
			status:  http.StatusBadRequest,
			body:    `{"error":8,"message":"Operation failed"}`,
			wantAPI: true,
		},
		{
			name:    "garbage body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "envelope without code",
			status:  http.StatusInternalServerError,
			body:    `{"message":"no code"}`,
			wantErr: ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := client.WeeklyChartList(context.Background(), "testuser")
			if err == nil {
				t.Fatal("WeeklyChartList() error = nil")
			}
			if tt.wantAPI {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("error = %v, want *APIError", err)
				}
				if apiErr.Code != 8 {
					t.Errorf("APIError.Code = %d, want 8", apiErr.Code)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientPlaceholderKeyFailsFast(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	t.Cleanup(srv.Close)

	for _, key := range []string{"", "YOUR_API_KEY", "replace_me", "changeme"} {
		client := NewClient(&config.LastfmConfig{URL: srv.URL, APIKey: key, Timeout: time.Second})
		_, err := client.WeeklyChartList(context.Background(), "testuser")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("key %q: error = %v, want ErrInvalidCredentials", key, err)
		}
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("placeholder keys reached the network %d times", n)
	}
}

func TestClientTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(&config.LastfmConfig{URL: url, APIKey: "test-key", Timeout: time.Second})
	_, err := client.WeeklyChartList(context.Background(), "testuser")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestClientContextCancellation(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.WeeklyChartList(ctx, "testuser")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestClientDecodeError(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))

	_, err := client.WeeklyChartList(context.Background(), "testuser")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if decodeErr.Method != "user.getweeklychartlist" {
		t.Errorf("DecodeError.Method = %q", decodeErr.Method)
	}
}
