// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/flindt/chartshelf/internal/config"
	"github.com/flindt/chartshelf/internal/metrics"
	"github.com/flindt/chartshelf/internal/models"
	wire "github.com/flindt/chartshelf/internal/models/lastfm"
)

// maxErrorBodySize bounds how much of an error response body is read.
const maxErrorBodySize = 64 * 1024

// API is the operation surface of the remote data client, implemented
// by Client and BreakerClient, and by fakes in tests.
type API interface {
	WeeklyChartList(ctx context.Context, user string) ([]models.ChartPeriod, error)
	WeeklyAlbumChart(ctx context.Context, user string, from, to time.Time) ([]models.AlbumChartEntry, error)
	AlbumInfo(ctx context.Context, q AlbumQuery) (*models.AlbumDetail, error)
	UserInfo(ctx context.Context, user string) (*models.User, error)
	UserFriends(ctx context.Context, user string, limit int) ([]models.User, error)
}

// AlbumQuery identifies an album for a detail fetch. Either MBID or
// the (Artist, Album) pair must be set; Username is optional and adds
// the user's own play count to the response.
type AlbumQuery struct {
	Artist   string
	Album    string
	MBID     string
	Username string
}

// Client talks to the remote chart API. Stateless apart from its
// transport and token bucket; safe for concurrent use. It never
// retries a failed request.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client from configuration. A zero rate limit
// disables request pacing.
func NewClient(cfg *config.LastfmConfig) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RateLimitPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1)
	}
	return c
}

// placeholder API key values that must fail fast instead of reaching
// the network.
var placeholderKeys = map[string]struct{}{
	"":             {},
	"your_api_key": {},
	"replace_me":   {},
	"changeme":     {},
}

func (c *Client) checkCredentials() error {
	if _, bad := placeholderKeys[strings.ToLower(c.apiKey)]; bad {
		return fmt.Errorf("API key not configured: %w", ErrInvalidCredentials)
	}
	return nil
}

// get performs one API request: credential check, pacing, request
// build, status check, envelope decode and error mapping.
func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	if err := c.checkCredentials(); err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	params.Set("method", method)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.RemoteRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		// Cooperative cancellation must surface as the context error,
		// not as an availability problem.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		metrics.RemoteRequestErrors.WithLabelValues(method, "unavailable").Inc()
		return fmt.Errorf("%s: %v: %w", method, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := c.mapErrorResponse(method, resp)
		metrics.RemoteRequestErrors.WithLabelValues(method, errorKind(err)).Inc()
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RemoteRequestErrors.WithLabelValues(method, "decode").Inc()
		return &DecodeError{Method: method, Err: err}
	}
	return nil
}

// mapErrorResponse turns a non-2xx response into a taxonomy error.
func (c *Client) mapErrorResponse(method string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return fmt.Errorf("%s: status %d, unreadable body: %w", method, resp.StatusCode, ErrInvalidResponse)
	}

	var envelope wire.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Code == 0 {
		return fmt.Errorf("%s: status %d: %w", method, resp.StatusCode, ErrInvalidResponse)
	}

	switch envelope.Code {
	case wire.ErrorCodeInvalidParams:
		return fmt.Errorf("%s: %s: %w", method, envelope.Message, ErrUserNotFound)
	case wire.ErrorCodeInvalidAPIKey, wire.ErrorCodeSuspendedAPIKey:
		return fmt.Errorf("%s: %s: %w", method, envelope.Message, ErrInvalidCredentials)
	case wire.ErrorCodeServiceOffline, wire.ErrorCodeTemporaryFailure, wire.ErrorCodeRateLimited:
		return fmt.Errorf("%s: %s: %w", method, envelope.Message, ErrServiceUnavailable)
	default:
		return &APIError{Code: envelope.Code, Message: envelope.Message}
	}
}

// errorKind labels a mapped error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "credentials"
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "api_error"
		}
		return "other"
	}
}

// WeeklyChartList fetches the user's full list of weekly reporting
// windows, ordered as the service returns them (oldest first).
func (c *Client) WeeklyChartList(ctx context.Context, user string) ([]models.ChartPeriod, error) {
	params := url.Values{}
	params.Set("user", user)

	var resp wire.WeeklyChartListResponse
	if err := c.get(ctx, "user.getweeklychartlist", params, &resp); err != nil {
		return nil, err
	}

	periods := make([]models.ChartPeriod, 0, len(resp.WeeklyChartList.Chart))
	for _, r := range resp.WeeklyChartList.Chart {
		periods = append(periods, models.ChartPeriod{
			From: time.Unix(r.From.Int64(), 0).UTC(),
			To:   time.Unix(r.To.Int64(), 0).UTC(),
		})
	}
	return periods, nil
}

// WeeklyAlbumChart fetches the user's album chart for one reporting
// window, preserving the service's row order.
func (c *Client) WeeklyAlbumChart(ctx context.Context, user string, from, to time.Time) ([]models.AlbumChartEntry, error) {
	params := url.Values{}
	params.Set("user", user)
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	var resp wire.WeeklyAlbumChartResponse
	if err := c.get(ctx, "user.getweeklyalbumchart", params, &resp); err != nil {
		return nil, err
	}

	entries := make([]models.AlbumChartEntry, 0, len(resp.WeeklyAlbumChart.Album))
	for _, a := range resp.WeeklyAlbumChart.Album {
		entries = append(entries, models.AlbumChartEntry{
			Artist:    a.Artist.Text,
			Name:      a.Name,
			MBID:      a.MBID,
			URL:       a.URL,
			PlayCount: a.PlayCount.Int(),
			Rank:      a.Attr.Rank.Int(),
		})
	}
	return entries, nil
}

// AlbumInfo fetches detail for one album: artwork URL, cleaned
// description and play counts.
func (c *Client) AlbumInfo(ctx context.Context, q AlbumQuery) (*models.AlbumDetail, error) {
	params := url.Values{}
	if q.MBID != "" {
		params.Set("mbid", q.MBID)
	} else {
		params.Set("artist", q.Artist)
		params.Set("album", q.Album)
	}
	if q.Username != "" {
		params.Set("username", q.Username)
	}

	var resp wire.AlbumInfoResponse
	if err := c.get(ctx, "album.getinfo", params, &resp); err != nil {
		return nil, err
	}

	description := ""
	if resp.Album.Wiki != nil {
		description = CleanDescription(resp.Album.Wiki.Summary)
	}

	return &models.AlbumDetail{
		ImageURL:       wire.LargestImage(resp.Album.Image),
		Description:    description,
		TotalPlayCount: resp.Album.PlayCount.Int64(),
		UserPlayCount:  resp.Album.UserPlayCount.Int64(),
	}, nil
}

// UserInfo fetches the user's profile.
func (c *Client) UserInfo(ctx context.Context, user string) (*models.User, error) {
	params := url.Values{}
	params.Set("user", user)

	var resp wire.UserInfoResponse
	if err := c.get(ctx, "user.getinfo", params, &resp); err != nil {
		return nil, err
	}

	u := mapUser(resp.User)
	return &u, nil
}

// UserFriends fetches up to limit of the user's friends.
func (c *Client) UserFriends(ctx context.Context, user string, limit int) ([]models.User, error) {
	params := url.Values{}
	params.Set("user", user)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp wire.UserFriendsResponse
	if err := c.get(ctx, "user.getfriends", params, &resp); err != nil {
		return nil, err
	}

	friends := make([]models.User, 0, len(resp.Friends.User))
	for _, f := range resp.Friends.User {
		friends = append(friends, mapUser(f))
	}
	return friends, nil
}

func mapUser(u wire.UserInfo) models.User {
	return models.User{
		Username:  u.Name,
		RealName:  u.RealName,
		AvatarURL: wire.LargestImage(u.Image),
		PlayCount: u.PlayCount.Int64(),
	}
}
