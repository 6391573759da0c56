// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package precache

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/flindt/chartshelf/internal/cache"
	"github.com/flindt/chartshelf/internal/chart"
	"github.com/flindt/chartshelf/internal/lastfm"
	"github.com/flindt/chartshelf/internal/loader"
	"github.com/flindt/chartshelf/internal/logging"
	"github.com/flindt/chartshelf/internal/metrics"
	"github.com/flindt/chartshelf/internal/models"
)

// defaultDetailConcurrency caps simultaneous per-album detail fetches
// within one warm-up run. Bounds outbound request pressure without
// serializing completely.
const defaultDetailConcurrency = 5

// Warmer implements the per-year precache workflow on top of the
// Coordinator. It shares the resolver and durable cache with the
// loader but performs all of its work in the background domain.
type Warmer struct {
	api         lastfm.API
	store       *cache.Store
	images      *cache.ImageStore
	resolver    *chart.Resolver
	coord       *Coordinator
	httpc       *http.Client
	filter      atomic.Int64
	concurrency int64
	log         zerolog.Logger
}

// NewWarmer creates a warmer. httpc is the client artwork downloads go
// through; nil selects the prefetcher's default. concurrency <= 0
// selects the default cap of 5.
func NewWarmer(api lastfm.API, store *cache.Store, images *cache.ImageStore, resolver *chart.Resolver, coord *Coordinator, httpc *http.Client, filter, concurrency int) *Warmer {
	if concurrency <= 0 {
		concurrency = defaultDetailConcurrency
	}
	w := &Warmer{
		api:         api,
		store:       store,
		images:      images,
		resolver:    resolver,
		coord:       coord,
		httpc:       httpc,
		concurrency: int64(concurrency),
		log:         logging.With().Str("component", "warmer").Logger(),
	}
	w.filter.Store(int64(filter))
	return w
}

// SetFilter updates the play count threshold used when selecting
// entries to enrich, keeping warm-up consistent with the loader's
// current filter.
func (w *Warmer) SetFilter(filter int) {
	w.filter.Store(int64(filter))
}

// Key returns the coordinator key for a (user, yearOffset) target.
func Key(user string, yearOffset int) string {
	return fmt.Sprintf("precache_%s_%d", strings.ToLower(strings.TrimSpace(user)), yearOffset)
}

// WarmYear starts warming the chart for (user, yearOffset) in the
// background, replacing any warm-up already running for the same
// target. Fire and forget; all failures are swallowed.
func (w *Warmer) WarmYear(user string, yearOffset int) {
	key := Key(user, yearOffset)
	w.coord.Start(key, func(ctx context.Context) error {
		return w.warm(ctx, key, user, yearOffset)
	})
}

// warm is the per-year workflow: resolve, fetch-and-cache the chart
// unless already cached, enrich filtered entries under the
// concurrency cap, then hand artwork URLs to a prefetcher.
func (w *Warmer) warm(ctx context.Context, key, user string, yearOffset int) error {
	period, ok := w.resolver.Resolve(w.resolver.TargetDate(yearOffset))
	if !ok {
		w.log.Debug().Str("user", user).Int("year_offset", yearOffset).Msg("no period to warm")
		return nil
	}

	chartKey := cache.KeyWeeklyChart(user, period.From, period.To)
	var entries []models.AlbumChartEntry
	found, err := w.store.Get(chartKey, &entries)
	if err != nil {
		w.log.Debug().Err(err).Str("key", chartKey).Msg("chart cache read failed during warm-up")
	}
	if !found {
		entries, err = w.api.WeeklyAlbumChart(ctx, user, period.From, period.To)
		if err != nil {
			return err
		}
		// A cancelled task must not keep writing cache entries.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.store.Put(chartKey, entries); err != nil {
			return err
		}
	}

	urls, err := w.warmDetails(ctx, user, loader.FilterAndSort(entries, int(w.filter.Load())))
	if err != nil {
		return err
	}

	if len(urls) > 0 {
		p := NewPrefetcher(w.images, w.httpc)
		w.coord.RegisterPrefetcher(key, p)
		p.Start(urls)
	}
	return nil
}

// warmDetails fetches album detail for each entry under the
// concurrency cap and returns the artwork URLs of the successes.
// Submission is semaphore-gated: up to the cap runs at once, each
// further submission waits for an in-flight completion.
func (w *Warmer) warmDetails(ctx context.Context, user string, entries []models.AlbumChartEntry) ([]string, error) {
	sem := semaphore.NewWeighted(w.concurrency)
	var mu sync.Mutex
	var urls []string

	for i := range entries {
		entry := entries[i]
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		metrics.PrecacheDetailInflight.Inc()

		go func() {
			defer sem.Release(1)
			defer metrics.PrecacheDetailInflight.Dec()

			detail := w.fetchDetail(ctx, entry, user)
			if detail != nil && detail.ImageURL != "" {
				mu.Lock()
				urls = append(urls, detail.ImageURL)
				mu.Unlock()
			}
		}()
	}

	// Drain: acquiring the full weight waits for every in-flight fetch.
	if err := sem.Acquire(ctx, w.concurrency); err != nil {
		return nil, err
	}
	sem.Release(w.concurrency)

	return urls, ctx.Err()
}

// fetchDetail returns the entry's detail, cache-first, caching a
// fresh fetch on success. Returns nil on any failure; a warm-up never
// needs a reason.
func (w *Warmer) fetchDetail(ctx context.Context, entry models.AlbumChartEntry, user string) *models.AlbumDetail {
	key, cacheable := cache.KeyAlbumInfo(entry.Artist, entry.Name, entry.MBID, user)
	if cacheable {
		var detail models.AlbumDetail
		if found, _ := w.store.Get(key, &detail); found {
			return &detail
		}
	}

	detail, err := w.api.AlbumInfo(ctx, lastfm.AlbumQuery{
		Artist:   entry.Artist,
		Album:    entry.Name,
		MBID:     entry.MBID,
		Username: user,
	})
	if err != nil {
		w.log.Debug().Err(err).Str("artist", entry.Artist).Str("album", entry.Name).Msg("detail warm-up failed")
		return nil
	}

	if cacheable && ctx.Err() == nil {
		if err := w.store.Put(key, detail); err != nil {
			w.log.Debug().Err(err).Str("key", key).Msg("detail cache write failed during warm-up")
		}
	}
	return detail
}
