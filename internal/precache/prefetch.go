// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package precache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flindt/chartshelf/internal/cache"
	"github.com/flindt/chartshelf/internal/logging"
	"github.com/flindt/chartshelf/internal/metrics"
)

// maxImageSize bounds a single artwork download.
const maxImageSize = 8 << 20 // 8MB

// Prefetcher downloads artwork URLs into the disk image cache,
// sequentially and fire-and-forget. Bytes are stored raw, never
// decoded into memory beyond the transfer buffer.
type Prefetcher struct {
	images *cache.ImageStore
	httpc  *http.Client
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPrefetcher creates a prefetcher. A nil client gets a default
// with a 30s timeout.
func NewPrefetcher(images *cache.ImageStore, httpc *http.Client) *Prefetcher {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Prefetcher{
		images: images,
		httpc:  httpc,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start begins downloading in the background and returns immediately.
// Already-cached URLs are skipped; individual failures are logged and
// skipped.
func (p *Prefetcher) Start(urls []string) {
	go func() {
		defer close(p.done)
		log := logging.With().Str("component", "prefetch").Logger()

		for _, url := range urls {
			if p.ctx.Err() != nil {
				log.Debug().Msg("image prefetch cancelled")
				return
			}
			if url == "" || p.images.Has(url) {
				continue
			}
			if err := p.fetch(url); err != nil {
				log.Debug().Err(err).Str("url", url).Msg("image prefetch failed")
				continue
			}
			metrics.ImagesPrefetched.Inc()
		}
	}()
}

func (p *Prefetcher) fetch(url string) error {
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return err
	}
	return p.images.Put(url, data)
}

// Cancel stops the prefetcher at its next URL boundary.
func (p *Prefetcher) Cancel() { p.cancel() }

// Done is closed when the prefetcher finishes or is cancelled.
func (p *Prefetcher) Done() <-chan struct{} { return p.done }
