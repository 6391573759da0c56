// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

// Package main is the command line front end for the Chartshelf engine.
//
// It loads configuration, assembles the engine and fetches the weekly
// album chart for one user and year offset, printing the filtered,
// sorted result. Every fetched entity lands in the durable cache, so
// repeated invocations for the same week are served from disk.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (CHARTSHELF_ prefix, e.g. CHARTSHELF_LASTFM_API_KEY)
//   - Config file (-config path, YAML)
//   - Built-in defaults
//
// # Example Usage
//
//	export CHARTSHELF_LASTFM_API_KEY=your-key
//	chartshelf -user rj                  # this week, one year ago is precached
//	chartshelf -user rj -years-ago 5    # the same week five years ago
//	chartshelf -user rj -min-plays 10   # only albums with more than 10 plays
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flindt/chartshelf/internal/config"
	"github.com/flindt/chartshelf/internal/engine"
	"github.com/flindt/chartshelf/internal/lastfm"
	"github.com/flindt/chartshelf/internal/loader"
	"github.com/flindt/chartshelf/internal/logging"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file (optional)")
		user        = flag.String("user", "", "username to fetch the chart for (required)")
		yearsAgo    = flag.Int("years-ago", 1, "how many calendar years to look back")
		minPlays    = flag.Int("min-plays", -1, "only show albums played strictly more than this many times (-1 keeps the configured default)")
		forceReload = flag.Bool("force", false, "bypass the cache and refetch from the service")
		clearCache  = flag.Bool("clear-cache", false, "wipe the durable caches and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *minPlays >= 0 {
		cfg.Chart.PlayCountFilter = *minPlays
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	eng, err := engine.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build engine")
	}
	defer eng.Close()

	if *clearCache {
		if err := eng.ClearCache(); err != nil {
			logging.Fatal().Err(err).Msg("Failed to clear caches")
		}
		logging.Info().Msg("Caches cleared")
		return
	}

	if *user == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := eng.LoadAlbums(ctx, *user, *yearsAgo, *forceReload); err != nil {
		switch {
		case errors.Is(err, loader.ErrNoDataAvailable):
			logging.Fatal().Int("years_ago", *yearsAgo).Msg("No chart data covers the requested week")
		case errors.Is(err, lastfm.ErrInvalidCredentials):
			logging.Fatal().Msg("API key missing or rejected (set CHARTSHELF_LASTFM_API_KEY)")
		case errors.Is(err, lastfm.ErrUserNotFound):
			logging.Fatal().Str("user", *user).Msg("User not found")
		default:
			logging.Fatal().Err(err).Msg("Failed to load chart")
		}
	}

	st := eng.State()
	if st.Phase != loader.PhaseLoaded {
		logging.Fatal().Stringer("phase", st.Phase).Msg("Chart did not reach loaded state")
	}

	if week := eng.WeekInfo(); week != nil {
		fmt.Printf("Top albums for %s, week %d of %d\n\n", week.Username, week.Week, week.Year)
	}
	if len(st.Albums) == 0 {
		fmt.Println("No albums above the play count threshold.")
		return
	}
	for i, album := range st.Albums {
		fmt.Printf("%3d. %-40s %-30s %4d plays\n", i+1, truncate(album.Name, 40), truncate(album.Artist, 30), album.PlayCount)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
