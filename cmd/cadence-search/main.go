// Command cadence-search runs a one-shot search across every configured
// source and prints the merged results. Useful for checking provider
// credentials and for scripting against the same catalog the daemon sees.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lnicolet/cadence/internal/config"
	"github.com/lnicolet/cadence/internal/downloads"
	"github.com/lnicolet/cadence/internal/library"
	"github.com/lnicolet/cadence/internal/playlists"
	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/provider/jellyfin"
	"github.com/lnicolet/cadence/internal/provider/local"
	"github.com/lnicolet/cadence/internal/provider/streaming"
	"github.com/lnicolet/cadence/internal/provider/subsonic"
	"github.com/lnicolet/cadence/internal/resolve"
	"github.com/lnicolet/cadence/internal/search"
	"github.com/lnicolet/cadence/internal/state"
)

const searchTimeout = 10 * time.Second

func main() {
	logger := log.New(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: cadence-search <query>")
		os.Exit(2)
	}
	query := strings.Join(os.Args[1:], " ")

	if err := run(logger, query); err != nil {
		logger.Fatal(err)
	}
}

func run(logger *log.Logger, query string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := state.Open()
	if err != nil {
		return err
	}
	defer st.Close()

	db := st.DB()
	if err := library.InitSchema(db); err != nil {
		return err
	}
	if err := playlists.InitSchema(db); err != nil {
		return err
	}

	lib := library.New(db)
	reg := provider.NewRegistry()
	reg.Register(local.New(lib))
	if cfg.HasStreamingConfig() {
		reg.Register(streaming.New(streaming.NewClient(cfg.Streaming.URL, cfg.Streaming.Token)))
	}
	if cfg.HasSubsonicConfig() {
		reg.Register(subsonic.New(subsonic.NewClient(cfg.Subsonic.URL, cfg.Subsonic.Username, cfg.Subsonic.Password)))
	}
	if cfg.HasJellyfinConfig() {
		reg.Register(jellyfin.New(jellyfin.NewClient(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, cfg.Jellyfin.UserID)))
	}
	if order := cfg.OrderSources(); len(order) > 0 {
		reg.SetOrder(order)
	}

	resolver := resolve.New(reg, cfg.PreferredQuality())
	dl := downloads.New(resolver, lib, cfg.DownloadDir())
	store := playlists.New(db)

	agg := search.New(reg, lib, store, dl)
	defer agg.Close()
	agg.SetDebounce(0)
	agg.SetQuery(query)

	deadline := time.After(searchTimeout)
	for {
		select {
		case snap := <-agg.Updates():
			for src, err := range snap.Failed {
				logger.Warn("source failed", "source", src, "error", err)
			}
			if len(snap.Loading) == 0 {
				printResults(snap)
				return nil
			}
		case <-deadline:
			printResults(agg.Render())
			return fmt.Errorf("timed out waiting for: %v", agg.Render().Loading)
		}
	}
}

func printResults(snap search.Snapshot) {
	if len(snap.Results) == 0 {
		fmt.Println("no results")
		return
	}
	for _, r := range snap.Results {
		flags := ""
		if r.IsFavorite {
			flags += " ♥"
		}
		if r.IsDownloaded {
			flags += " ↓"
		}
		album := ""
		if r.Track.Album != "" {
			album = " (" + r.Track.Album + ")"
		}
		fmt.Printf("[%s] %s - %s%s%s\n", r.Track.Source, r.Track.Artist, r.Track.Title, album, flags)
	}
}
