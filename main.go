// Command cadence is a headless music player daemon. It indexes local
// music, searches configured remote catalogs, and plays a unified queue,
// all controlled over MPRIS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lnicolet/cadence/internal/audio"
	"github.com/lnicolet/cadence/internal/config"
	"github.com/lnicolet/cadence/internal/errmsg"
	"github.com/lnicolet/cadence/internal/library"
	"github.com/lnicolet/cadence/internal/mpris"
	"github.com/lnicolet/cadence/internal/notify"
	"github.com/lnicolet/cadence/internal/playback"
	"github.com/lnicolet/cadence/internal/playlists"
	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/provider/jellyfin"
	"github.com/lnicolet/cadence/internal/provider/local"
	"github.com/lnicolet/cadence/internal/provider/streaming"
	"github.com/lnicolet/cadence/internal/provider/subsonic"
	"github.com/lnicolet/cadence/internal/queue"
	"github.com/lnicolet/cadence/internal/resolve"
	"github.com/lnicolet/cadence/internal/scrobble"
	"github.com/lnicolet/cadence/internal/state"
	"github.com/lnicolet/cadence/internal/stderr"
)

func main() {
	// Capture fd 2 before the audio backend initializes: ALSA writes
	// straight to it and would interleave with structured logs.
	_ = stderr.Start()
	defer stderr.Stop()

	logger := log.NewWithOptions(stderr.Original(), log.Options{
		ReportTimestamp: true,
		Prefix:          "cadence",
	})
	go func() {
		for line := range stderr.Messages {
			logger.Debug("audio backend", "msg", line)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "lastfm-link" {
		if err := runLastfmLink(logger); err != nil {
			logger.Fatal(errmsg.Format(errmsg.OpInitialize, err))
		}
		return
	}

	if err := run(logger); err != nil {
		logger.Fatal(errmsg.Format(errmsg.OpInitialize, err))
	}
}

func run(logger *log.Logger) error {
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
	if len(cfg.LibrarySources) > 0 {
		res, err := lib.Scan(cfg.LibrarySources)
		if err != nil {
			logger.Warn(errmsg.Format(errmsg.OpLibraryScan, err))
		} else {
			logger.Info("library scan complete",
				"added", res.Added, "updated", res.Updated, "skipped", res.Skipped)
			for _, msg := range res.Errors {
				logger.Warn("scan", "error", msg)
			}
		}
	}

	reg := buildRegistry(cfg, lib, logger)
	resolver := resolve.New(reg, cfg.PreferredQuality())

	q := queue.New()
	saved, err := st.GetQueue()
	if err != nil {
		logger.Warn(errmsg.Format(errmsg.OpQueueLoad, err))
	}
	player, err := st.GetPlayer()
	if err != nil {
		return err
	}
	if len(saved) > 0 {
		idx := player.CurrentIndex
		if idx < 0 || idx >= len(saved) {
			idx = 0
		}
		q.Replace(saved, idx)
		logger.Info("queue restored", "tracks", len(saved), "index", idx)
	}

	svc := playback.New(q, resolver, reg, audio.Factory(audio.NewBeepSession))
	defer svc.Close()

	svc.SetVolume(player.Volume)
	svc.SetRepeat(queue.RepeatMode(player.RepeatMode))
	svc.SetShuffle(player.Shuffle)
	applyCrossfade(svc, cfg, player)

	mprisAdapter, err := mpris.New(svc)
	if err != nil {
		return err
	}
	defer mprisAdapter.Close()

	notifier, err := notify.New()
	if err != nil {
		logger.Warn("desktop notifications unavailable", "error", err)
	} else {
		stopNotify := notify.Watch(svc, notifier)
		defer stopNotify()
	}

	if stopScrobble := startScrobbler(cfg, st, svc, logger); stopScrobble != nil {
		defer stopScrobble()
	}

	go persistLoop(svc, st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("ready", "sources", reg.ListEnabled())
	<-ctx.Done()

	logger.Info("shutting down")
	saveAll(svc, st, logger)
	return nil
}

// buildRegistry registers the local library plus every remote backend
// the config carries credentials for.
func buildRegistry(cfg *config.Config, lib *library.Library, logger *log.Logger) *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(local.New(lib))

	if cfg.HasStreamingConfig() {
		reg.Register(streaming.New(streaming.NewClient(cfg.Streaming.URL, cfg.Streaming.Token)))
		logger.Info("streaming backend enabled", "url", cfg.Streaming.URL)
	}
	if cfg.HasSubsonicConfig() {
		reg.Register(subsonic.New(subsonic.NewClient(cfg.Subsonic.URL, cfg.Subsonic.Username, cfg.Subsonic.Password)))
		logger.Info("subsonic backend enabled", "url", cfg.Subsonic.URL)
	}
	if cfg.HasJellyfinConfig() {
		reg.Register(jellyfin.New(jellyfin.NewClient(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, cfg.Jellyfin.UserID)))
		logger.Info("jellyfin backend enabled", "url", cfg.Jellyfin.URL)
	}

	if order := cfg.OrderSources(); len(order) > 0 {
		reg.SetOrder(order)
	}
	return reg
}

// applyCrossfade merges the config default with the persisted runtime
// toggle: the saved state wins when it carries a fade duration.
func applyCrossfade(svc playback.Service, cfg *config.Config, player *state.PlayerState) {
	enabled := cfg.Playback.Crossfade
	dur := cfg.CrossfadeDuration()
	if player.CrossfadeDur > 0 {
		enabled = player.Crossfade
		dur = player.CrossfadeDur
	}
	svc.SetCrossfade(enabled, dur)
}

func startScrobbler(cfg *config.Config, st *state.Manager, svc playback.Service, logger *log.Logger) func() {
	if !cfg.HasLastfmConfig() {
		return nil
	}

	client := scrobble.NewClient(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	if sess, err := st.GetLastfmSession(); err == nil && sess != nil {
		client.SetSessionKey(sess.SessionKey)
	} else if cfg.Lastfm.SessionKey != "" {
		client.SetSessionKey(cfg.Lastfm.SessionKey)
	}

	if !client.IsAuthenticated() {
		logger.Info("last.fm configured but not linked, run `cadence lastfm-link`")
		return nil
	}

	scr := scrobble.New(client, st)
	scr.Start(svc)
	logger.Info("last.fm scrobbling enabled")
	return scr.Stop
}

// persistLoop saves queue and player state as they change, debounced by
// the state manager.
func persistLoop(svc playback.Service, st *state.Manager) {
	sub := svc.Subscribe()
	for {
		select {
		case <-sub.Done:
			return
		case e := <-sub.QueueChanged:
			_ = st.SaveQueue(e.Tracks)
			st.SavePlayer(snapshotPlayer(svc))
		case <-sub.ModeChanged:
			st.SavePlayer(snapshotPlayer(svc))
		case <-sub.VolumeChanged:
			st.SavePlayer(snapshotPlayer(svc))
		}
	}
}

func snapshotPlayer(svc playback.Service) state.PlayerState {
	crossfade, dur := svc.Crossfade()
	return state.PlayerState{
		Volume:       svc.Volume(),
		RepeatMode:   int(svc.Repeat()),
		Shuffle:      svc.Shuffle(),
		Crossfade:    crossfade,
		CrossfadeDur: dur,
		CurrentIndex: svc.CurrentIndex(),
	}
}

func saveAll(svc playback.Service, st *state.Manager, logger *log.Logger) {
	if err := st.SaveQueue(svc.QueueTracks()); err != nil {
		logger.Warn(errmsg.Format(errmsg.OpQueueSave, err))
	}
	st.SavePlayer(snapshotPlayer(svc))
}

// runLastfmLink walks the desktop auth flow and stores the session key.
func runLastfmLink(logger *log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.HasLastfmConfig() {
		return fmt.Errorf("lastfm api_key and api_secret must be set in config.toml")
	}

	st, err := state.Open()
	if err != nil {
		return err
	}
	defer st.Close()

	client := scrobble.NewClient(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	token, err := client.GetToken()
	if err != nil {
		return err
	}

	authURL := client.GetAuthURL(token)
	server, err := scrobble.StartAuthServer()
	if err != nil {
		return err
	}
	defer server.Shutdown()

	logger.Info("authorize in your browser", "url", authURL)
	if err := scrobble.OpenBrowser(authURL); err != nil {
		logger.Warn("could not open browser, visit the URL manually")
	}

	select {
	case <-server.TokenChan():
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("authorization timed out")
	}

	username, sessionKey, err := client.GetSession(token)
	if err != nil {
		return err
	}
	if err := st.SaveLastfmSession(username, sessionKey); err != nil {
		return err
	}

	logger.Info("last.fm linked", "user", username)
	return nil
}
