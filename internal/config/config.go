package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lnicolet/cadence/internal/track"
)

type Config struct {
	LibrarySources []string `koanf:"library_sources"` // paths to scan for music library
	DownloadFolder string   `koanf:"download_folder"` // where downloaded tracks land before import
	Quality        string   `koanf:"quality"`         // "low", "high", or "lossless"
	ProviderOrder  []string `koanf:"provider_order"`  // search result ordering, e.g. ["local", "subsonic"]

	Playback PlaybackConfig `koanf:"playback"`
	Search   SearchConfig   `koanf:"search"`

	// Remote catalog backends (each enabled when configured)
	Streaming StreamingConfig `koanf:"streaming"`
	Subsonic  SubsonicConfig  `koanf:"subsonic"`
	Jellyfin  JellyfinConfig  `koanf:"jellyfin"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`
}

// PlaybackConfig holds transport defaults applied at startup.
type PlaybackConfig struct {
	Crossfade        bool    `koanf:"crossfade"`
	CrossfadeSeconds float64 `koanf:"crossfade_seconds"` // fade window length (default: 5)
}

// SearchConfig tunes the search aggregator.
type SearchConfig struct {
	DebounceMS int `koanf:"debounce_ms"` // keystroke settle time (default: 150)
}

// StreamingConfig holds credentials for the hosted streaming catalog.
type StreamingConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

// SubsonicConfig holds credentials for a Subsonic-compatible server.
type SubsonicConfig struct {
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// JellyfinConfig holds credentials for a Jellyfin server.
type JellyfinConfig struct {
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`
	UserID string `koanf:"user_id"`
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in library_sources
	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}

	if cfg.DownloadFolder != "" {
		cfg.DownloadFolder = expandPath(cfg.DownloadFolder)
	}

	// Normalize backend URLs (remove trailing slash)
	cfg.Streaming.URL = strings.TrimSuffix(cfg.Streaming.URL, "/")
	cfg.Subsonic.URL = strings.TrimSuffix(cfg.Subsonic.URL, "/")
	cfg.Jellyfin.URL = strings.TrimSuffix(cfg.Jellyfin.URL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/cadence/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cadence", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasStreamingConfig returns true if the hosted streaming backend is configured.
func (c *Config) HasStreamingConfig() bool {
	return c.Streaming.URL != "" && c.Streaming.Token != ""
}

// HasSubsonicConfig returns true if a Subsonic server is configured.
func (c *Config) HasSubsonicConfig() bool {
	return c.Subsonic.URL != "" && c.Subsonic.Username != "" && c.Subsonic.Password != ""
}

// HasJellyfinConfig returns true if a Jellyfin server is configured.
func (c *Config) HasJellyfinConfig() bool {
	return c.Jellyfin.URL != "" && c.Jellyfin.APIKey != "" && c.Jellyfin.UserID != ""
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// PreferredQuality maps the configured quality string to a stream quality,
// defaulting to high.
func (c *Config) PreferredQuality() track.Quality {
	switch strings.ToLower(c.Quality) {
	case "low":
		return track.QualityLow
	case "lossless":
		return track.QualityLossless
	default:
		return track.QualityHigh
	}
}

// CrossfadeDuration returns the configured fade window with defaults applied.
func (c *Config) CrossfadeDuration() time.Duration {
	secs := c.Playback.CrossfadeSeconds
	if secs <= 0 {
		secs = 5
	}
	if secs > 30 {
		secs = 30
	}
	return time.Duration(secs * float64(time.Second))
}

// SearchDebounce returns the configured debounce with defaults applied.
func (c *Config) SearchDebounce() time.Duration {
	if c.Search.DebounceMS <= 0 {
		return 150 * time.Millisecond
	}
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// OrderSources converts provider_order to typed sources, dropping unknown names.
func (c *Config) OrderSources() []track.Source {
	var order []track.Source
	for _, name := range c.ProviderOrder {
		s := track.Source(strings.ToLower(name))
		if s.Valid() {
			order = append(order, s)
		}
	}
	return order
}

// DownloadDir returns the configured download folder, falling back to a
// cadence subdirectory of the user's music directory.
func (c *Config) DownloadDir() string {
	if c.DownloadFolder != "" {
		return c.DownloadFolder
	}
	return filepath.Join(xdg.UserDirs.Music, "cadence")
}
