package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lnicolet/cadence/internal/track"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/albums",
			expected: "music/albums",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "cadence", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func TestHasBackendConfigs(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		check    func(*Config) bool
		expected bool
	}{
		{
			name: "streaming url and token set",
			config: Config{Streaming: StreamingConfig{
				URL:   "https://stream.example.com",
				Token: "tok",
			}},
			check:    (*Config).HasStreamingConfig,
			expected: true,
		},
		{
			name:     "streaming url only",
			config:   Config{Streaming: StreamingConfig{URL: "https://stream.example.com"}},
			check:    (*Config).HasStreamingConfig,
			expected: false,
		},
		{
			name: "subsonic fully configured",
			config: Config{Subsonic: SubsonicConfig{
				URL: "https://music.example.com", Username: "u", Password: "p",
			}},
			check:    (*Config).HasSubsonicConfig,
			expected: true,
		},
		{
			name: "subsonic missing password",
			config: Config{Subsonic: SubsonicConfig{
				URL: "https://music.example.com", Username: "u",
			}},
			check:    (*Config).HasSubsonicConfig,
			expected: false,
		},
		{
			name: "jellyfin fully configured",
			config: Config{Jellyfin: JellyfinConfig{
				URL: "https://jf.example.com", APIKey: "k", UserID: "id",
			}},
			check:    (*Config).HasJellyfinConfig,
			expected: true,
		},
		{
			name:     "jellyfin empty",
			config:   Config{},
			check:    (*Config).HasJellyfinConfig,
			expected: false,
		},
		{
			name: "lastfm key and secret set",
			config: Config{Lastfm: LastfmConfig{
				APIKey: "k", APISecret: "s",
			}},
			check:    (*Config).HasLastfmConfig,
			expected: true,
		},
		{
			name:     "lastfm key only",
			config:   Config{Lastfm: LastfmConfig{APIKey: "k"}},
			check:    (*Config).HasLastfmConfig,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(&tt.config); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPreferredQuality(t *testing.T) {
	tests := []struct {
		quality  string
		expected track.Quality
	}{
		{"low", track.QualityLow},
		{"high", track.QualityHigh},
		{"lossless", track.QualityLossless},
		{"LOSSLESS", track.QualityLossless},
		{"", track.QualityHigh},
		{"bogus", track.QualityHigh},
	}

	for _, tt := range tests {
		cfg := Config{Quality: tt.quality}
		if got := cfg.PreferredQuality(); got != tt.expected {
			t.Errorf("PreferredQuality(%q) = %v, want %v", tt.quality, got, tt.expected)
		}
	}
}

func TestCrossfadeDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected time.Duration
	}{
		{0, 5 * time.Second},
		{-1, 5 * time.Second},
		{2.5, 2500 * time.Millisecond},
		{12, 12 * time.Second},
		{120, 30 * time.Second},
	}

	for _, tt := range tests {
		cfg := Config{Playback: PlaybackConfig{CrossfadeSeconds: tt.seconds}}
		if got := cfg.CrossfadeDuration(); got != tt.expected {
			t.Errorf("CrossfadeDuration(%v) = %v, want %v", tt.seconds, got, tt.expected)
		}
	}
}

func TestSearchDebounce(t *testing.T) {
	cfg := Config{}
	if got := cfg.SearchDebounce(); got != 150*time.Millisecond {
		t.Errorf("default debounce = %v, want 150ms", got)
	}

	cfg.Search.DebounceMS = 300
	if got := cfg.SearchDebounce(); got != 300*time.Millisecond {
		t.Errorf("debounce = %v, want 300ms", got)
	}
}

func TestOrderSources(t *testing.T) {
	cfg := Config{ProviderOrder: []string{"local", "Subsonic", "bogus", "jellyfin"}}

	got := cfg.OrderSources()
	want := []track.Source{track.SourceLocal, track.SourceSubsonic, track.SourceJellyfin}
	if len(got) != len(want) {
		t.Fatalf("OrderSources() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OrderSources()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoad_BasicConfig(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	configContent := `
quality = "lossless"
library_sources = ["/music", "~/library"]
provider_order = ["local", "subsonic"]

[playback]
crossfade = true
crossfade_seconds = 8

[subsonic]
url = "https://music.example.com/"
username = "demo"
password = "secret"
`
	if err := os.WriteFile("config.toml", []byte(configContent), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Quality != "lossless" {
		t.Errorf("Quality = %q, want %q", cfg.Quality, "lossless")
	}
	if !cfg.Playback.Crossfade {
		t.Error("Playback.Crossfade = false, want true")
	}
	if cfg.CrossfadeDuration() != 8*time.Second {
		t.Errorf("CrossfadeDuration() = %v, want 8s", cfg.CrossfadeDuration())
	}

	// Check that URL trailing slash is removed
	if cfg.Subsonic.URL != "https://music.example.com" {
		t.Errorf("Subsonic.URL = %q, want %q", cfg.Subsonic.URL, "https://music.example.com")
	}
	if !cfg.HasSubsonicConfig() {
		t.Error("HasSubsonicConfig() = false, want true")
	}

	if len(cfg.LibrarySources) != 2 {
		t.Fatalf("LibrarySources length = %d, want 2", len(cfg.LibrarySources))
	}
	if cfg.LibrarySources[0] != "/music" {
		t.Errorf("LibrarySources[0] = %q, want %q", cfg.LibrarySources[0], "/music")
	}
	home, _ := os.UserHomeDir()
	expectedSecond := filepath.Join(home, "library")
	if cfg.LibrarySources[1] != expectedSecond {
		t.Errorf("LibrarySources[1] = %q, want %q", cfg.LibrarySources[1], expectedSecond)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	if err := os.WriteFile("config.toml", []byte("invalid = [[["), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	_, err = Load()
	if err == nil {
		t.Error("Load() expected error for invalid TOML, got nil")
	}
}
