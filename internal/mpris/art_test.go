//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lnicolet/cadence/internal/track"
)

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(coverPath, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	trackPath := filepath.Join(dir, "track.mp3")

	got := FindAlbumArt(trackPath)
	if got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q", got, coverPath)
	}
}

func TestFindAlbumArt_NotFound(t *testing.T) {
	dir := t.TempDir()
	trackPath := filepath.Join(dir, "track.mp3")

	got := FindAlbumArt(trackPath)
	if got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty string", got)
	}
}

func TestFindAlbumArt_Priority(t *testing.T) {
	dir := t.TempDir()

	// Create folder.jpg (lower priority)
	folderPath := filepath.Join(dir, "folder.jpg")
	if err := os.WriteFile(folderPath, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Create cover.jpg (higher priority)
	coverPath := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(coverPath, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	trackPath := filepath.Join(dir, "track.mp3")

	got := FindAlbumArt(trackPath)
	if got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q (higher priority)", got, coverPath)
	}
}

func TestArtURL_RemoteCoverWins(t *testing.T) {
	tr := track.Track{CoverArt: "https://cdn.example.com/cover.jpg"}

	got := artURL(tr)
	if got != "https://cdn.example.com/cover.jpg" {
		t.Errorf("artURL() = %q, want remote URL", got)
	}
}

func TestArtURL_LocalCoverPath(t *testing.T) {
	tr := track.Track{CoverArt: "/music/album/cover.jpg"}

	got := artURL(tr)
	if got != "file:///music/album/cover.jpg" {
		t.Errorf("artURL() = %q, want file URL", got)
	}
}

func TestArtURL_FallsBackToSiblingFile(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "front.png")
	if err := os.WriteFile(coverPath, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	tr := track.Track{Path: filepath.Join(dir, "track.flac")}

	got := artURL(tr)
	if got != "file://"+coverPath {
		t.Errorf("artURL() = %q, want %q", got, "file://"+coverPath)
	}
}
