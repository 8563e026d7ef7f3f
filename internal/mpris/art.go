//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lnicolet/cadence/internal/track"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// artURL picks the album art for a track: the catalog's cover URL when
// present, otherwise a sibling cover file for local tracks.
func artURL(t track.Track) string {
	if strings.HasPrefix(t.CoverArt, "http://") || strings.HasPrefix(t.CoverArt, "https://") {
		return t.CoverArt
	}
	if t.CoverArt != "" {
		return "file://" + t.CoverArt
	}
	if t.Path != "" {
		if artPath := FindAlbumArt(t.Path); artPath != "" {
			return "file://" + artPath
		}
	}
	return ""
}

// FindAlbumArt looks for album art in the same directory as the track.
// Returns the path to the art file, or empty string if not found.
func FindAlbumArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	for _, name := range coverNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
