//go:build linux

package notify

import (
	"strings"

	"github.com/lnicolet/cadence/internal/mpris"
	"github.com/lnicolet/cadence/internal/track"
)

// artIcon returns the notification icon for a track. Notification servers
// take a file path or icon name, so remote cover URLs are not usable here;
// local tracks fall back to a sibling cover file.
func artIcon(t track.Track) string {
	if t.CoverArt != "" && !strings.HasPrefix(t.CoverArt, "http") {
		return t.CoverArt
	}
	if t.Path != "" {
		return mpris.FindAlbumArt(t.Path)
	}
	return ""
}
