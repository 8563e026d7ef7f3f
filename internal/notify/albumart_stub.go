//go:build !linux

package notify

import "github.com/lnicolet/cadence/internal/track"

// artIcon returns empty on non-Linux platforms.
// Desktop notifications are only supported on Linux via D-Bus.
func artIcon(_ track.Track) string {
	return ""
}
