package playback

import (
	"time"

	"github.com/lnicolet/cadence/internal/queue"
	"github.com/lnicolet/cadence/internal/track"
)

// StateChange is emitted when the transport state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when playback starts on a different track.
//
// Emitted by:
//   - PlayTrack: when the resolved track actually loads
//   - Next/Previous: when navigating with playback control
//   - auto-advance: when a track ends and the next one loads
//   - crossfade completion: when the incoming track becomes current
//
// NOT emitted by:
//   - TogglePlay/Stop: state changes do not emit TrackChange
//   - a superseded PlayTrack whose resolution lost to a newer intent
//
// Subscribers handle all track-level side effects (desktop
// notifications, scrobbling, MPRIS metadata) off this event.
type TrackChange struct {
	Previous *track.Track
	Current  *track.Track
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []track.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	Repeat  queue.RepeatMode
	Shuffle bool
}

// PositionChange is emitted on position ticks and seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// VolumeChange is emitted when the user volume changes.
type VolumeChange struct {
	Volume float64
}

// Notice is emitted for recoverable failures the user should see
// without playback stopping, such as a track skipped because its
// provider could not resolve a stream.
type Notice struct {
	Operation string // e.g. "play", "next", "crossfade"
	Track     *track.Track
	Err       error
}
