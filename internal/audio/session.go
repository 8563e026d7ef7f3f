// Package audio defines the native audio session boundary. The transport
// owns exactly one live session at a time, except during a crossfade when
// the scheduler briefly runs an outgoing and an incoming session together.
package audio

import "time"

// State represents the session playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Session is a single loaded audio stream. Load prepares the stream,
// Play/Pause control it, SetGain scales its output, and the channels
// report progress until Close.
type Session interface {
	// Load opens the given file path or stream URL and prepares playback.
	Load(uri string) error
	Play()
	Pause()
	State() State

	Position() time.Duration
	Duration() time.Duration
	SeekTo(pos time.Duration) error

	// SetGain sets the output gain in [0, 1].
	SetGain(g float64)
	Gain() float64

	// Ticks delivers playback-position updates while playing.
	Ticks() <-chan time.Duration
	// Finished fires once when the stream plays to its end.
	Finished() <-chan struct{}
	// Errors reports asynchronous decode/backend failures.
	Errors() <-chan error

	// Close releases the stream and stops all channels.
	Close() error
}

// Factory creates sessions. The transport uses it for the current track
// and the crossfade scheduler for the incoming one.
type Factory func() (Session, error)
