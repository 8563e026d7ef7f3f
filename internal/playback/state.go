package playback

// State represents the transport state.
type State int

const (
	// StateEmpty means no track is loaded.
	StateEmpty State = iota
	StatePlaying
	StatePaused
	// StateTransitioning is active only while a crossfade is running
	// between two tracks.
	StateTransitioning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateTransitioning:
		return "Transitioning"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing, paused, or
// mid-transition).
func (s State) IsActive() bool {
	return s != StateEmpty
}
