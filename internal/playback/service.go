package playback

import (
	"context"
	"time"

	"github.com/lnicolet/cadence/internal/queue"
	"github.com/lnicolet/cadence/internal/track"
)

// Service defines the playback transport contract. It owns the single
// audio output, the queue, and the authoritative "now playing" state.
type Service interface {
	// Playback control. PlayTrack replaces the ambient sequence with
	// tracks and starts playback at index.
	PlayTrack(ctx context.Context, tracks []track.Track, index int) error
	TogglePlay() error
	Stop() error
	Next() error
	Previous() error
	Seek(delta time.Duration) error
	SeekTo(position time.Duration) error

	// Queue manipulation
	QueueNext(tracks ...track.Track) // manual "play next" inserts
	RemoveQueued(index int) bool
	MoveTrack(from, to int) bool
	ClearQueue()

	// Queue queries
	QueueTracks() []track.Track
	QueuedNext() []track.Track
	UpNext() []track.Track
	CurrentIndex() int
	QueueLen() int

	// State queries
	State() State
	CurrentTrack() *track.Track
	Position() time.Duration
	Duration() time.Duration

	// Volume
	SetVolume(v float64)
	Volume() float64

	// Mode control
	Repeat() queue.RepeatMode
	SetRepeat(m queue.RepeatMode)
	CycleRepeat() queue.RepeatMode
	Shuffle() bool
	SetShuffle(enabled bool)
	ToggleShuffle() bool

	// Crossfade control
	SetCrossfade(enabled bool, duration time.Duration)
	Crossfade() (bool, time.Duration)

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
