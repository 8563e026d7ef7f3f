package playback

import (
	"context"
	"sync"
	"time"

	"github.com/lnicolet/cadence/internal/queue"
	"github.com/lnicolet/cadence/internal/track"
)

// Mock is a test double for Service. Event subscribers are exercised
// through the Emit helpers.
type Mock struct {
	mu      sync.Mutex
	subs    []*Subscription
	state   State
	current *track.Track
	pos     time.Duration
	dur     time.Duration
	volume  float64
	repeat  queue.RepeatMode
	shuffle bool
	tracks  []track.Track
	index   int

	calls []string
}

var _ Service = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{state: StateEmpty, volume: 1.0, index: -1}
}

func (m *Mock) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the method names invoked so far.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) PlayTrack(_ context.Context, tracks []track.Track, index int) error {
	m.mu.Lock()
	m.tracks = append([]track.Track(nil), tracks...)
	m.index = index
	if index >= 0 && index < len(tracks) {
		t := tracks[index]
		m.current = &t
	}
	m.state = StatePlaying
	m.calls = append(m.calls, "PlayTrack")
	m.mu.Unlock()
	return nil
}

func (m *Mock) TogglePlay() error { m.record("TogglePlay"); return nil }
func (m *Mock) Stop() error       { m.record("Stop"); return nil }
func (m *Mock) Next() error       { m.record("Next"); return nil }
func (m *Mock) Previous() error   { m.record("Previous"); return nil }

func (m *Mock) Seek(_ time.Duration) error   { m.record("Seek"); return nil }
func (m *Mock) SeekTo(_ time.Duration) error { m.record("SeekTo"); return nil }

func (m *Mock) QueueNext(tracks ...track.Track) {
	m.record("QueueNext")
	_ = tracks
}
func (m *Mock) RemoveQueued(_ int) bool  { m.record("RemoveQueued"); return false }
func (m *Mock) MoveTrack(_, _ int) bool  { m.record("MoveTrack"); return false }
func (m *Mock) ClearQueue()              { m.record("ClearQueue") }
func (m *Mock) QueuedNext() []track.Track { return nil }
func (m *Mock) UpNext() []track.Track     { return nil }

func (m *Mock) QueueTracks() []track.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]track.Track(nil), m.tracks...)
}

func (m *Mock) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

func (m *Mock) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracks)
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) CurrentTrack() *track.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dur
}

func (m *Mock) SetVolume(v float64) {
	m.mu.Lock()
	m.volume = v
	m.calls = append(m.calls, "SetVolume")
	m.mu.Unlock()
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) Repeat() queue.RepeatMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeat
}

func (m *Mock) SetRepeat(mode queue.RepeatMode) {
	m.mu.Lock()
	m.repeat = mode
	m.calls = append(m.calls, "SetRepeat")
	m.mu.Unlock()
}

func (m *Mock) CycleRepeat() queue.RepeatMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = m.repeat.Cycle()
	return m.repeat
}

func (m *Mock) Shuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shuffle
}

func (m *Mock) SetShuffle(enabled bool) {
	m.mu.Lock()
	m.shuffle = enabled
	m.calls = append(m.calls, "SetShuffle")
	m.mu.Unlock()
}

func (m *Mock) ToggleShuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shuffle = !m.shuffle
	return m.shuffle
}

func (m *Mock) SetCrossfade(_ bool, _ time.Duration) { m.record("SetCrossfade") }
func (m *Mock) Crossfade() (bool, time.Duration)     { return false, 0 }

func (m *Mock) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := newSubscription()
	m.subs = append(m.subs, sub)
	return sub
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		sub.close()
	}
	m.subs = nil
	return nil
}

// SetNow updates the mock's current track, state, position and duration
// without emitting events.
func (m *Mock) SetNow(t *track.Track, state State, pos, dur time.Duration) {
	m.mu.Lock()
	m.current = t
	m.state = state
	m.pos = pos
	m.dur = dur
	m.mu.Unlock()
}

// EmitTrack broadcasts a track change to all subscribers.
func (m *Mock) EmitTrack(e TrackChange) {
	m.mu.Lock()
	m.current = e.Current
	subs := append([]*Subscription(nil), m.subs...)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.sendTrack(e)
	}
}

// EmitState broadcasts a state change to all subscribers.
func (m *Mock) EmitState(e StateChange) {
	m.mu.Lock()
	m.state = e.Current
	subs := append([]*Subscription(nil), m.subs...)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.sendState(e)
	}
}

// EmitPosition broadcasts a position tick to all subscribers.
func (m *Mock) EmitPosition(e PositionChange) {
	m.mu.Lock()
	m.pos = e.Position
	m.dur = e.Duration
	subs := append([]*Subscription(nil), m.subs...)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.sendPosition(e)
	}
}

// EmitNotice broadcasts a notice to all subscribers.
func (m *Mock) EmitNotice(e Notice) {
	m.mu.Lock()
	subs := append([]*Subscription(nil), m.subs...)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.sendNotice(e)
	}
}
