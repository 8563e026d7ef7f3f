package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lnicolet/cadence/internal/audio"
	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/queue"
	"github.com/lnicolet/cadence/internal/resolve"
	"github.com/lnicolet/cadence/internal/track"
)

// ErrSuperseded is returned when a play intent's resolution completed
// after a newer intent had already taken over. Callers treat it as a
// non-error: the newer intent owns the transport.
var ErrSuperseded = errors.New("playback intent superseded")

// maxAutoSkip bounds consecutive automatic skips when tracks fail to
// resolve, so a queue of dead tracks cannot loop forever.
const maxAutoSkip = 3

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.Mutex

	queue    *queue.Queue
	resolver *resolve.Resolver
	registry *provider.Registry
	factory  audio.Factory

	session    audio.Session // nil when state is Empty
	sessionGen uint64        // play generation of the loaded session
	lastLoaded *track.Track  // track identity behind session
	state      State
	volume     float64

	// playGen is bumped on every play intent. A resolution whose
	// generation no longer matches is stale and discarded, so a slow
	// older resolution can never overwrite a newer, faster one.
	playGen uint64

	fade      fadeConfig
	fader     *fader
	primedGen uint64 // sessionGen for which crossfade priming already ran

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates a playback service owning the given queue and audio
// factory. The registry supplies provider capability flags for the
// crossfade dual-stream check.
func New(q *queue.Queue, r *resolve.Resolver, reg *provider.Registry, f audio.Factory) Service {
	return &serviceImpl{
		queue:    q,
		resolver: r,
		registry: reg,
		factory:  f,
		volume:   1.0,
		done:     make(chan struct{}),
	}
}

// PlayTrack replaces the ambient sequence with tracks and starts the
// one at index. If resolution fails the previous transport state is
// left untouched and the error is returned. If a newer PlayTrack call
// arrives while this one is resolving, this one is discarded and
// returns ErrSuperseded.
func (s *serviceImpl) PlayTrack(ctx context.Context, tracks []track.Track, index int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("service closed")
	}
	if index < 0 || index >= len(tracks) {
		s.mu.Unlock()
		return fmt.Errorf("track index %d out of range", index)
	}
	t := tracks[index]
	gen := s.nextGenLocked()
	s.mu.Unlock()

	ref, err := s.resolver.Resolve(ctx, t)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("service closed")
	}
	if gen != s.playGen {
		return ErrSuperseded
	}
	if err != nil {
		// Surface the error; whatever was playing keeps playing.
		return fmt.Errorf("play %q: %w", t.Title, err)
	}

	s.queue.Replace(tracks, index)
	if err := s.loadLocked(t, ref, gen); err != nil {
		return err
	}
	s.emitQueueLocked()
	return nil
}

// TogglePlay flips playing/paused without touching resolution.
func (s *serviceImpl) TogglePlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fader != nil {
		// Pausing mid-fade cuts the transition short.
		s.promoteLocked(s.fader)
	}
	if s.session == nil {
		return nil
	}

	prev := s.state
	switch s.state {
	case StatePlaying:
		s.session.Pause()
		s.state = StatePaused
	case StatePaused:
		s.session.Play()
		s.state = StatePlaying
	default:
		return nil
	}
	s.emitState(prev, s.state)
	return nil
}

// Stop unloads the current track and returns the transport to Empty.
// The queue itself is preserved.
func (s *serviceImpl) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

// Next advances to the next track: manual inserts first, then the
// ambient sequence under the active shuffle permutation and repeat
// mode. Tracks that fail to resolve or load skip forward with a
// notice, up to maxAutoSkip times.
func (s *serviceImpl) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked("next")
}

// Previous steps back in the ambient sequence. Manual inserts are not
// revisited. The cursor moves only once the previous track actually
// resolves, so a failure leaves Next relative to the current track.
func (s *serviceImpl) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.queue.PeekPrevious()
	if prev == nil {
		return nil
	}
	t := *prev
	gen := s.nextGenLocked()

	s.mu.Unlock()
	ref, err := s.resolver.Resolve(context.Background(), t)
	s.mu.Lock()

	if s.closed {
		return errors.New("service closed")
	}
	if gen != s.playGen {
		return ErrSuperseded
	}
	if err != nil {
		s.emitNotice(Notice{Operation: "previous", Track: &t, Err: err})
		return fmt.Errorf("play %q: %w", t.Title, err)
	}
	s.queue.Retreat()
	return s.loadLocked(t, ref, gen)
}

// advanceLocked implements nextTrack and auto-advance. The mutex must
// be held; it is released around resolution.
func (s *serviceImpl) advanceLocked(op string) error {
	for attempt := 0; attempt <= maxAutoSkip; attempt++ {
		next := s.queue.Advance()
		if next == nil {
			s.stopLocked()
			return nil
		}
		t := *next
		gen := s.nextGenLocked()

		s.mu.Unlock()
		ref, err := s.resolver.Resolve(context.Background(), t)
		s.mu.Lock()

		if s.closed {
			return errors.New("service closed")
		}
		if gen != s.playGen {
			return ErrSuperseded
		}
		if err != nil {
			s.emitNotice(Notice{Operation: op, Track: &t, Err: err})
			continue
		}
		// A track that resolves but will not load (missing codec, bad
		// stream) is skipped the same way a resolve failure is.
		if err := s.loadLocked(t, ref, gen); err != nil {
			s.emitNotice(Notice{Operation: op, Track: &t, Err: err})
			continue
		}
		return nil
	}

	s.emitNotice(Notice{Operation: op, Err: fmt.Errorf("stopped after %d unresolvable tracks", maxAutoSkip+1)})
	s.stopLocked()
	return nil
}

// loadLocked stops whatever is loaded, opens a fresh audio session for
// t, and starts playing it. The mutex must be held.
func (s *serviceImpl) loadLocked(t track.Track, ref resolve.PlayableRef, gen uint64) error {
	prevTrack := s.currentForEventsLocked()
	prevState := s.state
	s.stopSessionLocked()

	sess, err := s.factory()
	if err != nil {
		s.state = StateEmpty
		s.emitState(prevState, StateEmpty)
		return fmt.Errorf("open audio session: %w", err)
	}
	if err := sess.Load(ref.URI); err != nil {
		sess.Close()
		s.state = StateEmpty
		s.emitState(prevState, StateEmpty)
		return fmt.Errorf("load %q: %w", t.Title, err)
	}

	sess.SetGain(s.volume)
	sess.Play()

	s.session = sess
	s.sessionGen = gen
	s.state = StatePlaying
	cur := t
	s.lastLoaded = &cur

	go s.watch(sess, gen)

	s.emitTrack(TrackChange{Previous: prevTrack, Current: &cur})
	if prevState != StatePlaying {
		s.emitState(prevState, StatePlaying)
	}
	return nil
}

// watch fans a session's callbacks into the service until the session
// is superseded or the service closes.
func (s *serviceImpl) watch(sess audio.Session, gen uint64) {
	for {
		select {
		case <-s.done:
			return
		case pos, ok := <-sess.Ticks():
			if !ok {
				return
			}
			s.handleTick(sess, gen, pos)
		case _, ok := <-sess.Finished():
			if !ok {
				return
			}
			s.handleFinished(gen)
			return
		case err, ok := <-sess.Errors():
			if !ok {
				return
			}
			s.handleSessionError(gen, err)
		}
	}
}

func (s *serviceImpl) handleTick(sess audio.Session, gen uint64, pos time.Duration) {
	dur := sess.Duration()

	s.mu.Lock()
	if s.closed || gen != s.sessionGen {
		s.mu.Unlock()
		return
	}
	s.maybePrimeLocked(pos, dur)
	s.mu.Unlock()

	s.emitPosition(PositionChange{Position: pos, Duration: dur})
}

func (s *serviceImpl) handleFinished(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.sessionGen {
		return
	}
	if s.fader != nil {
		// The outgoing track ran out before the fade finished; cut to
		// the incoming track now.
		s.promoteLocked(s.fader)
		return
	}
	//nolint:errcheck // advance failures are surfaced as notices
	s.advanceLocked("next")
}

func (s *serviceImpl) handleSessionError(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.sessionGen {
		return
	}
	t := s.currentForEventsLocked()
	s.emitNotice(Notice{Operation: "play", Track: t, Err: err})
	//nolint:errcheck
	s.advanceLocked("next")
}

// Seek moves the position by delta, clamped to the track bounds.
func (s *serviceImpl) Seek(delta time.Duration) error {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return nil
	}
	return s.SeekTo(sess.Position() + delta)
}

// SeekTo jumps to position, clamped to [0, duration]. Track identity is
// unchanged.
func (s *serviceImpl) SeekTo(position time.Duration) error {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return nil
	}

	if position < 0 {
		position = 0
	}
	if dur := sess.Duration(); dur > 0 && position > dur {
		position = dur
	}
	if err := sess.SeekTo(position); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	s.emitPosition(PositionChange{Position: position, Duration: sess.Duration()})
	return nil
}

// QueueNext appends tracks to the manual "play next" list.
func (s *serviceImpl) QueueNext(tracks ...track.Track) {
	s.mu.Lock()
	s.queue.InsertNext(tracks...)
	s.emitQueueLocked()
	s.mu.Unlock()
}

// RemoveQueued removes a pending manual insert.
func (s *serviceImpl) RemoveQueued(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.queue.RemoveManual(index)
	if ok {
		s.emitQueueLocked()
	}
	return ok
}

// MoveTrack reorders the ambient sequence.
func (s *serviceImpl) MoveTrack(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.queue.Move(from, to)
	if ok {
		s.emitQueueLocked()
	}
	return ok
}

// ClearQueue drops the queue and stops playback.
func (s *serviceImpl) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.queue.Clear()
	s.emitQueueLocked()
}

func (s *serviceImpl) QueueTracks() []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Ambient()
}

// QueuedNext returns the pending manual inserts.
func (s *serviceImpl) QueuedNext() []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Manual()
}

// UpNext returns everything that will play after the current track, in
// play order.
func (s *serviceImpl) UpNext() []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Upcoming()
}

func (s *serviceImpl) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.CurrentAmbientIndex()
}

func (s *serviceImpl) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *serviceImpl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentTrack returns the track loaded in the transport, or nil.
func (s *serviceImpl) CurrentTrack() *track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentForEventsLocked()
}

func (s *serviceImpl) currentForEventsLocked() *track.Track {
	if s.state == StateEmpty || s.lastLoaded == nil {
		return nil
	}
	t := *s.lastLoaded
	return &t
}

// Position returns the playback position, or 0 when nothing is loaded.
func (s *serviceImpl) Position() time.Duration {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return 0
	}
	return sess.Position()
}

func (s *serviceImpl) Duration() time.Duration {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return 0
	}
	return sess.Duration()
}

// SetVolume clamps v to [0, 1] and applies it to the audio session.
// During a crossfade the scheduler owns session gain; the new volume
// takes effect as the fade target.
func (s *serviceImpl) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	s.mu.Lock()
	s.volume = v
	if s.session != nil && s.fader == nil {
		s.session.SetGain(v)
	}
	s.mu.Unlock()
	s.emitVolume(VolumeChange{Volume: v})
}

func (s *serviceImpl) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *serviceImpl) Repeat() queue.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Repeat()
}

func (s *serviceImpl) SetRepeat(m queue.RepeatMode) {
	s.mu.Lock()
	s.queue.SetRepeat(m)
	s.emitModeLocked()
	s.mu.Unlock()
}

func (s *serviceImpl) CycleRepeat() queue.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.queue.Repeat().Cycle()
	s.queue.SetRepeat(m)
	s.emitModeLocked()
	return m
}

func (s *serviceImpl) Shuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Shuffle()
}

func (s *serviceImpl) SetShuffle(enabled bool) {
	s.mu.Lock()
	s.queue.SetShuffle(enabled)
	s.emitModeLocked()
	s.mu.Unlock()
}

func (s *serviceImpl) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := !s.queue.Shuffle()
	s.queue.SetShuffle(on)
	s.emitModeLocked()
	return on
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close shuts down the service and all subscriptions.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.stopSessionLocked()
	s.state = StateEmpty
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

// nextGenLocked claims a new play generation.
func (s *serviceImpl) nextGenLocked() uint64 {
	s.playGen++
	return s.playGen
}

// stopLocked unloads the session and transitions to Empty.
func (s *serviceImpl) stopLocked() {
	prev := s.state
	s.stopSessionLocked()
	s.state = StateEmpty
	if prev != StateEmpty {
		s.emitState(prev, StateEmpty)
	}
}

// stopSessionLocked tears down the current session and any active
// crossfade without emitting state events.
func (s *serviceImpl) stopSessionLocked() {
	if s.fader != nil {
		s.fader.abortLocked()
		s.fader = nil
	}
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	// Invalidate in-flight watch callbacks for the old session.
	s.sessionGen = 0
}

// -- event fan-out -----------------------------------------------------

func (s *serviceImpl) emitState(prev, cur State) {
	if prev == cur {
		return
	}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendState(StateChange{Previous: prev, Current: cur})
	}
}

func (s *serviceImpl) emitTrack(e TrackChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendTrack(e)
	}
}

func (s *serviceImpl) emitPosition(e PositionChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendPosition(e)
	}
}

func (s *serviceImpl) emitQueueLocked() {
	e := QueueChange{Tracks: s.queue.Ambient(), Index: s.queue.CurrentAmbientIndex()}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendQueue(e)
	}
}

func (s *serviceImpl) emitModeLocked() {
	e := ModeChange{Repeat: s.queue.Repeat(), Shuffle: s.queue.Shuffle()}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendMode(e)
	}
}

func (s *serviceImpl) emitVolume(e VolumeChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendVolume(e)
	}
}

func (s *serviceImpl) emitNotice(e Notice) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendNotice(e)
	}
}
