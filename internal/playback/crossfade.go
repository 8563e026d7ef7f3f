package playback

import (
	"context"
	"math"
	"time"

	"github.com/lnicolet/cadence/internal/audio"
	"github.com/lnicolet/cadence/internal/track"
)

// fadeStep is the gain update interval during a crossfade.
const fadeStep = 25 * time.Millisecond

type fadeConfig struct {
	enabled  bool
	duration time.Duration
}

// SetCrossfade enables or disables crossfading with the given fade
// duration. A non-positive duration disables it.
func (s *serviceImpl) SetCrossfade(enabled bool, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if duration <= 0 {
		enabled = false
	}
	s.fade = fadeConfig{enabled: enabled, duration: duration}
}

func (s *serviceImpl) Crossfade() (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fade.enabled, s.fade.duration
}

// maybePrimeLocked triggers crossfade priming once per loaded track,
// when remaining time falls inside the fade window. The mutex must be
// held.
func (s *serviceImpl) maybePrimeLocked(pos, dur time.Duration) {
	if !s.fade.enabled || s.state != StatePlaying || s.fader != nil {
		return
	}
	if s.primedGen == s.sessionGen || dur <= 0 {
		return
	}

	// A fade longer than the track clamps to the track, so priming
	// begins immediately on load.
	window := s.fade.duration
	if window > dur {
		window = dur
	}
	if dur-pos > window {
		return
	}

	next, ok := s.queue.Peek()
	if !ok {
		return
	}
	cur := s.lastLoaded
	if cur == nil || !s.dualStreamOKLocked(cur.Source) || !s.dualStreamOKLocked(next.Source) {
		// One side cannot sustain two concurrent streams; fall back to
		// a direct cut at end of track.
		s.primedGen = s.sessionGen
		return
	}

	s.primedGen = s.sessionGen
	go s.runCrossfade(*next, s.sessionGen, window)
}

// dualStreamOKLocked reports whether a provider can sustain two
// concurrent streams. Local files always can.
func (s *serviceImpl) dualStreamOKLocked(src track.Source) bool {
	if src == track.SourceLocal {
		return true
	}
	if s.registry == nil {
		return false
	}
	return s.registry.Capabilities(src).DualStream
}

// fader runs one crossfade: it owns gain for both sessions until the
// transition completes or is aborted.
type fader struct {
	outgoing audio.Session
	incoming audio.Session
	next     track.Track
	gen      uint64 // sessionGen of the outgoing track
	window   time.Duration
	cancel   chan struct{}
}

// runCrossfade resolves and primes the next track, then fades it in
// while fading the current track out.
func (s *serviceImpl) runCrossfade(next track.Track, gen uint64, window time.Duration) {
	ref, err := s.resolver.Resolve(context.Background(), next)
	if err != nil {
		s.mu.Lock()
		if !s.closed && gen == s.sessionGen {
			// Abort the fade; the end-of-track advance will apply the
			// normal skip logic.
			s.emitNotice(Notice{Operation: "crossfade", Track: &next, Err: err})
		}
		s.mu.Unlock()
		return
	}

	incoming, err := s.factory()
	if err == nil {
		err = incoming.Load(ref.URI)
	}
	if err != nil {
		if incoming != nil {
			incoming.Close()
		}
		s.mu.Lock()
		if !s.closed && gen == s.sessionGen {
			s.emitNotice(Notice{Operation: "crossfade", Track: &next, Err: err})
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.closed || gen != s.sessionGen || s.fader != nil {
		// A newer intent took the transport while we were priming.
		s.mu.Unlock()
		incoming.Close()
		return
	}

	f := &fader{
		outgoing: s.session,
		incoming: incoming,
		next:     next,
		gen:      gen,
		window:   window,
		cancel:   make(chan struct{}),
	}
	s.fader = f

	incoming.SetGain(0)
	incoming.Play()

	prev := s.state
	s.state = StateTransitioning
	s.emitState(prev, StateTransitioning)
	s.mu.Unlock()

	s.fadeLoop(f)
}

// fadeLoop steps both gains along an equal-power curve until the window
// elapses, then promotes the incoming session.
func (s *serviceImpl) fadeLoop(f *fader) {
	start := time.Now()
	ticker := time.NewTicker(fadeStep)
	defer ticker.Stop()

	for {
		select {
		case <-f.cancel:
			return
		case <-s.done:
			return
		case <-ticker.C:
			p := float64(time.Since(start)) / float64(f.window)
			if p >= 1 {
				s.mu.Lock()
				if s.fader == f {
					s.promoteLocked(f)
				}
				s.mu.Unlock()
				return
			}

			s.mu.Lock()
			if s.fader != f {
				s.mu.Unlock()
				return
			}
			out, in := fadeGains(p, s.volume)
			s.mu.Unlock()

			f.outgoing.SetGain(out)
			f.incoming.SetGain(in)
		}
	}
}

// fadeGains returns the outgoing and incoming gains at progress p in
// [0, 1] for target volume vol. The curve is equal-power: monotonic,
// symmetric, and sums to constant perceived loudness.
func fadeGains(p, vol float64) (out, in float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	out = vol * math.Cos(p*math.Pi/2)
	in = vol * math.Sin(p*math.Pi/2)
	return out, in
}

// promoteLocked completes a crossfade: the incoming session becomes the
// transport's session at full volume and the queue cursor advances. The
// mutex must be held.
func (s *serviceImpl) promoteLocked(f *fader) {
	if s.fader != f {
		return
	}
	close(f.cancel)
	s.fader = nil

	f.incoming.SetGain(s.volume)
	f.outgoing.Close()

	prevTrack := s.lastLoaded
	prevState := s.state

	gen := s.nextGenLocked()
	s.session = f.incoming
	s.sessionGen = gen
	cur := f.next
	s.lastLoaded = &cur
	s.state = StatePlaying

	// Consume the queue entry we primed from. The queue may have changed
	// during the fade: a manual insert queued mid-fade is now at the
	// head and must survive to play in its turn, so only advance when
	// the head is still the track we promoted.
	if head, ok := s.queue.Peek(); ok && head.Key() == cur.Key() {
		s.queue.Advance()
	}

	go s.watch(f.incoming, gen)

	s.emitTrack(TrackChange{Previous: prevTrack, Current: &cur})
	s.emitState(prevState, StatePlaying)
	s.emitQueueLocked()
}

// abortLocked cancels the fade and closes the primed incoming session.
// Called from stopSessionLocked with the mutex held; the outgoing
// session is closed by the caller.
func (f *fader) abortLocked() {
	select {
	case <-f.cancel:
	default:
		close(f.cancel)
	}
	f.incoming.Close()
}
