package audio

import (
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const tickInterval = 200 * time.Millisecond

// The speaker is a process-wide singleton; all sessions mix into it at a
// fixed rate and resample their own streams.
const speakerSampleRate = beep.SampleRate(44100)

var speakerOnce sync.Once
var speakerErr error

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
	})
	return speakerErr
}

// NewBeepSession returns a Factory producing beep-backed sessions.
// Multiple sessions can play concurrently (they mix in the speaker),
// which the crossfade window relies on.
func NewBeepSession() (Session, error) {
	if err := initSpeaker(); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &beepSession{
		gain:     1.0,
		ticks:    make(chan time.Duration, 64),
		finished: make(chan struct{}, 1),
		errs:     make(chan error, 4),
		stopTick: make(chan struct{}),
	}, nil
}

type beepSession struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	closer   io.Closer // underlying file or http stream
	stopped  *stopper

	state  State
	gain   float64
	closed bool

	ticks    chan time.Duration
	finished chan struct{}
	errs     chan error
	stopTick chan struct{}
	tickOnce sync.Once
}

// stopper ends a streamer early without clearing the shared speaker,
// so stopping one session leaves a concurrent one playing.
type stopper struct {
	s       beep.Streamer
	stopped bool
}

func (x *stopper) Stream(samples [][2]float64) (int, bool) {
	if x.stopped {
		return 0, false
	}
	return x.s.Stream(samples)
}

func (x *stopper) Err() error {
	return x.s.Err()
}

func (s *beepSession) Load(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session closed")
	}
	if s.streamer != nil {
		return fmt.Errorf("session already loaded")
	}

	source, ext, err := openSource(uri)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(source)
	case ".flac":
		streamer, format, err = flac.Decode(source)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(source)
	case ".wav":
		streamer, format, err = wav.Decode(source)
	default:
		source.Close()
		return fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		source.Close()
		return fmt.Errorf("decode %s: %w", ext, err)
	}

	var play beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		play = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}

	s.ctrl = &beep.Ctrl{Streamer: play, Paused: true}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2, Volume: levelToVolume(s.gain)}
	s.stopped = &stopper{s: s.volume}
	s.streamer = streamer
	s.format = format
	s.closer = source
	s.state = Paused

	speaker.Play(beep.Seq(s.stopped, beep.Callback(s.onDrained)))
	return nil
}

// onDrained runs inside the speaker goroutine when the stream ends,
// either naturally or via the stopper. Only natural ends report Finished.
func (s *beepSession) onDrained() {
	s.mu.Lock()
	closed := s.closed
	manual := s.stopped != nil && s.stopped.stopped
	s.state = Stopped
	s.mu.Unlock()

	if closed || manual {
		return
	}
	select {
	case s.finished <- struct{}{}:
	default:
	}
}

func (s *beepSession) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil || s.closed {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	s.state = Playing
	s.tickOnce.Do(func() { go s.tickLoop() })
}

func (s *beepSession) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil || s.state != Playing {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.state = Paused
}

func (s *beepSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *beepSession) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *beepSession) positionLocked() time.Duration {
	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos)
}

func (s *beepSession) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

func (s *beepSession) SeekTo(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return fmt.Errorf("no stream loaded")
	}

	n := s.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if n > s.streamer.Len() {
		n = s.streamer.Len()
	}

	speaker.Lock()
	err := s.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

func (s *beepSession) SetGain(g float64) {
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = g
	if s.volume != nil {
		speaker.Lock()
		s.volume.Volume = levelToVolume(g)
		s.volume.Silent = g <= 0
		speaker.Unlock()
	}
}

func (s *beepSession) Gain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}

func (s *beepSession) Ticks() <-chan time.Duration { return s.ticks }
func (s *beepSession) Finished() <-chan struct{}   { return s.finished }
func (s *beepSession) Errors() <-chan error        { return s.errs }

func (s *beepSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = Stopped
	close(s.stopTick)

	if s.stopped != nil {
		speaker.Lock()
		s.stopped.stopped = true
		speaker.Unlock()
	}

	streamer := s.streamer
	closer := s.closer
	s.streamer = nil
	s.closer = nil
	s.mu.Unlock()

	if streamer != nil {
		streamer.Close()
	}
	if closer != nil {
		closer.Close()
	}
	return nil
}

func (s *beepSession) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopTick:
			return
		case <-ticker.C:
			s.mu.Lock()
			playing := s.state == Playing && s.streamer != nil
			var pos time.Duration
			if playing {
				pos = s.positionLocked()
			}
			s.mu.Unlock()

			if playing {
				select {
				case s.ticks <- pos:
				default:
				}
			}

			if err := s.streamErr(); err != nil {
				select {
				case s.errs <- err:
				default:
				}
			}
		}
	}
}

func (s *beepSession) streamErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return nil
	}
	speaker.Lock()
	err := s.streamer.Err()
	speaker.Unlock()
	return err
}

// openSource opens either a local file or an HTTP stream and reports the
// extension used to pick a decoder.
func openSource(uri string) (io.ReadSeekCloser, string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		hs, err := newHTTPSeeker(uri)
		if err != nil {
			return nil, "", err
		}
		return hs, extensionFor(uri, hs.ContentType()), nil
	}

	f, err := os.Open(uri)
	if err != nil {
		return nil, "", err
	}
	return f, strings.ToLower(filepath.Ext(uri)), nil
}

// extensionFor guesses the decoder for a stream URL from its path or the
// Content-Type the server reported.
func extensionFor(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(filepath.Ext(u.Path)); ext != "" {
			return ext
		}
	}
	switch {
	case strings.Contains(contentType, "flac"):
		return ".flac"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "wav"):
		return ".wav"
	default:
		return ".mp3"
	}
}

// levelToVolume converts a 0.0-1.0 level to beep's log scale (base 2).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// Verify beepSession implements Session at compile time.
var _ Session = (*beepSession)(nil)
