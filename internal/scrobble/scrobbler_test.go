package scrobble

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lnicolet/cadence/internal/playback"
	"github.com/lnicolet/cadence/internal/state"
	"github.com/lnicolet/cadence/internal/track"
)

type fakeSubmitter struct {
	mu         sync.Mutex
	nowPlaying []Track
	scrobbles  []Track
	err        error
}

func (f *fakeSubmitter) UpdateNowPlaying(t Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nowPlaying = append(f.nowPlaying, t)
	return nil
}

func (f *fakeSubmitter) Scrobble(t Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.scrobbles = append(f.scrobbles, t)
	return nil
}

func (f *fakeSubmitter) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSubmitter) scrobbleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scrobbles)
}

func (f *fakeSubmitter) nowPlayingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nowPlaying)
}

func newFixture(t *testing.T) (*Scrobbler, *fakeSubmitter, *playback.Mock, *state.Manager) {
	t.Helper()
	store, err := state.OpenAt(filepath.Join(t.TempDir(), "cadence.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	sub := &fakeSubmitter{}
	svc := playback.NewMock()
	t.Cleanup(func() { svc.Close() })

	s := New(sub, store)
	s.Start(svc)
	t.Cleanup(s.Stop)

	return s, sub, svc, store
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func testTrack() track.Track {
	return track.Track{
		ID: "t1", Source: track.SourceLocal,
		Title: "Song", Artist: "Artist", Album: "Album",
		Duration: 4 * time.Minute,
	}
}

func TestShouldScrobble(t *testing.T) {
	tests := []struct {
		name string
		pos  time.Duration
		dur  time.Duration
		want bool
	}{
		{"short track never scrobbles", 19 * time.Second, 20 * time.Second, false},
		{"before halfway", 100 * time.Second, 240 * time.Second, false},
		{"at halfway", 120 * time.Second, 240 * time.Second, true},
		{"long track before four minutes", 3 * time.Minute, 20 * time.Minute, false},
		{"long track at four minutes", 4 * time.Minute, 20 * time.Minute, true},
		{"unknown duration", 10 * time.Minute, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldScrobble(tt.pos, tt.dur); got != tt.want {
				t.Errorf("shouldScrobble(%v, %v) = %v, want %v", tt.pos, tt.dur, got, tt.want)
			}
		})
	}
}

func TestNowPlayingSentOnTrackChange(t *testing.T) {
	_, sub, svc, _ := newFixture(t)

	tr := testTrack()
	svc.EmitTrack(playback.TrackChange{Current: &tr})

	waitFor(t, func() bool { return sub.nowPlayingCount() == 1 }, "now playing never sent")

	sub.mu.Lock()
	got := sub.nowPlaying[0]
	sub.mu.Unlock()
	if got.Artist != "Artist" || got.Name != "Song" {
		t.Errorf("now playing = %+v", got)
	}
}

func TestScrobbleAtHalfway(t *testing.T) {
	_, sub, svc, _ := newFixture(t)

	tr := testTrack()
	svc.EmitTrack(playback.TrackChange{Current: &tr})
	svc.EmitPosition(playback.PositionChange{Position: 1 * time.Minute, Duration: 4 * time.Minute})

	time.Sleep(50 * time.Millisecond)
	if sub.scrobbleCount() != 0 {
		t.Fatal("scrobbled before halfway")
	}

	svc.EmitPosition(playback.PositionChange{Position: 2 * time.Minute, Duration: 4 * time.Minute})
	waitFor(t, func() bool { return sub.scrobbleCount() == 1 }, "no scrobble at halfway")

	// Further ticks must not double-submit.
	svc.EmitPosition(playback.PositionChange{Position: 3 * time.Minute, Duration: 4 * time.Minute})
	time.Sleep(50 * time.Millisecond)
	if sub.scrobbleCount() != 1 {
		t.Errorf("scrobble count = %d, want 1", sub.scrobbleCount())
	}
}

func TestScrobbleResetsPerTrack(t *testing.T) {
	_, sub, svc, _ := newFixture(t)

	a := testTrack()
	svc.EmitTrack(playback.TrackChange{Current: &a})
	svc.EmitPosition(playback.PositionChange{Position: 2 * time.Minute, Duration: 4 * time.Minute})
	waitFor(t, func() bool { return sub.scrobbleCount() == 1 }, "first track never scrobbled")

	b := testTrack()
	b.ID, b.Title = "t2", "Second Song"
	svc.EmitTrack(playback.TrackChange{Previous: &a, Current: &b})
	svc.EmitPosition(playback.PositionChange{Position: 2 * time.Minute, Duration: 4 * time.Minute})
	waitFor(t, func() bool { return sub.scrobbleCount() == 2 }, "second track never scrobbled")

	sub.mu.Lock()
	got := sub.scrobbles[1].Name
	sub.mu.Unlock()
	if got != "Second Song" {
		t.Errorf("second scrobble = %q, want %q", got, "Second Song")
	}
}

func TestFailedScrobbleQueuedForRetry(t *testing.T) {
	s, sub, svc, store := newFixture(t)

	sub.setErr(errors.New("network down"))

	tr := testTrack()
	svc.EmitTrack(playback.TrackChange{Current: &tr})
	svc.EmitPosition(playback.PositionChange{Position: 2 * time.Minute, Duration: 4 * time.Minute})

	waitFor(t, func() bool {
		pending, err := store.GetPendingScrobbles()
		return err == nil && len(pending) == 1
	}, "failed scrobble never queued")

	// Recover and retry.
	sub.setErr(nil)
	s.retryPending()

	if sub.scrobbleCount() != 1 {
		t.Errorf("retry submitted %d scrobbles, want 1", sub.scrobbleCount())
	}
	pending, err := store.GetPendingScrobbles()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Error("pending scrobble survived successful retry")
	}
}

func TestRetrySkipsExhaustedAttempts(t *testing.T) {
	s, sub, _, store := newFixture(t)

	err := store.AddPendingScrobble(state.PendingScrobble{
		Artist: "Artist", Track: "Song", Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	pending, _ := store.GetPendingScrobbles()
	for i := 0; i < maxRetryAttempts; i++ {
		_ = store.UpdatePendingScrobbleAttempt(pending[0].ID, "still down")
	}

	s.retryPending()

	if sub.scrobbleCount() != 0 {
		t.Error("exhausted scrobble was retried")
	}
}
