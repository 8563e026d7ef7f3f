package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/track"
)

func TestCrossfade_PrimesOnlyInsideWindow(t *testing.T) {
	f := newFixture(t)
	f.svc.SetCrossfade(true, 100*time.Millisecond)

	a := f.localTrack(t, "a")
	b := f.localTrack(t, "b")
	if err := f.svc.PlayTrack(context.Background(), []track.Track{a, b}, 0); err != nil {
		t.Fatal(err)
	}
	sess := f.created.At(0)
	sess.SetDuration(200 * time.Millisecond)

	// Remaining 150ms > 100ms window: no priming yet.
	sess.EmitTick(50 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if n := f.created.Len(); n != 1 {
		t.Fatalf("%d sessions after tick outside window, want 1", n)
	}

	// Remaining 80ms <= window: priming starts.
	sess.EmitTick(120 * time.Millisecond)
	waitFor(t, func() bool { return f.created.Len() == 2 },
		"next track never primed inside the fade window")

	incoming := f.created.At(1)
	if gains := incoming.GainCalls(); len(gains) == 0 || gains[0] != 0 {
		t.Errorf("incoming gain calls = %v, want first call 0", gains)
	}

	// The fade completes and the incoming track takes over at full
	// user volume.
	waitFor(t, func() bool {
		cur := f.svc.CurrentTrack()
		return cur != nil && cur.ID == "b" && f.svc.State() == StatePlaying
	}, "crossfade never completed")
	if got := incoming.Gain(); got != 1.0 {
		t.Errorf("incoming gain after fade = %f, want user volume 1.0", got)
	}
	waitFor(t, func() bool { return f.created.At(0).Closed() },
		"outgoing session never closed")
}

func TestCrossfade_PrimesOncePerTrack(t *testing.T) {
	f := newFixture(t)
	f.svc.SetCrossfade(true, time.Minute) // window far larger than the fade loop will finish in

	a := f.localTrack(t, "a")
	b := f.localTrack(t, "b")
	if err := f.svc.PlayTrack(context.Background(), []track.Track{a, b}, 0); err != nil {
		t.Fatal(err)
	}
	sess := f.created.At(0)
	sess.SetDuration(30 * time.Second)

	// The window clamps to the whole track, so every tick is inside
	// it; repeated ticks must not prime again.
	sess.EmitTick(time.Millisecond)
	sess.EmitTick(2 * time.Millisecond)
	sess.EmitTick(3 * time.Millisecond)

	waitFor(t, func() bool { return f.created.Len() >= 2 }, "priming never happened")
	time.Sleep(50 * time.Millisecond)
	if n := f.created.Len(); n != 2 {
		t.Errorf("%d sessions created, want 2 (priming must run once)", n)
	}
}

func TestCrossfade_ManualInsertDuringFadeSurvives(t *testing.T) {
	f := newFixture(t)
	f.svc.SetCrossfade(true, 100*time.Millisecond)

	a := f.localTrack(t, "a")
	b := f.localTrack(t, "b")
	m := f.localTrack(t, "m")
	if err := f.svc.PlayTrack(context.Background(), []track.Track{a, b}, 0); err != nil {
		t.Fatal(err)
	}
	sess := f.created.At(0)
	sess.SetDuration(200 * time.Millisecond)

	sess.EmitTick(150 * time.Millisecond)
	waitFor(t, func() bool { return f.created.Len() == 2 }, "priming never started")

	// Queued while the fade is running: promotion must not consume it.
	f.svc.QueueNext(m)

	waitFor(t, func() bool {
		cur := f.svc.CurrentTrack()
		return cur != nil && cur.ID == "b"
	}, "crossfade never completed")

	pending := f.svc.QueuedNext()
	if len(pending) != 1 || pending[0].ID != "m" {
		t.Fatalf("QueuedNext() = %v, want the insert still pending", pending)
	}

	f.created.At(1).EmitFinished()
	waitFor(t, func() bool {
		cur := f.svc.CurrentTrack()
		return cur != nil && cur.ID == "m"
	}, "manual insert never played after the fade")
}

func TestCrossfade_WindowClampedToTrackDuration(t *testing.T) {
	f := newFixture(t)
	f.svc.SetCrossfade(true, 10*time.Second)

	a := f.localTrack(t, "a")
	b := f.localTrack(t, "b")
	if err := f.svc.PlayTrack(context.Background(), []track.Track{a, b}, 0); err != nil {
		t.Fatal(err)
	}
	sess := f.created.At(0)
	sess.SetDuration(100 * time.Millisecond)

	// First tick is already inside the clamped window.
	sess.EmitTick(10 * time.Millisecond)
	waitFor(t, func() bool { return f.created.Len() == 2 },
		"priming should begin immediately when the fade outlasts the track")
}

func TestCrossfade_RequiresDualStreamCapability(t *testing.T) {
	f := newFixture(t)
	f.svc.SetCrossfade(true, 100*time.Millisecond)
	f.streaming.SetCapabilities(provider.Capabilities{
		Searchable: true, NetworkResolve: true, DualStream: false,
	})

	a := f.localTrack(t, "a")
	b := streamingTrack("b")
	if err := f.svc.PlayTrack(context.Background(), []track.Track{a, b}, 0); err != nil {
		t.Fatal(err)
	}
	sess := f.created.At(0)
	sess.SetDuration(200 * time.Millisecond)

	sess.EmitTick(150 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if n := f.created.Len(); n != 1 {
		t.Fatalf("%d sessions, want 1 (no priming without dual-stream support)", n)
	}

	// End of track falls back to a direct cut.
	sess.EmitFinished()
	waitFor(t, func() bool {
		cur := f.svc.CurrentTrack()
		return cur != nil && cur.ID == "b"
	}, "direct cut advance never happened")
}

func TestCrossfade_ResolveFailureAbortsFade(t *testing.T) {
	f := newFixture(t)
	f.svc.SetCrossfade(true, 100*time.Millisecond)
	f.streaming.SetResolveError(errors.New("tokens expired"))
	sub := f.svc.Subscribe()

	a := f.localTrack(t, "a")
	bad := streamingTrack("bad")
	if err := f.svc.PlayTrack(context.Background(), []track.Track{a, bad}, 0); err != nil {
		t.Fatal(err)
	}
	sess := f.created.At(0)
	sess.SetDuration(200 * time.Millisecond)

	sess.EmitTick(150 * time.Millisecond)

	var notice Notice
	select {
	case notice = <-sub.Notices:
	case <-time.After(time.Second):
		t.Fatal("no notice for failed crossfade priming")
	}
	if notice.Operation != "crossfade" {
		t.Errorf("notice operation = %q, want crossfade", notice.Operation)
	}
	if n := f.created.Len(); n != 1 {
		t.Errorf("%d sessions, want 1 (no incoming session on failed priming)", n)
	}

	// End of track applies the normal skip logic; with nothing else
	// resolvable the transport stops.
	sess.EmitFinished()
	waitFor(t, func() bool { return f.svc.State() == StateEmpty },
		"transport never stopped after failed advance")
}

func TestFadeGains(t *testing.T) {
	out, in := fadeGains(0, 0.8)
	assert.Equal(t, 0.8, out)
	assert.Equal(t, 0.0, in)

	out, in = fadeGains(1, 0.8)
	assert.InDelta(t, 0.0, out, 1e-9)
	assert.InDelta(t, 0.8, in, 1e-9)

	// Equal-power midpoint: both sides at vol/sqrt(2).
	out, in = fadeGains(0.5, 1.0)
	assert.InDelta(t, out, in, 1e-9)

	// Monotonic in both directions.
	prevOut, prevIn := fadeGains(0, 1.0)
	for p := 0.1; p <= 1.0; p += 0.1 {
		out, in := fadeGains(p, 1.0)
		assert.LessOrEqual(t, out, prevOut, "outgoing gain rose at p=%f", p)
		assert.GreaterOrEqual(t, in, prevIn, "incoming gain fell at p=%f", p)
		prevOut, prevIn = out, in
	}
}
