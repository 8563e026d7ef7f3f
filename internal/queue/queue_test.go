package queue

import (
	"testing"

	"github.com/lnicolet/cadence/internal/track"
)

func tracks(ids ...string) []track.Track {
	out := make([]track.Track, len(ids))
	for i, id := range ids {
		out[i] = track.Track{ID: id, Source: track.SourceLocal, Title: id}
	}
	return out
}

func TestNew(t *testing.T) {
	q := New()

	if !q.IsEmpty() {
		t.Error("new queue should be empty")
	}
	if q.Current() != nil {
		t.Error("Current() should be nil for empty queue")
	}
	if got := q.Advance(); got != nil {
		t.Errorf("Advance() = %v, want nil", got)
	}
}

func TestReplace(t *testing.T) {
	q := New()

	cur := q.Replace(tracks("a", "b", "c"), 1)

	if cur == nil || cur.ID != "b" {
		t.Fatalf("Replace returned %v, want b", cur)
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	if got := q.CurrentAmbientIndex(); got != 1 {
		t.Errorf("CurrentAmbientIndex() = %d, want 1", got)
	}
}

func TestReplace_ClearsManualInserts(t *testing.T) {
	q := New()
	q.Replace(tracks("a"), 0)
	q.InsertNext(tracks("m")...)

	q.Replace(tracks("x", "y"), 0)

	if got := len(q.Manual()); got != 0 {
		t.Errorf("manual list has %d entries after Replace, want 0", got)
	}
}

func TestReplace_OutOfBounds(t *testing.T) {
	q := New()

	if got := q.Replace(tracks("a"), 5); got != nil {
		t.Errorf("Replace with bad index = %v, want nil", got)
	}
	if q.Current() != nil {
		t.Error("Current() should be nil after out-of-bounds Replace")
	}
}

func TestAdvance_AmbientOrder(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c"), 0)

	want := []string{"b", "c"}
	for _, id := range want {
		got := q.Advance()
		if got == nil || got.ID != id {
			t.Fatalf("Advance() = %v, want %s", got, id)
		}
	}
	if got := q.Advance(); got != nil {
		t.Errorf("Advance() past end = %v, want nil", got)
	}
	if q.Current() != nil {
		t.Error("Current() should be nil after sequence exhausted")
	}
}

func TestAdvance_ManualConsumedOnce(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b"), 0)
	q.InsertNext(tracks("m")...)

	first := q.Advance()
	if first == nil || first.ID != "m" {
		t.Fatalf("first Advance() = %v, want manual track m", first)
	}

	second := q.Advance()
	if second == nil || second.ID != "b" {
		t.Fatalf("second Advance() = %v, want b (manual drained)", second)
	}
	if got := len(q.Manual()); got != 0 {
		t.Errorf("manual list has %d entries, want 0", got)
	}
}

func TestAdvance_ManualDrainedInOrder(t *testing.T) {
	q := New()
	q.Replace(tracks("a"), 0)
	q.InsertNext(tracks("m1", "m2")...)

	if got := q.Advance(); got == nil || got.ID != "m1" {
		t.Fatalf("Advance() = %v, want m1", got)
	}
	if got := q.Advance(); got == nil || got.ID != "m2" {
		t.Fatalf("Advance() = %v, want m2", got)
	}
}

func TestAdvance_RepeatOne(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b"), 0)
	q.SetRepeat(RepeatOne)

	for i := 0; i < 5; i++ {
		got := q.Advance()
		if got == nil || got.ID != "a" {
			t.Fatalf("Advance() #%d = %v, want a", i, got)
		}
	}
}

func TestAdvance_RepeatAllWraps(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b"), 1)
	q.SetRepeat(RepeatAll)

	got := q.Advance()
	if got == nil || got.ID != "a" {
		t.Fatalf("Advance() at end with repeat all = %v, want a", got)
	}
}

func TestPeek_DoesNotConsume(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b"), 0)
	q.InsertNext(tracks("m")...)

	peeked, ok := q.Peek()
	if !ok || peeked.ID != "m" {
		t.Fatalf("Peek() = %v %v, want m true", peeked, ok)
	}
	if got := len(q.Manual()); got != 1 {
		t.Errorf("Peek consumed the manual insert")
	}
	if cur := q.Current(); cur == nil || cur.ID != "a" {
		t.Errorf("Current() = %v, want a (unchanged)", cur)
	}
}

func TestPeek_AtEnd(t *testing.T) {
	q := New()
	q.Replace(tracks("a"), 0)

	if _, ok := q.Peek(); ok {
		t.Error("Peek() at end of sequence should report false")
	}
}

func TestRetreat(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c"), 2)

	got := q.Retreat()
	if got == nil || got.ID != "b" {
		t.Fatalf("Retreat() = %v, want b", got)
	}
}

func TestPeekPrevious_DoesNotMoveCursor(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c"), 2)

	got := q.PeekPrevious()
	if got == nil || got.ID != "b" {
		t.Fatalf("PeekPrevious() = %v, want b", got)
	}
	if cur := q.Current(); cur == nil || cur.ID != "c" {
		t.Errorf("Current() = %v, want c (cursor unchanged)", cur)
	}

	q.Replace(tracks("a", "b"), 0)
	if got := q.PeekPrevious(); got != nil {
		t.Errorf("PeekPrevious() at start = %v, want nil", got)
	}
}

func TestRetreat_AtStart(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b"), 0)

	if got := q.Retreat(); got != nil {
		t.Errorf("Retreat() at start = %v, want nil", got)
	}
	if cur := q.Current(); cur == nil || cur.ID != "a" {
		t.Errorf("Current() = %v, want a (unchanged)", cur)
	}
}

func TestJumpTo(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c"), 0)

	got := q.JumpTo(2)
	if got == nil || got.ID != "c" {
		t.Fatalf("JumpTo(2) = %v, want c", got)
	}
	if got := q.JumpTo(9); got != nil {
		t.Errorf("JumpTo(9) = %v, want nil", got)
	}
}

func TestShuffle_CurrentStaysFirst(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c", "d", "e"), 2)

	q.SetShuffle(true)

	if cur := q.Current(); cur == nil || cur.ID != "c" {
		t.Fatalf("Current() after shuffle = %v, want c", cur)
	}

	// The whole sequence still plays, each remaining track exactly once.
	seen := map[string]bool{"c": true}
	for {
		next := q.Advance()
		if next == nil {
			break
		}
		if seen[next.ID] {
			t.Fatalf("track %s played twice under shuffle", next.ID)
		}
		seen[next.ID] = true
	}
	if len(seen) != 5 {
		t.Errorf("played %d distinct tracks, want 5", len(seen))
	}
}

func TestShuffle_DisableRestoresNaturalOrder(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c", "d"), 1)
	q.SetShuffle(true)
	q.SetShuffle(false)

	if got := q.CurrentAmbientIndex(); got != 1 {
		t.Fatalf("CurrentAmbientIndex() = %d, want 1", got)
	}
	got := q.Advance()
	if got == nil || got.ID != "c" {
		t.Errorf("Advance() after disabling shuffle = %v, want c", got)
	}
}

func TestShuffle_DoesNotReorderStoredSequence(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c", "d", "e"), 0)

	q.SetShuffle(true)

	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if got := q.Ambient()[i].ID; got != want {
			t.Fatalf("Ambient()[%d] = %s, want %s", i, got, want)
		}
	}
}

func TestMove_CursorFollowsCurrent(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c"), 1)

	if !q.Move(1, 0) {
		t.Fatal("Move(1, 0) failed")
	}
	if got := q.CurrentAmbientIndex(); got != 0 {
		t.Errorf("CurrentAmbientIndex() = %d, want 0", got)
	}
	if got := q.Ambient()[0].ID; got != "b" {
		t.Errorf("Ambient()[0] = %s, want b", got)
	}
}

func TestMove_OutOfBounds(t *testing.T) {
	q := New()
	q.Replace(tracks("a"), 0)

	if q.Move(0, 5) {
		t.Error("Move(0, 5) should fail")
	}
}

func TestRemoveManual(t *testing.T) {
	q := New()
	q.InsertNext(tracks("m1", "m2")...)

	if !q.RemoveManual(0) {
		t.Fatal("RemoveManual(0) failed")
	}
	manual := q.Manual()
	if len(manual) != 1 || manual[0].ID != "m2" {
		t.Errorf("Manual() = %v, want [m2]", manual)
	}
	if q.RemoveManual(5) {
		t.Error("RemoveManual(5) should fail")
	}
}

func TestUpcoming(t *testing.T) {
	q := New()
	q.Replace(tracks("a", "b", "c"), 0)
	q.InsertNext(tracks("m")...)

	up := q.Upcoming()
	want := []string{"m", "b", "c"}
	if len(up) != len(want) {
		t.Fatalf("Upcoming() has %d entries, want %d", len(up), len(want))
	}
	for i, id := range want {
		if up[i].ID != id {
			t.Errorf("Upcoming()[%d] = %s, want %s", i, up[i].ID, id)
		}
	}
}

func TestClear(t *testing.T) {
	q := New()
	q.Replace(tracks("a"), 0)
	q.InsertNext(tracks("m")...)

	q.Clear()

	if !q.IsEmpty() {
		t.Error("queue should be empty after Clear")
	}
	if q.Current() != nil {
		t.Error("Current() should be nil after Clear")
	}
}

func TestRepeatMode_Cycle(t *testing.T) {
	cases := []struct {
		in, want RepeatMode
	}{
		{RepeatOff, RepeatAll},
		{RepeatAll, RepeatOne},
		{RepeatOne, RepeatOff},
	}
	for _, tc := range cases {
		if got := tc.in.Cycle(); got != tc.want {
			t.Errorf("%s.Cycle() = %s, want %s", tc.in, got, tc.want)
		}
	}
}
