// Package queue sequences playback: an ambient ordered track list (the
// album, playlist or search-result context the user played from), a
// separate manual "play next" list drained before the ambient sequence,
// and shuffle/repeat policy applied on top.
package queue

import (
	"math/rand/v2"

	"github.com/lnicolet/cadence/internal/track"
)

// RepeatMode controls what happens at track and sequence boundaries.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// Cycle returns the next repeat mode in the off -> all -> one cycle.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Queue holds the ambient sequence, manual inserts, and the cursor.
// It is not safe for concurrent use; the playback service serializes
// access under its own lock.
type Queue struct {
	ambient []track.Track
	manual  []track.Track

	// order is a permutation of ambient indexes: identity when shuffle
	// is off, a current-first shuffle otherwise.
	order   []int
	pos     int // index into order; -1 when nothing is current
	shuffle bool
	repeat  RepeatMode

	// current may be a manual track that does not appear in ambient.
	current *track.Track
}

func New() *Queue {
	return &Queue{pos: -1}
}

// Replace installs a new ambient sequence, clears manual inserts, and
// makes the track at startIndex current. Returns nil if startIndex is
// out of bounds.
func (q *Queue) Replace(tracks []track.Track, startIndex int) *track.Track {
	q.ambient = make([]track.Track, len(tracks))
	copy(q.ambient, tracks)
	q.manual = nil
	q.pos = -1
	q.current = nil

	if startIndex < 0 || startIndex >= len(q.ambient) {
		q.rebuildOrder()
		return nil
	}

	t := q.ambient[startIndex]
	q.current = &t
	q.rebuildOrder()
	q.pos = q.orderPosOf(startIndex)
	return q.current
}

// Current returns the current track, which may be a manual insert, or
// nil when the queue has no current track.
func (q *Queue) Current() *track.Track {
	if q.current == nil {
		return nil
	}
	t := *q.current
	return &t
}

// CurrentAmbientIndex returns the ambient index backing the cursor, or
// -1 when the current track is a manual insert or nothing is current.
func (q *Queue) CurrentAmbientIndex() int {
	if q.pos < 0 || q.pos >= len(q.order) {
		return -1
	}
	return q.order[q.pos]
}

// Peek reports the track Advance would return, without consuming
// anything. The second return is false at the end of the queue.
func (q *Queue) Peek() (*track.Track, bool) {
	t, _, _, ok := q.next()
	return t, ok
}

// Advance moves to the next track and returns it, or nil when the
// sequence is exhausted (repeat off at the last index). Manual inserts
// are consumed exactly once.
func (q *Queue) Advance() *track.Track {
	t, fromManual, nextPos, ok := q.next()
	if !ok {
		q.current = nil
		q.pos = -1
		return nil
	}
	if fromManual {
		// The ambient cursor stays put so the sequence resumes where
		// it left off once the manual list drains.
		q.manual = q.manual[1:]
		q.current = t
		return q.Current()
	}
	if q.repeat == RepeatOne {
		// Same identity, cursor unchanged.
		return q.Current()
	}
	q.current = t
	q.pos = nextPos
	return q.Current()
}

// next computes the successor without mutating state. It returns the
// track, whether it comes from the manual list, the order position for
// an ambient successor, and whether a successor exists at all.
func (q *Queue) next() (*track.Track, bool, int, bool) {
	if q.repeat == RepeatOne && q.current != nil {
		t := *q.current
		return &t, false, q.pos, true
	}
	if len(q.manual) > 0 {
		t := q.manual[0]
		return &t, true, q.pos, true
	}
	if len(q.order) == 0 {
		return nil, false, -1, false
	}

	next := q.pos + 1
	if next >= len(q.order) {
		if q.repeat != RepeatAll {
			return nil, false, -1, false
		}
		next = 0
	}
	t := q.ambient[q.order[next]]
	return &t, false, next, true
}

// PeekPrevious reports the track Retreat would return, without moving
// the cursor. Returns nil when there is no previous track.
func (q *Queue) PeekPrevious() *track.Track {
	prev, ok := q.prevPos()
	if !ok {
		return nil
	}
	t := q.ambient[q.order[prev]]
	return &t
}

// Retreat moves to the previous ambient track. Manual inserts are not
// revisited. Returns nil when there is no previous track.
func (q *Queue) Retreat() *track.Track {
	prev, ok := q.prevPos()
	if !ok {
		return nil
	}
	t := q.ambient[q.order[prev]]
	q.current = &t
	q.pos = prev
	return q.Current()
}

// prevPos computes the order position of the predecessor without
// mutating state.
func (q *Queue) prevPos() (int, bool) {
	if len(q.order) == 0 {
		return -1, false
	}
	prev := q.pos - 1
	if prev < 0 {
		if q.repeat != RepeatAll {
			return -1, false
		}
		prev = len(q.order) - 1
	}
	return prev, true
}

// JumpTo makes the ambient track at index current. Returns nil if the
// index is out of bounds.
func (q *Queue) JumpTo(index int) *track.Track {
	if index < 0 || index >= len(q.ambient) {
		return nil
	}
	t := q.ambient[index]
	q.current = &t
	q.pos = q.orderPosOf(index)
	return q.Current()
}

// InsertNext appends tracks to the manual list. They play after the
// current track, before the ambient sequence resumes.
func (q *Queue) InsertNext(tracks ...track.Track) {
	q.manual = append(q.manual, tracks...)
}

// RemoveManual removes the manual insert at index. Returns false if the
// index is out of bounds.
func (q *Queue) RemoveManual(index int) bool {
	if index < 0 || index >= len(q.manual) {
		return false
	}
	q.manual = append(q.manual[:index], q.manual[index+1:]...)
	return true
}

// Manual returns a copy of the pending manual inserts.
func (q *Queue) Manual() []track.Track {
	out := make([]track.Track, len(q.manual))
	copy(out, q.manual)
	return out
}

// Ambient returns a copy of the ambient sequence in its stored order,
// regardless of shuffle.
func (q *Queue) Ambient() []track.Track {
	out := make([]track.Track, len(q.ambient))
	copy(out, q.ambient)
	return out
}

// Upcoming returns the tracks that will play after the current one, in
// play order: manual inserts first, then the remaining ambient tracks
// under the active permutation. Repeat wrap-around is not included.
func (q *Queue) Upcoming() []track.Track {
	out := make([]track.Track, 0, len(q.manual)+len(q.order))
	out = append(out, q.manual...)
	for p := q.pos + 1; p < len(q.order); p++ {
		out = append(out, q.ambient[q.order[p]])
	}
	return out
}

// Move reorders the ambient sequence, moving the track at from to to.
// The cursor follows the current track. Returns false if either index
// is out of bounds.
func (q *Queue) Move(from, to int) bool {
	if from < 0 || from >= len(q.ambient) || to < 0 || to >= len(q.ambient) {
		return false
	}
	if from == to {
		return true
	}
	cur := q.CurrentAmbientIndex()

	t := q.ambient[from]
	q.ambient = append(q.ambient[:from], q.ambient[from+1:]...)
	q.ambient = append(q.ambient[:to], append([]track.Track{t}, q.ambient[to:]...)...)

	switch {
	case cur == from:
		cur = to
	case cur > from && cur <= to:
		cur--
	case cur < from && cur >= to:
		cur++
	}
	q.rebuildOrder()
	if cur >= 0 {
		q.pos = q.orderPosOf(cur)
	}
	return true
}

// Clear drops the ambient sequence, manual inserts and cursor.
func (q *Queue) Clear() {
	q.ambient = nil
	q.manual = nil
	q.order = nil
	q.pos = -1
	q.current = nil
}

func (q *Queue) Len() int {
	return len(q.ambient) + len(q.manual)
}

func (q *Queue) IsEmpty() bool {
	return len(q.ambient) == 0 && len(q.manual) == 0
}

// Shuffle reports whether shuffle is on.
func (q *Queue) Shuffle() bool {
	return q.shuffle
}

// SetShuffle turns shuffle on or off. Enabling derives a fresh
// permutation with the current ambient track first; the stored
// sequence itself is never reordered. Disabling restores natural order
// with the cursor back on the current track's stored position.
func (q *Queue) SetShuffle(on bool) {
	if q.shuffle == on {
		return
	}
	cur := q.CurrentAmbientIndex()
	q.shuffle = on
	q.rebuildOrder()
	if cur >= 0 {
		q.pos = q.orderPosOf(cur)
	}
}

func (q *Queue) Repeat() RepeatMode {
	return q.repeat
}

func (q *Queue) SetRepeat(m RepeatMode) {
	q.repeat = m
}

func (q *Queue) rebuildOrder() {
	q.order = make([]int, len(q.ambient))
	for i := range q.order {
		q.order[i] = i
	}
	if !q.shuffle || len(q.order) < 2 {
		return
	}

	rand.Shuffle(len(q.order), func(i, j int) {
		q.order[i], q.order[j] = q.order[j], q.order[i]
	})

	// Keep the current track first so shuffle never restarts playback.
	if cur := q.currentAmbientLookup(); cur >= 0 {
		p := q.orderPosOf(cur)
		q.order[0], q.order[p] = q.order[p], q.order[0]
	}
}

// currentAmbientLookup finds the ambient index of the current track by
// key, used while rebuilding the permutation.
func (q *Queue) currentAmbientLookup() int {
	if q.current == nil {
		return -1
	}
	return q.ambientIndexOf(q.current)
}

func (q *Queue) ambientIndexOf(t *track.Track) int {
	for i := range q.ambient {
		if q.ambient[i].Key() == t.Key() {
			return i
		}
	}
	return -1
}

func (q *Queue) orderPosOf(ambientIndex int) int {
	for p, idx := range q.order {
		if idx == ambientIndex {
			return p
		}
	}
	return -1
}
