// Package queue provides the ordered track queue with a current-position cursor.
package queue

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/qplay/internal/domain/track"
)

// Errors
var (
	ErrIndexOutOfRange = errors.New("index out of range")
)

// NoCursor is the cursor value when no track is current.
const NoCursor = -1

// Queue owns the ordered track sequence and the cursor identifying the
// current track. It is a pure data structure: every operation validates its
// arguments before mutating, and callers (the playback controller) are
// responsible for serialization.
//
// Cursor rebasing rules: the cursor follows the track it references, not the
// slot. Inserting at or before the cursor shifts it forward, removing before
// the cursor shifts it back, and moving the current track moves the cursor
// with it. Removing the current track leaves the cursor on the successor,
// clamped to the new tail (or cleared when the queue empties).
type Queue struct {
	tracks []track.Track
	cursor int
}

// New creates an empty queue with no current track.
func New() *Queue {
	return &Queue{cursor: NoCursor}
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Cursor returns the current track index, or NoCursor when unset.
func (q *Queue) Cursor() int {
	return q.cursor
}

// Current returns the track under the cursor.
func (q *Queue) Current() (track.Track, bool) {
	if q.cursor == NoCursor {
		return track.Track{}, false
	}
	return q.tracks[q.cursor], true
}

// Tracks returns a read-only snapshot of the queue in playback order.
func (q *Queue) Tracks() []track.Track {
	out := make([]track.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// Get returns the track at pos.
func (q *Queue) Get(pos int) (track.Track, error) {
	if pos < 0 || pos >= len(q.tracks) {
		return track.Track{}, errors.Wrapf(ErrIndexOutOfRange, "position %d, queue size %d", pos, len(q.tracks))
	}
	return q.tracks[pos], nil
}

// Insert inserts t at pos and returns the resulting index. A negative pos
// appends. Inserting at or before the cursor shifts the cursor so it keeps
// referencing the same track.
func (q *Queue) Insert(t track.Track, pos int) (int, error) {
	if pos < 0 {
		pos = len(q.tracks)
	}
	if pos > len(q.tracks) {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "position %d, queue size %d", pos, len(q.tracks))
	}

	q.tracks = append(q.tracks, track.Track{})
	copy(q.tracks[pos+1:], q.tracks[pos:])
	q.tracks[pos] = t

	if q.cursor != NoCursor && pos <= q.cursor {
		q.cursor++
	}
	return pos, nil
}

// Remove removes and returns the track at pos. The second return value
// reports whether the removed track was the current one; in that case the
// cursor is left on the successor (clamped to the last track, cleared when
// the queue became empty) and the caller must reconcile any active playback
// session.
func (q *Queue) Remove(pos int) (track.Track, bool, error) {
	if pos < 0 || pos >= len(q.tracks) {
		return track.Track{}, false, errors.Wrapf(ErrIndexOutOfRange, "position %d, queue size %d", pos, len(q.tracks))
	}

	removed := q.tracks[pos]
	q.tracks = append(q.tracks[:pos], q.tracks[pos+1:]...)

	wasCurrent := false
	switch {
	case q.cursor == NoCursor:
	case q.cursor == pos:
		wasCurrent = true
		if len(q.tracks) == 0 {
			q.cursor = NoCursor
		} else if q.cursor >= len(q.tracks) {
			q.cursor = len(q.tracks) - 1
		}
	case q.cursor > pos:
		q.cursor--
	}

	return removed, wasCurrent, nil
}

// Move relocates the track at from to slot to. The cursor follows the track
// it references across the relocation.
func (q *Queue) Move(from, to int) error {
	if from < 0 || from >= len(q.tracks) || to < 0 || to >= len(q.tracks) {
		return errors.Wrapf(ErrIndexOutOfRange, "from %d, to %d, queue size %d", from, to, len(q.tracks))
	}
	if from == to {
		return nil
	}

	t := q.tracks[from]
	q.tracks = append(q.tracks[:from], q.tracks[from+1:]...)
	q.tracks = append(q.tracks, track.Track{})
	copy(q.tracks[to+1:], q.tracks[to:])
	q.tracks[to] = t

	switch {
	case q.cursor == NoCursor:
	case q.cursor == from:
		q.cursor = to
	case q.cursor > from && q.cursor <= to:
		q.cursor--
	case q.cursor < from && q.cursor >= to:
		q.cursor++
	}

	return nil
}

// Clear empties the queue and clears the cursor.
func (q *Queue) Clear() {
	q.tracks = nil
	q.cursor = NoCursor
}

// Jump sets the cursor to pos and returns the track there.
func (q *Queue) Jump(pos int) (track.Track, error) {
	if pos < 0 || pos >= len(q.tracks) {
		return track.Track{}, errors.Wrapf(ErrIndexOutOfRange, "position %d, queue size %d", pos, len(q.tracks))
	}
	q.cursor = pos
	return q.tracks[pos], nil
}

// HasNext reports whether a successor exists after the cursor. An unset
// cursor with a non-empty queue counts as having a next track (index 0).
func (q *Queue) HasNext() bool {
	if len(q.tracks) == 0 {
		return false
	}
	return q.cursor == NoCursor || q.cursor+1 < len(q.tracks)
}

// Advance moves the cursor to the next track and returns it. With an unset
// cursor it starts at index 0.
func (q *Queue) Advance() (track.Track, error) {
	if !q.HasNext() {
		return track.Track{}, errors.Wrapf(ErrIndexOutOfRange, "no track after position %d", q.cursor)
	}
	if q.cursor == NoCursor {
		q.cursor = 0
	} else {
		q.cursor++
	}
	return q.tracks[q.cursor], nil
}

// Retreat moves the cursor to the previous track and returns it. With an
// unset cursor it starts at index 0.
func (q *Queue) Retreat() (track.Track, error) {
	if len(q.tracks) == 0 {
		return track.Track{}, errors.Wrap(ErrIndexOutOfRange, "queue is empty")
	}
	if q.cursor == NoCursor {
		q.cursor = 0
		return q.tracks[0], nil
	}
	if q.cursor == 0 {
		return track.Track{}, errors.Wrap(ErrIndexOutOfRange, "already at first track")
	}
	q.cursor--
	return q.tracks[q.cursor], nil
}

// ClearCursor unsets the cursor without touching the sequence.
func (q *Queue) ClearCursor() {
	q.cursor = NoCursor
}
