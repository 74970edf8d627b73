// Package queue holds the ordered play queue of track identifiers and the
// algorithms that mutate it.
package queue

// ID identifies a track in the metadata store. Only equality and the
// store's ascending order are meaningful.
type ID int64

// NoPosition is the cursor value when nothing is playing.
const NoPosition = -1

// Queue is an ordered sequence of IDs (duplicates allowed) with a cursor on
// the playing entry. It is not safe for concurrent use; the playback
// service owns it and serializes access.
type Queue struct {
	ids []ID
	pos int // NoPosition if nothing playing
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		ids: make([]ID, 0),
		pos: NoPosition,
	}
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	return len(q.ids)
}

// IsEmpty returns true if the queue has no entries.
func (q *Queue) IsEmpty() bool {
	return len(q.ids) == 0
}

// IDs returns a copy of the queued identifiers in queue order.
func (q *Queue) IDs() []ID {
	result := make([]ID, len(q.ids))
	copy(result, q.ids)
	return result
}

// At returns the ID at index i.
func (q *Queue) At(i int) (ID, bool) {
	if i < 0 || i >= len(q.ids) {
		return 0, false
	}
	return q.ids[i], true
}

// Position returns the playing index, or false if nothing is playing.
func (q *Queue) Position() (int, bool) {
	if q.pos < 0 || q.pos >= len(q.ids) {
		return NoPosition, false
	}
	return q.pos, true
}

// Current returns the playing ID, or false if nothing is playing.
func (q *Queue) Current() (ID, bool) {
	pos, ok := q.Position()
	if !ok {
		return 0, false
	}
	return q.ids[pos], true
}

// SetPosition moves the cursor to index i.
// Returns false if i is out of bounds; the cursor is left unchanged.
func (q *Queue) SetPosition(i int) bool {
	if i < 0 || i >= len(q.ids) {
		return false
	}
	q.pos = i
	return true
}

// Clear removes all entries and clears the cursor.
func (q *Queue) Clear() {
	q.ids = q.ids[:0]
	q.pos = NoPosition
}

// Replace swaps in a new sequence and cursor. An invalid pos is cleared.
func (q *Queue) Replace(ids []ID, pos int) {
	q.ids = append(q.ids[:0], ids...)
	q.pos = NoPosition
	q.SetPosition(pos)
}

// insert splices ids in at index at, shifting the tail right.
func (q *Queue) insert(at int, ids []ID) {
	at = min(max(at, 0), len(q.ids))
	q.ids = append(q.ids, ids...) // grow
	copy(q.ids[at+len(ids):], q.ids[at:len(q.ids)-len(ids)])
	copy(q.ids[at:], ids)
}
