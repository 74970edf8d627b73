package queue

// Mode selects where Enqueue places new entries.
type Mode int

const (
	EnqueueLast Mode = iota // append to the end
	EnqueueNext             // insert after the playing entry
	EnqueueNow              // insert at the playing entry and play the first one
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case EnqueueLast:
		return "last"
	case EnqueueNext:
		return "next"
	case EnqueueNow:
		return "now"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as returned by String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "last":
		return EnqueueLast, true
	case "next":
		return EnqueueNext, true
	case "now":
		return EnqueueNow, true
	default:
		return EnqueueLast, false
	}
}

// Enqueue inserts ids according to mode and returns the index of the first
// inserted entry. With no ids it is a successful no-op returning false.
//
// EnqueueNow moves the cursor onto the first inserted entry; the caller is
// expected to start playback there.
func (q *Queue) Enqueue(ids []ID, mode Mode) (int, bool) {
	if len(ids) == 0 {
		return NoPosition, false
	}

	pos, playing := q.Position()
	var at int
	switch mode {
	case EnqueueNext:
		at = 0
		if playing {
			at = pos + 1
		}
	case EnqueueNow:
		at = 0
		if playing {
			at = pos
		}
	default:
		at = len(q.ids)
	}

	q.insert(at, ids)

	switch {
	case mode == EnqueueNow:
		q.pos = at
	case playing && at <= pos:
		q.pos += len(ids)
	}
	return at, true
}

// Move moves the entry at from to index to. Both indices are clamped to the
// valid range. The cursor keeps referencing the same entry instance.
// Returns false if the queue is empty or from is negative.
func (q *Queue) Move(from, to int) bool {
	n := len(q.ids)
	if n == 0 || from < 0 {
		return false
	}
	from = min(from, n-1)
	to = min(max(to, 0), n-1)

	id := q.ids[from]
	switch {
	case from < to:
		copy(q.ids[from:to], q.ids[from+1:to+1])
		q.ids[to] = id
		if q.pos == from {
			q.pos = to
		} else if q.pos > from && q.pos <= to {
			q.pos--
		}
	case to < from:
		copy(q.ids[to+1:from+1], q.ids[to:from])
		q.ids[to] = id
		if q.pos == from {
			q.pos = to
		} else if q.pos >= to && q.pos < from {
			q.pos++
		}
	}
	return true
}

// RemoveRange deletes entries first..last inclusive, clamped to the queue.
// Returns the number removed. If the playing entry was removed the cursor is
// cleared; if it sat after the block it shifts left.
func (q *Queue) RemoveRange(first, last int) int {
	first = max(first, 0)
	last = min(last, len(q.ids)-1)
	if last < first {
		return 0
	}

	count := last - first + 1
	q.ids = append(q.ids[:first], q.ids[last+1:]...)

	switch {
	case q.pos >= first && q.pos <= last:
		q.pos = NoPosition
	case q.pos > last:
		q.pos -= count
	}
	return count
}

// RemoveID removes every occurrence of id and returns how many were removed.
// Each removal follows the RemoveRange cursor rules.
func (q *Queue) RemoveID(id ID) int {
	kept := q.ids[:0]
	removed := 0
	newPos := q.pos
	for i, v := range q.ids {
		if v == id {
			removed++
			if i == q.pos {
				newPos = NoPosition
			}
			continue
		}
		if i == q.pos {
			newPos = len(kept)
		}
		kept = append(kept, v)
	}
	q.ids = kept
	q.pos = newPos
	return removed
}

// Interleave merges newIDs into the queue by alternating runs of
// existingRun queued entries and newRun new entries, until newIDs is
// exhausted. Runs are counted from the playing entry (from the start when
// nothing plays); entries before it are left in place. Nothing is removed.
// Returns the number of inserted entries.
func (q *Queue) Interleave(newIDs []ID, existingRun, newRun int) int {
	if len(newIDs) == 0 {
		return 0
	}
	existingRun = max(existingRun, 1)
	newRun = max(newRun, 1)

	anchor := 0
	if pos, ok := q.Position(); ok {
		anchor = pos
	}

	merged := make([]ID, 0, len(q.ids)+len(newIDs))
	merged = append(merged, q.ids[:anchor]...)

	cur, next := anchor, 0
	for cur < len(q.ids) || next < len(newIDs) {
		for i := 0; i < existingRun && cur < len(q.ids); i++ {
			merged = append(merged, q.ids[cur])
			cur++
		}
		for i := 0; i < newRun && next < len(newIDs); i++ {
			merged = append(merged, newIDs[next])
			next++
		}
	}

	// The playing entry heads the first existing run, so its index is
	// unchanged.
	q.ids = merged
	return len(newIDs)
}

// Intn draws a uniform integer in [0, n).
type Intn interface {
	IntN(n int) int
}

// Shuffle swaps every entry i with an entry drawn uniformly from the whole
// queue. The draw covers the full range on every step, so the result is a
// permutation but not a uniform one. The cursor follows the playing entry.
func (q *Queue) Shuffle(rng Intn) {
	n := len(q.ids)
	for i := range n {
		j := rng.IntN(n)
		q.ids[i], q.ids[j] = q.ids[j], q.ids[i]
		switch q.pos {
		case i:
			q.pos = j
		case j:
			q.pos = i
		}
	}
}

// Deduplicate keeps the first occurrence of each ID and removes the rest.
// Returns the number removed. If the playing entry was a later duplicate the
// cursor is cleared; otherwise it follows the entry.
func (q *Queue) Deduplicate() int {
	seen := make(map[ID]struct{}, len(q.ids))
	kept := q.ids[:0]
	newPos := NoPosition
	for i, id := range q.ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if i == q.pos {
			newPos = len(kept)
		}
		kept = append(kept, id)
	}
	removed := len(q.ids) - len(kept)
	q.ids = kept
	q.pos = newPos
	return removed
}
