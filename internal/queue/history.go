package queue

// Snapshot is a saved queue state.
type Snapshot struct {
	IDs []ID
	Pos int
}

// Snapshot returns a copy of the current state.
func (q *Queue) Snapshot() Snapshot {
	return Snapshot{IDs: q.IDs(), Pos: q.pos}
}

// Restore replaces the queue state with s.
func (q *Queue) Restore(s Snapshot) {
	q.Replace(s.IDs, s.Pos)
}

// History maintains a history of queue states for undo/redo.
type History struct {
	states  []Snapshot
	current int // index of current state (-1 = before any state)
	maxSize int
}

// NewHistory creates a new history with the given maximum size.
func NewHistory(maxSize int) *History {
	maxSize = max(maxSize, 1)
	return &History{
		states:  make([]Snapshot, 0, maxSize),
		current: -1,
		maxSize: maxSize,
	}
}

// Push saves a snapshot. Clears any redo states and trims if over limit.
func (h *History) Push(s Snapshot) {
	snapshot := Snapshot{IDs: append([]ID(nil), s.IDs...), Pos: s.Pos}

	if h.current < len(h.states)-1 {
		h.states = h.states[:h.current+1]
	}

	h.states = append(h.states, snapshot)
	h.current = len(h.states) - 1

	if len(h.states) > h.maxSize {
		excess := len(h.states) - h.maxSize
		h.states = h.states[excess:]
		h.current -= excess
	}
}

// Undo returns the previous state.
// Returns false if nothing to undo.
func (h *History) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.current--
	return h.copyCurrent(), true
}

// Redo returns the next state.
// Returns false if nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.current++
	return h.copyCurrent(), true
}

// CanUndo returns true if there is a previous state to undo to.
func (h *History) CanUndo() bool {
	return h.current > 0
}

// CanRedo returns true if there is a next state to redo to.
func (h *History) CanRedo() bool {
	return h.current < len(h.states)-1
}

func (h *History) copyCurrent() Snapshot {
	s := h.states[h.current]
	return Snapshot{IDs: append([]ID(nil), s.IDs...), Pos: s.Pos}
}
