package playback

import (
	"slices"
	"time"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/projection"
	"github.com/llehouerou/playq/internal/queue"
	"github.com/llehouerou/playq/internal/state"
)

// changeSet accumulates the effects of one command so that it publishes at
// most one event of each kind.
type changeSet struct {
	prevID    queue.ID
	prevHasID bool
	prevPos   int
	prevRow   *library.Track
	prevState State
	prevMode  RepeatMode

	queue    bool // contents or order changed
	reopened bool // an entry was opened, even the same one
	seek     *time.Duration
	removed  []queue.ID
	errs     []ErrorEvent

	// snap is the latest snapshot fetched by this command. It serves rows
	// when this command's sync lost to a newer one.
	snap projection.Snapshot[library.Track]
}

// outbox is what end publishes after releasing the lock.
type outbox struct {
	state   *StateChange
	track   *TrackChange
	queue   *QueueChange
	mode    *ModeChange
	seek    *time.Duration
	errs    []ErrorEvent
	persist *state.QueueState
}

// begin locks the service and records the state the command starts from.
func (s *serviceImpl) begin() *changeSet {
	s.mu.Lock()
	id, ok := s.queue.Current()
	pos, _ := s.queue.Position()
	return &changeSet{
		prevID:    id,
		prevHasID: ok,
		prevPos:   pos,
		prevRow:   s.currentRowLocked(),
		prevState: s.stateLocked(),
		prevMode:  s.mode,
	}
}

// end diffs the service against c, unlocks, and publishes the result.
func (s *serviceImpl) end(c *changeSet) {
	out := s.collectLocked(c)
	s.mu.Unlock()
	s.publish(out)
}

func (s *serviceImpl) collectLocked(c *changeSet) outbox {
	var out outbox

	id, hasID := s.queue.Current()
	pos, _ := s.queue.Position()

	if cur := s.stateLocked(); cur != c.prevState {
		out.state = &StateChange{Previous: c.prevState, Current: cur}
	}
	if c.reopened || hasID != c.prevHasID || id != c.prevID {
		var cur *library.Track
		if row, ok := s.rowLocked(c, id); hasID && ok {
			cur = &row
		}
		out.track = &TrackChange{
			Previous:      c.prevRow,
			Current:       cur,
			PreviousIndex: c.prevPos,
			Index:         pos,
		}
	}
	if c.queue || pos != c.prevPos {
		out.queue = &QueueChange{
			IDs:      s.queue.IDs(),
			Position: pos,
			Removed:  slices.Clone(c.removed),
		}
	}
	if s.mode != c.prevMode {
		out.mode = &ModeChange{RepeatMode: s.mode}
	}
	out.seek = c.seek
	out.errs = c.errs

	if s.opts.Persister != nil && (out.queue != nil || out.mode != nil) {
		st := s.snapshotLocked()
		out.persist = &st
	}
	return out
}

func (s *serviceImpl) publish(out outbox) {
	if out.persist != nil {
		s.opts.Persister.SaveQueue(*out.persist)
	}

	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		if out.queue != nil {
			sub.sendQueue(*out.queue)
		}
		if out.track != nil {
			sub.sendTrack(*out.track)
		}
		if out.state != nil {
			sub.sendState(*out.state)
		}
		if out.mode != nil {
			sub.sendMode(*out.mode)
		}
		if out.seek != nil {
			sub.sendPosition(*out.seek)
		}
		for _, e := range out.errs {
			sub.sendError(e)
		}
	}
}

// editedLocked records the queue after an edit and re-derives the
// projection for the new order.
func (s *serviceImpl) editedLocked(c *changeSet) {
	c.queue = true
	s.history.Push(s.queue.Snapshot())
	s.proj.Refresh(s.queue.IDs())
}
