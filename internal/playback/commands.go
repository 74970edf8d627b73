package playback

import (
	"context"
	"slices"

	"github.com/llehouerou/playq/internal/queue"
	"github.com/llehouerou/playq/internal/state"
)

// Enqueue inserts ids according to mode and fetches their metadata.
// EnqueueNow starts the first inserted track. Enqueueing into a queue with
// nothing playing starts from the head when autoplay is enabled.
func (s *serviceImpl) Enqueue(ctx context.Context, ids []queue.ID, mode queue.Mode) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}

	target, ok := s.queue.Enqueue(ids, mode)
	if !ok {
		return nil
	}
	start := mode == queue.EnqueueNow
	if !start && !c.prevHasID && s.opts.Autoplay {
		s.queue.SetPosition(0)
		target, start = 0, true
	}
	s.editedLocked(c)

	if err := s.syncLocked(ctx, c); err != nil {
		return err
	}
	if start {
		return s.openAtLocked(ctx, c, target, true)
	}
	return nil
}

// Move moves the entry at from to to. The playing entry keeps playing.
func (s *serviceImpl) Move(from, to int) bool {
	c := s.begin()
	defer s.end(c)
	if s.closed || !s.queue.Move(from, to) {
		return false
	}
	s.editedLocked(c)
	return true
}

// RemoveRange removes entries first..last inclusive and returns how many
// were removed. If the playing entry goes, the entry that moved into the
// first removed index takes over; with none left there, playback stops.
func (s *serviceImpl) RemoveRange(ctx context.Context, first, last int) (int, error) {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return 0, ErrClosed
	}

	n := s.queue.RemoveRange(first, last)
	if n == 0 {
		return 0, nil
	}

	// The playing entry was removed: fall back to whatever now sits at the
	// head of the removed block.
	reopen := false
	if _, ok := s.queue.Position(); !ok && c.prevHasID {
		if s.queue.SetPosition(max(first, 0)) {
			reopen = c.prevState.IsActive()
		} else {
			s.player.Stop()
		}
	}
	s.editedLocked(c)

	if reopen {
		return n, s.openLocked(ctx, c, c.prevState == StatePlaying)
	}
	return n, nil
}

// Interleave merges ids into the queue in alternating runs and fetches
// their metadata.
func (s *serviceImpl) Interleave(ctx context.Context, ids []queue.ID, existingRun, newRun int) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}

	if s.queue.Interleave(ids, existingRun, newRun) == 0 {
		return nil
	}
	s.editedLocked(c)
	return s.syncLocked(ctx, c)
}

// Shuffle reorders the queue. The playing entry keeps playing.
// Returns false if there was nothing to reorder.
func (s *serviceImpl) Shuffle() bool {
	c := s.begin()
	defer s.end(c)
	if s.closed || s.queue.Len() < 2 {
		return false
	}
	s.queue.Shuffle(s.rng)
	s.editedLocked(c)
	return true
}

// Deduplicate removes repeated ids, keeping first occurrences. If the
// playing entry was a repeat, the cursor moves to the kept occurrence of
// the same track without interrupting playback.
func (s *serviceImpl) Deduplicate() int {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return 0
	}

	n := s.queue.Deduplicate()
	if n == 0 {
		return 0
	}
	if _, ok := s.queue.Position(); !ok && c.prevHasID {
		if i := slices.Index(s.queue.IDs(), c.prevID); i >= 0 {
			s.queue.SetPosition(i)
		}
	}
	s.editedLocked(c)
	return n
}

// Load replaces the queue with ids and starts playing at pos. An invalid
// pos starts from the head.
func (s *serviceImpl) Load(ctx context.Context, ids []queue.ID, pos int) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}

	if pos < 0 || pos >= len(ids) {
		pos = 0
	}
	s.queue.Replace(ids, pos)
	s.editedLocked(c)

	if err := s.syncLocked(ctx, c); err != nil {
		return err
	}
	if s.queue.IsEmpty() {
		s.player.Stop()
		return nil
	}
	return s.openAtLocked(ctx, c, pos, true)
}

// Restore loads a persisted queue without starting playback. Entries whose
// tracks vanished since it was saved are excised.
func (s *serviceImpl) Restore(ctx context.Context, st state.QueueState) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}

	s.queue.Replace(st.IDs, st.Position)
	s.mode = repeatModeFromInt(st.RepeatMode)
	s.history = queue.NewHistory(s.opts.HistorySize)
	s.history.Push(s.queue.Snapshot())
	s.proj.Reset()
	c.queue = true

	return s.syncLocked(ctx, c)
}

// Undo restores the queue as it was before the last edit.
func (s *serviceImpl) Undo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.history.Undo)
}

// Redo re-applies the last undone edit.
func (s *serviceImpl) Redo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.history.Redo)
}

func (s *serviceImpl) travel(ctx context.Context, step func() (queue.Snapshot, bool)) (bool, error) {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return false, ErrClosed
	}

	snap, ok := step()
	if !ok {
		return false, nil
	}
	s.queue.Restore(snap)
	c.queue = true
	if !s.proj.Refresh(s.queue.IDs()) {
		if err := s.syncLocked(ctx, c); err != nil {
			return true, err
		}
	}

	return true, s.followLocked(ctx, c)
}

// followLocked keeps the audio engine on the entry under the cursor after
// the queue was replaced wholesale.
func (s *serviceImpl) followLocked(ctx context.Context, c *changeSet) error {
	id, ok := s.queue.Current()
	switch {
	case !c.prevState.IsActive():
		return nil
	case !ok:
		s.player.Stop()
		return nil
	case c.prevHasID && id == c.prevID:
		return nil
	default:
		return s.openLocked(ctx, c, c.prevState == StatePlaying)
	}
}
