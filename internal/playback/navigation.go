package playback

import (
	"context"
	"time"
)

// SetPosition jumps to index and opens it. A paused engine stays paused.
func (s *serviceImpl) SetPosition(ctx context.Context, index int) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}
	if !s.queue.SetPosition(index) {
		return ErrOutOfRange
	}
	return s.openLocked(ctx, c, c.prevState != StatePaused)
}

// Next moves to the following entry. It returns false at the end of the
// queue; manual navigation never wraps.
func (s *serviceImpl) Next(ctx context.Context) (bool, error) {
	return s.step(ctx, 1)
}

// Previous moves to the preceding entry. It returns false at the head.
func (s *serviceImpl) Previous(ctx context.Context) (bool, error) {
	return s.step(ctx, -1)
}

func (s *serviceImpl) step(ctx context.Context, delta int) (bool, error) {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return false, ErrClosed
	}
	return s.stepLocked(ctx, c, delta)
}

func (s *serviceImpl) stepLocked(ctx context.Context, c *changeSet, delta int) (bool, error) {
	if s.queue.IsEmpty() {
		return false, ErrEmptyQueue
	}

	target := 0
	if pos, ok := s.queue.Position(); ok {
		target = pos + delta
	}
	if !s.queue.SetPosition(target) {
		return false, nil
	}
	return true, s.openLocked(ctx, c, c.prevState != StatePaused)
}

// PreviousOrRestart seeks to the start of the track once it has played past
// the restart threshold, and moves to the previous entry otherwise.
func (s *serviceImpl) PreviousOrRestart(ctx context.Context) (bool, error) {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return false, ErrClosed
	}

	if c.prevState.IsActive() && s.player.Position() >= s.opts.RestartThreshold {
		if err := s.seekLocked(c, 0); err != nil {
			return false, err
		}
		return true, nil
	}
	return s.stepLocked(ctx, c, -1)
}

// Play resumes playback, opening the entry under the cursor if the engine
// is stopped. With no cursor it starts from the head.
func (s *serviceImpl) Play(ctx context.Context) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}
	return s.playLocked(ctx, c)
}

func (s *serviceImpl) playLocked(ctx context.Context, c *changeSet) error {
	switch c.prevState {
	case StatePlaying:
		return nil
	case StatePaused:
		s.player.Play()
		return nil
	case StateStopped:
	}

	if s.queue.IsEmpty() {
		return ErrEmptyQueue
	}
	if _, ok := s.queue.Position(); !ok {
		s.queue.SetPosition(0)
	}
	return s.openLocked(ctx, c, true)
}

// Pause pauses playback.
func (s *serviceImpl) Pause() {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return
	}
	s.player.Pause()
}

// Toggle switches between playing and paused. A stopped engine is started.
func (s *serviceImpl) Toggle(ctx context.Context) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}
	if c.prevState == StatePlaying {
		s.player.Pause()
		return nil
	}
	return s.playLocked(ctx, c)
}

// Stop stops playback. The cursor is kept.
func (s *serviceImpl) Stop() {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return
	}
	s.player.Stop()
}

// SeekTo moves within the playing track.
func (s *serviceImpl) SeekTo(position time.Duration) error {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return ErrClosed
	}
	return s.seekLocked(c, position)
}

func (s *serviceImpl) seekLocked(c *changeSet, position time.Duration) error {
	if err := s.player.SeekTo(position); err != nil {
		return err
	}
	pos := s.player.Position()
	c.seek = &pos
	return nil
}
