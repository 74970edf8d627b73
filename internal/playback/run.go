package playback

import (
	"context"

	zlog "github.com/rs/zerolog/log"
)

// Run relays audio engine events into the service until ctx is canceled or
// the service is closed. It must run on exactly one goroutine.
func (s *serviceImpl) Run(ctx context.Context) error {
	finished := s.player.Finished()
	errs := s.player.Errors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-finished:
			s.handleFinished(ctx)
		case err := <-errs:
			s.handleError(err)
		}
	}
}

// handleFinished applies the repeat mode after a track played to its end.
func (s *serviceImpl) handleFinished(ctx context.Context) {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return
	}

	pos, _ := s.queue.Position()
	d := Decide(s.mode, pos, s.queue.Len())
	zlog.Debug().
		Str("mode", s.mode.String()).
		Str("action", d.Action.String()).
		Int("position", d.Position).
		Msg("track finished")

	switch d.Action {
	case ActionStop:
		s.player.Stop()
	case ActionAdvance, ActionReplay:
		s.queue.SetPosition(d.Position)
		if err := s.openLocked(ctx, c, true); err != nil {
			s.failLocked(c, "open", err)
		}
	}
}

// handleError surfaces an engine failure. The track is released and not
// retried.
func (s *serviceImpl) handleError(err error) {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return
	}
	s.failLocked(c, "playback", err)
}

func (s *serviceImpl) failLocked(c *changeSet, op string, err error) {
	var path string
	if row := s.currentRowLocked(); row != nil {
		path = row.Path
	}
	zlog.Error().Err(err).Str("op", op).Str("path", path).Msg("audio engine error")

	s.player.Stop()
	c.errs = append(c.errs, ErrorEvent{Operation: op, Path: path, Err: err})
}
