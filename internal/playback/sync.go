package playback

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/projection"
	"github.com/llehouerou/playq/internal/queue"
)

// Requery rebuilds the projection from the store and returns the ids
// excised because their rows vanished.
func (s *serviceImpl) Requery(ctx context.Context) ([]queue.ID, error) {
	c := s.begin()
	defer s.end(c)
	if s.closed {
		return nil, ErrClosed
	}
	err := s.syncLocked(ctx, c)
	return c.removed, err
}

// syncLocked rebuilds the projection. It is called with s.mu held and
// releases it for the duration of each fetch.
//
// A sync that finds a newer one started while it was fetching discards its
// result. Otherwise the projection excises the ids it got no row for, and
// asks for one more fetch if it had to or if ids were added meanwhile.
func (s *serviceImpl) syncLocked(ctx context.Context, c *changeSet) error {
	for attempt := 0; attempt < 2; attempt++ {
		s.syncGen++
		gen := s.syncGen
		requested := s.queue.IDs()

		s.mu.Unlock()
		snap, err := s.proj.Fetch(ctx, requested)
		s.mu.Lock()

		if err != nil {
			return errors.Wrap(err, "sync queue metadata")
		}
		c.snap = snap
		if gen != s.syncGen {
			zlog.Debug().Uint64("generation", gen).Msg("discarding superseded queue sync")
			return nil
		}

		res, retry := s.proj.Apply(snap, requested, s.queue, attempt > 0)
		s.excisedLocked(c, res.Removed)
		if res.Stale {
			zlog.Warn().Msg("queue metadata kept vanishing, projection left stale")
		}
		if !retry {
			return nil
		}
		zlog.Debug().Int("attempt", attempt).Msg("queue changed during sync, fetching again")
	}
	return nil
}

// excisedLocked records ids the projection removed from the queue. Playback
// stops if the track the engine has open was among them.
func (s *serviceImpl) excisedLocked(c *changeSet, ids []queue.ID) {
	if len(ids) == 0 {
		return
	}
	c.removed = append(c.removed, ids...)
	c.queue = true
	zlog.Info().Interface("ids", ids).Msg("removed queue entries whose tracks vanished")

	if c.prevHasID && !c.reopened && slices.Contains(ids, c.prevID) && s.player.State().IsActive() {
		s.player.Stop()
	}
}

// rowLocked looks up the row for id in the installed projection, falling
// back to the command's own fetch.
func (s *serviceImpl) rowLocked(c *changeSet, id queue.ID) (library.Track, bool) {
	if row, ok := s.proj.Snapshot().Row(id); ok {
		return row, true
	}
	return c.snap.Row(id)
}

// openLocked opens the entry under the cursor, syncing first if its row is
// not cached. With play unset the track is left paused.
func (s *serviceImpl) openLocked(ctx context.Context, c *changeSet, play bool) error {
	pos, ok := s.queue.Position()
	if !ok {
		return ErrEmptyQueue
	}
	return s.openAtLocked(ctx, c, pos, play)
}

// openAtLocked opens the entry at target. If a sync excised it, whatever
// retargetLocked picks instead is opened.
func (s *serviceImpl) openAtLocked(ctx context.Context, c *changeSet, target int, play bool) error {
	for synced := false; ; synced = true {
		if _, ok := s.queue.Position(); !ok && !s.retargetLocked(c, target) {
			return nil
		}
		id, _ := s.queue.Current()
		if row, ok := s.rowLocked(c, id); ok {
			return s.openRowLocked(c, row, play)
		}
		if synced {
			return errors.Wrapf(projection.ErrStale, "track %d", id)
		}
		if err := s.syncLocked(ctx, c); err != nil {
			return err
		}
	}
}

// retargetLocked moves the cursor after the entry at target vanished. The
// entry now at target takes over. Past the end of the queue the track that
// was playing keeps playing if it survived, and playback stops otherwise.
// It reports whether the cursor needs opening.
func (s *serviceImpl) retargetLocked(c *changeSet, target int) bool {
	active := c.prevHasID && !c.reopened && s.player.State().IsActive()
	if s.queue.SetPosition(target) {
		id, _ := s.queue.Current()
		return !active || id != c.prevID
	}
	if active {
		if i := slices.Index(s.queue.IDs(), c.prevID); i >= 0 {
			s.queue.SetPosition(i)
			return false
		}
	}
	s.player.Stop()
	return false
}

func (s *serviceImpl) openRowLocked(c *changeSet, row library.Track, play bool) error {
	if err := s.player.Open(row.Path); err != nil {
		return err
	}
	if play {
		s.player.Play()
	}
	c.reopened = true

	pos, _ := s.queue.Position()
	zlog.Debug().Int("position", pos).Int64("id", int64(row.ID)).Str("path", row.Path).Msg("opened track")
	return nil
}
