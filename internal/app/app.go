// Package app wires the library, queue state and playback service together.
package app

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/config"
	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/playback"
	"github.com/llehouerou/playq/internal/player"
	"github.com/llehouerou/playq/internal/state"
)

// App owns the stores and the playback service for one run.
type App struct {
	Library  *library.Store
	State    *state.Manager
	Playback playback.Service

	player player.Interface
}

// Open opens both databases and restores the saved queue into a new
// playback service. A nil engine selects player.NewDetached.
func Open(ctx context.Context, cfg *config.Config, engine player.Interface) (*App, error) {
	if engine == nil {
		engine = player.NewDetached()
	}

	lib, err := library.Open(ctx, cfg.LibraryDB)
	if err != nil {
		return nil, errors.Wrap(err, "open library")
	}

	st, err := state.Open(ctx, cfg.StateDB, cfg.SaveDebounce())
	if err != nil {
		lib.Close()
		return nil, errors.Wrap(err, "open state")
	}

	svc := playback.New(engine, lib, playback.Options{
		Autoplay:         cfg.Playback.Autoplay,
		RestartThreshold: cfg.RestartThreshold(),
		HistorySize:      cfg.Playback.HistorySize,
		Persister:        st,
	})

	a := &App{Library: lib, State: st, Playback: svc, player: engine}
	if err := a.restore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) restore(ctx context.Context) error {
	saved, err := a.State.GetQueue(ctx)
	if err != nil {
		return errors.Wrap(err, "load saved queue")
	}
	if err := a.Playback.Restore(ctx, *saved); err != nil {
		return errors.Wrap(err, "restore queue")
	}
	zlog.Debug().
		Int("entries", a.Playback.QueueLen()).
		Str("repeat", a.Playback.RepeatMode().String()).
		Msg("queue restored")
	return nil
}

// Close stops playback, flushes the pending queue save and closes the
// databases.
func (a *App) Close() error {
	return errors.CombineErrors(
		errors.CombineErrors(a.Playback.Close(), a.player.Close()),
		errors.CombineErrors(a.State.Close(), a.Library.Close()),
	)
}
