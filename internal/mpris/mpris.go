//go:build linux

// Package mpris exposes the playback service on the session bus as an
// MPRIS media player.
package mpris

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/playback"
)

const busName = "playq"

// Adapter connects a playback.Service to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New starts serving svc on the session bus. Commands arriving over D-Bus
// run with ctx.
func New(ctx context.Context, svc playback.Service) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer(busName, &rootAdapter{}, &playerAdapter{ctx: ctx, svc: svc}),
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			zlog.Warn().Err(err).Msg("mpris server stopped")
		}
	}()

	return a, nil
}

// Close releases the bus name.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }

// Quit is ignored; the terminal session owns the lifecycle.
func (r *rootAdapter) Quit() error { return nil }

func (r *rootAdapter) CanQuit() (bool, error)      { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error)     { return false, nil }
func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }
func (r *rootAdapter) Identity() (string, error)   { return "playq", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter plus the
// loop and shuffle extensions.
type playerAdapter struct {
	ctx context.Context
	svc playback.Service
}

func (p *playerAdapter) Next() error {
	_, err := p.svc.Next(p.ctx)
	return err
}

func (p *playerAdapter) Previous() error {
	_, err := p.svc.PreviousOrRestart(p.ctx)
	return err
}

func (p *playerAdapter) Pause() error {
	p.svc.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	return p.svc.Toggle(p.ctx)
}

func (p *playerAdapter) Stop() error {
	p.svc.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	return p.svc.Play(p.ctx)
}

// Seek moves relative to the current position.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	target := p.svc.PlayerPosition() + time.Duration(offset)*time.Microsecond
	return p.svc.SeekTo(max(target, 0))
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.svc.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.svc.State() {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error)  { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	t, ok := p.svc.Current()
	if !ok {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%d", t.ID)),
		Length:  types.Microseconds(t.Duration.Microseconds()),
		Title:   t.Title,
		Album:   t.Album,
	}
	if t.Artist != "" {
		meta.Artist = []string{t.Artist}
	}
	if art := FindAlbumArt(t.Path); art != "" {
		meta.ArtUrl = "file://" + art
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error)  { return 1.0, nil }
func (p *playerAdapter) SetVolume(_ float64) error { return nil }

func (p *playerAdapter) Position() (int64, error) {
	return p.svc.PlayerPosition().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error) {
	pos, _ := p.svc.Position() // NoPosition counts as before the first entry
	return pos < p.svc.QueueLen()-1, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	pos, ok := p.svc.Position()
	return ok && pos > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error)    { return p.svc.QueueLen() > 0, nil }
func (p *playerAdapter) CanPause() (bool, error)   { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)    { return true, nil }
func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
// StopAfterCurrent has no MPRIS equivalent and reports as None.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.svc.RepeatMode() {
	case playback.RepeatCurrent:
		return types.LoopStatusTrack, nil
	case playback.RepeatAll:
		return types.LoopStatusPlaylist, nil
	default:
		return types.LoopStatusNone, nil
	}
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.svc.SetRepeatMode(playback.RepeatNone)
	case types.LoopStatusTrack:
		p.svc.SetRepeatMode(playback.RepeatCurrent)
	case types.LoopStatusPlaylist:
		p.svc.SetRepeatMode(playback.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle. Shuffling
// is a one-shot reorder here, so there is no mode to report.
func (p *playerAdapter) Shuffle() (bool, error) { return false, nil }

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	if shuffle {
		p.svc.Shuffle()
	}
	return nil
}
