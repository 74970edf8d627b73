package notify

import (
	"context"
	"path/filepath"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/playback"
)

const nowPlayingTimeout = 5000

// NowPlaying keeps a single "now playing" notification in sync with
// playback events.
type NowPlaying struct {
	notifier Notifier
	lastID   uint32
}

func NewNowPlaying(n Notifier) *NowPlaying {
	return &NowPlaying{notifier: n}
}

// Watch consumes sub until ctx is canceled or the subscription closes.
func (w *NowPlaying) Watch(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			w.trackChanged(e)
		case e := <-sub.Error:
			w.show(Notification{
				Title:   "Playback failed",
				Body:    errorBody(e),
				Timeout: nowPlayingTimeout,
				Urgency: UrgencyCritical,
			})
		}
	}
}

func (w *NowPlaying) trackChanged(e playback.TrackChange) {
	if e.Current == nil {
		if w.lastID != 0 {
			if err := w.notifier.Close(w.lastID); err != nil {
				zlog.Warn().Err(err).Msg("close notification")
			}
			w.lastID = 0
		}
		return
	}
	w.show(TrackNotification(*e.Current))
}

func (w *NowPlaying) show(n Notification) {
	n.ReplacesID = w.lastID
	id, err := w.notifier.Notify(n)
	if err != nil {
		zlog.Warn().Err(err).Str("title", n.Title).Msg("send notification")
		return
	}
	w.lastID = id
}

// TrackNotification describes t. Tracks without a title fall back to the
// file name.
func TrackNotification(t library.Track) Notification {
	title := t.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(t.Path), filepath.Ext(t.Path))
	}

	var parts []string
	for _, s := range []string{t.Artist, t.Album} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	return Notification{
		Title:   title,
		Body:    strings.Join(parts, " - "),
		Timeout: nowPlayingTimeout,
		Urgency: UrgencyLow,
	}
}

func errorBody(e playback.ErrorEvent) string {
	msg := e.Operation + ": " + e.Err.Error()
	if e.Path != "" {
		msg = filepath.Base(e.Path) + "\n" + msg
	}
	return msg
}
