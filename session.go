package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/app"
	"github.com/llehouerou/playq/internal/config"
	"github.com/llehouerou/playq/internal/keymap"
	"github.com/llehouerou/playq/internal/logger"
	"github.com/llehouerou/playq/internal/mpris"
	"github.com/llehouerou/playq/internal/notify"
	"github.com/llehouerou/playq/internal/playback"
	"github.com/llehouerou/playq/internal/stderr"
)

var sessionKeys = keymap.NewResolver(keymap.Session)

var errQuit = errors.New("quit")

func runPlay(ctx context.Context, a *app.App, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if capture, err := stderr.Start(func(line string) {
		zlog.Debug().Str("source", "stderr").Msg(line)
	}); err != nil {
		zlog.Warn().Err(err).Msg("stderr capture unavailable")
	} else {
		defer capture.Stop()
		if cfg.Log.Output == "stderr" {
			defer redirectLogger(capture.Original(), cfg)()
		}
	}

	svc := a.Playback
	go func() {
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error().Err(err).Msg("playback loop")
		}
	}()

	if cfg.Notify.Enabled {
		startNotifications(ctx, svc)
	}
	if cfg.MPRIS.Enabled {
		if adapter, err := mpris.New(ctx, svc); err != nil {
			zlog.Warn().Err(err).Msg("mpris unavailable")
		} else {
			defer adapter.Close()
		}
	}
	go printEvents(ctx, os.Stdout, svc.Subscribe())

	if len(*playIDs) > 0 {
		if err := svc.Load(ctx, toIDs(*playIDs), 0); err != nil {
			return err
		}
	} else if svc.QueueLen() > 0 {
		if err := svc.Play(ctx); err != nil {
			return err
		}
	} else {
		fmt.Println("Queue is empty; add tracks with 'playq add'")
	}

	fmt.Print(keymap.Help(keymap.Session))
	lines := readLines(ctx, os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := sessionCommand(ctx, svc, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Println(err)
			}
		}
	}
}

// redirectLogger points console logging at w and returns the restore
// func.
func redirectLogger(w io.Writer, cfg *config.Config) func() {
	prev := zlog.Logger
	zlog.Logger = logger.New(w, logger.ParseLevel(cfg.Log.Level), true)
	return func() { zlog.Logger = prev }
}

func startNotifications(ctx context.Context, svc playback.Service) {
	n, err := notify.New()
	if err != nil {
		zlog.Warn().Err(err).Msg("desktop notifications unavailable")
		return
	}
	go notify.NewNowPlaying(n).Watch(ctx, svc.Subscribe())
}

// readLines streams lines from r until it ends or ctx is canceled.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// sessionCommand applies one line of user input.
func sessionCommand(ctx context.Context, svc playback.Service, line string) error {
	word, arg := "", ""
	if fields := strings.Fields(line); len(fields) > 0 {
		word = fields[0]
		if len(fields) > 1 {
			arg = fields[1]
		}
	}

	switch sessionKeys.Resolve(word) {
	case keymap.ActionQuit:
		return errQuit
	case keymap.ActionNextTrack:
		return boundary(svc.Next(ctx))
	case keymap.ActionPrevTrack:
		return boundary(svc.PreviousOrRestart(ctx))
	case keymap.ActionPlayPause:
		return svc.Toggle(ctx)
	case keymap.ActionStop:
		svc.Stop()
		return nil
	case keymap.ActionSeek:
		secs, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return errors.Newf("seek: bad position %q", arg)
		}
		return svc.SeekTo(time.Duration(secs * float64(time.Second)))
	case keymap.ActionJump:
		entry, err := strconv.Atoi(arg)
		if err != nil {
			return errors.Newf("jump: bad entry %q", arg)
		}
		idx, err := toIndex(entry, svc.QueueLen())
		if err != nil {
			return err
		}
		return svc.SetPosition(ctx, idx)
	case keymap.ActionUndo:
		return history(svc.Undo(ctx))
	case keymap.ActionRedo:
		return history(svc.Redo(ctx))
	case keymap.ActionRepeat:
		if arg == "" {
			svc.CycleRepeatMode()
			return nil
		}
		mode, ok := playback.ParseRepeatMode(arg)
		if !ok {
			return errors.Newf("unknown repeat mode %q", arg)
		}
		svc.SetRepeatMode(mode)
		return nil
	case keymap.ActionList:
		renderQueue(os.Stdout, svc)
		return nil
	case keymap.ActionHelp:
		fmt.Print(keymap.Help(keymap.Session))
		return nil
	default:
		return errors.Newf("unknown command %q (try help)", word)
	}
}

func boundary(moved bool, err error) error {
	if err == nil && !moved {
		fmt.Println("No more entries")
	}
	return err
}

func history(changed bool, err error) error {
	if err == nil && !changed {
		fmt.Println("Nothing to do")
	}
	return err
}

// printEvents echoes service events to the terminal.
func printEvents(ctx context.Context, w io.Writer, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			if e.Current == nil {
				fmt.Fprintln(w, dimStyle.Render("■ end of queue"))
				continue
			}
			fmt.Fprintln(w, currentStyle.Render(fmt.Sprintf("▶ %d. %s (%s)",
				e.Index+1, trackLabel(*e.Current), formatDuration(e.Current.Duration))))
		case e := <-sub.StateChanged:
			if e.Current == playback.StatePaused {
				fmt.Fprintln(w, dimStyle.Render("paused"))
			}
		case e := <-sub.ModeChanged:
			fmt.Fprintf(w, "repeat: %s\n", e.RepeatMode)
		case e := <-sub.QueueChanged:
			if len(e.Removed) > 0 {
				fmt.Fprintf(w, "%d missing %s dropped from the queue\n", len(e.Removed), plural(len(e.Removed), "track"))
			}
		case e := <-sub.PositionChanged:
			fmt.Fprintf(w, "at %s\n", formatDuration(e.Position))
		case e := <-sub.Error:
			fmt.Fprintf(w, "error: %s %s: %v\n", e.Operation, e.Path, e.Err)
		}
	}
}
