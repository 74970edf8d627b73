package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/playq/internal/app"
	"github.com/llehouerou/playq/internal/config"
	"github.com/llehouerou/playq/internal/playback"
	"github.com/llehouerou/playq/internal/queue"
)

// Entry numbers on the command line are 1-based.

func toIDs(raw []int64) []queue.ID {
	ids := make([]queue.ID, len(raw))
	for i, v := range raw {
		ids[i] = queue.ID(v)
	}
	return ids
}

func toIndex(entry, length int) (int, error) {
	if entry < 1 || entry > length {
		return 0, errors.Wrapf(playback.ErrOutOfRange, "entry %d of %d", entry, length)
	}
	return entry - 1, nil
}

func runList(_ context.Context, a *app.App, _ *config.Config) error {
	renderQueue(os.Stdout, a.Playback)
	return nil
}

func runAdd(ctx context.Context, a *app.App, _ *config.Config) error {
	mode, _ := queue.ParseMode(*addMode)
	before := a.Playback.QueueLen()
	if err := a.Playback.Enqueue(ctx, toIDs(*addIDs), mode); err != nil {
		return err
	}
	added := a.Playback.QueueLen() - before
	fmt.Printf("Added %s %s (%s)\n", humanize.Comma(int64(added)), plural(added, "track"), mode)
	if dropped := len(*addIDs) - added; dropped > 0 {
		fmt.Printf("Skipped %d %s not in the library\n", dropped, plural(dropped, "ID"))
	}
	return nil
}

func runMove(_ context.Context, a *app.App, _ *config.Config) error {
	n := a.Playback.QueueLen()
	from, err := toIndex(*moveFrom, n)
	if err != nil {
		return err
	}
	to, err := toIndex(*moveTo, n)
	if err != nil {
		return err
	}
	if !a.Playback.Move(from, to) {
		fmt.Println("Nothing to move")
		return nil
	}
	fmt.Printf("Moved entry %d to %d\n", *moveFrom, *moveTo)
	return nil
}

func runRemove(ctx context.Context, a *app.App, _ *config.Config) error {
	last := *removeLast
	if last == 0 {
		last = *removeFirst
	}
	n := a.Playback.QueueLen()
	first, err := toIndex(*removeFirst, n)
	if err != nil {
		return err
	}
	end, err := toIndex(last, n)
	if err != nil {
		return err
	}
	removed, err := a.Playback.RemoveRange(ctx, first, end)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %s %s\n", humanize.Comma(int64(removed)), plural(removed, "entry"))
	return nil
}

func runInterleave(ctx context.Context, a *app.App, _ *config.Config) error {
	before := a.Playback.QueueLen()
	if err := a.Playback.Interleave(ctx, toIDs(*interleaveIDs), *interleaveExisting, *interleaveNew); err != nil {
		return err
	}
	added := a.Playback.QueueLen() - before
	fmt.Printf("Interleaved %s %s\n", humanize.Comma(int64(added)), plural(added, "track"))
	return nil
}

func runShuffle(_ context.Context, a *app.App, _ *config.Config) error {
	if !a.Playback.Shuffle() {
		fmt.Println("Nothing to shuffle")
		return nil
	}
	fmt.Println("Queue shuffled")
	return nil
}

func runDedup(_ context.Context, a *app.App, _ *config.Config) error {
	removed := a.Playback.Deduplicate()
	fmt.Printf("Removed %s %s\n", humanize.Comma(int64(removed)), plural(removed, "duplicate"))
	return nil
}

func runClear(ctx context.Context, a *app.App, _ *config.Config) error {
	n := a.Playback.QueueLen()
	if err := a.Playback.Load(ctx, nil, 0); err != nil {
		return err
	}
	fmt.Printf("Cleared %s %s\n", humanize.Comma(int64(n)), plural(n, "entry"))
	return nil
}

func runRepeat(_ context.Context, a *app.App, _ *config.Config) error {
	switch *repeatMode {
	case "":
	case "cycle":
		a.Playback.CycleRepeatMode()
	default:
		mode, ok := playback.ParseRepeatMode(*repeatMode)
		if !ok {
			return errors.Newf("unknown repeat mode %q", *repeatMode)
		}
		a.Playback.SetRepeatMode(mode)
	}
	fmt.Printf("Repeat: %s\n", a.Playback.RepeatMode())
	return nil
}

func runJump(ctx context.Context, a *app.App, _ *config.Config) error {
	idx, err := toIndex(*jumpIndex, a.Playback.QueueLen())
	if err != nil {
		return err
	}
	if err := a.Playback.SetPosition(ctx, idx); err != nil {
		return err
	}
	if t, ok := a.Playback.Current(); ok {
		fmt.Printf("Now at the %s entry: %s\n", humanize.Ordinal(*jumpIndex), trackLabel(t))
	}
	return nil
}

func runRequery(ctx context.Context, a *app.App, _ *config.Config) error {
	removed, err := a.Playback.Requery(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Dropped %s missing %s\n", humanize.Comma(int64(len(removed))), plural(len(removed), "track"))
	return nil
}

func runImport(ctx context.Context, a *app.App, _ *config.Config) error {
	res, err := a.Import(ctx, *importPaths)
	if err != nil {
		return err
	}
	total, err := a.Library.TrackCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s %s", humanize.Comma(int64(len(res.IDs))), plural(len(res.IDs), "file"))
	if len(res.IDs) > 0 {
		fmt.Printf(" (IDs %d-%d)", res.IDs[0], res.IDs[len(res.IDs)-1])
	}
	fmt.Printf(", library now holds %s %s\n", humanize.Comma(int64(total)), plural(total, "track"))
	for _, p := range res.Skipped {
		fmt.Printf("  skipped %s\n", p)
	}
	return nil
}

func runLibraryRemove(ctx context.Context, a *app.App, _ *config.Config) error {
	removed, err := a.Remove(ctx, *libRemovePath)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %s %s from the library\n", humanize.Comma(int64(len(removed))), plural(len(removed), "track"))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	if word == "entry" {
		return "entries"
	}
	return word + "s"
}
