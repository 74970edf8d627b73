package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/queue"
	"github.com/llehouerou/playq/internal/tags"
)

// ImportResult reports what Import did.
type ImportResult struct {
	IDs     []queue.ID
	Skipped []string
}

// Import adds music files to the library. Directories are walked
// recursively; files the player cannot decode are skipped.
func (a *App) Import(ctx context.Context, paths []string) (ImportResult, error) {
	files, res, err := collectMusicFiles(paths)
	if err != nil {
		return res, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		t, err := tags.Read(path)
		if err != nil {
			zlog.Warn().Err(err).Str("path", path).Msg("skipping file")
			res.Skipped = append(res.Skipped, path)
			continue
		}
		id, err := a.Library.Add(ctx, library.Track{
			Path:     t.Path,
			Title:    t.Title,
			Artist:   t.Artist,
			Album:    t.Album,
			Duration: t.Duration,
			MimeType: t.MimeType,
		})
		if err != nil {
			return res, errors.Wrapf(err, "add %s", path)
		}
		res.IDs = append(res.IDs, id)
	}
	return res, nil
}

func collectMusicFiles(paths []string) ([]string, ImportResult, error) {
	var (
		files []string
		res   ImportResult
	)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, res, errors.Wrapf(err, "resolve %s", p)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, res, errors.Wrapf(err, "stat %s", p)
		}
		if !info.IsDir() {
			if tags.IsMusicFile(abs) {
				files = append(files, abs)
			} else {
				res.Skipped = append(res.Skipped, abs)
			}
			continue
		}

		var found []string
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && tags.IsMusicFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, res, errors.Wrapf(err, "walk %s", p)
		}
		slices.Sort(found)
		files = append(files, found...)
	}
	return files, res, nil
}

// Remove deletes tracks from the library by path and excises them from the
// queue. Paths not in the library are ignored.
func (a *App) Remove(ctx context.Context, paths []string) ([]queue.ID, error) {
	var removed []queue.ID
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return removed, errors.Wrapf(err, "resolve %s", p)
		}
		id, err := a.Library.DeleteByPath(ctx, abs)
		if errors.Is(err, library.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if _, err := a.Playback.Requery(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}
