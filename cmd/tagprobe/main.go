// Tagprobe prints what a library import would record for each music file
// under the given paths, without touching any database.
package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/llehouerou/playq/internal/logger"
	"github.com/llehouerou/playq/internal/tags"
)

func main() {
	log := logger.New(os.Stderr, zerolog.DebugLevel, true)
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: tagprobe <file or directory>...")
	}

	var (
		count, failed int
		total         time.Duration
	)
	for _, root := range os.Args[1:] {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !tags.IsMusicFile(path) {
				return nil
			}
			t, err := tags.Read(path)
			if err != nil {
				failed++
				log.Warn().Err(err).Str("path", path).Msg("unreadable")
				return nil
			}
			count++
			total += t.Duration
			log.Info().
				Str("path", path).
				Str("title", t.Title).
				Str("artist", t.Artist).
				Str("album", t.Album).
				Dur("duration", t.Duration).
				Str("mime", t.MimeType).
				Msg("track")
			return nil
		})
		if err != nil {
			log.Fatal().Err(err).Str("root", root).Msg("walk failed")
		}
	}

	log.Info().
		Str("tracks", humanize.Comma(int64(count))).
		Str("failed", humanize.Comma(int64(failed))).
		Str("total", total.Round(time.Second).String()).
		Msg("done")
}
