package library

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	dbutil "github.com/llehouerou/playq/internal/db"
	"github.com/llehouerou/playq/internal/projection"
	"github.com/llehouerou/playq/internal/queue"
)

// maxBatch stays under SQLite's host parameter limit.
const maxBatch = 500

var _ projection.Fetcher[Track] = (*Store)(nil)

// FetchByIDs returns the tracks for ids sorted by ascending ID. IDs with no
// row are skipped. ids must be distinct and ascending, as produced by
// projection.Distinct; chunks are then already in order and concatenate.
func (s *Store) FetchByIDs(ctx context.Context, ids []queue.ID) ([]Track, error) {
	tracks := make([]Track, 0, len(ids))
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))
		chunk, err := s.fetchChunk(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, chunk...)
	}

	zlog.Debug().
		Int("requested", len(ids)).
		Int("found", len(tracks)).
		Msg("library batch fetch")
	return tracks, nil
}

func (s *Store) fetchChunk(ctx context.Context, ids []queue.ID) ([]Track, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, title, artist, album, duration_ms, mime_type
		FROM tracks
		WHERE id IN (`+dbutil.Placeholders(len(ids))+`)
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %d tracks", len(ids))
	}
	defer rows.Close()

	tracks := make([]Track, 0, len(ids))
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan track")
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
