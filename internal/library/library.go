// Package library is the SQLite metadata store the play queue reads track
// rows from.
package library

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	dbutil "github.com/llehouerou/playq/internal/db"
	"github.com/llehouerou/playq/internal/queue"
)

// ErrNotFound is returned when no track has the requested ID or path.
var ErrNotFound = errors.New("track not found")

// Track is one metadata row.
type Track struct {
	ID       queue.ID
	Path     string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
	MimeType string
}

// Key returns the track ID.
func (t Track) Key() queue.ID {
	return t.ID
}

// Store reads and writes tracks.
type Store struct {
	db *sql.DB
}

// New wraps db and creates the tracks table if it does not exist.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := initSchema(ctx, db); err != nil {
		return nil, errors.Wrap(err, "init library schema")
	}
	return &Store{db: db}, nil
}

// Open opens the library database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := dbutil.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			mime_type TEXT,
			added_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_artist_album ON tracks(artist, album);
	`)
	return err
}

// Add inserts t, or updates the row with the same path. It returns the
// track's ID.
func (s *Store) Add(ctx context.Context, t Track) (queue.ID, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tracks (path, title, artist, album, duration_ms, mime_type, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration_ms = excluded.duration_ms,
			mime_type = excluded.mime_type
		RETURNING id
	`, t.Path, t.Title, dbutil.NullString(t.Artist), dbutil.NullString(t.Album),
		t.Duration.Milliseconds(), dbutil.NullString(t.MimeType), time.Now().Unix()).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(err, "add track %s", t.Path)
	}
	return queue.ID(id), nil
}

// Delete removes the track with the given ID. Deleting a missing track is
// not an error.
func (s *Store) Delete(ctx context.Context, id queue.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, int64(id))
	return errors.Wrapf(err, "delete track %d", id)
}

// DeleteByPath removes the track stored for path and returns its ID.
func (s *Store) DeleteByPath(ctx context.Context, path string) (queue.ID, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `DELETE FROM tracks WHERE path = ? RETURNING id`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrap(ErrNotFound, path)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "delete track %s", path)
	}
	return queue.ID(id), nil
}

// TrackByID returns a track by its ID.
func (s *Store) TrackByID(ctx context.Context, id queue.ID) (Track, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, title, artist, album, duration_ms, mime_type
		FROM tracks
		WHERE id = ?
	`, int64(id))

	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Track{}, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	return t, err
}

// TrackCount returns the total number of tracks.
func (s *Store) TrackCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(sc scanner) (Track, error) {
	var t Track
	var id, durationMs int64
	var artist, album, mime sql.NullString

	if err := sc.Scan(&id, &t.Path, &t.Title, &artist, &album, &durationMs, &mime); err != nil {
		return Track{}, err
	}
	t.ID = queue.ID(id)
	t.Artist = dbutil.NullStringValue(artist)
	t.Album = dbutil.NullStringValue(album)
	t.Duration = time.Duration(durationMs) * time.Millisecond
	t.MimeType = dbutil.NullStringValue(mime)
	return t, nil
}
