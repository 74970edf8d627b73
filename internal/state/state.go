// Package state persists the play queue between runs.
package state

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	dbutil "github.com/llehouerou/playq/internal/db"
)

const (
	appName    = "playq"
	dbFileName = "state.db"

	// DefaultSaveDebounce coalesces bursts of queue edits into one write.
	DefaultSaveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	debounce  time.Duration
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *QueueState
}

// Open opens the state database at path. An empty path selects the XDG
// data directory.
func Open(ctx context.Context, path string, debounce time.Duration) (*Manager, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	db, err := dbutil.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	m, err := New(ctx, db, debounce)
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// New wraps an open database and initializes the schema.
func New(ctx context.Context, db *sql.DB, debounce time.Duration) (*Manager, error) {
	if err := initSchema(ctx, db); err != nil {
		return nil, errors.Wrap(err, "init state schema")
	}
	if debounce <= 0 {
		debounce = DefaultSaveDebounce
	}
	return &Manager{db: db, debounce: debounce}, nil
}

// DefaultPath returns $XDG_DATA_HOME/playq/state.db.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Close flushes any pending save and closes the database.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	if pending != nil {
		m.write(*pending)
	}

	return m.db.Close()
}

// GetQueue returns the saved queue. An empty database yields an empty queue.
func (m *Manager) GetQueue(ctx context.Context) (*QueueState, error) {
	return getQueue(ctx, m.db)
}

// SaveQueue schedules state to be written after the debounce delay. A later
// call before the delay replaces it.
func (m *Manager) SaveQueue(state QueueState) {
	state.IDs = slices.Clone(state.IDs)

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &state

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(m.debounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			m.write(*pending)
		}
	})
}

func (m *Manager) write(state QueueState) {
	if err := saveQueue(context.Background(), m.db, state); err != nil {
		zlog.Error().Err(err).Msg("failed to save queue state")
		return
	}
	zlog.Debug().Int("entries", len(state.IDs)).Int("position", state.Position).Msg("queue state saved")
}
