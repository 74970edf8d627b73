package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	dbutil "github.com/llehouerou/playq/internal/db"
	"github.com/llehouerou/playq/internal/queue"
)

// QueueState is the persisted play queue.
type QueueState struct {
	IDs        []queue.ID
	Position   int // queue.NoPosition if nothing was playing
	RepeatMode int
}

func getQueue(ctx context.Context, db *sql.DB) (*QueueState, error) {
	var pos, repeat int
	row := db.QueryRowContext(ctx, `SELECT current_index, repeat_mode FROM queue_state WHERE id = 1`)
	err := row.Scan(&pos, &repeat)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{Position: queue.NoPosition}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read queue state")
	}

	rows, err := db.QueryContext(ctx, `SELECT track_id FROM queue_entries ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, "read queue entries")
	}
	defer rows.Close()

	var ids []queue.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, queue.ID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if pos < 0 || pos >= len(ids) {
		pos = queue.NoPosition
	}
	return &QueueState{IDs: ids, Position: pos, RepeatMode: repeat}, nil
}

func saveQueue(ctx context.Context, sqlDB *sql.DB, state QueueState) error {
	return dbutil.WithTx(ctx, sqlDB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_entries`); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO queue_state (id, current_index, repeat_mode, saved_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				repeat_mode = excluded.repeat_mode,
				saved_at = excluded.saved_at
		`, state.Position, state.RepeatMode, time.Now().Unix())
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO queue_entries (position, track_id) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, id := range state.IDs {
			if _, err := stmt.ExecContext(ctx, i, int64(id)); err != nil {
				return err
			}
		}
		return nil
	})
}
