package repository

import (
	"context"
	"database/sql"
	"time"
)

type RedoSQLite struct {
	db *sql.DB
}

func NewRedoSQLite(db *sql.DB) *RedoSQLite { return &RedoSQLite{db: db} }

// Push records an undone entry id as eligible for redo.
func (r *RedoSQLite) Push(ctx context.Context, entryID int64, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO redo_stack (entry_id, pushed_at)
		VALUES (?, ?)
	`, entryID, formatTime(at))
	return err
}

// Remove drops an entry id from the redo stack after a successful redo.
func (r *RedoSQLite) Remove(ctx context.Context, entryID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM redo_stack WHERE entry_id = ?`, entryID)
	return err
}

// Clear empties the redo stack. Called when a new append invalidates it.
func (r *RedoSQLite) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM redo_stack`)
	return err
}

// IDs returns entry ids in push order; the last element is the stack top.
func (r *RedoSQLite) IDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_id FROM redo_stack ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
