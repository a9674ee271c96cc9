package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"weighit/internal/models"
)

type EntrySQLite struct {
	db *sql.DB
}

func NewEntrySQLite(db *sql.DB) *EntrySQLite { return &EntrySQLite{db: db} }

const entryColumns = "id, created_at, source, type, weight_lb, temp_pickup_f, temp_dropoff_f"

// Insert persists a new active entry and returns it with the assigned id.
// CreatedAt is set to now (UTC) when zero.
func (r *EntrySQLite) Insert(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC().Truncate(time.Second)
	} else {
		e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Second)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (created_at, source, type, weight_lb, temp_pickup_f, temp_dropoff_f)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		formatTime(e.CreatedAt),
		e.Source,
		e.Type,
		e.WeightLb,
		e.TempPickupF,
		e.TempDropoffF,
	)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("entry id: %w", err)
	}
	e.ID = id
	return e, nil
}

// GetByID fetches a single entry regardless of its deleted flag.
func (r *EntrySQLite) GetByID(ctx context.Context, id int64) (models.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	return scanEntry(row)
}

// SetDeleted flips the soft-delete flag. Undone entries stay in the table.
func (r *EntrySQLite) SetDeleted(ctx context.Context, id int64, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET is_deleted = ? WHERE id = ?`, flag, id)
	return err
}

// ActiveIDs returns ids of non-deleted entries in ascending (append) order.
func (r *EntrySQLite) ActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM entries WHERE is_deleted = 0 ORDER BY id ASC`)
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

// TotalsBetween sums active entries' weight grouped by food type over
// [from, to), optionally filtered by source.
func (r *EntrySQLite) TotalsBetween(ctx context.Context, from, to time.Time, source string) (map[string]float64, error) {
	q := `SELECT type, SUM(weight_lb) FROM entries
		WHERE is_deleted = 0 AND created_at >= ? AND created_at < ?`
	args := []any{formatTime(from), formatTime(to)}
	if source != "" {
		q += ` AND source = ?`
		args = append(args, source)
	}
	q += ` GROUP BY type`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var typ string
		var sum float64
		if err := rows.Scan(&typ, &sum); err != nil {
			return nil, err
		}
		totals[typ] = sum
	}
	return totals, rows.Err()
}

// Recent returns at most limit active entries, newest first.
func (r *EntrySQLite) Recent(ctx context.Context, limit int, source string) ([]models.LedgerEntry, error) {
	q := `SELECT ` + entryColumns + ` FROM entries WHERE is_deleted = 0`
	var args []any
	if source != "" {
		q += ` AND source = ?`
		args = append(args, source)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	return r.queryEntries(ctx, q, args...)
}

// Between returns active entries with created_at in [from, to], newest first.
// Zero bounds are open.
func (r *EntrySQLite) Between(ctx context.Context, from, to time.Time, source string) ([]models.LedgerEntry, error) {
	var conds []string
	var args []any

	if !from.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, formatTime(to))
	}
	if source != "" {
		conds = append(conds, "source = ?")
		args = append(args, source)
	}

	q := `SELECT ` + entryColumns + ` FROM entries WHERE is_deleted = 0`
	if len(conds) > 0 {
		q += " AND " + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY id DESC`

	return r.queryEntries(ctx, q, args...)
}

func (r *EntrySQLite) queryEntries(ctx context.Context, q string, args ...any) ([]models.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.LedgerEntry, 0, 16)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	var createdAt string
	var pickup, dropoff sql.NullFloat64

	if err := row.Scan(&e.ID, &createdAt, &e.Source, &e.Type, &e.WeightLb, &pickup, &dropoff); err != nil {
		return models.LedgerEntry{}, err
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t

	if pickup.Valid {
		v := pickup.Float64
		e.TempPickupF = &v
	}
	if dropoff.Valid {
		v := dropoff.Float64
		e.TempDropoffF = &v
	}
	return e, nil
}
