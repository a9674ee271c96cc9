package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"weighit/internal/models"

	"github.com/google/uuid"
)

type DeviceEventSQLite struct {
	db *sql.DB
}

func NewDeviceEventSQLite(db *sql.DB) *DeviceEventSQLite { return &DeviceEventSQLite{db: db} }

// Append inserts a scale lifecycle event. Empty EventID / zero OccurredAt
// are filled in here.
func (r *DeviceEventSQLite) Append(ctx context.Context, e models.DeviceEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	// marshal metadata if present
	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.EventID,
		formatTime(e.OccurredAt),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	return err
}

// List returns events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *DeviceEventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, formatTime(to))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, type, message, meta FROM device_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.DeviceEvent, 0, 16)
	for rows.Next() {
		var ev models.DeviceEvent
		var occurredAt string
		var metaStr sql.NullString
		if err := rows.Scan(&ev.EventID, &occurredAt, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, err
		}
		t, err := parseTime(occurredAt)
		if err != nil {
			return nil, err
		}
		ev.OccurredAt = t

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
