package repository

import (
	"context"
	"database/sql"
	"time"

	"weighit/internal/models"
	"weighit/internal/repository/db"
)

type EntryRepo interface {
	Insert(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error)
	GetByID(ctx context.Context, id int64) (models.LedgerEntry, error)
	SetDeleted(ctx context.Context, id int64, deleted bool) error
	ActiveIDs(ctx context.Context) ([]int64, error)
	TotalsBetween(ctx context.Context, from, to time.Time, source string) (map[string]float64, error)
	Recent(ctx context.Context, limit int, source string) ([]models.LedgerEntry, error)
	Between(ctx context.Context, from, to time.Time, source string) ([]models.LedgerEntry, error)
}

// RedoRepo persists the redo stack so undo history survives restarts.
type RedoRepo interface {
	Push(ctx context.Context, entryID int64, at time.Time) error
	Remove(ctx context.Context, entryID int64) error
	Clear(ctx context.Context) error
	IDs(ctx context.Context) ([]int64, error)
}

type CatalogRepo interface {
	Sources(ctx context.Context) ([]models.Source, error)
	FoodTypes(ctx context.Context) ([]models.FoodType, error)
	SeedDefaults(ctx context.Context, sources []models.Source, types []models.FoodType) error
}

type DeviceEventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

type Repository struct {
	Entries      EntryRepo
	Redo         RedoRepo
	Catalog      CatalogRepo
	DeviceEvents DeviceEventRepo
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		Entries:      NewEntrySQLite(conn),
		Redo:         NewRedoSQLite(conn),
		Catalog:      NewCatalogSQLite(conn),
		DeviceEvents: NewDeviceEventSQLite(conn),
	}
}

// InitDB opens the SQLite file at path and ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

// SQLite TIMESTAMP format used for all stored and queried times.
const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}
