package service

import (
	"context"
	"errors"
	"time"

	"weighit/internal/models"
	"weighit/internal/repository"
)

// Error taxonomy shared by all operations. Callers branch on these with
// errors.Is; none of them is retried automatically.
var (
	ErrInvalidWeight   = errors.New("weight must be greater than zero")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
)

// AppendParams carries a donation entry to be logged. RequireTemp is the
// field-presence contract built by the caller (from the food type's
// catalog metadata); the ledger itself does not know which types need it.
type AppendParams struct {
	Source       string
	Type         string
	WeightLb     float64
	TempPickupF  *float64
	TempDropoffF *float64
	RequireTemp  bool
}

// Ledger is the append-only donation record with linear undo/redo.
type Ledger interface {
	Append(ctx context.Context, p AppendParams) (models.LedgerEntry, error)
	Undo(ctx context.Context) (models.LedgerEntry, error)
	Redo(ctx context.Context) (models.LedgerEntry, error)
	TotalsForDay(ctx context.Context, day time.Time, source string) (map[string]float64, error)
	RecentEntries(ctx context.Context, limit int, source string) ([]models.LedgerEntry, error)
	EntriesBetween(ctx context.Context, from, to time.Time, source string) ([]models.LedgerEntry, error)
}

// Catalog exposes the reference data: donation sources and food types.
type Catalog interface {
	Sources(ctx context.Context) ([]models.Source, error)
	FoodTypes(ctx context.Context) ([]models.FoodType, error)
	RequiresTemp(ctx context.Context, typeName string) (bool, error)
	EnsureDefaults(ctx context.Context) error
}

// DeviceLog records and lists scale lifecycle events.
type DeviceLog interface {
	Record(ctx context.Context, typ, message string, meta map[string]any) error
	List(ctx context.Context, f EventFilter) ([]models.DeviceEvent, error)
}

type Service struct {
	Ledger
	Catalog
	DeviceLog
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository) *Service {
	return &Service{
		Ledger:    NewLedgerService(repos.Entries, repos.Redo),
		Catalog:   NewCatalogService(repos.Catalog),
		DeviceLog: NewDeviceLogService(repos.DeviceEvents),
	}
}
