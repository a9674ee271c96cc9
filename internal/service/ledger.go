package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"weighit/internal/models"
	"weighit/internal/repository"
)

// LedgerService owns the entry store and both history stacks. Mutations
// run under one mutex to keep the stacks and the active set consistent;
// queries read committed state straight from the repository.
type LedgerService struct {
	entries repository.EntryRepo
	redo    repository.RedoRepo

	mu        sync.Mutex
	loaded    bool
	undoStack []int64 // top is the last element
	redoStack []int64
}

func NewLedgerService(entries repository.EntryRepo, redo repository.RedoRepo) *LedgerService {
	return &LedgerService{entries: entries, redo: redo}
}

// ensureLoaded rebuilds both stacks from persisted state on first use:
// the undo stack from active entry ids in append order, the redo stack
// from the redo_stack table. Callers must hold mu.
func (s *LedgerService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	active, err := s.entries.ActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("restore undo stack: %w", err)
	}
	undone, err := s.redo.IDs(ctx)
	if err != nil {
		return fmt.Errorf("restore redo stack: %w", err)
	}
	s.undoStack = active
	s.redoStack = undone
	s.loaded = true
	return nil
}

// Append validates and persists a new active entry, pushes it onto the
// undo stack, and invalidates any pending redo path.
func (s *LedgerService) Append(ctx context.Context, p AppendParams) (models.LedgerEntry, error) {
	if p.WeightLb <= 0 {
		return models.LedgerEntry{}, fmt.Errorf("%w: got %.2f", ErrInvalidWeight, p.WeightLb)
	}
	source := strings.TrimSpace(p.Source)
	typ := strings.TrimSpace(p.Type)
	if source == "" || typ == "" {
		return models.LedgerEntry{}, fmt.Errorf("%w: source and type are required", ErrInvalidArgument)
	}
	if p.RequireTemp && (p.TempPickupF == nil || p.TempDropoffF == nil) {
		return models.LedgerEntry{}, fmt.Errorf(
			"%w: %s requires pickup and dropoff temperatures", ErrInvalidArgument, typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.LedgerEntry{}, err
	}

	entry, err := s.entries.Insert(ctx, models.LedgerEntry{
		Source:       source,
		Type:         typ,
		WeightLb:     p.WeightLb,
		TempPickupF:  p.TempPickupF,
		TempDropoffF: p.TempDropoffF,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("append entry: %w", err)
	}

	// New history invalidates the old redo path.
	if err := s.redo.Clear(ctx); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("clear redo stack: %w", err)
	}
	s.redoStack = nil
	s.undoStack = append(s.undoStack, entry.ID)

	return entry, nil
}

// Undo marks the most recently appended active entry as undone and makes
// it redoable. Fails with ErrNotFound when there is nothing to undo.
func (s *LedgerService) Undo(ctx context.Context) (models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.LedgerEntry{}, err
	}
	if len(s.undoStack) == 0 {
		return models.LedgerEntry{}, fmt.Errorf("%w: nothing to undo", ErrNotFound)
	}

	id := s.undoStack[len(s.undoStack)-1]
	if err := s.entries.SetDeleted(ctx, id, true); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("undo entry %d: %w", id, err)
	}
	if err := s.redo.Push(ctx, id, time.Now().UTC()); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("push redo %d: %w", id, err)
	}
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.redoStack = append(s.redoStack, id)

	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("load entry %d: %w", id, err)
	}
	return entry, nil
}

// Redo reinstates the most recently undone entry as active again.
// Fails with ErrNotFound when the redo stack is empty.
func (s *LedgerService) Redo(ctx context.Context) (models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.LedgerEntry{}, err
	}
	if len(s.redoStack) == 0 {
		return models.LedgerEntry{}, fmt.Errorf("%w: nothing to redo", ErrNotFound)
	}

	id := s.redoStack[len(s.redoStack)-1]
	if err := s.entries.SetDeleted(ctx, id, false); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("redo entry %d: %w", id, err)
	}
	if err := s.redo.Remove(ctx, id); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("pop redo %d: %w", id, err)
	}
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.undoStack = append(s.undoStack, id)

	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("load entry %d: %w", id, err)
	}
	return entry, nil
}

// TotalsForDay sums active entries' weight grouped by food type over the
// local calendar day containing day, optionally filtered by source.
// No matches is an empty map, not an error.
func (s *LedgerService) TotalsForDay(ctx context.Context, day time.Time, source string) (map[string]float64, error) {
	y, m, d := day.In(time.Local).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 1)
	return s.entries.TotalsBetween(ctx, start.UTC(), end.UTC(), strings.TrimSpace(source))
}

// RecentEntries returns at most limit active entries, newest first.
func (s *LedgerService) RecentEntries(ctx context.Context, limit int, source string) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}
	return s.entries.Recent(ctx, limit, strings.TrimSpace(source))
}

// EntriesBetween returns active entries within [from, to], newest first.
// Zero bounds are open ends.
func (s *LedgerService) EntriesBetween(ctx context.Context, from, to time.Time, source string) ([]models.LedgerEntry, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidArgument)
	}
	return s.entries.Between(ctx, from.UTC(), to.UTC(), strings.TrimSpace(source))
}
