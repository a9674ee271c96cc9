package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"weighit/internal/models"
)

// ---- Test doubles ----

type fakeEntryRepo struct {
	nextID  int64
	entries map[int64]models.LedgerEntry
	deleted map[int64]bool
	order   []int64

	gotFrom   time.Time
	gotTo     time.Time
	gotSource string
	gotLimit  int

	insertErr error
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{
		entries: make(map[int64]models.LedgerEntry),
		deleted: make(map[int64]bool),
	}
}

func (f *fakeEntryRepo) Insert(_ context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	if f.insertErr != nil {
		return models.LedgerEntry{}, f.insertErr
	}
	f.nextID++
	e.ID = f.nextID
	f.entries[e.ID] = e
	f.order = append(f.order, e.ID)
	return e, nil
}

func (f *fakeEntryRepo) GetByID(_ context.Context, id int64) (models.LedgerEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return models.LedgerEntry{}, fmt.Errorf("no entry %d", id)
	}
	return e, nil
}

func (f *fakeEntryRepo) SetDeleted(_ context.Context, id int64, deleted bool) error {
	if _, ok := f.entries[id]; !ok {
		return fmt.Errorf("no entry %d", id)
	}
	f.deleted[id] = deleted
	return nil
}

func (f *fakeEntryRepo) ActiveIDs(context.Context) ([]int64, error) {
	var ids []int64
	for _, id := range f.order {
		if !f.deleted[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeEntryRepo) TotalsBetween(_ context.Context, from, to time.Time, source string) (map[string]float64, error) {
	f.gotFrom, f.gotTo, f.gotSource = from, to, source
	totals := make(map[string]float64)
	for _, id := range f.order {
		e := f.entries[id]
		if f.deleted[id] || e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		if source != "" && e.Source != source {
			continue
		}
		totals[e.Type] += e.WeightLb
	}
	return totals, nil
}

func (f *fakeEntryRepo) Recent(_ context.Context, limit int, source string) ([]models.LedgerEntry, error) {
	f.gotLimit, f.gotSource = limit, source
	var out []models.LedgerEntry
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		id := f.order[i]
		if f.deleted[id] {
			continue
		}
		e := f.entries[id]
		if source != "" && e.Source != source {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEntryRepo) Between(_ context.Context, from, to time.Time, source string) ([]models.LedgerEntry, error) {
	f.gotFrom, f.gotTo, f.gotSource = from, to, source
	return nil, nil
}

type fakeRedoRepo struct {
	ids    []int64
	clears int
}

func (f *fakeRedoRepo) Push(_ context.Context, entryID int64, _ time.Time) error {
	f.ids = append(f.ids, entryID)
	return nil
}

func (f *fakeRedoRepo) Remove(_ context.Context, entryID int64) error {
	for i := len(f.ids) - 1; i >= 0; i-- {
		if f.ids[i] == entryID {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRedoRepo) Clear(context.Context) error {
	f.clears++
	f.ids = nil
	return nil
}

func (f *fakeRedoRepo) IDs(context.Context) ([]int64, error) {
	out := make([]int64, len(f.ids))
	copy(out, f.ids)
	return out, nil
}

func floatPtr(v float64) *float64 { return &v }

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ---- Tests ----

func TestAppend_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  AppendParams
		wantErr error
	}{
		{
			name:    "zero weight",
			params:  AppendParams{Source: "NFCC", Type: "Produce", WeightLb: 0},
			wantErr: ErrInvalidWeight,
		},
		{
			name:    "negative weight",
			params:  AppendParams{Source: "NFCC", Type: "Produce", WeightLb: -2},
			wantErr: ErrInvalidWeight,
		},
		{
			name:    "blank source",
			params:  AppendParams{Source: "  ", Type: "Produce", WeightLb: 1},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "blank type",
			params:  AppendParams{Source: "NFCC", Type: "", WeightLb: 1},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "temperature contract missing both",
			params: AppendParams{
				Source: "NFCC", Type: "Dairy", WeightLb: 1, RequireTemp: true,
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "temperature contract missing dropoff",
			params: AppendParams{
				Source: "NFCC", Type: "Dairy", WeightLb: 1,
				RequireTemp: true, TempPickupF: floatPtr(38),
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "temperature contract satisfied",
			params: AppendParams{
				Source: "NFCC", Type: "Dairy", WeightLb: 1,
				RequireTemp:  true,
				TempPickupF:  floatPtr(38),
				TempDropoffF: floatPtr(40),
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewLedgerService(newFakeEntryRepo(), &fakeRedoRepo{})
			_, err := svc.Append(testCtx(t), tc.params)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Append: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
		})
	}
}

func TestAppend_AssignsMonotonicIDs(t *testing.T) {
	t.Parallel()

	svc := NewLedgerService(newFakeEntryRepo(), &fakeRedoRepo{})
	ctx := testCtx(t)

	for want := int64(1); want <= 3; want++ {
		e, err := svc.Append(ctx, AppendParams{Source: "NFCC", Type: "Produce", WeightLb: 1})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if e.ID != want {
			t.Fatalf("id = %d; want %d", e.ID, want)
		}
		if e.CreatedAt.IsZero() {
			t.Fatalf("CreatedAt not assigned")
		}
	}
}

// The concrete end-to-end scenario: append, totals, undo, redo.
func TestUndoRedo_RoundTripRestoresTotals(t *testing.T) {
	t.Parallel()

	svc := NewLedgerService(newFakeEntryRepo(), &fakeRedoRepo{})
	ctx := testCtx(t)

	created, err := svc.Append(ctx, AppendParams{Source: "FoodBank A", Type: "Produce", WeightLb: 5.5})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("id = %d; want 1", created.ID)
	}

	totals, err := svc.TotalsForDay(ctx, time.Now(), "")
	if err != nil {
		t.Fatalf("TotalsForDay: %v", err)
	}
	if totals["Produce"] != 5.5 {
		t.Fatalf("totals = %v; want Produce 5.5", totals)
	}

	undone, err := svc.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undone.ID != created.ID {
		t.Fatalf("undone id = %d; want %d", undone.ID, created.ID)
	}
	totals, err = svc.TotalsForDay(ctx, time.Now(), "")
	if err != nil {
		t.Fatalf("TotalsForDay after undo: %v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("totals after undo = %v; want empty", totals)
	}

	redone, err := svc.Redo(ctx)
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if redone.ID != created.ID {
		t.Fatalf("redone id = %d; want %d", redone.ID, created.ID)
	}
	totals, err = svc.TotalsForDay(ctx, time.Now(), "")
	if err != nil {
		t.Fatalf("TotalsForDay after redo: %v", err)
	}
	if totals["Produce"] != 5.5 {
		t.Fatalf("totals after redo = %v; want Produce 5.5", totals)
	}
}

func TestAppend_ClearsRedoPath(t *testing.T) {
	t.Parallel()

	redoRepo := &fakeRedoRepo{}
	svc := NewLedgerService(newFakeEntryRepo(), redoRepo)
	ctx := testCtx(t)

	mustAppend := func() {
		t.Helper()
		if _, err := svc.Append(ctx, AppendParams{Source: "NFCC", Type: "Bread", WeightLb: 2}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	mustAppend()
	if _, err := svc.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	mustAppend()

	if _, err := svc.Redo(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Redo after append = %v; want ErrNotFound", err)
	}
	if len(redoRepo.ids) != 0 {
		t.Fatalf("persisted redo stack not cleared: %v", redoRepo.ids)
	}
}

func TestUndoRedo_EmptyHistory(t *testing.T) {
	t.Parallel()

	svc := NewLedgerService(newFakeEntryRepo(), &fakeRedoRepo{})
	ctx := testCtx(t)

	if _, err := svc.Undo(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Undo on empty history = %v; want ErrNotFound", err)
	}
	if _, err := svc.Redo(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Redo on empty history = %v; want ErrNotFound", err)
	}
}

func TestStacks_RebuiltFromPersistedState(t *testing.T) {
	t.Parallel()
	ctx := testCtx(t)

	seed := func() (*fakeEntryRepo, *fakeRedoRepo) {
		entries := newFakeEntryRepo()
		for i := 0; i < 4; i++ {
			_, _ = entries.Insert(ctx, models.LedgerEntry{
				Source: "NFCC", Type: "Produce", WeightLb: 1, CreatedAt: time.Now().UTC(),
			})
		}
		entries.deleted[4] = true // entry 4 was undone before the restart
		return entries, &fakeRedoRepo{ids: []int64{4}}
	}

	// undo picks up where the previous process left off
	entries, redoRepo := seed()
	svc := NewLedgerService(entries, redoRepo)
	undone, err := svc.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undone.ID != 3 {
		t.Fatalf("undone id = %d; want 3 (newest active)", undone.ID)
	}

	// redo reinstates the entry undone before the restart
	entries, redoRepo = seed()
	svc = NewLedgerService(entries, redoRepo)
	redone, err := svc.Redo(ctx)
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if redone.ID != 4 {
		t.Fatalf("redone id = %d; want 4", redone.ID)
	}
	if entries.deleted[4] {
		t.Fatalf("entry 4 still marked deleted after redo")
	}
}

func TestRecentEntries(t *testing.T) {
	t.Parallel()

	entries := newFakeEntryRepo()
	svc := NewLedgerService(entries, &fakeRedoRepo{})
	ctx := testCtx(t)

	if _, err := svc.RecentEntries(ctx, 0, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("limit 0 err = %v; want ErrInvalidArgument", err)
	}
	if _, err := svc.RecentEntries(ctx, -3, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("limit -3 err = %v; want ErrInvalidArgument", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Append(ctx, AppendParams{Source: "NFCC", Type: "Produce", WeightLb: float64(i + 1)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := svc.RecentEntries(ctx, 2, "  NFCC ")
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 2 {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if entries.gotSource != "NFCC" {
		t.Fatalf("source not trimmed: %q", entries.gotSource)
	}
}

func TestTotalsForDay_UsesLocalDayBounds(t *testing.T) {
	t.Parallel()

	entries := newFakeEntryRepo()
	svc := NewLedgerService(entries, &fakeRedoRepo{})
	ctx := testCtx(t)

	day := time.Date(2025, time.March, 10, 15, 30, 0, 0, time.Local)
	if _, err := svc.TotalsForDay(ctx, day, "GBFB"); err != nil {
		t.Fatalf("TotalsForDay: %v", err)
	}

	wantStart := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local).UTC()
	if !entries.gotFrom.Equal(wantStart) {
		t.Fatalf("from = %v; want %v", entries.gotFrom, wantStart)
	}
	if got := entries.gotTo.Sub(entries.gotFrom); got != 24*time.Hour {
		t.Fatalf("day span = %v; want 24h", got)
	}
	if entries.gotSource != "GBFB" {
		t.Fatalf("source = %q; want GBFB", entries.gotSource)
	}
}

func TestEntriesBetween_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := NewLedgerService(newFakeEntryRepo(), &fakeRedoRepo{})
	ctx := testCtx(t)

	from := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	if _, err := svc.EntriesBetween(ctx, from, to, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v; want ErrInvalidArgument", err)
	}
}
