package repository

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	b, err := NewBuilder([]string{"AMT_CREDIT", "EXT_SOURCE_2", "DAYS_BIRTH"}, WithCapacity(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := map[int64][]float64{}
	order := []int64{100003, 100001, 100002}
	rows[100003] = []float64{1.5, 0.2, -12000}
	rows[100001] = []float64{2.5, math.NaN(), -9000}
	rows[100002] = []float64{0.5, 0.7, -15000}
	for _, id := range order {
		if err := b.Add(id, rows[id]); err != nil {
			t.Fatalf("unexpected error adding %d: %v", id, err)
		}
	}
	if b.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", b.Len())
	}
	return b.Build()
}

func TestTable_BasicOperations(t *testing.T) {
	ctx := context.Background()
	table := newTestTable(t)

	if count := table.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}

	ids := table.IDs(ctx)
	want := []int64{100003, 100001, 100002}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d]: expected %d, got %d", i, want[i], ids[i])
		}
	}

	rec, err := table.Lookup(ctx, 100001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != 100001 {
		t.Errorf("expected id 100001, got %d", rec.ID)
	}
	if rec.Features[0] != 2.5 || !math.IsNaN(rec.Features[1]) || rec.Features[2] != -9000 {
		t.Errorf("unexpected features %v", rec.Features)
	}
}

func TestTable_LookupNotFound(t *testing.T) {
	table := newTestTable(t)

	_, err := table.Lookup(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "999 not found" {
		t.Errorf("expected message naming the identifier, got %q", err.Error())
	}
}

func TestTable_Immutability(t *testing.T) {
	ctx := context.Background()
	table := newTestTable(t)

	ids := table.IDs(ctx)
	ids[0] = 1
	if table.IDs(ctx)[0] != 100003 {
		t.Error("mutating returned ids changed the table")
	}

	rec, _ := table.Lookup(ctx, 100002)
	rec.Features[0] = 42
	again, _ := table.Lookup(ctx, 100002)
	if again.Features[0] != 0.5 {
		t.Error("mutating returned features changed the table")
	}

	cols := table.Columns()
	cols[0] = "X"
	if table.Columns()[0] != "AMT_CREDIT" {
		t.Error("mutating returned columns changed the table")
	}
}

func TestTable_EmptyIDsNotNil(t *testing.T) {
	b, err := NewBuilder([]string{"f"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := b.Build()
	ids := table.IDs(context.Background())
	if ids == nil || len(ids) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", ids)
	}
}

func TestBuilder_Validation(t *testing.T) {
	if _, err := NewBuilder(nil); !errors.Is(err, ErrNoColumns) {
		t.Errorf("expected ErrNoColumns, got %v", err)
	}
	if _, err := NewBuilder([]string{"a", "a"}); err == nil {
		t.Error("expected error for duplicate columns")
	}

	b, err := NewBuilder([]string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Add(1, []float64{1}); !errors.Is(err, ErrWidthMismatch) {
		t.Errorf("expected ErrWidthMismatch, got %v", err)
	}
	if err := b.Add(1, []float64{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Add(1, []float64{3, 4}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestProject(t *testing.T) {
	table := newTestTable(t)

	pos, err := Project(table, []string{"DAYS_BIRTH", "AMT_CREDIT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pos) != 2 || pos[0] != 2 || pos[1] != 0 {
		t.Errorf("unexpected projection %v", pos)
	}

	if _, err := Project(table, []string{"CODE_GENDER"}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestTable_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	table := newTestTable(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if _, err := table.Lookup(ctx, 100002); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				_ = table.IDs(ctx)
			}
		}()
	}
	wg.Wait()
}
