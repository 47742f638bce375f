package reports

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoCreateAndGet(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	rec := Record{ID: "r1", OwnerKey: "o", CreatedAt: time.Now()}

	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != "r1" {
		t.Fatalf("unexpected record %+v", got)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoListByOwner(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_ = repo.Create(ctx, Record{ID: id, OwnerKey: "o1", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	_ = repo.Create(ctx, Record{ID: "x", OwnerKey: "o2", CreatedAt: base})
	// Re-saving a record must not duplicate it in the owner index.
	_ = repo.Create(ctx, Record{ID: "a", OwnerKey: "o1", CreatedAt: base})

	got, err := repo.ListByOwner(ctx, "o1", 2)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("expected newest first [c b], got %+v", got)
	}

	all, _ := repo.ListByOwner(ctx, "o1", 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestMemoryRepoHonoursContext(t *testing.T) {
	repo := NewMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := repo.Create(ctx, Record{ID: "r"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -1, want: defaultListLimit},
		{in: 0, want: defaultListLimit},
		{in: 5, want: 5},
		{in: 1000, want: maxListLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Fatalf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
