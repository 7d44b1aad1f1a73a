package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lewtec/camsave/internal/domain"
)

func newCapture(id string, at time.Time) *domain.Capture {
	return &domain.Capture{
		ID:         id,
		TempPath:   "/tmp/camsave/" + id + ".jpg",
		BaseName:   "JPEG_" + at.Format("2006_01_02_15_04_05"),
		CapturedAt: at,
	}
}

func TestCaptureRepository_Create(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewCaptureRepository(db)
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 7, 8, 9, 123, time.UTC)

	t.Run("creates capture successfully", func(t *testing.T) {
		if err := repo.Create(ctx, newCapture("a", at)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := repo.GetByID(ctx, "a")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got == nil {
			t.Fatal("Expected capture, got nil")
		}
		if got.TempPath != "/tmp/camsave/a.jpg" {
			t.Errorf("TempPath = %v", got.TempPath)
		}
		if !got.CapturedAt.Equal(at) {
			t.Errorf("CapturedAt = %v, want %v", got.CapturedAt, at)
		}
		if got.Removed() {
			t.Error("new capture should not be removed")
		}
	})

	t.Run("fails on duplicate id", func(t *testing.T) {
		if err := repo.Create(ctx, newCapture("a", at)); err == nil {
			t.Error("Expected error for duplicate id")
		}
	})

	t.Run("fails without id", func(t *testing.T) {
		if err := repo.Create(ctx, &domain.Capture{}); err == nil {
			t.Error("Expected error for empty id")
		}
	})
}

func TestCaptureRepository_GetByID_Missing(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	got, err := NewCaptureRepository(db).GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Error("Expected nil for non-existent capture")
	}
}

func TestCaptureRepository_LatestAndList(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewCaptureRepository(db)
	ctx := context.Background()

	t.Run("latest on empty table", func(t *testing.T) {
		got, err := repo.Latest(ctx)
		if err != nil || got != nil {
			t.Fatalf("Latest() = %v, %v; want nil, nil", got, err)
		}
	})

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if err := repo.Create(ctx, newCapture(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != "third" {
		t.Errorf("Latest().ID = %v, want third", latest.ID)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "third" || all[2].ID != "first" {
		t.Errorf("List() returned unexpected order: %v", ids(all))
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Errorf("Count() = %d, %v; want 3", count, err)
	}
}

func TestCaptureRepository_MarkRemoved(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewCaptureRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.Create(ctx, newCapture("old", base))
	repo.Create(ctx, newCapture("new", base.Add(time.Minute)))

	if err := repo.MarkRemoved(ctx, "old", base.Add(2*time.Minute)); err != nil {
		t.Fatalf("MarkRemoved() error = %v", err)
	}

	old, _ := repo.GetByID(ctx, "old")
	if !old.Removed() {
		t.Error("expected old capture to be marked removed")
	}

	retained, err := repo.ListRetained(ctx)
	if err != nil {
		t.Fatalf("ListRetained() error = %v", err)
	}
	if len(retained) != 1 || retained[0].ID != "new" {
		t.Errorf("ListRetained() = %v, want [new]", ids(retained))
	}
}

func TestCaptureRepository_WithTx(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewCaptureRepositoryWithTx(tx).Create(ctx, newCapture("tx", time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	count, _ := NewCaptureRepository(db).Count(ctx)
	if count != 0 {
		t.Errorf("Count() = %d after rollback, want 0", count)
	}
}

func ids(cs []*domain.Capture) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
