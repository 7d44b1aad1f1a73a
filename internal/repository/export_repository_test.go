package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lewtec/camsave/internal/domain"
)

func TestExportRepository_Create(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := NewCaptureRepository(db).Create(ctx, newCapture("cap", at)); err != nil {
		t.Fatal(err)
	}
	repo := NewExportRepository(db)

	e := &domain.Export{
		CaptureID:   "cap",
		Path:        "/pictures/CamSave/JPEG_2024_02_03_04_05_07.jpg",
		Quality:     80,
		Width:       3000,
		Height:      4000,
		Orientation: 6,
		Bytes:       123456,
		SHA256:      "abc",
		Succeeded:   true,
		ExportedAt:  at.Add(time.Second),
	}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID == 0 {
		t.Error("Expected non-zero ID")
	}

	byID, err := repo.GetByID(ctx, e.ID)
	if err != nil || byID == nil || byID.SHA256 != "abc" {
		t.Errorf("GetByID() = %+v, %v", byID, err)
	}
	if missing, err := repo.GetByID(ctx, e.ID+100); err != nil || missing != nil {
		t.Errorf("GetByID(missing) = %+v, %v; want nil, nil", missing, err)
	}

	got, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got == nil {
		t.Fatal("Expected export, got nil")
	}
	if got.Path != e.Path || got.Quality != 80 || got.Orientation != 6 || !got.Succeeded {
		t.Errorf("Latest() = %+v", got)
	}
	if !got.ExportedAt.Equal(e.ExportedAt) {
		t.Errorf("ExportedAt = %v, want %v", got.ExportedAt, e.ExportedAt)
	}
}

func TestExportRepository_ListAndFailures(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	base := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	captures := NewCaptureRepository(db)
	captures.Create(ctx, newCapture("one", base))
	captures.Create(ctx, newCapture("two", base))

	repo := NewExportRepository(db)
	records := []*domain.Export{
		{CaptureID: "one", Path: "a.jpg", Quality: 50, Succeeded: true, ExportedAt: base.Add(1 * time.Second)},
		{CaptureID: "one", Path: "b.jpg", Quality: 10, Succeeded: false, Error: "disk full", ExportedAt: base.Add(2 * time.Second)},
		{CaptureID: "two", Path: "c.jpg", Quality: 90, Succeeded: true, ExportedAt: base.Add(3 * time.Second)},
	}
	for _, r := range records {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("by capture", func(t *testing.T) {
		got, err := repo.ListByCapture(ctx, "one")
		if err != nil {
			t.Fatalf("ListByCapture() error = %v", err)
		}
		if len(got) != 2 || got[0].Path != "b.jpg" {
			t.Errorf("ListByCapture() = %+v", got)
		}
		if got[0].Error != "disk full" {
			t.Errorf("Error = %q", got[0].Error)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 || got[0].Path != "c.jpg" {
			t.Errorf("List(2) = %+v", got)
		}
	})

	t.Run("no limit", func(t *testing.T) {
		got, err := repo.List(ctx, 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("List(0) returned %d rows, want 3", len(got))
		}
	})

	t.Run("count failed", func(t *testing.T) {
		n, err := repo.CountFailed(ctx)
		if err != nil || n != 1 {
			t.Errorf("CountFailed() = %d, %v; want 1", n, err)
		}
	})
}

func TestExportRepository_LatestEmpty(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	got, err := NewExportRepository(db).Latest(context.Background())
	if err != nil || got != nil {
		t.Errorf("Latest() = %v, %v; want nil, nil", got, err)
	}
}

func TestExportRepository_WithTx(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	at := time.Now()
	if err := NewCaptureRepositoryWithTx(tx).Create(ctx, newCapture("tx", at)); err != nil {
		t.Fatalf("capture Create() error = %v", err)
	}
	e := &domain.Export{CaptureID: "tx", Path: "CamSave/JPEG_tx.jpg", Quality: 50, Succeeded: true, ExportedAt: at}
	if err := NewExportRepositoryWithTx(tx).Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	got, err := NewExportRepository(db).Latest(ctx)
	if err != nil || got != nil {
		t.Errorf("Latest() = %+v, %v after rollback; want nil, nil", got, err)
	}
}
