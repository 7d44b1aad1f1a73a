package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lewtec/camsave/internal/domain"
)

// ExportRepository implements domain.ExportRepository on SQLite
type ExportRepository struct {
	db querier
}

// NewExportRepository creates a new ExportRepository
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// NewExportRepositoryWithTx creates a new ExportRepository with a transaction
func NewExportRepositoryWithTx(tx *sql.Tx) *ExportRepository {
	return &ExportRepository{db: tx}
}

const exportColumns = "id, capture_id, path, quality, width, height, orientation, bytes, sha256, succeeded, error, exported_at"

// Create records an export attempt and fills in its ID
func (r *ExportRepository) Create(ctx context.Context, e *domain.Export) error {
	if e == nil {
		return fmt.Errorf("export cannot be nil")
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO exports (capture_id, path, quality, width, height, orientation, bytes, sha256, succeeded, error, exported_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CaptureID, e.Path, e.Quality, e.Width, e.Height, e.Orientation, e.Bytes, e.SHA256, e.Succeeded, e.Error, formatTime(e.ExportedAt))
	if err != nil {
		return fmt.Errorf("while inserting export of capture %s: %w", e.CaptureID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// GetByID retrieves an export by its ID, or nil
func (r *ExportRepository) GetByID(ctx context.Context, id int64) (*domain.Export, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+exportColumns+" FROM exports WHERE id = ?", id)
	return scanExport(row)
}

// ListByCapture retrieves the exports of one capture, newest first
func (r *ExportRepository) ListByCapture(ctx context.Context, captureID string) ([]*domain.Export, error) {
	return r.list(ctx, "SELECT "+exportColumns+" FROM exports WHERE capture_id = ? ORDER BY exported_at DESC, id DESC", captureID)
}

// List retrieves the most recent exports
func (r *ExportRepository) List(ctx context.Context, limit int) ([]*domain.Export, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.list(ctx, "SELECT "+exportColumns+" FROM exports ORDER BY exported_at DESC, id DESC LIMIT ?", limit)
}

// Latest retrieves the most recent export, or nil
func (r *ExportRepository) Latest(ctx context.Context) (*domain.Export, error) {
	exports, err := r.List(ctx, 1)
	if err != nil || len(exports) == 0 {
		return nil, err
	}
	return exports[0], nil
}

// CountFailed returns how many export attempts failed
func (r *ExportRepository) CountFailed(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exports WHERE NOT succeeded").Scan(&n)
	return n, err
}

func (r *ExportRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Export, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanExport(s scanner) (*domain.Export, error) {
	var (
		e          domain.Export
		exportedAt string
	)
	err := s.Scan(&e.ID, &e.CaptureID, &e.Path, &e.Quality, &e.Width, &e.Height, &e.Orientation, &e.Bytes, &e.SHA256, &e.Succeeded, &e.Error, &exportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e.ExportedAt, err = parseTime(exportedAt); err != nil {
		return nil, fmt.Errorf("export %d: bad exported_at: %w", e.ID, err)
	}
	return &e, nil
}

// Verify that ExportRepository implements domain.ExportRepository
var _ domain.ExportRepository = (*ExportRepository)(nil)
