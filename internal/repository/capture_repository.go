package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lewtec/camsave/internal/domain"
)

// CaptureRepository implements domain.CaptureRepository on SQLite
type CaptureRepository struct {
	db querier
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewCaptureRepository creates a new CaptureRepository
func NewCaptureRepository(db *sql.DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// NewCaptureRepositoryWithTx creates a new CaptureRepository with a transaction
func NewCaptureRepositoryWithTx(tx *sql.Tx) *CaptureRepository {
	return &CaptureRepository{db: tx}
}

const captureColumns = "id, temp_path, base_name, captured_at, removed_at"

// Create records a new capture
func (r *CaptureRepository) Create(ctx context.Context, c *domain.Capture) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("capture must have an id")
	}
	var removedAt sql.NullString
	if c.RemovedAt != nil {
		removedAt = sql.NullString{String: formatTime(*c.RemovedAt), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO captures ("+captureColumns+") VALUES (?, ?, ?, ?, ?)",
		c.ID, c.TempPath, c.BaseName, formatTime(c.CapturedAt), removedAt)
	if err != nil {
		return fmt.Errorf("while inserting capture %s: %w", c.ID, err)
	}
	return nil
}

// GetByID retrieves a capture by its ID
func (r *CaptureRepository) GetByID(ctx context.Context, id string) (*domain.Capture, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+captureColumns+" FROM captures WHERE id = ?", id)
	return scanCapture(row)
}

// Latest retrieves the most recent capture
func (r *CaptureRepository) Latest(ctx context.Context) (*domain.Capture, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+captureColumns+" FROM captures ORDER BY captured_at DESC, rowid DESC LIMIT 1")
	return scanCapture(row)
}

// List retrieves all captures, newest first
func (r *CaptureRepository) List(ctx context.Context) ([]*domain.Capture, error) {
	return r.list(ctx, "SELECT "+captureColumns+" FROM captures ORDER BY captured_at DESC, rowid DESC")
}

// ListRetained retrieves captures whose temp file has not been removed
func (r *CaptureRepository) ListRetained(ctx context.Context) ([]*domain.Capture, error) {
	return r.list(ctx, "SELECT "+captureColumns+" FROM captures WHERE removed_at IS NULL ORDER BY captured_at DESC, rowid DESC")
}

// MarkRemoved records that the temp file of a capture was deleted
func (r *CaptureRepository) MarkRemoved(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE captures SET removed_at = ? WHERE id = ?", formatTime(at), id)
	return err
}

// Count returns the total number of captures
func (r *CaptureRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM captures").Scan(&n)
	return n, err
}

func (r *CaptureRepository) list(ctx context.Context, query string) ([]*domain.Capture, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanCapture returns nil, nil when the row does not exist.
func scanCapture(s scanner) (*domain.Capture, error) {
	var (
		c          domain.Capture
		capturedAt string
		removedAt  sql.NullString
	)
	err := s.Scan(&c.ID, &c.TempPath, &c.BaseName, &capturedAt, &removedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.CapturedAt, err = parseTime(capturedAt); err != nil {
		return nil, fmt.Errorf("capture %s: bad captured_at: %w", c.ID, err)
	}
	if removedAt.Valid {
		t, err := parseTime(removedAt.String)
		if err != nil {
			return nil, fmt.Errorf("capture %s: bad removed_at: %w", c.ID, err)
		}
		c.RemovedAt = &t
	}
	return &c, nil
}

// Verify that CaptureRepository implements domain.CaptureRepository
var _ domain.CaptureRepository = (*CaptureRepository)(nil)
