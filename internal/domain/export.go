package domain

import (
	"context"
	"time"
)

// Export records one attempt to save a capture to public storage.
type Export struct {
	ID          int64
	CaptureID   string
	Path        string
	Quality     int
	Width       int
	Height      int
	Orientation int
	Bytes       int64
	SHA256      string
	Succeeded   bool
	Error       string
	ExportedAt  time.Time
}

// ExportRepository defines the interface for export history operations
type ExportRepository interface {
	// Create records an export attempt and fills in its ID
	Create(ctx context.Context, e *Export) error

	// GetByID retrieves an export by its ID, or nil
	GetByID(ctx context.Context, id int64) (*Export, error)

	// ListByCapture retrieves the exports of one capture, newest first
	ListByCapture(ctx context.Context, captureID string) ([]*Export, error)

	// List retrieves the most recent exports
	List(ctx context.Context, limit int) ([]*Export, error)

	// Latest retrieves the most recent export, or nil
	Latest(ctx context.Context) (*Export, error)

	// CountFailed returns how many export attempts failed
	CountFailed(ctx context.Context) (int64, error)
}
