package domain

import (
	"context"
	"time"
)

// Capture is a photo handed over by the capture facility and parked in a
// temp file until it is saved.
type Capture struct {
	ID         string
	TempPath   string
	BaseName   string
	CapturedAt time.Time
	// RemovedAt is set once the temp file has been deleted.
	RemovedAt *time.Time
}

// Removed reports whether the temp file behind the capture is gone.
func (c *Capture) Removed() bool {
	return c.RemovedAt != nil
}

// CaptureRepository defines the interface for capture storage operations
type CaptureRepository interface {
	// Create records a new capture
	Create(ctx context.Context, c *Capture) error

	// GetByID retrieves a capture by its ID
	GetByID(ctx context.Context, id string) (*Capture, error)

	// Latest retrieves the most recent capture
	Latest(ctx context.Context) (*Capture, error)

	// List retrieves all captures, newest first
	List(ctx context.Context) ([]*Capture, error)

	// ListRetained retrieves captures whose temp file has not been removed
	ListRetained(ctx context.Context) ([]*Capture, error)

	// MarkRemoved records that the temp file of a capture was deleted
	MarkRemoved(ctx context.Context, id string, at time.Time) error

	// Count returns the total number of captures
	Count(ctx context.Context) (int64, error)
}
