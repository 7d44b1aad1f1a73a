package session

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v6"
)

// Capability is something the user has to grant before a trigger works.
type Capability string

const (
	StorageRead  Capability = "storage_read"
	StorageWrite Capability = "storage_write"
	Camera       Capability = "camera"
)

var ErrPermissionDenied = errors.New("permission denied")

// Authority grants or denies capabilities.
type Authority interface {
	Check(ctx context.Context, c Capability) error
}

// FilesystemAuthority grants storage access when the temp directory and the
// public pictures root can actually be written. Camera access is always
// granted since the capture bytes are supplied by the caller.
type FilesystemAuthority struct {
	Pictures billy.Filesystem
	TempDir  string
}

func (a *FilesystemAuthority) Check(ctx context.Context, c Capability) error {
	switch c {
	case Camera:
		return nil
	case StorageRead:
		if _, err := os.ReadDir(a.TempDir); err != nil && !os.IsNotExist(err) {
			return deny(c, err)
		}
		return nil
	case StorageWrite:
		if err := os.MkdirAll(a.TempDir, 0o755); err != nil {
			return deny(c, err)
		}
		check, err := os.CreateTemp(a.TempDir, ".write-check-*")
		if err != nil {
			return deny(c, err)
		}
		check.Close()
		os.Remove(check.Name())

		f, err := a.Pictures.TempFile(".", ".camsave-write-check-")
		if err != nil {
			return deny(c, err)
		}
		f.Close()
		a.Pictures.Remove(f.Name())
		return nil
	}
	return deny(c, fmt.Errorf("unknown capability"))
}

// PermissionError reports which capability was refused.
type PermissionError struct {
	Capability Capability
	Err        error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPermissionDenied, e.Capability, e.Err)
}

func (e *PermissionError) Unwrap() []error {
	return []error{ErrPermissionDenied, e.Err}
}

func deny(c Capability, err error) error {
	return &PermissionError{Capability: c, Err: err}
}
