// Package session holds the single screen's flow: one current capture parked
// in a temp file, saved on demand through the orientation normalizer and the
// exporter.
//
//	NoCapture --Capture--> Captured --Save--> Saved
//	               ^                            |
//	               +----------- Capture --------+
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/lewtec/camsave/internal/domain"
	"github.com/lewtec/camsave/internal/export"
	"github.com/lewtec/camsave/internal/naming"
	"github.com/lewtec/camsave/internal/orient"
)

type State int

const (
	NoCapture State = iota
	Captured
	Saved
)

func (s State) String() string {
	switch s {
	case Captured:
		return "captured"
	case Saved:
		return "saved"
	default:
		return "no_capture"
	}
}

var (
	ErrNoCapture = errors.New("no photo captured yet")
	ErrNotImage  = errors.New("capture is not a decodable image")
)

type Session struct {
	Captures  domain.CaptureRepository
	Exports   domain.ExportRepository
	Exporter  *export.Exporter
	Authority Authority
	Namer     *naming.Namer
	Logger    zerolog.Logger

	// TempDir receives captures; PicturesDir is relative to Exporter.FS.
	TempDir     string
	PicturesDir string
	// KeepCaptures keeps earlier temp files on disk instead of deleting the
	// previous one when a new capture arrives.
	KeepCaptures bool

	NewID func() string

	mu      sync.Mutex
	current *domain.Capture
	state   State
}

// Current returns the state and the capture a save would use.
func (s *Session) Current(ctx context.Context) (State, *domain.Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return NoCapture, nil, err
	}
	return s.state, s.current, nil
}

// load refreshes the current capture from the history on every call, so a
// running server and separate CLI invocations share one session.
func (s *Session) load(ctx context.Context) error {
	latest, err := s.Captures.Latest(ctx)
	if err != nil {
		return fmt.Errorf("while loading latest capture: %w", err)
	}
	if latest == nil || latest.Removed() {
		s.current, s.state = nil, NoCapture
		return nil
	}
	s.current, s.state = latest, Captured
	exports, err := s.Exports.ListByCapture(ctx, latest.ID)
	if err != nil {
		return fmt.Errorf("while loading exports of capture %s: %w", latest.ID, err)
	}
	for _, e := range exports {
		if e.Succeeded {
			s.state = Saved
			break
		}
	}
	return nil
}

// Capture stores the bytes produced by the capture facility in a new temp
// file and makes it the current capture.
func (s *Session) Capture(ctx context.Context, r io.Reader) (*domain.Capture, error) {
	for _, c := range []Capability{Camera, StorageWrite} {
		if err := s.Authority.Check(ctx, c); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	baseName := s.Namer.BaseName()
	f, err := os.CreateTemp(s.TempDir, baseName+"_*"+export.Extension)
	if err != nil {
		return nil, fmt.Errorf("while creating temp file: %w", err)
	}
	tempPath := f.Name()
	s.Logger.Debug().Str("path", tempPath).Msg("CreateImageFile")

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("while writing capture: %w", err)
	}
	if err := checkDecodable(tempPath); err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	c := &domain.Capture{
		ID:         s.newID(),
		TempPath:   tempPath,
		BaseName:   baseName,
		CapturedAt: s.now(),
	}
	if err := s.Captures.Create(ctx, c); err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	previous := s.current
	s.current, s.state = c, Captured
	if previous != nil && !s.KeepCaptures {
		if err := s.removeTemp(ctx, previous); err != nil {
			s.Logger.Warn().Err(err).Str("capture", previous.ID).Msg("while removing previous capture")
		}
	}
	s.Logger.Info().Str("capture", c.ID).Str("path", tempPath).Msg("photo captured")
	return c, nil
}

// Save normalizes the current capture and exports it at quality q. Export
// failures do not produce an error; they are logged and recorded in the
// returned export with Succeeded=false.
func (s *Session) Save(ctx context.Context, q export.Quality) (*domain.Export, error) {
	if err := s.Authority.Check(ctx, StorageWrite); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	c := s.current
	if c == nil {
		return nil, ErrNoCapture
	}

	img, err := decodeFile(c.TempPath)
	if err != nil {
		return nil, fmt.Errorf("while decoding capture %s: %w", c.ID, err)
	}
	o := orient.ReadOrientation(c.TempPath)
	img, err = orient.Rotate(img, o.Angle())
	if err != nil {
		return nil, err
	}

	res := s.Exporter.Export(export.Request{
		Image:    img,
		Dir:      s.PicturesDir,
		BaseName: s.Namer.BaseName(),
		Quality:  q,
	})
	rec := &domain.Export{
		CaptureID:   c.ID,
		Path:        res.Path,
		Quality:     int(res.Quality),
		Width:       res.Width,
		Height:      res.Height,
		Orientation: int(o),
		Bytes:       res.Bytes,
		SHA256:      res.SHA256,
		Succeeded:   res.OK(),
		ExportedAt:  s.now(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := s.Exports.Create(ctx, rec); err != nil {
		return nil, err
	}
	if rec.Succeeded {
		s.state = Saved
		s.Logger.Info().Str("capture", c.ID).Str("path", rec.Path).Str("orientation", o.String()).Msg("picture saved")
	}
	return rec, nil
}

// Prune deletes every retained temp file except the current capture's.
func (s *Session) Prune(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return 0, err
	}
	retained, err := s.Captures.ListRetained(ctx)
	if err != nil {
		return 0, err
	}
	var result *multierror.Error
	removed := 0
	for _, c := range retained {
		if s.current != nil && c.ID == s.current.ID {
			continue
		}
		if err := s.removeTemp(ctx, c); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		removed++
	}
	return removed, result.ErrorOrNil()
}

// OpenCurrent opens the temp file of the current capture for reading.
func (s *Session) OpenCurrent(ctx context.Context) (*os.File, *domain.Capture, error) {
	_, c, err := s.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, ErrNoCapture
	}
	if err := s.Authority.Check(ctx, StorageRead); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(c.TempPath)
	if err != nil {
		return nil, nil, err
	}
	return f, c, nil
}

func (s *Session) removeTemp(ctx context.Context, c *domain.Capture) error {
	if err := os.Remove(c.TempPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("while removing %q: %w", c.TempPath, err)
	}
	return s.Captures.MarkRemoved(ctx, c.ID, s.now())
}

func (s *Session) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Session) now() time.Time {
	if s.Namer != nil && s.Namer.Now != nil {
		return s.Namer.Now()
	}
	return time.Now()
}

func checkDecodable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
