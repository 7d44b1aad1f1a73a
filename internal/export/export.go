// Package export writes decoded images as JPEG files at a caller-chosen
// quality.
//
// Export never returns an error. Failures are logged and reported through
// Result so callers that do not care keep working, while callers that do can
// tell a saved picture from a lost one.
package export

import (
	"crypto/sha256"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"

	"github.com/go-git/go-billy/v6"
	"github.com/rs/zerolog"
)

// Extension is appended to every base name.
const Extension = ".jpg"

// Request describes one save action.
type Request struct {
	Image    image.Image
	Dir      string
	BaseName string
	Quality  Quality
}

// Result is the outcome of Export.
type Result struct {
	Path    string
	Bytes   int64
	SHA256  string
	Width   int
	Height  int
	Quality Quality
	Err     error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Exporter struct {
	FS     billy.Filesystem
	Logger zerolog.Logger
}

func New(fs billy.Filesystem, logger zerolog.Logger) *Exporter {
	return &Exporter{FS: fs, Logger: logger}
}

// Path returns where Export would write req.
func (e *Exporter) Path(req Request) string {
	return e.FS.Join(req.Dir, req.BaseName+Extension)
}

// Export creates req.Dir if needed and writes req.Image to
// <Dir>/<BaseName>.jpg, replacing any file already there.
func (e *Exporter) Export(req Request) Result {
	q := req.Quality.Clamp()
	res := Result{Path: e.Path(req), Quality: q}
	if req.Image != nil {
		b := req.Image.Bounds()
		res.Width, res.Height = b.Dx(), b.Dy()
	}
	log := e.Logger.With().Str("path", res.Path).Int("quality", int(q)).Logger()

	if err := e.FS.MkdirAll(req.Dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", req.Dir).Msg("while creating picture directory")
		res.Err = fmt.Errorf("while creating directory %q: %w", req.Dir, err)
	}

	n, sum, err := e.write(res.Path, req.Image, q)
	if err != nil {
		log.Error().Err(err).Msg("while saving picture")
		if res.Err == nil {
			res.Err = err
		}
		return res
	}
	res.Bytes, res.SHA256 = n, sum
	log.Debug().Int64("bytes", n).Msg("Saved Picture")
	return res
}

func (e *Exporter) write(path string, img image.Image, q Quality) (int64, string, error) {
	if img == nil {
		return 0, "", fmt.Errorf("while saving %q: no image", path)
	}
	f, err := e.FS.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, "", fmt.Errorf("while opening %q: %w", path, err)
	}
	hasher := sha256.New()
	cw := &countingWriter{w: io.MultiWriter(f, hasher)}
	if err := Encode(cw, img, q); err != nil {
		f.Close()
		return 0, "", fmt.Errorf("while encoding %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, "", fmt.Errorf("while closing %q: %w", path, err)
	}
	return cw.n, fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// Encode writes img as JPEG at quality q.
func Encode(w io.Writer, img image.Image, q Quality) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: int(q.Clamp())})
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
