package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"
	"testing"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"
	"github.com/rs/zerolog"
)

func noisy(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func TestEncode_SizeGrowsWithQuality(t *testing.T) {
	img := noisy(64, 48, 1)
	var prev int
	for _, q := range []Quality{0, 50, 100} {
		var buf bytes.Buffer
		if err := Encode(&buf, img, q); err != nil {
			t.Fatalf("Encode(%d) error = %v", q, err)
		}
		if buf.Len() < prev {
			t.Errorf("quality %d produced %d bytes, less than %d", q, buf.Len(), prev)
		}
		prev = buf.Len()
	}
}

func TestExport_CreatesMissingDirectories(t *testing.T) {
	fs := memfs.New()
	e := New(fs, zerolog.Nop())

	res := e.Export(Request{Image: noisy(10, 6, 2), Dir: "Pictures/CamSave/nested", BaseName: "JPEG_2024_01_02_03_04_05", Quality: DefaultQuality})
	if !res.OK() {
		t.Fatalf("Export() error = %v", res.Err)
	}
	if res.Path != fs.Join("Pictures/CamSave/nested", "JPEG_2024_01_02_03_04_05.jpg") {
		t.Errorf("Path = %q", res.Path)
	}
	if res.Width != 10 || res.Height != 6 {
		t.Errorf("size = %dx%d, want 10x6", res.Width, res.Height)
	}

	data, err := util.ReadFile(fs, res.Path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if int64(len(data)) != res.Bytes {
		t.Errorf("Bytes = %d, file has %d", res.Bytes, len(data))
	}
	if len(res.SHA256) != 64 {
		t.Errorf("SHA256 = %q", res.SHA256)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("exported file is not a JPEG: %v", err)
	}
}

func TestExport_ExistingDirectory(t *testing.T) {
	fs := memfs.New()
	if err := fs.MkdirAll("out", 0o755); err != nil {
		t.Fatal(err)
	}
	res := New(fs, zerolog.Nop()).Export(Request{Image: noisy(4, 4, 3), Dir: "out", BaseName: "a", Quality: 80})
	if !res.OK() {
		t.Fatalf("Export() error = %v", res.Err)
	}
}

func TestExport_OverwritesSameName(t *testing.T) {
	fs := memfs.New()
	e := New(fs, zerolog.Nop())

	first := e.Export(Request{Image: noisy(8, 8, 4), Dir: "out", BaseName: "same", Quality: 50})
	second := e.Export(Request{Image: noisy(16, 4, 5), Dir: "out", BaseName: "same", Quality: 50})
	if !first.OK() || !second.OK() {
		t.Fatalf("Export() errors = %v, %v", first.Err, second.Err)
	}
	if first.Path != second.Path {
		t.Fatalf("paths differ: %q %q", first.Path, second.Path)
	}

	data, err := util.ReadFile(fs, second.Path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 16 || cfg.Height != 4 {
		t.Errorf("file holds %dx%d image, want the second export (16x4)", cfg.Width, cfg.Height)
	}
	entries, _ := fs.ReadDir("out")
	if len(entries) != 1 {
		t.Errorf("expected 1 file, got %d", len(entries))
	}
}

func TestExport_ClampsQuality(t *testing.T) {
	e := New(memfs.New(), zerolog.Nop())
	if res := e.Export(Request{Image: noisy(4, 4, 6), Dir: "d", BaseName: "hi", Quality: 250}); res.Quality != MaxQuality {
		t.Errorf("Quality = %d, want %d", res.Quality, MaxQuality)
	}
	if res := e.Export(Request{Image: noisy(4, 4, 6), Dir: "d", BaseName: "lo", Quality: -3}); res.Quality != MinQuality {
		t.Errorf("Quality = %d, want %d", res.Quality, MinQuality)
	}
}

type brokenFS struct {
	billy.Filesystem
	mkdirErr error
	openErr  error
}

func (b brokenFS) MkdirAll(filename string, perm os.FileMode) error {
	if b.mkdirErr != nil {
		return b.mkdirErr
	}
	return b.Filesystem.MkdirAll(filename, perm)
}

func (b brokenFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.Filesystem.OpenFile(filename, flag, perm)
}

func TestExport_FailuresAreReportedNotReturned(t *testing.T) {
	t.Run("directory creation", func(t *testing.T) {
		denied := errors.New("read-only storage")
		e := New(brokenFS{Filesystem: memfs.New(), mkdirErr: denied, openErr: os.ErrPermission}, zerolog.Nop())
		res := e.Export(Request{Image: noisy(4, 4, 7), Dir: "x", BaseName: "y", Quality: 50})
		if res.OK() {
			t.Fatal("expected failure")
		}
		if !errors.Is(res.Err, denied) {
			t.Errorf("Err = %v, want wrapped %v", res.Err, denied)
		}
	})

	t.Run("write", func(t *testing.T) {
		e := New(brokenFS{Filesystem: memfs.New(), openErr: os.ErrPermission}, zerolog.Nop())
		res := e.Export(Request{Image: noisy(4, 4, 8), Dir: "x", BaseName: "y", Quality: 50})
		if !errors.Is(res.Err, os.ErrPermission) {
			t.Errorf("Err = %v, want permission error", res.Err)
		}
		if res.Bytes != 0 {
			t.Errorf("Bytes = %d, want 0", res.Bytes)
		}
	})

	t.Run("nil image", func(t *testing.T) {
		res := New(memfs.New(), zerolog.Nop()).Export(Request{Dir: "x", BaseName: "y", Quality: 50})
		if res.OK() {
			t.Fatal("expected failure for missing image")
		}
	})
}
