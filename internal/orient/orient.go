// Package orient reads the EXIF orientation tag of a captured photo and turns
// the decoded pixels upright so the stored bytes match what the user saw.
package orient

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Orientation is the value of the EXIF Orientation tag (0x0112).
type Orientation int

// Orientations that map to a rotation. Every other value is treated as Normal.
const (
	Normal    Orientation = 1
	Rotate180 Orientation = 3
	Rotate90  Orientation = 6
	Rotate270 Orientation = 8
)

func (o Orientation) String() string {
	switch o {
	case Normal:
		return "normal"
	case Rotate90:
		return "rotate_90"
	case Rotate180:
		return "rotate_180"
	case Rotate270:
		return "rotate_270"
	default:
		return fmt.Sprintf("undefined(%d)", int(o))
	}
}

// Angle returns the clockwise rotation needed to display an image with this
// orientation upright.
func (o Orientation) Angle() Angle {
	switch o {
	case Rotate90:
		return 90
	case Rotate180:
		return 180
	case Rotate270:
		return 270
	default:
		return 0
	}
}

// Angle is a clockwise rotation in degrees.
type Angle int

// ErrUnsupportedAngle is returned by Rotate for angles that are not quarter turns.
var ErrUnsupportedAngle = errors.New("orient: angle must be a multiple of 90 degrees")

// Normalized reduces a to [0, 360).
func (a Angle) Normalized() Angle {
	a %= 360
	if a < 0 {
		a += 360
	}
	return a
}

// Inverse returns the rotation that undoes a.
func Inverse(a Angle) Angle {
	return (360 - a.Normalized()).Normalized()
}

// ReadOrientation returns the orientation recorded in the file at path.
// Unreadable files and missing or malformed metadata yield Normal.
func ReadOrientation(path string) Orientation {
	f, err := os.Open(path)
	if err != nil {
		return Normal
	}
	defer f.Close()
	return ReadOrientationFrom(f)
}

// ReadOrientationFrom is ReadOrientation for an already opened image stream.
func ReadOrientationFrom(r io.Reader) Orientation {
	x, err := exif.Decode(r)
	if err != nil || x == nil {
		return Normal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil || tag == nil || tag.Count == 0 {
		return Normal
	}
	v, err := tag.Int(0)
	if err != nil {
		return Normal
	}
	return Orientation(v)
}

// Normalize rotates img according to the orientation stored at path. When no
// rotation is needed img itself is returned.
func Normalize(img image.Image, path string) image.Image {
	out, err := Rotate(img, ReadOrientation(path).Angle())
	if err != nil {
		// Orientation.Angle only yields quarter turns.
		return img
	}
	return out
}

// Rotate turns img clockwise by a around its centre. The result is a new
// buffer anchored at (0,0); width and height swap for 90 and 270 degrees.
// A zero angle returns img unchanged.
func Rotate(img image.Image, a Angle) (image.Image, error) {
	if a%90 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedAngle, int(a))
	}
	a = a.Normalized()
	if a == 0 {
		return img, nil
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	minX, minY := float64(b.Min.X), float64(b.Min.Y)

	// s2d maps source coordinates to destination coordinates. Every
	// coefficient is an integer, so pixel centres land on pixel centres and
	// nearest-neighbour sampling copies pixels exactly.
	var s2d f64.Aff3
	dst := image.Rect(0, 0, b.Dx(), b.Dy())
	switch a {
	case 90:
		s2d = f64.Aff3{0, -1, h + minY, 1, 0, -minX}
		dst = image.Rect(0, 0, b.Dy(), b.Dx())
	case 180:
		s2d = f64.Aff3{-1, 0, w + minX, 0, -1, h + minY}
	case 270:
		s2d = f64.Aff3{0, 1, -minY, -1, 0, w + minX}
		dst = image.Rect(0, 0, b.Dy(), b.Dx())
	}

	out := image.NewRGBA(dst)
	draw.NearestNeighbor.Transform(out, s2d, img, b, draw.Src, nil)
	return out, nil
}
