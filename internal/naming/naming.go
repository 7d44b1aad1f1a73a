// Package naming derives picture file names from the wall clock.
package naming

import "time"

const (
	DefaultPrefix = "JPEG_"

	// TimestampLayout is yyyy_MM_dd_HH_mm_ss. Names only resolve to the
	// second, so two saves within one second share a name.
	TimestampLayout = "2006_01_02_15_04_05"
)

type Namer struct {
	Prefix string
	Now    func() time.Time
}

func New(prefix string) *Namer {
	return &Namer{Prefix: prefix, Now: time.Now}
}

// BaseName returns prefix + local timestamp, without extension.
func (n *Namer) BaseName() string {
	return n.Prefix + n.now().Local().Format(TimestampLayout)
}

// FileName is BaseName with the .jpg extension.
func (n *Namer) FileName() string {
	return n.BaseName() + ".jpg"
}

func (n *Namer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}
