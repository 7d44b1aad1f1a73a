package naming

import (
	"regexp"
	"testing"
	"time"
)

func TestBaseName(t *testing.T) {
	at := time.Date(2023, time.November, 5, 14, 7, 9, 500, time.Local)
	n := &Namer{Prefix: DefaultPrefix, Now: func() time.Time { return at }}

	if got, want := n.BaseName(), "JPEG_2023_11_05_14_07_09"; got != want {
		t.Errorf("BaseName() = %q, want %q", got, want)
	}
	if got, want := n.FileName(), "JPEG_2023_11_05_14_07_09.jpg"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestBaseName_SameSecondCollides(t *testing.T) {
	base := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.Local)
	times := []time.Time{base.Add(10 * time.Millisecond), base.Add(990 * time.Millisecond)}
	n := &Namer{Prefix: "IMG_", Now: func() time.Time {
		t := times[0]
		times = times[1:]
		return t
	}}

	if a, b := n.BaseName(), n.BaseName(); a != b {
		t.Errorf("expected collision within one second, got %q and %q", a, b)
	}
}

func TestNew_UsesWallClock(t *testing.T) {
	got := New(DefaultPrefix).BaseName()
	if !regexp.MustCompile(`^JPEG_\d{4}_\d{2}_\d{2}_\d{2}_\d{2}_\d{2}$`).MatchString(got) {
		t.Errorf("BaseName() = %q", got)
	}
}
