package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Quality is a JPEG quality on the usual 0..100 scale, higher is better.
type Quality int

const (
	MinQuality     Quality = 0
	MaxQuality     Quality = 100
	DefaultQuality Quality = 50
)

var ErrInvalidQuality = errors.New("quality must be an integer between 0 and 100")

// ParseQuality parses user input such as a slider value or a flag.
func ParseQuality(s string) (Quality, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	q := Quality(v)
	if !q.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuality, v)
	}
	return q, nil
}

func (q Quality) Valid() bool {
	return q >= MinQuality && q <= MaxQuality
}

// Clamp forces q into the valid range.
func (q Quality) Clamp() Quality {
	switch {
	case q < MinQuality:
		return MinQuality
	case q > MaxQuality:
		return MaxQuality
	}
	return q
}
