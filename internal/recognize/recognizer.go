// Package recognize turns an image of a handwritten answer into an integer.
//
// Each backend implements Recognizer. A backend that fails to read the image
// reports "no value" rather than an error so the learner can fall back to
// typing the answer.
package recognize

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// Recognizer reads an integer from an image.
type Recognizer interface {
	// Recognize returns the integer written in img, or false when nothing
	// could be read.
	Recognize(ctx context.Context, img Image) (int, bool)

	// Name is shown to the user and written to logs.
	Name() string

	// Available reports whether the backend is configured and usable.
	Available() bool
}

// ExtractInteger keeps only the ASCII digits of text and parses them.
// Leading zeros are dropped. It returns false when text has no digits or
// the value does not fit in an int.
func ExtractInteger(text string) (int, bool) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return 0, false
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > math.MaxInt {
		return 0, false
	}
	return int(n), true
}

// None is the manual-input backend. It never recognizes anything.
type None struct{}

func (None) Recognize(context.Context, Image) (int, bool) { return 0, false }
func (None) Name() string                                 { return "none" }
func (None) Available() bool                              { return false }
