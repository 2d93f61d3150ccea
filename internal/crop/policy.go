package crop

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
)

// ErrTooSmall is returned when a computed crop rectangle would be degenerate.
var ErrTooSmall = errors.New("too small to crop")

// Kind selects which policy variant governs a batch.
type Kind string

const (
	// KindRandomShrink crops from the origin to the original size minus a
	// uniformly random reduction drawn from the configured ranges.
	KindRandomShrink Kind = "random-shrink"
	// KindFixedMargins removes a fixed pixel count from each side.
	KindFixedMargins Kind = "fixed-margins"
	// KindFixedRect crops a caller-specified rectangle.
	KindFixedRect Kind = "fixed-rect"
	// KindCenterSquare crops the largest centered square.
	KindCenterSquare Kind = "center-square"
)

// Policy describes how to crop every image in a batch. Exactly one variant,
// selected by Kind, governs the whole batch; only that variant's fields are
// consulted.
type Policy struct {
	Kind Kind

	// RandomShrink ranges (pixels removed, inclusive bounds).
	MinW, MaxW int
	MinH, MaxH int

	// FixedMargins (pixels removed per side).
	Top, Bottom, Left, Right int

	// FixedRect.
	Width, Height int
	X, Y          int
}

// DefaultRandomShrink shaves 40-60 pixels of width and 40-70 of height.
func DefaultRandomShrink() Policy {
	return Policy{Kind: KindRandomShrink, MinW: 40, MaxW: 60, MinH: 40, MaxH: 70}
}

// Validate checks the variant's fields for internal consistency.
func (p Policy) Validate() error {
	switch p.Kind {
	case KindRandomShrink:
		if p.MinW < 0 || p.MinH < 0 || p.MaxW < p.MinW || p.MaxH < p.MinH {
			return fmt.Errorf("invalid shrink ranges [%d,%d]x[%d,%d]", p.MinW, p.MaxW, p.MinH, p.MaxH)
		}
	case KindFixedMargins:
		if p.Top < 0 || p.Bottom < 0 || p.Left < 0 || p.Right < 0 {
			return fmt.Errorf("negative margin")
		}
	case KindFixedRect:
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("rectangle %dx%d must be positive", p.Width, p.Height)
		}
		if p.X < 0 || p.Y < 0 {
			return fmt.Errorf("negative rectangle origin (%d,%d)", p.X, p.Y)
		}
	case KindCenterSquare:
		// No parameters.
	default:
		return fmt.Errorf("unknown policy kind %q", p.Kind)
	}
	return nil
}

// Geometry computes the crop rectangle for a source of the given dimensions.
// All arithmetic is integer; dimensions clamp to a minimum of 1, offsets to a
// minimum of 0, and the rectangle never exceeds the source bounds. Only
// KindRandomShrink consults rng; it may be nil for the other variants.
// Returns ErrTooSmall when the computed rectangle would be degenerate.
func Geometry(p Policy, srcW, srcH int, rng *rand.Rand) (image.Rectangle, error) {
	if srcW <= 0 || srcH <= 0 {
		return image.Rectangle{}, ErrTooSmall
	}

	switch p.Kind {
	case KindRandomShrink:
		outW := srcW - randomBetween(rng, p.MinW, p.MaxW)
		outH := srcH - randomBetween(rng, p.MinH, p.MaxH)
		if outW <= 0 || outH <= 0 {
			return image.Rectangle{}, ErrTooSmall
		}
		return image.Rect(0, 0, outW, outH), nil

	case KindFixedMargins:
		outW := max(1, srcW-p.Left-p.Right)
		outH := max(1, srcH-p.Top-p.Bottom)
		x := clampOffset(p.Left, outW, srcW)
		y := clampOffset(p.Top, outH, srcH)
		return image.Rect(x, y, x+outW, y+outH), nil

	case KindFixedRect:
		outW := max(1, min(p.Width, srcW))
		outH := max(1, min(p.Height, srcH))
		x := clampOffset(p.X, outW, srcW)
		y := clampOffset(p.Y, outH, srcH)
		return image.Rect(x, y, x+outW, y+outH), nil

	case KindCenterSquare:
		side := min(srcW, srcH)
		x := (srcW - side) / 2
		y := (srcH - side) / 2
		return image.Rect(x, y, x+side, y+side), nil
	}

	return image.Rectangle{}, fmt.Errorf("unknown policy kind %q", p.Kind)
}

// randomBetween draws uniformly from [lo, hi].
func randomBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// clampOffset bounds an offset so that offset+size never exceeds the source.
func clampOffset(offset, size, src int) int {
	if offset < 0 {
		offset = 0
	}
	if offset+size > src {
		offset = src - size
	}
	return max(0, offset)
}
