// Package indicator holds pure price-series indicators used by strategies.
package indicator

import (
	"errors"
	"fmt"
)

// DefaultRadius is the number of neighbours compared on each side of a fractal center.
const DefaultRadius = 2

// ErrInsufficientData is matched by every *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient price data")

// InsufficientDataError reports a series too short to confirm a single pivot.
type InsufficientDataError struct {
	Len      int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient price data: have %d points, need %d", e.Len, e.Required)
}

// Is lets errors.Is match ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// Side records which pivot conditions hold at an index.
type Side uint8

const (
	None Side = 0
	// High is a bearish fractal: the center high strictly exceeds its neighbours.
	High Side = 1 << 0
	// Low is a bullish fractal: the center low is strictly below its neighbours.
	Low Side = 1 << 1
	// Both marks an outside bar that is a high and a low pivot at once.
	Both = High | Low
)

func (s Side) IsHigh() bool { return s&High != 0 }
func (s Side) IsLow() bool  { return s&Low != 0 }

func (s Side) String() string {
	switch s {
	case None:
		return "none"
	case High:
		return "high"
	case Low:
		return "low"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Fractal evaluates Bill Williams style fractals with an edge margin (period) and a
// comparison radius that are configured independently.
type Fractal struct {
	Period int
	Radius int
}

// NewFractal returns a Fractal with the historical radius of 2.
func NewFractal(period int) Fractal {
	return Fractal{Period: period, Radius: DefaultRadius}
}

// Detect returns a mask that is true wherever a high or low pivot is centered,
// using the historical radius of 2.
func Detect(highs, lows []float64, period int) ([]bool, error) {
	return NewFractal(period).Mask(highs, lows)
}

// Mask collapses Sides into one boolean per bar.
func (f Fractal) Mask(highs, lows []float64) ([]bool, error) {
	sides, err := f.Sides(highs, lows)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(sides))
	for i, s := range sides {
		mask[i] = s != None
	}
	return mask, nil
}

// Sides classifies every index of the aligned high/low series. The result has one entry
// per element of highs; indices outside [margin, len-margin) are always None, where
// margin is max(Period, Radius).
func (f Fractal) Sides(highs, lows []float64) ([]Side, error) {
	required := f.Period + 2
	if len(highs) < required || len(lows) < required {
		return nil, &InsufficientDataError{Len: min(len(highs), len(lows)), Required: required}
	}
	radius := f.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	margin := max(f.Period, radius)

	sides := make([]Side, len(highs))
	for i := margin; i < len(highs)-margin; i++ {
		if isHighPivot(highs, i, radius) {
			sides[i] |= High
		}
	}
	for i := margin; i < len(lows)-margin && i < len(highs); i++ {
		if isLowPivot(lows, i, radius) {
			sides[i] |= Low
		}
	}
	return sides, nil
}

// SideAt classifies a single center index. It returns None when the index cannot be
// confirmed with radius neighbours on both sides.
func (f Fractal) SideAt(highs, lows []float64, center int) Side {
	radius := f.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	var side Side
	if center-radius >= 0 && center+radius < len(highs) && isHighPivot(highs, center, radius) {
		side |= High
	}
	if center-radius >= 0 && center+radius < len(lows) && isLowPivot(lows, center, radius) {
		side |= Low
	}
	return side
}

func isHighPivot(highs []float64, i, radius int) bool {
	n := highs[i]
	for k := 1; k <= radius; k++ {
		if !(n > highs[i-k] && n > highs[i+k]) {
			return false
		}
	}
	return true
}

func isLowPivot(lows []float64, i, radius int) bool {
	n := lows[i]
	for k := 1; k <= radius; k++ {
		if !(n < lows[i-k] && n < lows[i+k]) {
			return false
		}
	}
	return true
}

// Neighbours returns the min and max of the radius values either side of center,
// excluding center itself.
func Neighbours(series []float64, center, radius int) (lo, hi float64) {
	first := true
	for k := 1; k <= radius; k++ {
		for _, v := range [2]float64{series[center-k], series[center+k]} {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}
