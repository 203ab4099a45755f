// Package mapper provides the continuous curves that turn raw match metrics
// into bounded sub-scores. Every mapper is total: it is defined for all real
// inputs and saturates outside its configured domain.
package mapper

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRanges is returned when a piecewise configuration is malformed.
var ErrInvalidRanges = errors.New("invalid piecewise ranges")

// Range is one linear segment of a piecewise mapper.
type Range struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	OutMin float64 `json:"output_min"`
	OutMax float64 `json:"output_max"`
}

// Piecewise maps a value through an ordered list of contiguous ranges.
type Piecewise struct {
	ranges []Range
	cap    *float64
}

// PiecewiseOption configures a Piecewise mapper.
type PiecewiseOption func(*Piecewise)

// WithCap sets the output returned at or above the last range's Max.
func WithCap(c float64) PiecewiseOption {
	return func(p *Piecewise) {
		p.cap = &c
	}
}

// NewPiecewise validates the ranges and builds a mapper.
// Ranges must be non-empty, each with Min < Max, and contiguous: every range
// starts exactly where the previous one ends.
func NewPiecewise(ranges []Range, opts ...PiecewiseOption) (*Piecewise, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: no ranges", ErrInvalidRanges)
	}
	for i, r := range ranges {
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min >= r.Max {
			return nil, fmt.Errorf("%w: range %d has min %v >= max %v", ErrInvalidRanges, i, r.Min, r.Max)
		}
		if i > 0 && ranges[i-1].Max != r.Min {
			return nil, fmt.Errorf("%w: gap or overlap between range %d (max %v) and %d (min %v)",
				ErrInvalidRanges, i-1, ranges[i-1].Max, i, r.Min)
		}
	}

	p := &Piecewise{ranges: append([]Range(nil), ranges...)}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// MustPiecewise is like NewPiecewise but panics on a malformed configuration.
// It is meant for package-level presets.
func MustPiecewise(ranges []Range, opts ...PiecewiseOption) *Piecewise {
	p, err := NewPiecewise(ranges, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Map returns the mapped value.
func (p *Piecewise) Map(v float64) float64 {
	first := p.ranges[0]
	if math.IsNaN(v) || v < first.Min {
		return first.OutMin
	}
	for _, r := range p.ranges {
		if v >= r.Min && v < r.Max {
			return r.OutMin + (v-r.Min)/(r.Max-r.Min)*(r.OutMax-r.OutMin)
		}
	}
	if p.cap != nil {
		return *p.cap
	}
	return p.ranges[len(p.ranges)-1].OutMax
}

// Floor is the output below the configured domain.
func (p *Piecewise) Floor() float64 {
	return p.ranges[0].OutMin
}

// Ceiling is the output at or above the configured domain.
func (p *Piecewise) Ceiling() float64 {
	if p.cap != nil {
		return *p.cap
	}
	return p.ranges[len(p.ranges)-1].OutMax
}

// Domain returns the [min, max) input interval covered by the ranges.
func (p *Piecewise) Domain() (float64, float64) {
	return p.ranges[0].Min, p.ranges[len(p.ranges)-1].Max
}

// Ranges returns a copy of the configured ranges.
func (p *Piecewise) Ranges() []Range {
	return append([]Range(nil), p.ranges...)
}

// Sigmoid is a logistic curve between outMin and outMax centred on midpoint.
func Sigmoid(v, midpoint, steepness, outMin, outMax float64) float64 {
	if math.IsNaN(v) {
		return outMin
	}
	return outMin + (outMax-outMin)/(1+math.Exp(-(v-midpoint)*steepness))
}

// Bell is a Gaussian bump of height maxOut centred on peak.
func Bell(v, peak, spread, maxOut float64) float64 {
	if math.IsNaN(v) || spread <= 0 {
		if v == peak {
			return maxOut
		}
		return 0
	}
	d := v - peak
	return maxOut * math.Exp(-(d*d)/(2*spread*spread))
}

// Trapezoid is zero outside [rampStart, rampEnd], rises linearly to maxOut on
// [rampStart, plateauStart], holds maxOut until plateauEnd and falls back to
// zero at rampEnd.
func Trapezoid(v, rampStart, plateauStart, plateauEnd, rampEnd, maxOut float64) float64 {
	switch {
	case math.IsNaN(v), v <= rampStart, v >= rampEnd:
		if v >= plateauStart && v <= plateauEnd {
			return maxOut
		}
		return 0
	case v < plateauStart:
		return maxOut * (v - rampStart) / (plateauStart - rampStart)
	case v <= plateauEnd:
		return maxOut
	default:
		return maxOut * (rampEnd - v) / (rampEnd - plateauEnd)
	}
}

// Clamp bounds v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
