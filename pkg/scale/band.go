package scale

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrEmptyDomain   = errors.New("scale domain is empty")
	ErrInvalidRange  = errors.New("pixel range must be finite with min < max")
	ErrInvalidOption = errors.New("invalid scale option")
)

// PixelRange is a horizontal or vertical extent on screen
type PixelRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r PixelRange) Width() float64 { return r.Max - r.Min }

// Valid reports whether the range is finite and non-degenerate.
func (r PixelRange) Valid() bool {
	return isFinite(r.Min) && isFinite(r.Max) && r.Min < r.Max
}

// Contains reports whether x lies in [Min, Max].
func (r PixelRange) Contains(x float64) bool {
	return x >= r.Min && x <= r.Max
}

// BandOptions controls slot spacing of a BandScale.
// Inner is the fraction of each step left empty between bands, Outer the
// number of steps reserved before the first and after the last slot, and
// Align positions each band inside its step (0 = left, 1 = right).
type BandOptions struct {
	Inner float64 `json:"inner_padding" yaml:"inner_padding"`
	Outer float64 `json:"outer_padding" yaml:"outer_padding"`
	Align float64 `json:"align" yaml:"align"`
}

// Validate checks the padding fractions
func (o BandOptions) Validate() error {
	if o.Inner < 0 || o.Inner >= 1 {
		return fmt.Errorf("%w: inner padding %v not in [0, 1)", ErrInvalidOption, o.Inner)
	}
	if o.Outer < 0 {
		return fmt.Errorf("%w: outer padding %v is negative", ErrInvalidOption, o.Outer)
	}
	if o.Align < 0 || o.Align > 1 {
		return fmt.Errorf("%w: align %v not in [0, 1]", ErrInvalidOption, o.Align)
	}
	return nil
}

// BandScale maps an ordered sequence of dates to evenly spaced pixel slots
type BandScale struct {
	dates     []time.Time
	rng       PixelRange
	opts      BandOptions
	step      float64
	bandwidth float64
}

// NewBandScale builds an ordinal scale over ascending dates
func NewBandScale(dates []time.Time, rng PixelRange, opts BandOptions) (BandScale, error) {
	if len(dates) == 0 {
		return BandScale{}, ErrEmptyDomain
	}
	if !rng.Valid() {
		return BandScale{}, ErrInvalidRange
	}
	if err := opts.Validate(); err != nil {
		return BandScale{}, err
	}

	b := BandScale{dates: dates, opts: opts}
	b.setRange(rng)
	return b, nil
}

func (b *BandScale) setRange(rng PixelRange) {
	b.rng = rng
	b.step = rng.Width() / (float64(len(b.dates)) + 2*b.opts.Outer)
	b.bandwidth = b.step * (1 - b.opts.Inner)
}

// Rescale returns a scale over the same dates mapped to a new range.
func (b BandScale) Rescale(rng PixelRange) (BandScale, error) {
	if !rng.Valid() {
		return BandScale{}, ErrInvalidRange
	}
	b.setRange(rng)
	return b, nil
}

func (b BandScale) Len() int             { return len(b.dates) }
func (b BandScale) Domain() []time.Time  { return b.dates }
func (b BandScale) Range() PixelRange    { return b.rng }
func (b BandScale) Step() float64        { return b.step }
func (b BandScale) Bandwidth() float64   { return b.bandwidth }
func (b BandScale) Options() BandOptions { return b.opts }

// OuterPixels is the margin before the first slot.
func (b BandScale) OuterPixels() float64 { return b.opts.Outer * b.step }

// Start returns the left edge of the band for slot i.
func (b BandScale) Start(i int) float64 {
	return b.rng.Min + b.OuterPixels() + float64(i)*b.step + b.opts.Align*(b.step-b.bandwidth)
}

// Center returns the pixel centre of slot i.
func (b BandScale) Center(i int) float64 {
	return b.Start(i) + b.bandwidth/2
}

// Index finds the slot of date.
func (b BandScale) Index(date time.Time) (int, bool) {
	i := sort.Search(len(b.dates), func(i int) bool {
		return !b.dates[i].Before(date)
	})
	if i < len(b.dates) && b.dates[i].Equal(date) {
		return i, true
	}
	return 0, false
}

// Position returns the centre pixel of date; unknown dates report false.
func (b BandScale) Position(date time.Time) (float64, bool) {
	i, ok := b.Index(date)
	if !ok {
		return 0, false
	}
	return b.Center(i), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
