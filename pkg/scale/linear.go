package scale

import (
	"math"
	"strconv"
)

// LinearOptions controls how a LinearScale derives its domain.
// Headroom factors widen the data extent (0.98/1.02 leaves 2% on each side
// of a positive extent); zero factors mean no headroom.
type LinearOptions struct {
	HeadroomLow  float64 `json:"headroom_low" yaml:"headroom_low"`
	HeadroomHigh float64 `json:"headroom_high" yaml:"headroom_high"`
	Nice         bool    `json:"nice" yaml:"nice"`
	Flip         bool    `json:"flip" yaml:"flip"`
}

// LinearScale maps a numeric domain onto a pixel range
type LinearScale struct {
	lo, hi float64
	rng    PixelRange
	flip   bool
}

// NewLinearScale builds a scale from the min and max of values
func NewLinearScale(values []float64, rng PixelRange, opts LinearOptions) (LinearScale, error) {
	if len(values) == 0 {
		return LinearScale{}, ErrEmptyDomain
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return LinearScale{}, ErrEmptyDomain
	}
	return NewLinearScaleExtent(lo, hi, rng, opts)
}

// NewLinearScaleExtent builds a scale from an already known data extent
func NewLinearScaleExtent(min, max float64, rng PixelRange, opts LinearOptions) (LinearScale, error) {
	if !isFinite(min) || !isFinite(max) || min > max {
		return LinearScale{}, ErrEmptyDomain
	}
	if !rng.Valid() {
		return LinearScale{}, ErrInvalidRange
	}

	lo, hi := min, max
	if opts.HeadroomLow > 0 {
		lo = min - math.Abs(min)*(1-opts.HeadroomLow)
	}
	if opts.HeadroomHigh > 0 {
		hi = max + math.Abs(max)*(opts.HeadroomHigh-1)
	}
	if lo >= hi {
		// Flat data (often a flat zero line): open a unit band around it
		lo, hi = lo-1, hi+1
	}
	if opts.Nice {
		lo, hi = nice(lo, hi, 10)
	}

	return LinearScale{lo: lo, hi: hi, rng: rng, flip: opts.Flip}, nil
}

// Domain returns the (possibly niced) value bounds.
func (s LinearScale) Domain() (float64, float64) { return s.lo, s.hi }
func (s LinearScale) Range() PixelRange          { return s.rng }

// Scale maps a value to a pixel
func (s LinearScale) Scale(v float64) float64 {
	t := (v - s.lo) / (s.hi - s.lo)
	if s.flip {
		return s.rng.Max - t*s.rng.Width()
	}
	return s.rng.Min + t*s.rng.Width()
}

// Invert maps a pixel back to a value
func (s LinearScale) Invert(px float64) float64 {
	t := (px - s.rng.Min) / s.rng.Width()
	if s.flip {
		t = 1 - t
	}
	return s.lo + t*(s.hi-s.lo)
}

// Ticks returns roughly count round values inside the domain.
func (s LinearScale) Ticks(count int) []float64 {
	if count <= 0 {
		return nil
	}
	step := tickStep(s.lo, s.hi, count)
	if step <= 0 || !isFinite(step) {
		return nil
	}

	first := math.Ceil(s.lo / step)
	last := math.Floor(s.hi / step)
	ticks := make([]float64, 0, int(last-first)+1)
	for i := first; i <= last; i++ {
		ticks = append(ticks, i*step)
	}
	return ticks
}

// TickFormat renders a tick value with the precision its step needs.
func (s LinearScale) TickFormat(count int, v float64) string {
	step := tickStep(s.lo, s.hi, count)
	prec := 0
	if step > 0 && step < 1 {
		prec = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// tickStep picks a 1, 2 or 5 multiple of a power of ten close to
// (stop-start)/count.
func tickStep(start, stop float64, count int) float64 {
	raw := math.Abs(stop-start) / float64(count)
	if raw == 0 {
		return 0
	}
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	ratio := raw / power
	switch {
	case ratio >= math.Sqrt(50):
		power *= 10
	case ratio >= math.Sqrt(10):
		power *= 5
	case ratio >= math.Sqrt(2):
		power *= 2
	}
	return power
}

// nice extends [lo, hi] outward to multiples of the tick step.
func nice(lo, hi float64, count int) (float64, float64) {
	prev := 0.0
	for i := 0; i < 10; i++ {
		step := tickStep(lo, hi, count)
		if step == prev || step == 0 {
			break
		}
		lo = math.Floor(lo/step) * step
		hi = math.Ceil(hi/step) * step
		prev = step
	}
	return lo, hi
}
