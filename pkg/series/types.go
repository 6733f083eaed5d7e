package series

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUnorderedDates = errors.New("series dates must be strictly ascending")
	ErrInvalidValue   = errors.New("series value is not finite")
	ErrMixedKinds     = errors.New("series cannot mix bars and points")
)

// Kind discriminates the two supported datum shapes
type Kind string

const (
	KindBar   Kind = "bars"
	KindPoint Kind = "points"
)

// Datum is a single time-series entry: either a Bar or a Point.
type Datum interface {
	Time() time.Time
	// Extent returns the lowest and highest value the datum spans.
	Extent() (lo, hi float64)
	Kind() Kind
	finite() bool
}

// Bar represents Open, High, Low, Close data for a time period
type Bar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Point is a single value, typically a percentage change
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Ensure both shapes implement Datum
var (
	_ Datum = Bar{}
	_ Datum = Point{}
)

func (b Bar) Time() time.Time { return b.Date }
func (b Bar) Kind() Kind      { return KindBar }

func (b Bar) Extent() (float64, float64) {
	return math.Min(b.Low, math.Min(b.Open, b.Close)), math.Max(b.High, math.Max(b.Open, b.Close))
}

// Rising reports whether the bar closed at or above its open.
func (b Bar) Rising() bool { return b.Close >= b.Open }

func (b Bar) finite() bool {
	return isFinite(b.Open) && isFinite(b.High) && isFinite(b.Low) && isFinite(b.Close)
}

func (p Point) Time() time.Time            { return p.Date }
func (p Point) Kind() Kind                 { return KindPoint }
func (p Point) Extent() (float64, float64) { return p.Value, p.Value }
func (p Point) finite() bool               { return isFinite(p.Value) }

// Series is an immutable, ascending, single-kind sequence of data.
// The zero value is an empty series.
type Series struct {
	kind  Kind
	items []Datum
	dates []time.Time
}

// NewBarSeries validates bars and wraps them in a Series
func NewBarSeries(bars []Bar) (Series, error) {
	items := make([]Datum, len(bars))
	for i, b := range bars {
		items[i] = b
	}
	return newSeries(KindBar, items)
}

// NewPointSeries validates points and wraps them in a Series
func NewPointSeries(points []Point) (Series, error) {
	items := make([]Datum, len(points))
	for i, p := range points {
		items[i] = p
	}
	return newSeries(KindPoint, items)
}

func newSeries(kind Kind, items []Datum) (Series, error) {
	dates := make([]time.Time, len(items))
	for i, d := range items {
		if d.Kind() != kind {
			return Series{}, fmt.Errorf("item %d: %w", i, ErrMixedKinds)
		}
		if !d.finite() {
			return Series{}, fmt.Errorf("item %d: %w", i, ErrInvalidValue)
		}
		if i > 0 && !d.Time().After(dates[i-1]) {
			return Series{}, fmt.Errorf("item %d at %s: %w", i, d.Time().Format(time.RFC3339), ErrUnorderedDates)
		}
		dates[i] = d.Time()
	}
	return Series{kind: kind, items: items, dates: dates}, nil
}

func (s Series) Kind() Kind  { return s.kind }
func (s Series) Len() int    { return len(s.items) }
func (s Series) Empty() bool { return len(s.items) == 0 }

// At returns the datum at index i.
func (s Series) At(i int) Datum { return s.items[i] }

// Dates returns the ascending dates. The slice must not be modified.
func (s Series) Dates() []time.Time { return s.dates }

// Slice returns the items in [start, end) without copying.
func (s Series) Slice(start, end int) []Datum { return s.items[start:end] }

// Extent returns the min low and max high over [start, end).
func (s Series) Extent(start, end int) (lo, hi float64, ok bool) {
	if start < 0 || end > len(s.items) || start >= end {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, d := range s.items[start:end] {
		l, h := d.Extent()
		lo = math.Min(lo, l)
		hi = math.Max(hi, h)
	}
	return lo, hi, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
