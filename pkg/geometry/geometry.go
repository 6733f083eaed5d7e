// Package geometry turns the visible part of a series into drawable shapes.
package geometry

import (
	"math"

	"github.com/leowmjw/go-chart-viewport/pkg/scale"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

// Candle is a candlestick in screen pixels. X is the left edge of the body.
type Candle struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Width      float64 `json:"width"`
	WickTop    float64 `json:"wick_top"`
	WickBottom float64 `json:"wick_bottom"`
	BodyTop    float64 `json:"body_top"`
	BodyBottom float64 `json:"body_bottom"`
	Rising     bool    `json:"rising"`
}

// Segment is a line piece lying entirely on one side of zero
type Segment struct {
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	Positive bool    `json:"positive"`
}

// Primitives is what a renderer draws for one frame
type Primitives struct {
	Candles  []Candle  `json:"candles,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Strategy builds primitives for the items of s inside w. x is the zoomed
// band scale, so its centres are screen positions.
type Strategy interface {
	Build(s series.Series, w viewport.Window, x scale.BandScale, y scale.LinearScale) Primitives
}

// For returns the strategy drawing kind
func For(kind series.Kind) Strategy {
	if kind == series.KindPoint {
		return LineStrategy{}
	}
	return CandleStrategy{}
}

// CandleStrategy draws a wick and body per bar
type CandleStrategy struct{}

func (CandleStrategy) Build(s series.Series, w viewport.Window, x scale.BandScale, y scale.LinearScale) Primitives {
	candles := make([]Candle, 0, w.Len())
	for i := w.Start; i < w.End; i++ {
		bar, ok := s.At(i).(series.Bar)
		if !ok {
			continue
		}
		candles = append(candles, Candle{
			Index:      i,
			X:          x.Start(i),
			Width:      x.Bandwidth(),
			WickTop:    y.Scale(bar.High),
			WickBottom: y.Scale(bar.Low),
			BodyTop:    y.Scale(math.Max(bar.Open, bar.Close)),
			BodyBottom: y.Scale(math.Min(bar.Open, bar.Close)),
			Rising:     bar.Rising(),
		})
	}
	return Primitives{Candles: candles}
}

// LineStrategy joins consecutive points, splitting segments where the
// value changes sign so each piece can be coloured by its side.
type LineStrategy struct{}

func (LineStrategy) Build(s series.Series, w viewport.Window, x scale.BandScale, y scale.LinearScale) Primitives {
	var segments []Segment
	for i := w.Start + 1; i < w.End; i++ {
		p1, ok1 := s.At(i - 1).(series.Point)
		p2, ok2 := s.At(i).(series.Point)
		if !ok1 || !ok2 {
			continue
		}
		segments = appendSplit(segments, x.Center(i-1), p1.Value, x.Center(i), p2.Value, y)
	}
	return Primitives{Segments: segments}
}

func appendSplit(out []Segment, x1, v1, x2, v2 float64, y scale.LinearScale) []Segment {
	if (v1 < 0 && v2 > 0) || (v1 > 0 && v2 < 0) {
		t := v1 / (v1 - v2)
		xc := x1 + t*(x2-x1)
		yc := y.Scale(0)
		return append(out,
			Segment{X1: x1, Y1: y.Scale(v1), X2: xc, Y2: yc, Positive: v1 > 0},
			Segment{X1: xc, Y1: yc, X2: x2, Y2: y.Scale(v2), Positive: v2 > 0},
		)
	}
	return append(out, Segment{
		X1:       x1,
		Y1:       y.Scale(v1),
		X2:       x2,
		Y2:       y.Scale(v2),
		Positive: v1 >= 0 && v2 >= 0,
	})
}
