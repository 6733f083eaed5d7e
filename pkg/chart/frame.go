package chart

import (
	"math"

	"github.com/leowmjw/go-chart-viewport/pkg/geometry"
	"github.com/leowmjw/go-chart-viewport/pkg/scale"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/ticks"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

// YTick is a labelled value on the price axis
type YTick struct {
	Value float64 `json:"value"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// HoverTarget is the item under the pointer
type HoverTarget struct {
	Index     int              `json:"index"`
	Datum     series.Datum     `json:"datum"`
	X         float64          `json:"x"`
	Crosshair viewport.Pointer `json:"crosshair"`
	Value     float64          `json:"value"`
}

// Frame is everything a renderer needs for one pass. All fields come from
// the same input event.
type Frame struct {
	Generation uint64              `json:"generation"`
	Empty      bool                `json:"empty"`
	Kind       series.Kind         `json:"kind"`
	Interval   string              `json:"interval,omitempty"`
	Dragging   bool                `json:"dragging"`
	Width      float64             `json:"width"`
	Height     float64             `json:"height"`
	Transform  viewport.Transform  `json:"transform"`
	Window     viewport.Window     `json:"window"`
	X          scale.BandScale     `json:"-"`
	Y          scale.LinearScale   `json:"-"`
	BaseY      scale.LinearScale   `json:"-"`
	XTicks     ticks.Plan          `json:"x_ticks"`
	YTicks     []YTick             `json:"y_ticks"`
	Hover      *HoverTarget        `json:"hover,omitempty"`
	Primitives geometry.Primitives `json:"primitives"`

	series series.Series
}

// Items returns the visible data without copying the series.
func (f Frame) Items() []series.Datum {
	if f.Empty {
		return nil
	}
	return f.series.Slice(f.Window.Start, f.Window.End)
}

// TickX returns the screen position of an x tick
func (f Frame) TickX(t ticks.Tick) float64 {
	return f.X.Center(t.Index)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
