package chart

import (
	"time"

	"github.com/leowmjw/go-chart-viewport/pkg/geometry"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

// AxisTick is a date tick with its screen position
type AxisTick struct {
	Index    int       `json:"index"`
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	Primary  bool      `json:"primary"`
	Anchor   bool      `json:"anchor,omitempty"`
	Position float64   `json:"position"`
}

// HoverView is the wire form of a HoverTarget
type HoverView struct {
	Index     int              `json:"index"`
	Date      time.Time        `json:"date"`
	X         float64          `json:"x"`
	Value     float64          `json:"value"`
	Crosshair viewport.Pointer `json:"crosshair"`
	Bar       *series.Bar      `json:"bar,omitempty"`
	Point     *series.Point    `json:"point,omitempty"`
}

// View is a self-contained, serialisable snapshot of a Frame for hosts
// that render out of process.
type View struct {
	Generation uint64              `json:"generation"`
	Empty      bool                `json:"empty"`
	Kind       series.Kind         `json:"kind"`
	Interval   string              `json:"interval,omitempty"`
	Dragging   bool                `json:"dragging"`
	Width      float64             `json:"width"`
	Height     float64             `json:"height"`
	Transform  viewport.Transform  `json:"transform"`
	Window     viewport.Window     `json:"window"`
	Step       float64             `json:"step,omitempty"`
	Bandwidth  float64             `json:"bandwidth,omitempty"`
	YDomain    [2]float64          `json:"y_domain"`
	XTicks     []AxisTick          `json:"x_ticks,omitempty"`
	YTicks     []YTick             `json:"y_ticks,omitempty"`
	Hover      *HoverView          `json:"hover,omitempty"`
	Primitives geometry.Primitives `json:"primitives"`
}

// View converts the frame for transport
func (f Frame) View() View {
	v := View{
		Generation: f.Generation,
		Empty:      f.Empty,
		Kind:       f.Kind,
		Interval:   f.Interval,
		Dragging:   f.Dragging,
		Width:      f.Width,
		Height:     f.Height,
		Transform:  f.Transform,
		Window:     f.Window,
	}
	if f.Empty {
		return v
	}

	v.Step = f.X.Step()
	v.Bandwidth = f.X.Bandwidth()
	v.YDomain[0], v.YDomain[1] = f.Y.Domain()
	v.YTicks = f.YTicks
	v.Primitives = f.Primitives

	v.XTicks = make([]AxisTick, len(f.XTicks))
	for i, t := range f.XTicks {
		v.XTicks[i] = AxisTick{
			Index:    t.Index,
			Date:     t.Date,
			Label:    t.Label,
			Primary:  t.Primary,
			Anchor:   t.Anchor,
			Position: f.TickX(t),
		}
	}

	if h := f.Hover; h != nil {
		hv := &HoverView{
			Index:     h.Index,
			Date:      h.Datum.Time(),
			X:         h.X,
			Value:     h.Value,
			Crosshair: h.Crosshair,
		}
		switch d := h.Datum.(type) {
		case series.Bar:
			hv.Bar = &d
		case series.Point:
			hv.Point = &d
		}
		v.Hover = hv
	}
	return v
}
