// Package chart composes scales, the viewport controller, tick planning and
// geometry into a single-writer chart engine.
package chart

import (
	"fmt"
	"log/slog"

	"github.com/leowmjw/go-chart-viewport/pkg/geometry"
	"github.com/leowmjw/go-chart-viewport/pkg/scale"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/ticks"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

// Engine owns the viewport of one chart. Every input recomputes the whole
// Frame before returning. An Engine is not safe for concurrent use.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	planner ticks.Planner

	series    series.Series
	intervals series.IntervalSet
	selected  string

	width  float64
	height float64

	ctrl    *viewport.Controller
	pointer *viewport.Pointer

	frame      Frame
	generation uint64
	onInterval func(key string)
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine with no data; its first frame is empty.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	planner, err := ticks.NewPlanner(cfg.Ticks)
	if err != nil {
		return nil, err
	}
	intervals, err := series.NewIntervalSet(cfg.Intervals)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		logger:    slog.Default(),
		planner:   planner,
		intervals: intervals,
		width:     cfg.Width,
		height:    cfg.Height,
	}
	for _, opt := range opts {
		opt(e)
	}
	if iv, ok := intervals.Default(); ok {
		e.selected = iv.TimeFrameKey
	}
	e.recompute()
	return e, nil
}

// OnIntervalRequested registers the callback fired when the user picks a
// different interval. The host fetches the new series and calls SetSeries.
func (e *Engine) OnIntervalRequested(fn func(key string)) {
	e.onInterval = fn
}

func (e *Engine) Config() Config                { return e.cfg }
func (e *Engine) Frame() Frame                  { return e.frame }
func (e *Engine) Series() series.Series         { return e.series }
func (e *Engine) Intervals() series.IntervalSet { return e.intervals }
func (e *Engine) Size() (width, height float64) { return e.width, e.height }
func (e *Engine) Dragging() bool                { return e.ctrl != nil && e.ctrl.State() == viewport.Dragging }
func (e *Engine) Transform() viewport.Transform {
	if e.ctrl == nil {
		return viewport.Identity()
	}
	return e.ctrl.Transform()
}

// Interval returns the selected interval
func (e *Engine) Interval() (series.Interval, bool) {
	iv, err := e.intervals.Lookup(e.selected)
	if err != nil {
		return series.Interval{}, false
	}
	return iv, true
}

// SetSeries replaces the data wholesale. The transform is kept and clamped
// to the new content, with K lowered when the shorter series would leave
// fewer than MinVisible items on screen.
func (e *Engine) SetSeries(s series.Series) error {
	if !s.Empty() && s.Kind() != e.cfg.Kind {
		return fmt.Errorf("%w: got %s, chart draws %s", ErrKindMismatch, s.Kind(), e.cfg.Kind)
	}

	e.series = s
	if s.Empty() {
		e.ctrl = nil
		e.recompute()
		return nil
	}
	if err := e.rebuildBand(); err != nil {
		return err
	}
	e.recompute()
	e.logger.Debug("series replaced", "kind", s.Kind(), "items", s.Len())
	return nil
}

// SetIntervals replaces the selectable intervals and selects the default
// without firing the callback.
func (e *Engine) SetIntervals(set series.IntervalSet) {
	e.intervals = set
	e.selected = ""
	if iv, ok := set.Default(); ok {
		e.selected = iv.TimeFrameKey
	}
	e.recompute()
}

// SelectInterval switches to key, resets the transform and asks the host
// for new data. Selecting the current interval does nothing.
func (e *Engine) SelectInterval(key string) error {
	if _, err := e.intervals.Lookup(key); err != nil {
		return err
	}
	if key == e.selected {
		return nil
	}

	e.selected = key
	e.pointer = nil
	if e.ctrl != nil {
		e.ctrl.Reset()
	}
	e.recompute()

	e.logger.Info("interval selected", "key", key)
	if e.onInterval != nil {
		e.onInterval(key)
	}
	return nil
}

// Resize changes the container size keeping the zoom and pan position
func (e *Engine) Resize(width, height float64) error {
	if !(width > 0) || !(height > 0) || !finite(width) || !finite(height) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidSize, width, height)
	}
	e.width, e.height = width, height
	if e.ctrl != nil {
		if err := e.ctrl.SetRange(e.xRange()); err != nil {
			return fmt.Errorf("failed to resize viewport: %w", err)
		}
	}
	e.recompute()
	return nil
}

// SetTransform restores a saved zoom and pan position
func (e *Engine) SetTransform(t viewport.Transform) (viewport.Outcome, error) {
	if e.ctrl == nil {
		return viewport.Ignored, nil
	}
	out, err := e.ctrl.SetTransform(t)
	if err != nil {
		return out, err
	}
	e.recompute()
	return out, nil
}

// PointerDown starts a drag
func (e *Engine) PointerDown(x, y float64) viewport.Outcome {
	if e.ctrl == nil {
		return viewport.Ignored
	}
	out := e.ctrl.PointerDown(x)
	e.track(x, y)
	e.recompute()
	return out
}

// PointerMove pans while dragging and always moves the hover target
func (e *Engine) PointerMove(x, y float64) viewport.Outcome {
	if e.ctrl == nil {
		return viewport.Ignored
	}
	out := e.ctrl.PointerMove(x)
	e.track(x, y)
	e.recompute()
	return out
}

// PointerUp ends a drag
func (e *Engine) PointerUp() viewport.Outcome {
	if e.ctrl == nil {
		return viewport.Ignored
	}
	out := e.ctrl.PointerUp()
	e.recompute()
	return out
}

// PointerLeave ends a drag and clears the hover target
func (e *Engine) PointerLeave() viewport.Outcome {
	e.pointer = nil
	if e.ctrl == nil {
		e.recompute()
		return viewport.Ignored
	}
	out := e.ctrl.PointerLeave()
	e.recompute()
	return out
}

// Wheel zooms around x
func (e *Engine) Wheel(x, deltaY float64) viewport.Outcome {
	if e.ctrl == nil {
		return viewport.Ignored
	}
	out := e.ctrl.Wheel(x, deltaY)
	if out == viewport.Rejected {
		e.logger.Debug("wheel rejected", "x", x, "delta_y", deltaY, "visible", e.ctrl.Window().Len())
	}
	e.recompute()
	return out
}

// Blur cancels any drag, as on focus loss or unmount
func (e *Engine) Blur() {
	e.pointer = nil
	if e.ctrl != nil {
		e.ctrl.Cancel()
	}
	e.recompute()
}

func (e *Engine) track(x, y float64) {
	if !finite(x) || !finite(y) {
		e.pointer = nil
		return
	}
	p := viewport.Crosshair(x, y)
	e.pointer = &p
}

func (e *Engine) xRange() scale.PixelRange {
	return scale.PixelRange{Min: 0, Max: e.width}
}

func (e *Engine) yRange() scale.PixelRange {
	return scale.PixelRange{Min: 0, Max: e.height}
}

func (e *Engine) rebuildBand() error {
	band, err := scale.NewBandScale(e.series.Dates(), e.xRange(), e.cfg.Band)
	if err != nil {
		return fmt.Errorf("failed to build x scale: %w", err)
	}
	if e.ctrl == nil {
		ctrl, err := viewport.NewController(band, e.cfg.Limits)
		if err != nil {
			return fmt.Errorf("failed to create viewport controller: %w", err)
		}
		e.ctrl = ctrl
		return nil
	}
	return e.ctrl.SetBand(band)
}

// recompute derives the frame in dependency order: window, y scale, ticks,
// hover, primitives.
func (e *Engine) recompute() {
	e.generation++
	f := Frame{
		Generation: e.generation,
		Kind:       e.cfg.Kind,
		Interval:   e.selected,
		Dragging:   e.Dragging(),
		Width:      e.width,
		Height:     e.height,
		Transform:  e.Transform(),
		series:     e.series,
	}
	if e.series.Empty() || e.ctrl == nil {
		f.Empty = true
		e.frame = f
		return
	}

	f.Window = e.ctrl.Window()
	f.X = e.ctrl.ZoomedBand()

	y, base, err := e.yScales(f.Window)
	if err != nil {
		e.logger.Warn("failed to build y scale", "error", err)
		f.Empty = true
		e.frame = f
		return
	}
	f.Y, f.BaseY = y, base

	dates := e.series.Dates()[f.Window.Start:f.Window.End]
	f.XTicks = e.planner.Plan(dates, e.width).Offset(f.Window.Start)
	f.YTicks = yTicks(y, e.cfg.YTickCount)
	f.Hover = e.hover(f)
	f.Primitives = geometry.For(e.series.Kind()).Build(e.series, f.Window, f.X, f.Y)

	e.frame = f
}

func (e *Engine) yScales(w viewport.Window) (scale.LinearScale, scale.LinearScale, error) {
	lo, hi, ok := e.series.Extent(0, e.series.Len())
	if !ok {
		return scale.LinearScale{}, scale.LinearScale{}, scale.ErrEmptyDomain
	}
	base, err := scale.NewLinearScaleExtent(lo, hi, e.yRange(), e.cfg.Headroom.base())
	if err != nil {
		return scale.LinearScale{}, scale.LinearScale{}, err
	}

	lo, hi, ok = e.series.Extent(w.Start, w.End)
	if !ok {
		return base, base, nil
	}
	y, err := scale.NewLinearScaleExtent(lo, hi, e.yRange(), e.cfg.Headroom.visible())
	if err != nil {
		return scale.LinearScale{}, scale.LinearScale{}, err
	}
	return y, base, nil
}

func (e *Engine) hover(f Frame) *HoverTarget {
	if e.pointer == nil {
		return nil
	}
	i := viewport.Nearest(e.pointer.X, f.X)
	if !f.Window.Contains(i) {
		return nil
	}
	return &HoverTarget{
		Index:     i,
		Datum:     e.series.At(i),
		X:         f.X.Center(i),
		Crosshair: *e.pointer,
		Value:     f.Y.Invert(e.pointer.Y),
	}
}

func yTicks(y scale.LinearScale, count int) []YTick {
	values := y.Ticks(count)
	out := make([]YTick, len(values))
	for i, v := range values {
		out[i] = YTick{Value: v, Y: y.Scale(v), Label: y.TickFormat(count, v)}
	}
	return out
}
