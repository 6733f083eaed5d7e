package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/leowmjw/go-chart-viewport/pkg/scale"
)

var ErrInvalidLimits = errors.New("invalid viewport limits")

// State is the pointer state of a Controller
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Outcome describes what a gesture did to the transform
type Outcome int

const (
	// Ignored means the input does not apply in the current state.
	Ignored Outcome = iota
	// Rejected means the gesture was refused and the transform kept.
	Rejected
	// Applied means the proposed transform was taken as is.
	Applied
	// Clamped means a limited version of the proposed transform was taken.
	Clamped
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Applied:
		return "applied"
	case Clamped:
		return "clamped"
	default:
		return "ignored"
	}
}

// Changed reports whether the transform moved.
func (o Outcome) Changed() bool {
	return o == Applied || o == Clamped
}

// Limits bounds zoom and pan
type Limits struct {
	KMin       float64 `json:"min_scale" yaml:"min_scale"`
	KMax       float64 `json:"max_scale" yaml:"max_scale"`
	MinVisible int     `json:"min_visible" yaml:"min_visible"`
	ZoomIn     float64 `json:"zoom_in_factor" yaml:"zoom_in_factor"`
	ZoomOut    float64 `json:"zoom_out_factor" yaml:"zoom_out_factor"`
}

// DefaultLimits returns the stock wheel factors and scale bounds
func DefaultLimits() Limits {
	return Limits{
		KMin:       1,
		KMax:       30,
		MinVisible: 12,
		ZoomIn:     1.05,
		ZoomOut:    0.95,
	}
}

// Validate checks that the limits describe a usable zoom range
func (l Limits) Validate() error {
	switch {
	case !finite(l.KMin) || !finite(l.KMax) || l.KMin <= 0 || l.KMin > l.KMax:
		return fmt.Errorf("%w: scale bounds [%v, %v]", ErrInvalidLimits, l.KMin, l.KMax)
	case l.MinVisible < 1:
		return fmt.Errorf("%w: min visible %d", ErrInvalidLimits, l.MinVisible)
	case !(l.ZoomIn > 1) || !finite(l.ZoomIn):
		return fmt.Errorf("%w: zoom in factor %v must exceed 1", ErrInvalidLimits, l.ZoomIn)
	case !(l.ZoomOut > 0 && l.ZoomOut < 1):
		return fmt.Errorf("%w: zoom out factor %v not in (0, 1)", ErrInvalidLimits, l.ZoomOut)
	}
	return nil
}

// bisection steps when fitting K to the minimum visible count
const fitIterations = 48

// Controller turns pointer and wheel input into clamped transforms over a
// base band scale. It keeps the visible window in sync with every change.
// A Controller is not safe for concurrent use.
type Controller struct {
	limits Limits
	band   scale.BandScale
	t      Transform
	window Window
	state  State
	lastX  float64
}

// NewController starts at the identity transform over band
func NewController(band scale.BandScale, limits Limits) (*Controller, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if band.Len() == 0 {
		return nil, scale.ErrEmptyDomain
	}

	c := &Controller{limits: limits, band: band}
	c.Reset()
	return c, nil
}

func (c *Controller) Transform() Transform    { return c.t }
func (c *Controller) Window() Window          { return c.window }
func (c *Controller) State() State            { return c.state }
func (c *Controller) Limits() Limits          { return c.limits }
func (c *Controller) Band() scale.BandScale   { return c.band }
func (c *Controller) Range() scale.PixelRange { return c.band.Range() }

// ZoomedBand returns the base band rescaled onto the transformed range, so
// its slot centres are the on-screen positions.
func (c *Controller) ZoomedBand() scale.BandScale {
	zoomed, err := c.band.Rescale(c.t.ZoomedRange(c.band.Range()))
	if err != nil {
		return c.band
	}
	return zoomed
}

// Reset returns to the identity transform and drops any drag
func (c *Controller) Reset() {
	c.state = Idle
	c.set(Identity())
}

// Cancel aborts a drag in progress (focus loss, unmount).
func (c *Controller) Cancel() {
	c.state = Idle
}

// SetTransform installs t after validation and clamping.
func (c *Controller) SetTransform(t Transform) (Outcome, error) {
	if !t.Valid() || t.K < c.limits.KMin || t.K > c.limits.KMax {
		return Rejected, fmt.Errorf("%w: %+v", ErrInvalidTransform, t)
	}
	clamped, moved := Clamp(t, c.band.Range())
	c.set(clamped)
	if moved {
		return Clamped, nil
	}
	return Applied, nil
}

// SetBand swaps the base scale (new series or new size) keeping the
// transform, clamped to the new content. When the kept scale would show
// fewer than MinVisible items of a series that has enough, K drops to the
// largest value that shows them.
func (c *Controller) SetBand(band scale.BandScale) error {
	if band.Len() == 0 {
		return scale.ErrEmptyDomain
	}
	old := c.band.Range()
	c.band = band
	if rng := band.Range(); rng != old {
		c.t = rescaleX(c.t, old, rng)
	}
	t, _ := Clamp(c.t, c.band.Range())
	c.set(t)

	if c.window.Len() < c.limits.MinVisible && band.Len() >= c.limits.MinVisible {
		x := band.Range().Min
		hi := c.t.K
		floor, _ := c.scaleTo(x, c.limits.KMin)
		c.set(floor)
		c.set(c.fit(x, c.limits.KMin, hi))
	}
	return nil
}

// SetRange moves the base scale to a new pixel range, shifting X so the
// content keeps its relative position.
func (c *Controller) SetRange(rng scale.PixelRange) error {
	band, err := c.band.Rescale(rng)
	if err != nil {
		return err
	}
	return c.SetBand(band)
}

func rescaleX(t Transform, from, to scale.PixelRange) Transform {
	ratio := to.Width() / from.Width()
	return Transform{
		X: to.Min*(1-t.K) + (t.X-from.Min*(1-t.K))*ratio,
		K: t.K,
	}
}

// PointerDown starts a drag at x
func (c *Controller) PointerDown(x float64) Outcome {
	if !finite(x) {
		return Rejected
	}
	c.state = Dragging
	c.lastX = x
	return Ignored
}

// PointerMove pans by the pointer delta while dragging. The part of the
// move that would expose space beyond the first or last item is dropped.
func (c *Controller) PointerMove(x float64) Outcome {
	if c.state != Dragging {
		return Ignored
	}
	if !finite(x) {
		return Rejected
	}
	delta := x - c.lastX
	c.lastX = x
	if delta == 0 {
		return Ignored
	}

	proposed := c.t.Translate(delta / c.t.K)
	clamped, moved := Clamp(proposed, c.band.Range())
	if clamped == c.t {
		return Rejected
	}
	c.set(clamped)
	if moved {
		return Clamped
	}
	return Applied
}

// PointerUp ends a drag
func (c *Controller) PointerUp() Outcome {
	if c.state != Dragging {
		return Ignored
	}
	c.state = Idle
	return Ignored
}

// PointerLeave ends a drag when the pointer exits the chart
func (c *Controller) PointerLeave() Outcome {
	return c.PointerUp()
}

// Wheel zooms around x. Negative deltaY zooms in, positive zooms out. An
// anchor outside the pixel range is pinned to the nearest edge.
func (c *Controller) Wheel(x, deltaY float64) Outcome {
	if !finite(x) || !finite(deltaY) {
		return Rejected
	}
	rng := c.band.Range()
	x = math.Max(rng.Min, math.Min(rng.Max, x))
	switch {
	case deltaY < 0:
		return c.zoomIn(x)
	case deltaY > 0:
		return c.zoomOut(x)
	}
	return Ignored
}

func (c *Controller) zoomIn(x float64) Outcome {
	if c.window.Len() <= c.limits.MinVisible {
		return Rejected
	}
	k := math.Min(c.t.K*c.limits.ZoomIn, c.limits.KMax)
	if k <= c.t.K {
		return Rejected
	}

	outcome := Applied
	if k == c.limits.KMax && c.t.K*c.limits.ZoomIn > c.limits.KMax {
		outcome = Clamped
	}

	next, moved := c.scaleTo(x, k)
	if moved {
		outcome = Clamped
	}
	if Resolve(c.band, next).Len() < c.limits.MinVisible {
		next = c.fit(x, c.t.K, k)
		outcome = Clamped
	}
	if next == c.t {
		return Rejected
	}
	c.set(next)
	return outcome
}

// fit bisects K in [lo, hi] for the largest scale still showing at least
// MinVisible items. lo must satisfy the bound.
func (c *Controller) fit(x, lo, hi float64) Transform {
	best := c.t
	for i := 0; i < fitIterations; i++ {
		mid := (lo + hi) / 2
		t, _ := c.scaleTo(x, mid)
		if Resolve(c.band, t).Len() >= c.limits.MinVisible {
			best, lo = t, mid
		} else {
			hi = mid
		}
	}
	return best
}

func (c *Controller) zoomOut(x float64) Outcome {
	if c.t.K <= c.limits.KMin {
		return Rejected
	}
	if !c.window.HasMoreLeft && !c.window.HasMoreRight {
		return Rejected
	}

	outcome := Applied
	k := c.t.K * c.limits.ZoomOut
	if k < c.limits.KMin {
		k = c.limits.KMin
		outcome = Clamped
	}
	next, moved := c.scaleTo(x, k)
	if moved {
		outcome = Clamped
	}
	c.set(next)
	return outcome
}

func (c *Controller) scaleTo(x, k float64) (Transform, bool) {
	return Clamp(c.t.ScaleTo(x, k), c.band.Range())
}

func (c *Controller) set(t Transform) {
	c.t = t
	c.window = Resolve(c.band, t)
}
