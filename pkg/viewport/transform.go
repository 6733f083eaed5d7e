package viewport

import (
	"errors"
	"math"

	"github.com/leowmjw/go-chart-viewport/pkg/scale"
)

var ErrInvalidTransform = errors.New("invalid viewport transform")

// Transform is the horizontal zoom/pan state: screen = X + base*K.
type Transform struct {
	X float64 `json:"x"`
	K float64 `json:"k"`
}

// Identity returns the untransformed viewport
func Identity() Transform {
	return Transform{X: 0, K: 1}
}

// Valid reports whether the transform is finite with a positive scale
func (t Transform) Valid() bool {
	return finite(t.X) && finite(t.K) && t.K > 0
}

func (t Transform) ApplyX(x float64) float64   { return t.X + x*t.K }
func (t Transform) InvertX(xs float64) float64 { return (xs - t.X) / t.K }

// Translate shifts the content by dx base pixels (K*dx screen pixels).
func (t Transform) Translate(dx float64) Transform {
	return Transform{X: t.X + t.K*dx, K: t.K}
}

// ScaleAround multiplies K by factor keeping the base point under anchor fixed.
func (t Transform) ScaleAround(anchor, factor float64) Transform {
	return t.ScaleTo(anchor, t.K*factor)
}

// ScaleTo sets K to k keeping the base point under anchor fixed.
func (t Transform) ScaleTo(anchor, k float64) Transform {
	return Transform{X: anchor - (anchor-t.X)/t.K*k, K: k}
}

// ZoomedRange is the image of the base range under the transform.
func (t Transform) ZoomedRange(rng scale.PixelRange) scale.PixelRange {
	return scale.PixelRange{Min: t.ApplyX(rng.Min), Max: t.ApplyX(rng.Max)}
}

// TranslateBounds returns the X interval that keeps the content covering
// the whole range at scale K.
func TranslateBounds(rng scale.PixelRange, k float64) (lo, hi float64) {
	return rng.Max * (1 - k), rng.Min * (1 - k)
}

// Clamp pins X inside the translate bounds and reports whether it moved.
func Clamp(t Transform, rng scale.PixelRange) (Transform, bool) {
	lo, hi := TranslateBounds(rng, t.K)
	switch {
	case t.X < lo:
		return Transform{X: lo, K: t.K}, true
	case t.X > hi:
		return Transform{X: hi, K: t.K}, true
	}
	return t, false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
