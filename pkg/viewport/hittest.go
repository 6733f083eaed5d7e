package viewport

import (
	"math"

	"github.com/leowmjw/go-chart-viewport/pkg/scale"
)

// Pointer is a raw cursor position in chart pixels
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Nearest returns the slot index under x. The result may be negative or
// beyond the domain; callers bounds check it.
func Nearest(x float64, band scale.BandScale) int {
	if band.Step() <= 0 || !finite(x) {
		return -1
	}
	return int(math.Floor((x - band.Range().Min - band.OuterPixels()) / band.Step()))
}

// Crosshair returns the pointer unchanged; the crosshair follows the raw
// cursor rather than snapping to a slot.
func Crosshair(x, y float64) Pointer {
	return Pointer{X: x, Y: y}
}
