package viewport

import (
	"sort"

	"github.com/leowmjw/go-chart-viewport/pkg/scale"
)

// positions within eps of a range edge still count as visible
const eps = 1e-9

// Window is the half-open index range [Start, End) of visible items
type Window struct {
	Start        int  `json:"start"`
	End          int  `json:"end"`
	HasMoreLeft  bool `json:"has_more_left"`
	HasMoreRight bool `json:"has_more_right"`
}

func (w Window) Len() int { return w.End - w.Start }

// Contains reports whether index i is visible
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// Resolve finds the items whose transformed centre lies inside the band's
// pixel range. Centres are monotone in the index, so both edges are found by
// binary search.
func Resolve(band scale.BandScale, t Transform) Window {
	n := band.Len()
	rng := band.Range()

	start := sort.Search(n, func(i int) bool {
		return t.ApplyX(band.Center(i)) >= rng.Min-eps
	})
	end := sort.Search(n, func(i int) bool {
		return t.ApplyX(band.Center(i)) > rng.Max+eps
	})
	if end < start {
		end = start
	}

	return Window{
		Start:        start,
		End:          end,
		HasMoreLeft:  start != 0,
		HasMoreRight: end != n,
	}
}
