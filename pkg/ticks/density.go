package ticks

import "time"

// DensityPlanner spaces labels roughly every PixelFrequency pixels,
// ignoring calendar structure.
type DensityPlanner struct {
	PixelFrequency float64
	Location       *time.Location
}

// Plan keeps the first and last date, plus any date more than the gap
// past the last kept one that is not within the gap of the end.
func (p DensityPlanner) Plan(dates []time.Time, width float64) Plan {
	n := len(dates)
	if n == 0 {
		return nil
	}
	gap := float64(n)
	if width > 0 && p.PixelFrequency > 0 {
		gap = float64(n) / (width / p.PixelFrequency)
	}

	plan := Plan{p.tick(dates, 0, -1)}
	last := 0
	for i := 1; i < n-1; i++ {
		if float64(i-last) > gap && float64(i) < float64(n-1)-gap {
			plan = append(plan, p.tick(dates, i, last))
			last = i
		}
	}
	if n > 1 {
		plan = append(plan, p.tick(dates, n-1, last))
	}
	return plan
}

func (p DensityPlanner) tick(dates []time.Time, i, prev int) Tick {
	cur := in(dates[i], p.Location)
	t := Tick{
		Date:    dates[i],
		Index:   i,
		Primary: true,
		Anchor:  i == 0 || i == len(dates)-1,
	}
	if prev < 0 {
		t.Label = FormatFirst(cur)
	} else {
		t.Label = FormatDelta(in(dates[prev], p.Location), cur)
	}
	return t
}

func in(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
