package ticks

import (
	"math"
	"time"
)

// CalendarPlanner labels calendar boundaries suited to the regime of the
// visible span.
type CalendarPlanner struct {
	Bounds          RegimeBounds
	MinLabelSpacing float64
	Location        *time.Location
}

// Regime classifies the span of dates
func (p CalendarPlanner) Regime(dates []time.Time) Regime {
	if len(dates) < 2 {
		return SubDaily
	}
	return p.Bounds.Classify(dates[len(dates)-1].Sub(dates[0]))
}

// fold state threaded through the dates
type calendarState struct {
	prev     time.Time
	lastKept int
	plan     Plan
}

// Plan emits the first and last date as anchors and, in between, one tick
// per date that crosses a regime boundary and keeps MinLabelSpacing from
// its neighbours.
func (p CalendarPlanner) Plan(dates []time.Time, width float64) Plan {
	n := len(dates)
	if n == 0 {
		return nil
	}
	rules := Rules(p.Regime(dates))
	gap := p.indexGap(n, width)

	first := in(dates[0], p.Location)
	st := calendarState{
		prev:     first,
		lastKept: 0,
		plan: Plan{{
			Date:    dates[0],
			Index:   0,
			Label:   FormatFirst(first),
			Primary: true,
			Anchor:  true,
		}},
	}
	for i := 1; i < n; i++ {
		st = p.step(st, rules, dates, i, gap)
	}
	return st.plan
}

func (p CalendarPlanner) step(st calendarState, rules []Rule, dates []time.Time, i, gap int) calendarState {
	n := len(dates)
	cur := in(dates[i], p.Location)
	kept := in(dates[st.lastKept], p.Location)
	last := i == n-1

	rule, fired := firstCrossed(rules, st.prev, cur)
	st.prev = cur

	if last {
		t := Tick{Date: dates[i], Index: i, Primary: true, Anchor: true, Label: FormatDelta(kept, cur)}
		if fired {
			t.Primary = rule.Primary
			t.Label = rule.Label(kept, cur)
		}
		st.plan = append(st.plan, t)
		st.lastKept = i
		return st
	}

	if !fired || i-st.lastKept < gap || n-1-i < gap {
		return st
	}
	st.plan = append(st.plan, Tick{
		Date:    dates[i],
		Index:   i,
		Label:   rule.Label(kept, cur),
		Primary: rule.Primary,
	})
	st.lastKept = i
	return st
}

// indexGap converts the pixel spacing into a count of slots
func (p CalendarPlanner) indexGap(n int, width float64) int {
	if width <= 0 {
		return n
	}
	gap := int(math.Ceil(p.MinLabelSpacing / (width / float64(n))))
	if gap < 1 {
		gap = 1
	}
	return gap
}

func firstCrossed(rules []Rule, prev, cur time.Time) (Rule, bool) {
	for _, r := range rules {
		if r.Crossed(prev, cur) {
			return r, true
		}
	}
	return Rule{}, false
}
