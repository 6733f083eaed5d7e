package ticks

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidBounds = errors.New("regime bounds must be positive and increasing")

// Regime is the candle granularity implied by a visible span
type Regime int

const (
	SubDaily Regime = iota
	Daily
	Weekly
	Monthly
)

func (r Regime) String() string {
	switch r {
	case SubDaily:
		return "sub-daily"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	default:
		return "monthly"
	}
}

// RegimeBounds are the exclusive upper spans of the first three regimes.
type RegimeBounds struct {
	SubDaily time.Duration `json:"sub_daily" yaml:"sub_daily"`
	Daily    time.Duration `json:"daily" yaml:"daily"`
	Weekly   time.Duration `json:"weekly" yaml:"weekly"`
}

// DefaultRegimeBounds splits at one day, thirty days and one year
func DefaultRegimeBounds() RegimeBounds {
	return RegimeBounds{
		SubDaily: 24 * time.Hour,
		Daily:    30 * 24 * time.Hour,
		Weekly:   365 * 24 * time.Hour,
	}
}

func (b RegimeBounds) Validate() error {
	if b.SubDaily <= 0 || b.Daily <= b.SubDaily || b.Weekly <= b.Daily {
		return fmt.Errorf("%w: %s / %s / %s", ErrInvalidBounds, b.SubDaily, b.Daily, b.Weekly)
	}
	return nil
}

// Classify maps a span to its regime
func (b RegimeBounds) Classify(span time.Duration) Regime {
	switch {
	case span < b.SubDaily:
		return SubDaily
	case span < b.Daily:
		return Daily
	case span < b.Weekly:
		return Weekly
	default:
		return Monthly
	}
}

// Rule marks dates that cross a calendar boundary
type Rule struct {
	Name    string
	Primary bool
	Layout  string
	// DayLayout replaces Layout when a midnight passed since the last tick.
	DayLayout string
	// Next returns the first boundary strictly after t.
	Next func(t time.Time) time.Time
}

// Crossed reports whether a boundary lies in (prev, cur].
func (r Rule) Crossed(prev, cur time.Time) bool {
	return !r.Next(prev).After(cur)
}

// Label formats cur given the date of the last kept tick
func (r Rule) Label(lastKept, cur time.Time) string {
	if r.DayLayout != "" && !nextMidnight(lastKept).After(cur) {
		return cur.Format(r.DayLayout)
	}
	return cur.Format(r.Layout)
}

// Rules returns the boundary rules of a regime, coarsest first
func Rules(r Regime) []Rule {
	switch r {
	case SubDaily:
		return []Rule{
			{Name: "16:00", Layout: LayoutMinute, DayLayout: LayoutDay, Next: nextClock(16)},
			{Name: "08:00", Primary: true, Layout: LayoutMinute, DayLayout: LayoutDay, Next: nextClock(8)},
		}
	case Daily:
		return []Rule{
			{Name: "month", Layout: LayoutMonth, Next: nextMonth(1)},
			{Name: "week", Primary: true, Layout: LayoutWeek, Next: nextMonday},
		}
	case Weekly:
		return []Rule{
			{Name: "year", Layout: LayoutYear, Next: nextYear},
			{Name: "month", Primary: true, Layout: LayoutMonth, Next: nextMonth(1)},
		}
	default:
		return []Rule{
			{Name: "year", Primary: true, Layout: LayoutYear, Next: nextYear},
			{Name: "4 months", Layout: LayoutMonth, Next: nextMonth(4)},
		}
	}
}

func nextClock(hour int) func(time.Time) time.Time {
	return func(t time.Time) time.Time {
		b := time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
		if !b.After(t) {
			b = b.AddDate(0, 0, 1)
		}
		return b
	}
}

func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

func nextMonday(t time.Time) time.Time {
	days := (8 - int(t.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()+days, 0, 0, 0, 0, t.Location())
}

// nextMonth returns the first of the next month m with (m-1) % every == 0,
// so every 4 gives Jan, May and Sep.
func nextMonth(every int) func(time.Time) time.Time {
	return func(t time.Time) time.Time {
		b := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		for (int(b.Month())-1)%every != 0 {
			b = b.AddDate(0, 1, 0)
		}
		return b
	}
}

func nextYear(t time.Time) time.Time {
	return time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, t.Location())
}
