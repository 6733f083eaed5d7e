package ticks

import "time"

// Layouts used for axis labels, coarsest first.
const (
	LayoutYear        = "2006"
	LayoutMonth       = "Jan"
	LayoutWeek        = "Jan 02"
	LayoutDay         = "Mon 02"
	LayoutMinute      = "15:04"
	LayoutSecond      = ":05"
	LayoutMillisecond = ".000"
)

const week = 7 * 24 * time.Hour

// DeltaLayout picks the coarsest layout that shows how cur differs from the
// previously labelled prev.
func DeltaLayout(prev, cur time.Time) string {
	switch {
	case cur.Year() != prev.Year():
		return LayoutYear
	case cur.Month() != prev.Month():
		return LayoutMonth
	case cur.Day() != prev.Day() && absDuration(cur.Sub(prev)) >= week:
		return LayoutWeek
	case cur.Day() != prev.Day():
		return LayoutDay
	case cur.Hour() != prev.Hour(), cur.Minute() != prev.Minute():
		return LayoutMinute
	case cur.Second() != prev.Second():
		return LayoutSecond
	default:
		return LayoutMillisecond
	}
}

// OwnLayout picks the layout of the finest non-zero component of t, used
// for a label with nothing before it.
func OwnLayout(t time.Time) string {
	switch {
	case t.Nanosecond() != 0:
		return LayoutMillisecond
	case t.Second() != 0:
		return LayoutSecond
	case t.Hour() != 0, t.Minute() != 0:
		return LayoutMinute
	case t.Day() != 1:
		return LayoutDay
	case t.Month() != time.January:
		return LayoutMonth
	default:
		return LayoutYear
	}
}

// FormatDelta renders cur relative to prev
func FormatDelta(prev, cur time.Time) string {
	return cur.Format(DeltaLayout(prev, cur))
}

// FormatFirst renders a leading label
func FormatFirst(t time.Time) string {
	return t.Format(OwnLayout(t))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
