package series

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownInterval  = errors.New("unknown interval")
	ErrDuplicateDefault = errors.New("more than one default interval")
)

// Interval is a selectable time frame offered to the user
type Interval struct {
	Title        string        `json:"title"`
	TimeFrameKey string        `json:"time_frame_key"`
	TimeOffset   time.Duration `json:"time_offset"`
	IsDefault    bool          `json:"is_default,omitempty"`
}

// IntervalSpec represents an interval with a string offset like "24h" or "720h"
type IntervalSpec struct {
	Title        string `json:"title" yaml:"title"`
	TimeFrameKey string `json:"key" yaml:"key"`
	Offset       string `json:"offset" yaml:"offset"`
	IsDefault    bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

// ParseIntervalSpec parses an interval specification from a string duration
func ParseIntervalSpec(spec IntervalSpec) (Interval, error) {
	if spec.TimeFrameKey == "" {
		return Interval{}, fmt.Errorf("interval %q: time frame key is required", spec.Title)
	}

	interval := Interval{
		Title:        spec.Title,
		TimeFrameKey: spec.TimeFrameKey,
		IsDefault:    spec.IsDefault,
	}

	if spec.Offset != "" {
		offset, err := time.ParseDuration(spec.Offset)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval offset: %w", err)
		}
		interval.TimeOffset = offset
	}

	return interval, nil
}

// IntervalSet is an ordered list of intervals with at most one default
type IntervalSet struct {
	items []Interval
}

// NewIntervalSet validates keys and the default flag
func NewIntervalSet(intervals []Interval) (IntervalSet, error) {
	seen := make(map[string]bool, len(intervals))
	defaults := 0
	for _, iv := range intervals {
		if seen[iv.TimeFrameKey] {
			return IntervalSet{}, fmt.Errorf("duplicate interval key %q", iv.TimeFrameKey)
		}
		seen[iv.TimeFrameKey] = true
		if iv.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return IntervalSet{}, ErrDuplicateDefault
	}

	items := make([]Interval, len(intervals))
	copy(items, intervals)
	return IntervalSet{items: items}, nil
}

func (s IntervalSet) Len() int        { return len(s.items) }
func (s IntervalSet) All() []Interval { return s.items }

// Default returns the interval flagged as default, falling back to the first one.
func (s IntervalSet) Default() (Interval, bool) {
	if len(s.items) == 0 {
		return Interval{}, false
	}
	for _, iv := range s.items {
		if iv.IsDefault {
			return iv, true
		}
	}
	return s.items[0], true
}

// Lookup finds an interval by its time frame key
func (s IntervalSet) Lookup(key string) (Interval, error) {
	for _, iv := range s.items {
		if iv.TimeFrameKey == key {
			return iv, nil
		}
	}
	return Interval{}, fmt.Errorf("%q: %w", key, ErrUnknownInterval)
}

// Range returns the [start, end] a host should fetch for the interval ending at now.
func (iv Interval) Range(now time.Time) (time.Time, time.Time) {
	return now.Add(-iv.TimeOffset), now
}
