// Package ticks plans date-axis labels for the visible part of a series.
package ticks

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownPolicy = errors.New("unknown tick policy")

// Tick is one labelled position on the date axis. Index is relative to the
// dates handed to Plan.
type Tick struct {
	Date    time.Time `json:"date"`
	Index   int       `json:"index"`
	Label   string    `json:"label"`
	Primary bool      `json:"primary"`
	Anchor  bool      `json:"anchor"`
}

// Plan is an ordered tick sequence
type Plan []Tick

// Indices returns the index of every tick
func (p Plan) Indices() []int {
	out := make([]int, len(p))
	for i, t := range p {
		out[i] = t.Index
	}
	return out
}

// Labels returns the label of every tick
func (p Plan) Labels() []string {
	out := make([]string, len(p))
	for i, t := range p {
		out[i] = t.Label
	}
	return out
}

// Offset shifts every index by n, turning window-relative ticks into
// series indices.
func (p Plan) Offset(n int) Plan {
	out := make(Plan, len(p))
	for i, t := range p {
		t.Index += n
		out[i] = t
	}
	return out
}

// Planner picks ticks for ascending dates laid out across width pixels
type Planner interface {
	Plan(dates []time.Time, width float64) Plan
}

// Policy names a tick planner
type Policy string

const (
	PolicyDensity  Policy = "density"
	PolicyCalendar Policy = "calendar"
)

// Options configures NewPlanner
type Options struct {
	Policy          Policy         `json:"policy" yaml:"policy"`
	PixelFrequency  float64        `json:"pixel_frequency" yaml:"pixel_frequency"`
	MinLabelSpacing float64        `json:"min_label_spacing" yaml:"min_label_spacing"`
	Timezone        string         `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Location        *time.Location `json:"-" yaml:"-"`
	Bounds          RegimeBounds   `json:"regime_bounds" yaml:"regime_bounds"`
}

// DefaultOptions returns a density planner labelling about every 80px
func DefaultOptions() Options {
	return Options{
		Policy:          PolicyDensity,
		PixelFrequency:  80,
		MinLabelSpacing: 48,
		Location:        time.UTC,
		Bounds:          DefaultRegimeBounds(),
	}
}

// NewPlanner builds the planner named by opts.Policy
func NewPlanner(opts Options) (Planner, error) {
	loc, err := opts.location()
	if err != nil {
		return nil, err
	}

	switch opts.Policy {
	case PolicyDensity, "":
		if opts.PixelFrequency <= 0 {
			return nil, fmt.Errorf("pixel frequency must be positive, got %v", opts.PixelFrequency)
		}
		return DensityPlanner{PixelFrequency: opts.PixelFrequency, Location: loc}, nil
	case PolicyCalendar:
		if opts.MinLabelSpacing < 0 {
			return nil, fmt.Errorf("min label spacing must not be negative, got %v", opts.MinLabelSpacing)
		}
		if err := opts.Bounds.Validate(); err != nil {
			return nil, err
		}
		return CalendarPlanner{
			Bounds:          opts.Bounds,
			MinLabelSpacing: opts.MinLabelSpacing,
			Location:        loc,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, opts.Policy)
	}
}

// location prefers an explicit Location over the Timezone name
func (o Options) location() (*time.Location, error) {
	if o.Location != nil {
		return o.Location, nil
	}
	if o.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", o.Timezone, err)
	}
	return loc, nil
}
