package chart

import (
	"errors"
	"fmt"

	"github.com/leowmjw/go-chart-viewport/pkg/scale"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/ticks"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

var (
	ErrInvalidConfig = errors.New("invalid chart config")
	ErrInvalidSize   = errors.New("chart size must be positive")
	ErrKindMismatch  = errors.New("series kind does not match chart kind")
)

// Headroom widens the y domain around the data. Base factors apply to the
// whole series, Visible factors to the items on screen.
type Headroom struct {
	BaseLow     float64 `json:"base_low" yaml:"base_low"`
	BaseHigh    float64 `json:"base_high" yaml:"base_high"`
	VisibleLow  float64 `json:"visible_low" yaml:"visible_low"`
	VisibleHigh float64 `json:"visible_high" yaml:"visible_high"`
	Nice        bool    `json:"nice" yaml:"nice"`
}

func (h Headroom) base() scale.LinearOptions {
	return scale.LinearOptions{HeadroomLow: h.BaseLow, HeadroomHigh: h.BaseHigh, Nice: h.Nice, Flip: true}
}

func (h Headroom) visible() scale.LinearOptions {
	return scale.LinearOptions{HeadroomLow: h.VisibleLow, HeadroomHigh: h.VisibleHigh, Nice: h.Nice, Flip: true}
}

func (h Headroom) validate() error {
	for _, f := range []float64{h.BaseLow, h.BaseHigh, h.VisibleLow, h.VisibleHigh} {
		if f < 0 {
			return fmt.Errorf("%w: negative headroom factor %v", ErrInvalidConfig, f)
		}
	}
	return nil
}

// DefaultHeadroom returns the stock factors for a series kind
func DefaultHeadroom(kind series.Kind) Headroom {
	if kind == series.KindPoint {
		return Headroom{BaseLow: 0.95, BaseHigh: 1.05, VisibleLow: 0.95, VisibleHigh: 1.05, Nice: true}
	}
	return Headroom{BaseLow: 0.98, BaseHigh: 1.02, VisibleLow: 0.99, VisibleHigh: 1.01}
}

// Config describes one chart
type Config struct {
	Kind       series.Kind       `json:"kind" yaml:"kind"`
	Width      float64           `json:"width" yaml:"width"`
	Height     float64           `json:"height" yaml:"height"`
	Limits     viewport.Limits   `json:"viewport" yaml:"viewport"`
	Band       scale.BandOptions `json:"band" yaml:"band"`
	Ticks      ticks.Options     `json:"ticks" yaml:"ticks"`
	Headroom   Headroom          `json:"headroom" yaml:"headroom"`
	YTickCount int               `json:"y_tick_count" yaml:"y_tick_count"`
	Intervals  []series.Interval `json:"intervals" yaml:"intervals"`
}

// DefaultConfig returns a 600x300 chart of kind
func DefaultConfig(kind series.Kind) Config {
	return Config{
		Kind:       kind,
		Width:      600,
		Height:     300,
		Limits:     viewport.DefaultLimits(),
		Band:       scale.BandOptions{Inner: 0.3, Outer: 0.5, Align: 0.5},
		Ticks:      ticks.DefaultOptions(),
		Headroom:   DefaultHeadroom(kind),
		YTickCount: 6,
	}
}

// Validate checks every section of the config
func (c Config) Validate() error {
	if c.Kind != series.KindBar && c.Kind != series.KindPoint {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, c.Kind)
	}
	if !(c.Width > 0) || !(c.Height > 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidSize, c.Width, c.Height)
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if err := c.Band.Validate(); err != nil {
		return err
	}
	if _, err := ticks.NewPlanner(c.Ticks); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Headroom.validate(); err != nil {
		return err
	}
	if c.YTickCount < 0 {
		return fmt.Errorf("%w: y tick count %d", ErrInvalidConfig, c.YTickCount)
	}
	if _, err := series.NewIntervalSet(c.Intervals); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
