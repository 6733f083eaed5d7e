package hcl

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"gopkg.in/yaml.v3"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/ticks"
)

// ChartFile is the file form of a chart config. The same structure is
// decoded from HCL, JSON and YAML; unset fields keep the kind's defaults.
type ChartFile struct {
	Kind       string          `hcl:"kind" json:"kind" yaml:"kind"`
	Width      *float64        `hcl:"width,optional" json:"width,omitempty" yaml:"width,omitempty"`
	Height     *float64        `hcl:"height,optional" json:"height,omitempty" yaml:"height,omitempty"`
	YTickCount *int            `hcl:"y_tick_count,optional" json:"y_tick_count,omitempty" yaml:"y_tick_count,omitempty"`
	Viewport   *ViewportBlock  `hcl:"viewport,block" json:"viewport,omitempty" yaml:"viewport,omitempty"`
	Band       *BandBlock      `hcl:"band,block" json:"band,omitempty" yaml:"band,omitempty"`
	Ticks      *TicksBlock     `hcl:"ticks,block" json:"ticks,omitempty" yaml:"ticks,omitempty"`
	Headroom   *HeadroomBlock  `hcl:"headroom,block" json:"headroom,omitempty" yaml:"headroom,omitempty"`
	Intervals  []IntervalBlock `hcl:"interval,block" json:"intervals,omitempty" yaml:"intervals,omitempty"`
}

// ViewportBlock bounds zoom and pan
type ViewportBlock struct {
	MinScale   *float64 `hcl:"min_scale,optional" json:"min_scale,omitempty" yaml:"min_scale,omitempty"`
	MaxScale   *float64 `hcl:"max_scale,optional" json:"max_scale,omitempty" yaml:"max_scale,omitempty"`
	MinVisible *int     `hcl:"min_visible,optional" json:"min_visible,omitempty" yaml:"min_visible,omitempty"`
	ZoomIn     *float64 `hcl:"zoom_in_factor,optional" json:"zoom_in_factor,omitempty" yaml:"zoom_in_factor,omitempty"`
	ZoomOut    *float64 `hcl:"zoom_out_factor,optional" json:"zoom_out_factor,omitempty" yaml:"zoom_out_factor,omitempty"`
}

// BandBlock sets slot padding of the date axis
type BandBlock struct {
	InnerPadding *float64 `hcl:"inner_padding,optional" json:"inner_padding,omitempty" yaml:"inner_padding,omitempty"`
	OuterPadding *float64 `hcl:"outer_padding,optional" json:"outer_padding,omitempty" yaml:"outer_padding,omitempty"`
	Align        *float64 `hcl:"align,optional" json:"align,omitempty" yaml:"align,omitempty"`
}

// TicksBlock selects and tunes the date tick planner
type TicksBlock struct {
	Policy          *string            `hcl:"policy,optional" json:"policy,omitempty" yaml:"policy,omitempty"`
	PixelFrequency  *float64           `hcl:"pixel_frequency,optional" json:"pixel_frequency,omitempty" yaml:"pixel_frequency,omitempty"`
	MinLabelSpacing *float64           `hcl:"min_label_spacing,optional" json:"min_label_spacing,omitempty" yaml:"min_label_spacing,omitempty"`
	Timezone        *string            `hcl:"timezone,optional" json:"timezone,omitempty" yaml:"timezone,omitempty"`
	RegimeBounds    *RegimeBoundsBlock `hcl:"regime_bounds,block" json:"regime_bounds,omitempty" yaml:"regime_bounds,omitempty"`
}

// RegimeBoundsBlock holds durations such as "24h" or days(30)
type RegimeBoundsBlock struct {
	SubDaily *string `hcl:"sub_daily,optional" json:"sub_daily,omitempty" yaml:"sub_daily,omitempty"`
	Daily    *string `hcl:"daily,optional" json:"daily,omitempty" yaml:"daily,omitempty"`
	Weekly   *string `hcl:"weekly,optional" json:"weekly,omitempty" yaml:"weekly,omitempty"`
}

// HeadroomBlock holds [low, high] factor pairs
type HeadroomBlock struct {
	Base    []float64 `hcl:"base,optional" json:"base,omitempty" yaml:"base,omitempty"`
	Visible []float64 `hcl:"visible,optional" json:"visible,omitempty" yaml:"visible,omitempty"`
	Nice    *bool     `hcl:"nice,optional" json:"nice,omitempty" yaml:"nice,omitempty"`
}

// IntervalBlock is one selectable interval
type IntervalBlock struct {
	Title   string `hcl:"title,label" json:"title" yaml:"title"`
	Key     string `hcl:"key" json:"key" yaml:"key"`
	Offset  string `hcl:"offset" json:"offset" yaml:"offset"`
	Default *bool  `hcl:"default,optional" json:"default,omitempty" yaml:"default,omitempty"`
}

// ParseChartConfig parses HCL content into a validated chart config
func ParseChartConfig(hclContent string) (chart.Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(hclContent), "chart.hcl")
	if diags.HasErrors() {
		return chart.Config{}, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return parseChartFromFile(file)
}

// parseChartFromFile decodes an already parsed HCL file
func parseChartFromFile(file *hcl.File) (chart.Config, error) {
	var cf ChartFile
	diags := gohcl.DecodeBody(file.Body, evalContext(), &cf)
	if diags.HasErrors() {
		return chart.Config{}, fmt.Errorf("failed to decode HCL body: %s", diags.Error())
	}
	return cf.ToConfig()
}

// ParseChartConfigJSON parses a JSON chart config
func ParseChartConfigJSON(data []byte) (chart.Config, error) {
	var cf ChartFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return chart.Config{}, fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return cf.ToConfig()
}

// ParseChartConfigYAML parses a YAML chart config
func ParseChartConfigYAML(data []byte) (chart.Config, error) {
	var cf ChartFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return chart.Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return cf.ToConfig()
}

// ParseChartConfigBytes dispatches on a content type from DetectContentType
func ParseChartConfigBytes(data []byte, contentType string) (chart.Config, error) {
	switch contentType {
	case ContentTypeHCL:
		return ParseChartConfig(string(data))
	case ContentTypeYAML:
		return ParseChartConfigYAML(data)
	default:
		return ParseChartConfigJSON(data)
	}
}

// ToConfig overlays the file onto the defaults for its kind and validates
// the result.
func (cf ChartFile) ToConfig() (chart.Config, error) {
	kind := series.Kind(cf.Kind)
	cfg := chart.DefaultConfig(kind)

	setFloat(&cfg.Width, cf.Width)
	setFloat(&cfg.Height, cf.Height)
	if cf.YTickCount != nil {
		cfg.YTickCount = *cf.YTickCount
	}

	if v := cf.Viewport; v != nil {
		setFloat(&cfg.Limits.KMin, v.MinScale)
		setFloat(&cfg.Limits.KMax, v.MaxScale)
		setFloat(&cfg.Limits.ZoomIn, v.ZoomIn)
		setFloat(&cfg.Limits.ZoomOut, v.ZoomOut)
		if v.MinVisible != nil {
			cfg.Limits.MinVisible = *v.MinVisible
		}
	}

	if b := cf.Band; b != nil {
		setFloat(&cfg.Band.Inner, b.InnerPadding)
		setFloat(&cfg.Band.Outer, b.OuterPadding)
		setFloat(&cfg.Band.Align, b.Align)
	}

	if t := cf.Ticks; t != nil {
		if err := t.apply(&cfg.Ticks); err != nil {
			return chart.Config{}, err
		}
	}

	if h := cf.Headroom; h != nil {
		if err := h.apply(&cfg.Headroom); err != nil {
			return chart.Config{}, err
		}
	}

	for _, block := range cf.Intervals {
		iv, err := series.ParseIntervalSpec(series.IntervalSpec{
			Title:        block.Title,
			TimeFrameKey: block.Key,
			Offset:       block.Offset,
			IsDefault:    block.Default != nil && *block.Default,
		})
		if err != nil {
			return chart.Config{}, err
		}
		cfg.Intervals = append(cfg.Intervals, iv)
	}

	if err := cfg.Validate(); err != nil {
		return chart.Config{}, fmt.Errorf("invalid chart config: %w", err)
	}
	return cfg, nil
}

func (t *TicksBlock) apply(opts *ticks.Options) error {
	if t.Policy != nil {
		opts.Policy = ticks.Policy(*t.Policy)
	}
	setFloat(&opts.PixelFrequency, t.PixelFrequency)
	setFloat(&opts.MinLabelSpacing, t.MinLabelSpacing)
	if t.Timezone != nil {
		loc, err := time.LoadLocation(*t.Timezone)
		if err != nil {
			return fmt.Errorf("failed to load timezone %q: %w", *t.Timezone, err)
		}
		opts.Timezone = *t.Timezone
		opts.Location = loc
	}
	if rb := t.RegimeBounds; rb != nil {
		for _, f := range []struct {
			raw *string
			dst *time.Duration
		}{
			{rb.SubDaily, &opts.Bounds.SubDaily},
			{rb.Daily, &opts.Bounds.Daily},
			{rb.Weekly, &opts.Bounds.Weekly},
		} {
			if f.raw == nil {
				continue
			}
			d, err := time.ParseDuration(*f.raw)
			if err != nil {
				return fmt.Errorf("invalid regime bound: %w", err)
			}
			*f.dst = d
		}
	}
	return nil
}

func (h *HeadroomBlock) apply(dst *chart.Headroom) error {
	if h.Base != nil {
		if len(h.Base) != 2 {
			return fmt.Errorf("headroom base needs [low, high], got %d values", len(h.Base))
		}
		dst.BaseLow, dst.BaseHigh = h.Base[0], h.Base[1]
	}
	if h.Visible != nil {
		if len(h.Visible) != 2 {
			return fmt.Errorf("headroom visible needs [low, high], got %d values", len(h.Visible))
		}
		dst.VisibleLow, dst.VisibleHigh = h.Visible[0], h.Visible[1]
	}
	if h.Nice != nil {
		dst.Nice = *h.Nice
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// evalContext provides days(n) and hours(n), returning duration strings.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"days":  durationFunc(24 * time.Hour),
			"hours": durationFunc(time.Hour),
		},
	}
}

func durationFunc(unit time.Duration) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name: "n",
				Type: cty.Number,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			n, _ := args[0].AsBigFloat().Float64()
			if math.IsNaN(n) || n < 0 {
				return cty.NilVal, fmt.Errorf("duration must not be negative, got %v", n)
			}
			return cty.StringVal(time.Duration(n * float64(unit)).String()), nil
		},
	})
}

// IsHCL attempts to detect if the given content is in HCL format
func IsHCL(content []byte) bool {
	_, diags := hclsyntax.ParseConfig(content, "", hcl.Pos{Line: 1, Column: 1})
	return !diags.HasErrors()
}
