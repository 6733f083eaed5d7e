package temporal

import (
	"errors"
	"time"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

const (
	// Workflow IDs
	SessionWorkflowIDPrefix = "chart-"

	// Task queue shared by the worker and the session client
	TaskQueue = "chart-task-queue"

	// Signal and query names
	InputSignalName = "chart-input"
	RenderQueryName = "render"

	// Activity names
	LoadSeriesActivityName  = "load-series"
	StoreSeriesActivityName = "store-series"

	// Default values
	DefaultContinueAsNewThreshold = 2000 // inputs before ContinueAsNew
)

var (
	ErrUnknownInput   = errors.New("unknown input kind")
	ErrMissingPayload = errors.New("input is missing its payload")
	ErrSeriesNotFound = errors.New("series not found")
)

// InputKind names one host event delivered to a chart session
type InputKind string

const (
	InputSeries         InputKind = "series"
	InputResize         InputKind = "resize"
	InputPointerDown    InputKind = "pointer_down"
	InputPointerMove    InputKind = "pointer_move"
	InputPointerUp      InputKind = "pointer_up"
	InputPointerLeave   InputKind = "pointer_leave"
	InputWheel          InputKind = "wheel"
	InputBlur           InputKind = "blur"
	InputSelectInterval InputKind = "select_interval"
	InputTransform      InputKind = "transform"
	InputClose          InputKind = "close"
)

// Valid reports whether k is a known input kind
func (k InputKind) Valid() bool {
	switch k {
	case InputSeries, InputResize, InputPointerDown, InputPointerMove, InputPointerUp,
		InputPointerLeave, InputWheel, InputBlur, InputSelectInterval, InputTransform, InputClose:
		return true
	}
	return false
}

// Input is the signal payload. Only the fields relevant to Kind are read.
type Input struct {
	Kind      InputKind           `json:"kind"`
	X         float64             `json:"x,omitempty"`
	Y         float64             `json:"y,omitempty"`
	DeltaY    float64             `json:"delta_y,omitempty"`
	Width     float64             `json:"width,omitempty"`
	Height    float64             `json:"height,omitempty"`
	Key       string              `json:"key,omitempty"`
	Series    *series.Payload     `json:"series,omitempty"`
	Transform *viewport.Transform `json:"transform,omitempty"`
}

// SessionParams starts (or continues) a chart session
type SessionParams struct {
	ChartID   string              `json:"chart_id"`
	Config    chart.Config        `json:"config"`
	Interval  string              `json:"interval,omitempty"`
	Series    *series.Payload     `json:"series,omitempty"`
	Transform *viewport.Transform `json:"transform,omitempty"`
	Threshold int                 `json:"threshold,omitempty"`
}

func (p SessionParams) threshold() int {
	if p.Threshold > 0 {
		return p.Threshold
	}
	return DefaultContinueAsNewThreshold
}

// LoadRequest asks the series source for one interval's worth of data
type LoadRequest struct {
	ChartID  string      `json:"chart_id"`
	Interval string      `json:"interval"`
	Kind     series.Kind `json:"kind"`
	Start    time.Time   `json:"start"`
	End      time.Time   `json:"end"`
	// Unbounded requests return the full history
	Unbounded bool `json:"unbounded,omitempty"`
}

// SessionWorkflowID returns the workflow ID of a chart's session
func SessionWorkflowID(chartID string) string {
	return SessionWorkflowIDPrefix + chartID
}
