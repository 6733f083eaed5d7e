package temporal

import (
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

// session owns the engine of one running chart workflow
type session struct {
	params  SessionParams
	engine  *chart.Engine
	pending string
	handled int
}

func newSession(params SessionParams) (*session, error) {
	// the workflow logger is replay-aware, the engine's is not
	engine, err := chart.New(params.Config, chart.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", params.ChartID, err)
	}

	if params.Interval != "" {
		if err := engine.SelectInterval(params.Interval); err != nil {
			return nil, fmt.Errorf("chart %s: %w", params.ChartID, err)
		}
	}
	if params.Series != nil {
		s, err := params.Series.ToSeries()
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", params.ChartID, err)
		}
		if err := engine.SetSeries(s); err != nil {
			return nil, fmt.Errorf("chart %s: %w", params.ChartID, err)
		}
	}
	if params.Transform != nil {
		if _, err := engine.SetTransform(*params.Transform); err != nil {
			return nil, fmt.Errorf("chart %s: %w", params.ChartID, err)
		}
	}

	s := &session{params: params, engine: engine}
	engine.OnIntervalRequested(func(key string) { s.pending = key })
	return s, nil
}

func (s *session) apply(in Input) (viewport.Outcome, error) {
	return Apply(s.engine, in)
}

// Apply feeds one input to an engine. Close is the caller's business and is
// reported as unknown here.
func Apply(e *chart.Engine, in Input) (viewport.Outcome, error) {
	switch in.Kind {
	case InputSeries:
		if in.Series == nil {
			return viewport.Ignored, fmt.Errorf("%s: %w", in.Kind, ErrMissingPayload)
		}
		ser, err := in.Series.ToSeries()
		if err != nil {
			return viewport.Rejected, err
		}
		if err := e.SetSeries(ser); err != nil {
			return viewport.Rejected, err
		}
		return viewport.Applied, nil
	case InputResize:
		if err := e.Resize(in.Width, in.Height); err != nil {
			return viewport.Rejected, err
		}
		return viewport.Applied, nil
	case InputPointerDown:
		return e.PointerDown(in.X, in.Y), nil
	case InputPointerMove:
		return e.PointerMove(in.X, in.Y), nil
	case InputPointerUp:
		return e.PointerUp(), nil
	case InputPointerLeave:
		return e.PointerLeave(), nil
	case InputWheel:
		return e.Wheel(in.X, in.DeltaY), nil
	case InputBlur:
		e.Blur()
		return viewport.Applied, nil
	case InputSelectInterval:
		if err := e.SelectInterval(in.Key); err != nil {
			return viewport.Rejected, err
		}
		return viewport.Applied, nil
	case InputTransform:
		if in.Transform == nil {
			return viewport.Ignored, fmt.Errorf("%s: %w", in.Kind, ErrMissingPayload)
		}
		return e.SetTransform(*in.Transform)
	default:
		return viewport.Ignored, fmt.Errorf("%w: %q", ErrUnknownInput, in.Kind)
	}
}

// snapshot returns the params a continued run starts from
func (s *session) snapshot() SessionParams {
	next := s.params
	next.Config.Width, next.Config.Height = s.engine.Size()
	next.Interval = ""
	if iv, ok := s.engine.Interval(); ok {
		next.Interval = iv.TimeFrameKey
	}
	next.Series = nil
	next.Transform = nil
	if ser := s.engine.Series(); !ser.Empty() {
		p := series.PayloadOf(ser)
		next.Series = &p
		t := s.engine.Transform()
		next.Transform = &t
	}
	return next
}

// ChartSessionWorkflow serialises the input of one chart and answers render
// queries with the latest frame
func ChartSessionWorkflow(ctx workflow.Context, params SessionParams) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting chart session", "chartID", params.ChartID)

	s, err := newSession(params)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid session params", "InvalidSession", err)
	}

	err = workflow.SetQueryHandler(ctx, RenderQueryName, func() (chart.View, error) {
		return s.engine.Frame().View(), nil
	})
	if err != nil {
		return err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// a fresh session without data fetches its default interval
	if params.Series == nil {
		if iv, ok := s.engine.Interval(); ok {
			s.pending = iv.TimeFrameKey
		}
	}
	s.load(ctx)

	inputs := workflow.GetSignalChannel(ctx, InputSignalName)
	for {
		var in Input
		inputs.Receive(ctx, &in)
		if in.Kind == InputClose {
			logger.Info("Closing chart session", "chartID", params.ChartID, "handled", s.handled)
			return nil
		}
		s.handle(ctx, in)

		if s.handled < params.threshold() {
			continue
		}

		// drain buffered signals so none are lost across the new run
		for {
			var next Input
			if !inputs.ReceiveAsync(&next) {
				break
			}
			if next.Kind == InputClose {
				return nil
			}
			s.handle(ctx, next)
		}
		logger.Info("Continuing as new", "chartID", params.ChartID, "handled", s.handled)
		return workflow.NewContinueAsNewError(ctx, ChartSessionWorkflow, s.snapshot())
	}
}

func (s *session) handle(ctx workflow.Context, in Input) {
	logger := workflow.GetLogger(ctx)
	s.handled++

	outcome, err := s.apply(in)
	if err != nil {
		logger.Warn("Rejected input", "kind", in.Kind, "error", err)
		return
	}
	logger.Debug("Applied input", "kind", in.Kind, "outcome", outcome.String())

	if in.Kind == InputSeries {
		err := workflow.ExecuteActivity(ctx, StoreSeriesActivityName, s.params.ChartID, *in.Series).Get(ctx, nil)
		if err != nil {
			logger.Error("Failed to store series", "chartID", s.params.ChartID, "error", err)
		}
	}
	s.load(ctx)
}

// load fetches the series for a requested interval. A failed load keeps the
// current frame.
func (s *session) load(ctx workflow.Context) {
	key := s.pending
	if key == "" {
		return
	}
	s.pending = ""

	logger := workflow.GetLogger(ctx)
	iv, err := s.engine.Intervals().Lookup(key)
	if err != nil {
		logger.Error("Interval vanished before load", "key", key, "error", err)
		return
	}

	req := LoadRequest{
		ChartID:   s.params.ChartID,
		Interval:  key,
		Kind:      s.params.Config.Kind,
		Unbounded: iv.TimeOffset <= 0,
	}
	req.Start, req.End = iv.Range(workflow.Now(ctx))

	var payload series.Payload
	if err := workflow.ExecuteActivity(ctx, LoadSeriesActivityName, req).Get(ctx, &payload); err != nil {
		logger.Error("Failed to load series", "chartID", s.params.ChartID, "interval", key, "error", err)
		return
	}

	ser, err := payload.ToSeries()
	if err == nil {
		err = s.engine.SetSeries(ser)
	}
	if err != nil {
		logger.Error("Loaded series rejected", "chartID", s.params.ChartID, "interval", key, "error", err)
		return
	}
	logger.Info("Loaded series", "chartID", s.params.ChartID, "interval", key, "count", ser.Len())
}
