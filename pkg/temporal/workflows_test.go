package temporal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

var sessionStart = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

// barsEndingAt returns n daily bars, newest one hour before end
func barsEndingAt(end time.Time, n int) series.Payload {
	bars := make([]series.Bar, n)
	for i := range bars {
		base := 50 + float64(i%11)
		bars[i] = series.Bar{
			Date:  end.Add(-time.Hour).AddDate(0, 0, i-n+1),
			Open:  base,
			High:  base + 2,
			Low:   base - 1,
			Close: base + 1,
		}
	}
	return series.Payload{Kind: series.KindBar, Bars: bars}
}

func intervalConfig() chart.Config {
	cfg := chart.DefaultConfig(series.KindBar)
	cfg.Intervals = []series.Interval{
		{Title: "1M", TimeFrameKey: "1m", TimeOffset: 30 * 24 * time.Hour, IsDefault: true},
		{Title: "1Y", TimeFrameKey: "1y", TimeOffset: 365 * 24 * time.Hour},
	}
	return cfg
}

type SessionWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env    *testsuite.TestWorkflowEnvironment
	source *MemorySeriesSource
}

func TestSessionWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(SessionWorkflowTestSuite))
}

func (s *SessionWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.SetStartTime(sessionStart)
	s.source = NewMemorySeriesSource()

	acts := NewChartActivities(discardLogger(), s.source)
	s.env.RegisterActivityWithOptions(acts.LoadSeriesActivity, activity.RegisterOptions{Name: LoadSeriesActivityName})
	s.env.RegisterActivityWithOptions(acts.StoreSeriesActivity, activity.RegisterOptions{Name: StoreSeriesActivityName})
}

func (s *SessionWorkflowTestSuite) signalAt(d time.Duration, in Input) {
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(InputSignalName, in)
	}, d)
}

func (s *SessionWorkflowTestSuite) renderAt(d time.Duration, check func(v chart.View)) {
	s.env.RegisterDelayedCallback(func() {
		value, err := s.env.QueryWorkflow(RenderQueryName)
		s.Require().NoError(err)
		var view chart.View
		s.Require().NoError(value.Get(&view))
		check(view)
	}, d)
}

func (s *SessionWorkflowTestSuite) TestSeriesAndWheel() {
	payload := barsEndingAt(sessionStart, 40)

	s.signalAt(time.Millisecond, Input{Kind: InputSeries, Series: &payload})
	s.signalAt(2*time.Millisecond, Input{Kind: InputWheel, X: 300, DeltaY: -1})
	s.renderAt(3*time.Millisecond, func(v chart.View) {
		s.False(v.Empty)
		s.Greater(v.Transform.K, 1.0)
		s.Less(v.Window.Len(), 40)
		s.NotEmpty(v.Primitives.Candles)
	})
	s.signalAt(4*time.Millisecond, Input{Kind: InputClose})

	s.env.ExecuteWorkflow(ChartSessionWorkflow, SessionParams{
		ChartID: "c1",
		Config:  chart.DefaultConfig(series.KindBar),
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal(40, s.source.Count("c1"))
}

func (s *SessionWorkflowTestSuite) TestIntervalLoadsFromSource() {
	s.Require().NoError(s.source.StoreSeries(context.Background(), "c2", barsEndingAt(sessionStart, 400)))

	s.renderAt(time.Millisecond, func(v chart.View) {
		s.Equal("1m", v.Interval)
		s.Equal(30, v.Window.Len())
	})
	s.signalAt(2*time.Millisecond, Input{Kind: InputWheel, X: 300, DeltaY: -1})
	s.signalAt(3*time.Millisecond, Input{Kind: InputSelectInterval, Key: "1y"})
	s.renderAt(4*time.Millisecond, func(v chart.View) {
		s.Equal("1y", v.Interval)
		s.Equal(365, v.Window.Len())
		s.Equal(viewport.Identity(), v.Transform)
	})
	s.signalAt(5*time.Millisecond, Input{Kind: InputClose})

	s.env.ExecuteWorkflow(ChartSessionWorkflow, SessionParams{ChartID: "c2", Config: intervalConfig()})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *SessionWorkflowTestSuite) TestMissingSeriesKeepsEmptyFrame() {
	s.renderAt(time.Millisecond, func(v chart.View) {
		s.True(v.Empty)
		s.Equal("1m", v.Interval)
	})
	s.signalAt(2*time.Millisecond, Input{Kind: InputClose})

	s.env.ExecuteWorkflow(ChartSessionWorkflow, SessionParams{ChartID: "nobody", Config: intervalConfig()})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *SessionWorkflowTestSuite) TestBadInputDoesNotStopSession() {
	s.signalAt(time.Millisecond, Input{Kind: "bogus"})
	s.signalAt(2*time.Millisecond, Input{Kind: InputResize, Width: -5, Height: 10})
	s.renderAt(3*time.Millisecond, func(v chart.View) {
		s.Equal(600.0, v.Width)
	})
	s.signalAt(4*time.Millisecond, Input{Kind: InputClose})

	s.env.ExecuteWorkflow(ChartSessionWorkflow, SessionParams{
		ChartID: "c3",
		Config:  chart.DefaultConfig(series.KindBar),
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *SessionWorkflowTestSuite) TestContinueAsNew() {
	payload := barsEndingAt(sessionStart, 40)
	s.signalAt(time.Millisecond, Input{Kind: InputPointerMove, X: 10, Y: 10})
	s.signalAt(2*time.Millisecond, Input{Kind: InputPointerMove, X: 20, Y: 10})

	s.env.ExecuteWorkflow(ChartSessionWorkflow, SessionParams{
		ChartID:   "c4",
		Config:    chart.DefaultConfig(series.KindBar),
		Series:    &payload,
		Threshold: 2,
	})

	s.True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Require().Error(err)
	var can *workflow.ContinueAsNewError
	s.True(errors.As(err, &can))
}

func (s *SessionWorkflowTestSuite) TestInvalidParams() {
	cfg := chart.DefaultConfig(series.KindBar)
	cfg.Width = -1

	s.env.ExecuteWorkflow(ChartSessionWorkflow, SessionParams{ChartID: "bad", Config: cfg})

	s.True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Require().Error(err)
	var appErr *temporal.ApplicationError
	s.Require().True(errors.As(err, &appErr))
	s.Equal("InvalidSession", appErr.Type())
}

func TestSessionSnapshotRestores(t *testing.T) {
	payload := barsEndingAt(sessionStart, 60)
	s, err := newSession(SessionParams{ChartID: "snap", Config: intervalConfig(), Series: &payload})
	require.NoError(t, err)

	_, err = s.apply(Input{Kind: InputResize, Width: 900, Height: 400})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = s.apply(Input{Kind: InputWheel, X: 450, DeltaY: -1})
		require.NoError(t, err)
	}
	_, err = s.apply(Input{Kind: InputSelectInterval, Key: "1y"})
	require.NoError(t, err)
	assert.Equal(t, "1y", s.pending)
	for i := 0; i < 3; i++ {
		_, err = s.apply(Input{Kind: InputWheel, X: 450, DeltaY: -1})
		require.NoError(t, err)
	}

	snap := s.snapshot()
	assert.Equal(t, 900.0, snap.Config.Width)
	assert.Equal(t, 400.0, snap.Config.Height)
	assert.Equal(t, "1y", snap.Interval)
	require.NotNil(t, snap.Series)
	assert.Len(t, snap.Series.Bars, 60)
	require.NotNil(t, snap.Transform)

	restored, err := newSession(snap)
	require.NoError(t, err)
	assert.Equal(t, s.engine.Transform(), restored.engine.Transform())
	assert.Equal(t, s.engine.Frame().Window, restored.engine.Frame().Window)
	assert.Empty(t, restored.pending)
}

func TestSessionApplyErrors(t *testing.T) {
	s, err := newSession(SessionParams{ChartID: "e", Config: chart.DefaultConfig(series.KindBar)})
	require.NoError(t, err)

	_, err = s.apply(Input{Kind: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownInput)

	_, err = s.apply(Input{Kind: InputSeries})
	assert.ErrorIs(t, err, ErrMissingPayload)

	_, err = s.apply(Input{Kind: InputTransform})
	assert.ErrorIs(t, err, ErrMissingPayload)

	points := series.Payload{Kind: series.KindPoint, Points: []series.Point{{Date: sessionStart, Value: 1}}}
	_, err = s.apply(Input{Kind: InputSeries, Series: &points})
	assert.ErrorIs(t, err, chart.ErrKindMismatch)

	_, err = s.apply(Input{Kind: InputSelectInterval, Key: "nope"})
	assert.ErrorIs(t, err, series.ErrUnknownInterval)

	outcome, err := s.apply(Input{Kind: InputPointerUp})
	require.NoError(t, err)
	assert.Equal(t, viewport.Ignored, outcome)
}

func TestInputKindValid(t *testing.T) {
	for _, k := range []InputKind{InputSeries, InputWheel, InputClose, InputTransform} {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, InputKind("zoom").Valid())
	assert.False(t, InputKind("").Valid())
}
