package chart

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/leowmjw/go-chart-viewport/pkg/scale"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func makeBars(n int) series.Series {
	bars := make([]series.Bar, n)
	for i := range bars {
		base := 100 + float64(i%17)
		bars[i] = series.Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  base,
			High:  base + 3,
			Low:   base - 2,
			Close: base + float64(i%3) - 1,
		}
	}
	s, err := series.NewBarSeries(bars)
	if err != nil {
		panic(err)
	}
	return s
}

func makePoints(values ...float64) series.Series {
	points := make([]series.Point, len(values))
	for i, v := range values {
		points[i] = series.Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	s, err := series.NewPointSeries(points)
	if err != nil {
		panic(err)
	}
	return s
}

type EngineTestSuite struct {
	suite.Suite
	engine    *Engine
	requested []string
}

func (s *EngineTestSuite) SetupTest() {
	cfg := DefaultConfig(series.KindBar)
	cfg.Band = scale.BandOptions{}
	cfg.Intervals = []series.Interval{
		{Title: "1D", TimeFrameKey: "1d", TimeOffset: 24 * time.Hour},
		{Title: "1M", TimeFrameKey: "1m", TimeOffset: 30 * 24 * time.Hour, IsDefault: true},
		{Title: "1Y", TimeFrameKey: "1y", TimeOffset: 365 * 24 * time.Hour},
	}

	engine, err := New(cfg)
	s.Require().NoError(err)
	s.engine = engine
	s.requested = nil
	s.engine.OnIntervalRequested(func(key string) {
		s.requested = append(s.requested, key)
	})
}

func (s *EngineTestSuite) TestEmptyFrame() {
	f := s.engine.Frame()
	s.True(f.Empty)
	s.Nil(f.Items())
	s.Equal(viewport.Ignored, s.engine.Wheel(300, -1))
	s.Equal(viewport.Ignored, s.engine.PointerDown(10, 10))

	s.Require().NoError(s.engine.SetSeries(makeBars(0)))
	s.True(s.engine.Frame().Empty)
}

func (s *EngineTestSuite) TestSetSeriesBuildsFrame() {
	s.Require().NoError(s.engine.SetSeries(makeBars(40)))
	f := s.engine.Frame()

	s.False(f.Empty)
	s.Equal(viewport.Window{Start: 0, End: 40}, f.Window)
	s.Len(f.Items(), 40)
	s.Len(f.Primitives.Candles, 40)
	s.Require().NotEmpty(f.XTicks)
	s.Equal(0, f.XTicks[0].Index)
	s.Equal(39, f.XTicks[len(f.XTicks)-1].Index)
	s.NotEmpty(f.YTicks)

	lo, hi := f.Y.Domain()
	s.InDelta(98*0.99, lo, 1e-9)
	s.InDelta(119*1.01, hi, 1e-9)
	baseLo, baseHi := f.BaseY.Domain()
	s.InDelta(98*0.98, baseLo, 1e-9)
	s.InDelta(119*1.02, baseHi, 1e-9)

	for _, tick := range f.YTicks {
		s.GreaterOrEqual(tick.Y, 0.0)
		s.LessOrEqual(tick.Y, f.Height)
	}
}

func (s *EngineTestSuite) TestKindMismatch() {
	err := s.engine.SetSeries(makePoints(1, 2, 3))
	s.ErrorIs(err, ErrKindMismatch)
	s.True(s.engine.Frame().Empty)
}

func (s *EngineTestSuite) TestZoomInStopsAtMinimum() {
	s.Require().NoError(s.engine.SetSeries(makeBars(30)))
	for i := 0; i < 100; i++ {
		s.engine.Wheel(0, -1)
		s.GreaterOrEqual(s.engine.Frame().Window.Len(), 12)
	}
	s.Equal(12, s.engine.Frame().Window.Len())
	s.Len(s.engine.Frame().Primitives.Candles, 12)
}

func (s *EngineTestSuite) TestDragStopsAtLastBar() {
	s.Require().NoError(s.engine.SetSeries(makeBars(100)))
	_, err := s.engine.SetTransform(viewport.Transform{X: -491, K: 2})
	s.Require().NoError(err)

	s.engine.PointerDown(600, 100)
	s.True(s.engine.Dragging())
	s.Equal(viewport.Clamped, s.engine.PointerMove(0, 100))
	s.engine.PointerUp()

	f := s.engine.Frame()
	s.Equal(viewport.Transform{X: -600, K: 2}, f.Transform)
	s.Equal(100, f.Window.End)
	s.False(f.Window.HasMoreRight)
	s.InDelta(594, f.X.Center(99), 1e-9)
}

func (s *EngineTestSuite) TestHoverTracksPointer() {
	s.Require().NoError(s.engine.SetSeries(makeBars(20)))
	x := s.engine.Frame().X.Center(5)

	s.engine.PointerMove(x, 150)
	hover := s.engine.Frame().Hover
	s.Require().NotNil(hover)
	s.Equal(5, hover.Index)
	s.Equal(s.engine.Series().At(5), hover.Datum)
	s.InDelta(x, hover.X, 1e-9)
	s.Equal(viewport.Pointer{X: x, Y: 150}, hover.Crosshair)
	s.InDelta(s.engine.Frame().Y.Invert(150), hover.Value, 1e-9)

	s.engine.PointerMove(-5, 150)
	s.Nil(s.engine.Frame().Hover, "left of the first slot")

	s.engine.PointerMove(x, 150)
	s.engine.PointerLeave()
	s.Nil(s.engine.Frame().Hover)
}

func (s *EngineTestSuite) TestHoverUsesZoomedSlots() {
	s.Require().NoError(s.engine.SetSeries(makeBars(100)))
	_, err := s.engine.SetTransform(viewport.Transform{X: -300, K: 2})
	s.Require().NoError(err)

	f := s.engine.Frame()
	s.engine.PointerMove(f.X.Center(60), 10)
	s.Require().NotNil(s.engine.Frame().Hover)
	s.Equal(60, s.engine.Frame().Hover.Index)

	s.engine.PointerMove(f.X.Center(10), 10)
	s.Nil(s.engine.Frame().Hover, "index 10 is scrolled out of view")
}

func (s *EngineTestSuite) TestShorterSeriesRefitsScale() {
	s.Require().NoError(s.engine.SetSeries(makeBars(1000)))
	_, err := s.engine.SetTransform(viewport.Transform{X: 0, K: 30})
	s.Require().NoError(err)
	s.Require().GreaterOrEqual(s.engine.Frame().Window.Len(), 12)

	s.Require().NoError(s.engine.SetSeries(makeBars(60)))
	f := s.engine.Frame()
	s.GreaterOrEqual(f.Window.Len(), 12)
	s.Less(f.Transform.K, 30.0)
	s.GreaterOrEqual(f.Transform.K, 1.0)
}

func (s *EngineTestSuite) TestResizeKeepsTransform() {
	s.Require().NoError(s.engine.SetSeries(makeBars(100)))
	_, err := s.engine.SetTransform(viewport.Transform{X: -300, K: 2})
	s.Require().NoError(err)
	before := s.engine.Frame().Window

	s.Require().NoError(s.engine.Resize(300, 200))
	f := s.engine.Frame()
	s.Equal(2.0, f.Transform.K)
	s.Equal(-150.0, f.Transform.X)
	s.Equal(before, f.Window)
	s.Equal(200.0, f.Height)

	s.ErrorIs(s.engine.Resize(0, 200), ErrInvalidSize)
	s.ErrorIs(s.engine.Resize(300, math.NaN()), ErrInvalidSize)
}

func (s *EngineTestSuite) TestSelectIntervalResets() {
	iv, ok := s.engine.Interval()
	s.Require().True(ok)
	s.Equal("1m", iv.TimeFrameKey)

	s.Require().NoError(s.engine.SetSeries(makeBars(100)))
	s.engine.Wheel(300, -1)
	s.engine.PointerDown(100, 10)
	s.NotEqual(viewport.Identity(), s.engine.Transform())

	s.Require().NoError(s.engine.SelectInterval("1y"))
	s.Equal(viewport.Identity(), s.engine.Transform())
	s.False(s.engine.Dragging())
	s.Equal([]string{"1y"}, s.requested)

	s.Require().NoError(s.engine.SelectInterval("1y"))
	s.Len(s.requested, 1, "reselecting is a no-op")

	s.ErrorIs(s.engine.SelectInterval("5y"), series.ErrUnknownInterval)
}

func (s *EngineTestSuite) TestGenerationAdvances() {
	g0 := s.engine.Frame().Generation
	s.Require().NoError(s.engine.SetSeries(makeBars(50)))
	g1 := s.engine.Frame().Generation
	s.engine.Wheel(300, -1)
	g2 := s.engine.Frame().Generation

	s.Greater(g1, g0)
	s.Greater(g2, g1)
}

func (s *EngineTestSuite) TestBlurCancelsDrag() {
	s.Require().NoError(s.engine.SetSeries(makeBars(50)))
	s.engine.PointerDown(10, 10)
	s.True(s.engine.Dragging())
	s.engine.Blur()
	s.False(s.engine.Dragging())
	s.Nil(s.engine.Frame().Hover)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestLineChartFrame(t *testing.T) {
	cfg := DefaultConfig(series.KindPoint)
	engine, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, engine.SetSeries(makePoints(0.5, -1.2, 0.8, 2.4, -0.3)))

	f := engine.Frame()
	assert.False(t, f.Empty)
	assert.Equal(t, series.KindPoint, f.Kind)
	assert.NotEmpty(t, f.Primitives.Segments)
	assert.Empty(t, f.Primitives.Candles)

	lo, hi := f.Y.Domain()
	assert.LessOrEqual(t, lo, -1.2*1.05)
	assert.GreaterOrEqual(t, hi, 2.4*1.05)
	assert.Equal(t, math.Round(lo*10)/10, lo, "niced domain")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig(series.KindBar).Validate())

	cfg := DefaultConfig(series.KindBar)
	cfg.Kind = "pie"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig(series.KindBar)
	cfg.Width = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidSize)

	cfg = DefaultConfig(series.KindBar)
	cfg.Intervals = []series.Interval{{TimeFrameKey: "a"}, {TimeFrameKey: "a"}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig(series.KindBar)
	cfg.Limits.MinVisible = 0
	assert.ErrorIs(t, cfg.Validate(), viewport.ErrInvalidLimits)
}
