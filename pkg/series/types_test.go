package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func dailyBars(n int) []Bar {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		base := 100 + float64(i)
		bars[i] = Bar{Date: start.AddDate(0, 0, i), Open: base, High: base + 2, Low: base - 1, Close: base + 1}
	}
	return bars
}

func TestNewBarSeries(t *testing.T) {
	s, err := NewBarSeries(dailyBars(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Len() != 5 {
		t.Errorf("Expected 5 items, got %d", s.Len())
	}
	if s.Kind() != KindBar {
		t.Errorf("Expected kind %q, got %q", KindBar, s.Kind())
	}
	if len(s.Dates()) != 5 {
		t.Errorf("Expected 5 dates, got %d", len(s.Dates()))
	}

	lo, hi, ok := s.Extent(0, 5)
	if !ok {
		t.Fatal("Expected extent to be available")
	}
	if lo != 99 || hi != 106 {
		t.Errorf("Expected extent [99, 106], got [%f, %f]", lo, hi)
	}
}

func TestNewBarSeries_Rejects(t *testing.T) {
	tests := []struct {
		name string
		bars func() []Bar
		want error
	}{
		{
			name: "duplicate dates",
			bars: func() []Bar {
				b := dailyBars(3)
				b[2].Date = b[1].Date
				return b
			},
			want: ErrUnorderedDates,
		},
		{
			name: "descending dates",
			bars: func() []Bar {
				b := dailyBars(3)
				b[0], b[2] = b[2], b[0]
				return b
			},
			want: ErrUnorderedDates,
		},
		{
			name: "NaN close",
			bars: func() []Bar {
				b := dailyBars(3)
				b[1].Close = math.NaN()
				return b
			},
			want: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBarSeries(tt.bars())
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEmptySeries(t *testing.T) {
	var s Series
	if !s.Empty() {
		t.Error("Zero value series should be empty")
	}
	if _, _, ok := s.Extent(0, 0); ok {
		t.Error("Empty series should have no extent")
	}
}

func TestPointSeriesExtent(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	s, err := NewPointSeries([]Point{
		{Date: start, Value: -1.5},
		{Date: start.Add(time.Minute), Value: 0.25},
		{Date: start.Add(2 * time.Minute), Value: 2.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lo, hi, _ := s.Extent(1, 3)
	if lo != 0.25 || hi != 2.0 {
		t.Errorf("Expected extent [0.25, 2.0], got [%f, %f]", lo, hi)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	data := []byte(`{"kind":"points","points":[{"date":"2025-01-01T00:00:00Z","value":1},{"date":"2025-01-02T00:00:00Z","value":-2}]}`)

	s, err := ParsePayload(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind() != KindPoint || s.Len() != 2 {
		t.Fatalf("Expected 2 points, got kind %q len %d", s.Kind(), s.Len())
	}

	p := PayloadOf(s)
	if len(p.Points) != 2 || len(p.Bars) != 0 {
		t.Errorf("Expected payload with 2 points, got %+v", p)
	}
}

func TestPayloadMixedKinds(t *testing.T) {
	p := Payload{Bars: dailyBars(1), Points: []Point{{Date: time.Now(), Value: 1}}}
	if _, err := p.ToSeries(); !errors.Is(err, ErrMixedKinds) {
		t.Errorf("Expected ErrMixedKinds, got %v", err)
	}
}
