package series

import (
	"errors"
	"testing"
	"time"
)

func TestParseIntervalSpec(t *testing.T) {
	tests := []struct {
		name     string
		spec     IntervalSpec
		expected Interval
		wantErr  bool
	}{
		{
			name:     "one day",
			spec:     IntervalSpec{Title: "1D", TimeFrameKey: "5m", Offset: "24h", IsDefault: true},
			expected: Interval{Title: "1D", TimeFrameKey: "5m", TimeOffset: 24 * time.Hour, IsDefault: true},
		},
		{
			name:     "no offset",
			spec:     IntervalSpec{Title: "All", TimeFrameKey: "1w"},
			expected: Interval{Title: "All", TimeFrameKey: "1w"},
		},
		{
			name:    "bad offset",
			spec:    IntervalSpec{Title: "1M", TimeFrameKey: "1d", Offset: "thirty days"},
			wantErr: true,
		},
		{
			name:    "missing key",
			spec:    IntervalSpec{Title: "1M", Offset: "720h"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntervalSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestIntervalSet(t *testing.T) {
	set, err := NewIntervalSet([]Interval{
		{Title: "1D", TimeFrameKey: "5m", TimeOffset: 24 * time.Hour},
		{Title: "1M", TimeFrameKey: "1d", TimeOffset: 30 * 24 * time.Hour, IsDefault: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, ok := set.Default()
	if !ok || def.TimeFrameKey != "1d" {
		t.Errorf("Expected default 1d, got %+v", def)
	}

	if _, err := set.Lookup("1h"); !errors.Is(err, ErrUnknownInterval) {
		t.Errorf("Expected ErrUnknownInterval, got %v", err)
	}

	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	start, end := def.Range(now)
	if !end.Equal(now) || !start.Equal(now.AddDate(0, 0, -30)) {
		t.Errorf("Unexpected range %v - %v", start, end)
	}
}

func TestIntervalSet_FallbackDefault(t *testing.T) {
	set, _ := NewIntervalSet([]Interval{{Title: "1D", TimeFrameKey: "5m"}})
	def, ok := set.Default()
	if !ok || def.TimeFrameKey != "5m" {
		t.Errorf("Expected first interval as default, got %+v", def)
	}

	_, err := NewIntervalSet([]Interval{
		{TimeFrameKey: "a", IsDefault: true},
		{TimeFrameKey: "b", IsDefault: true},
	})
	if !errors.Is(err, ErrDuplicateDefault) {
		t.Errorf("Expected ErrDuplicateDefault, got %v", err)
	}
}
