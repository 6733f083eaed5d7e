package temporal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leowmjw/go-chart-viewport/pkg/series"
)

// MemorySeriesSource implements SeriesSource in memory, for tests and demos
type MemorySeriesSource struct {
	mu     sync.RWMutex
	charts map[string]series.Payload // chartID -> full history
}

// NewMemorySeriesSource creates an empty source
func NewMemorySeriesSource() *MemorySeriesSource {
	return &MemorySeriesSource{
		charts: make(map[string]series.Payload),
	}
}

// StoreSeries replaces the history of a chart
func (m *MemorySeriesSource) StoreSeries(ctx context.Context, chartID string, payload series.Payload) error {
	if _, err := payload.ToSeries(); err != nil {
		return fmt.Errorf("chart %s: %w", chartID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.charts[chartID] = payload
	return nil
}

// LoadSeries returns the part of a chart's history inside the requested range
func (m *MemorySeriesSource) LoadSeries(ctx context.Context, req LoadRequest) (series.Payload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, exists := m.charts[req.ChartID]
	if !exists {
		return series.Payload{}, fmt.Errorf("chart %s: %w", req.ChartID, ErrSeriesNotFound)
	}
	if req.Unbounded {
		return payload, nil
	}

	out := series.Payload{Kind: payload.Kind}
	for _, b := range payload.Bars {
		if within(b.Date, req.Start, req.End) {
			out.Bars = append(out.Bars, b)
		}
	}
	for _, p := range payload.Points {
		if within(p.Date, req.Start, req.End) {
			out.Points = append(out.Points, p)
		}
	}
	return out, nil
}

// Count returns the number of stored items for a chart (for testing)
func (m *MemorySeriesSource) Count(chartID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.charts[chartID]
	if !exists {
		return 0
	}
	return len(p.Bars) + len(p.Points)
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
