package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/leowmjw/go-chart-viewport/pkg/series"
)

// SeriesSource is where sessions fetch and keep their data
type SeriesSource interface {
	LoadSeries(ctx context.Context, req LoadRequest) (series.Payload, error)
	StoreSeries(ctx context.Context, chartID string, payload series.Payload) error
}

// ChartActivities implements the activities used by ChartSessionWorkflow
type ChartActivities struct {
	logger *slog.Logger
	source SeriesSource
}

// NewChartActivities creates the activity set
func NewChartActivities(logger *slog.Logger, source SeriesSource) *ChartActivities {
	return &ChartActivities{
		logger: logger,
		source: source,
	}
}

// LoadSeriesActivity fetches the series for one interval
func (a *ChartActivities) LoadSeriesActivity(ctx context.Context, req LoadRequest) (series.Payload, error) {
	a.logger.Info("Loading series", "chartID", req.ChartID, "interval", req.Interval,
		"start", req.Start, "end", req.End)

	payload, err := a.source.LoadSeries(ctx, req)
	if err != nil {
		a.logger.Error("Failed to load series", "chartID", req.ChartID, "error", err)
		if errors.Is(err, ErrSeriesNotFound) {
			return series.Payload{}, temporal.NewNonRetryableApplicationError(err.Error(), "SeriesNotFound", err)
		}
		return series.Payload{}, fmt.Errorf("failed to load series: %w", err)
	}

	// the engine rejects mixed kinds, so fail here where the error is clearer
	if payload.Kind != "" && req.Kind != "" && payload.Kind != req.Kind {
		err := fmt.Errorf("chart %s wants %s, source returned %s", req.ChartID, req.Kind, payload.Kind)
		return series.Payload{}, temporal.NewNonRetryableApplicationError(err.Error(), "KindMismatch", err)
	}
	return payload, nil
}

// StoreSeriesActivity keeps a series uploaded by the host
func (a *ChartActivities) StoreSeriesActivity(ctx context.Context, chartID string, payload series.Payload) error {
	a.logger.Info("Storing series", "chartID", chartID, "kind", payload.Kind,
		"bars", len(payload.Bars), "points", len(payload.Points))

	if err := a.source.StoreSeries(ctx, chartID, payload); err != nil {
		a.logger.Error("Failed to store series", "chartID", chartID, "error", err)
		return fmt.Errorf("failed to store series: %w", err)
	}
	return nil
}
