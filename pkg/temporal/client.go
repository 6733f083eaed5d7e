package temporal

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
)

var ErrNoView = errors.New("session returned no view")

// Sessions is what transports need from the session runtime
type Sessions interface {
	Start(ctx context.Context, params SessionParams) (string, error)
	Signal(ctx context.Context, chartID string, in Input) error
	Render(ctx context.Context, chartID string) (chart.View, error)
}

// SessionClient drives chart sessions through a Temporal client
type SessionClient struct {
	client    client.Client
	taskQueue string
}

// NewSessionClient wraps c. An empty taskQueue selects TaskQueue.
func NewSessionClient(c client.Client, taskQueue string) *SessionClient {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &SessionClient{client: c, taskQueue: taskQueue}
}

// Start launches the session workflow for params.ChartID and returns its ID
func (c *SessionClient) Start(ctx context.Context, params SessionParams) (string, error) {
	options := client.StartWorkflowOptions{
		ID:                    SessionWorkflowID(params.ChartID),
		TaskQueue:             c.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}

	run, err := c.client.ExecuteWorkflow(ctx, options, ChartSessionWorkflow, params)
	if err != nil {
		return "", fmt.Errorf("failed to start session %s: %w", params.ChartID, err)
	}
	return run.GetID(), nil
}

// Signal delivers one input to a running session
func (c *SessionClient) Signal(ctx context.Context, chartID string, in Input) error {
	if err := c.client.SignalWorkflow(ctx, SessionWorkflowID(chartID), "", InputSignalName, in); err != nil {
		return fmt.Errorf("failed to signal session %s: %w", chartID, err)
	}
	return nil
}

// Render queries the latest view of a session
func (c *SessionClient) Render(ctx context.Context, chartID string) (chart.View, error) {
	var view chart.View
	value, err := c.client.QueryWorkflow(ctx, SessionWorkflowID(chartID), "", RenderQueryName)
	if err != nil {
		return view, fmt.Errorf("failed to query session %s: %w", chartID, err)
	}
	if !value.HasValue() {
		return view, fmt.Errorf("session %s: %w", chartID, ErrNoView)
	}
	if err := value.Get(&view); err != nil {
		return view, fmt.Errorf("failed to decode view of %s: %w", chartID, err)
	}
	return view, nil
}
