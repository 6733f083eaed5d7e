package temporal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	sdkMocks "go.temporal.io/sdk/mocks"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/viewport"
)

// jsonValue stands in for a query result
type jsonValue struct {
	data []byte
}

func (v jsonValue) HasValue() bool { return v.data != nil }

func (v jsonValue) Get(valuePtr interface{}) error { return json.Unmarshal(v.data, valuePtr) }

func TestSessionClientStart(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	run := &sdkMocks.WorkflowRun{}
	run.On("GetID").Return("chart-abc")

	mockClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == "chart-abc" && o.TaskQueue == TaskQueue
		}),
		mock.Anything,
		mock.AnythingOfType("temporal.SessionParams"),
	).Return(run, nil).Once()

	sessions := NewSessionClient(mockClient, "")
	id, err := sessions.Start(context.Background(), SessionParams{ChartID: "abc", Config: chart.DefaultConfig(series.KindBar)})
	require.NoError(t, err)
	assert.Equal(t, "chart-abc", id)

	mockClient.AssertExpectations(t)
	run.AssertExpectations(t)
}

func TestSessionClientStartError(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	mockClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("temporal unavailable")).Once()

	sessions := NewSessionClient(mockClient, "custom-queue")
	_, err := sessions.Start(context.Background(), SessionParams{ChartID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporal unavailable")
	mockClient.AssertExpectations(t)
}

func TestSessionClientSignal(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	in := Input{Kind: InputWheel, X: 120, DeltaY: -3}
	mockClient.On("SignalWorkflow", mock.Anything, "chart-abc", "", InputSignalName, in).Return(nil).Once()
	mockClient.On("SignalWorkflow", mock.Anything, "chart-gone", "", InputSignalName, mock.Anything).
		Return(errors.New("workflow not found")).Once()

	sessions := NewSessionClient(mockClient, "")
	require.NoError(t, sessions.Signal(context.Background(), "abc", in))

	err := sessions.Signal(context.Background(), "gone", Input{Kind: InputBlur})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
	mockClient.AssertExpectations(t)
}

func TestSessionClientRender(t *testing.T) {
	want := chart.View{Generation: 7, Kind: series.KindBar, Width: 600, Height: 300, Transform: viewport.Transform{X: -30, K: 1.5}}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	mockClient := &sdkMocks.Client{}
	mockClient.On("QueryWorkflow", mock.Anything, "chart-abc", "", RenderQueryName).Return(jsonValue{data: data}, nil).Once()
	mockClient.On("QueryWorkflow", mock.Anything, "chart-none", "", RenderQueryName).Return(jsonValue{}, nil).Once()

	sessions := NewSessionClient(mockClient, "")
	got, err := sessions.Render(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, want.Generation, got.Generation)
	assert.Equal(t, want.Transform, got.Transform)

	_, err = sessions.Render(context.Background(), "none")
	assert.ErrorIs(t, err, ErrNoView)
	mockClient.AssertExpectations(t)
}
