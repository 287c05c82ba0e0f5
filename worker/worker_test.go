package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"

	"github.com/kozlice/rrworker-go/client"
	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/queue"
	"github.com/kozlice/rrworker-go/registry"
)

type demoHandlers struct {
	_ registry.Marker `rr:"workflow=SimpleWorkflow"`
	_ registry.Marker `rr:"workflow=SignalledWorkflow"`
}

func (demoHandlers) SimpleWorkflow(ctx context.Context, in string) (string, error) {
	return strings.ToUpper(in), nil
}

func (demoHandlers) SignalledWorkflow(ctx context.Context, in float64) (float64, error) {
	wfCtx, ok := ContextFrom(ctx)
	if !ok {
		return 0, command.ErrInvalidArgument("missing workflow context")
	}
	sig, err := wfCtx.AwaitSignal(ctx)
	if err != nil {
		return 0, err
	}
	delta, _ := sig.Args.(float64)
	return in + delta, nil
}

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	handlers, err := registry.Scan(&demoHandlers{})
	require.NoError(t, err)

	q := queue.New()
	c := client.New(q)
	w := New("default", converter.GetDefaultDataConverter(), c, nil)
	w.RegisterHandlers(handlers)
	return w
}

func waitForNotice(t *testing.T, w *Worker, timeout time.Duration) *command.Command {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		notices := w.DrainNotices()
		if len(notices) > 0 {
			return notices[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for execution notice")
	return nil
}

func TestStartWorkflowProducesCompletedResult(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	input, err := converter.GetDefaultDataConverter().ToPayloads("hello world")
	require.NoError(t, err)
	start := command.NewRequest(1, KindStartWorkflow, input.GetPayloads(), nil, map[string]any{
		optWorkflowType: "SimpleWorkflow",
		optWorkflowID:   "wf-1",
	})
	resp, err := w.Dispatch(ctx, start)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.ID)

	notice := waitForNotice(t, w, time.Second)
	assert.Equal(t, StateCompleted.String(), notice.Name)
	require.Len(t, notice.Payloads, 1)

	var result string
	require.NoError(t, converter.GetDefaultDataConverter().FromPayload(notice.Payloads[0], &result))
	assert.Equal(t, "HELLO WORLD", result)
}

func TestDuplicateStartIsAlreadyStarted(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	opts := map[string]any{optWorkflowType: "SimpleWorkflow", optWorkflowID: "wf-dup"}
	_, err := w.Dispatch(ctx, command.NewRequest(1, KindStartWorkflow, nil, nil, opts))
	require.NoError(t, err)

	_, err = w.Dispatch(ctx, command.NewRequest(2, KindStartWorkflow, nil, nil, opts))
	require.Error(t, err)
	var alreadyStarted *command.AlreadyStartedError
	assert.ErrorAs(t, err, &alreadyStarted)
}

func TestSignalThenResult(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	start := command.NewRequest(1, KindStartWorkflow, nil, nil, map[string]any{
		optWorkflowType: "SignalledWorkflow",
		optWorkflowID:   "wf-signal",
	})
	_, err := w.Dispatch(ctx, start)
	require.NoError(t, err)

	payloads, err := converter.GetDefaultDataConverter().ToPayloads(-1.0)
	require.NoError(t, err)
	signal := command.NewRequest(2, KindSignalWorkflow, payloads.GetPayloads(), nil, map[string]any{
		optWorkflowID: "wf-signal",
		optSignalName: "add",
	})
	_, err = w.Dispatch(ctx, signal)
	require.NoError(t, err)

	notice := waitForNotice(t, w, time.Second)
	assert.Equal(t, StateCompleted.String(), notice.Name)

	var result float64
	require.NoError(t, converter.GetDefaultDataConverter().FromPayload(notice.Payloads[0], &result))
	assert.Equal(t, -1.0, result)
}

func TestSignalWithStartScenario(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	startArgs, err := converter.GetDefaultDataConverter().ToPayload(-1.0)
	require.NoError(t, err)
	signalArgs, err := converter.GetDefaultDataConverter().ToPayload(-1.0)
	require.NoError(t, err)

	combined := command.NewRequest(1, KindSignalWithStart, []*commonpb.Payload{startArgs, signalArgs}, nil, map[string]any{
		optWorkflowType: "SignalledWorkflow",
		optWorkflowID:   "wf-signal-with-start",
		optSignalName:   "add",
	})
	resp, err := w.Dispatch(ctx, combined)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.ID)

	notice := waitForNotice(t, w, time.Second)
	assert.Equal(t, StateCompleted.String(), notice.Name)

	var result float64
	require.NoError(t, converter.GetDefaultDataConverter().FromPayload(notice.Payloads[0], &result))
	assert.Equal(t, -2.0, result)
}

func TestSignalWithStartSignalsAlreadyRunningWorkflow(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	start := command.NewRequest(1, KindStartWorkflow, nil, nil, map[string]any{
		optWorkflowType: "SignalledWorkflow",
		optWorkflowID:   "wf-already-running",
	})
	_, err := w.Dispatch(ctx, start)
	require.NoError(t, err)

	signalArgs, err := converter.GetDefaultDataConverter().ToPayload(-1.0)
	require.NoError(t, err)

	combined := command.NewRequest(2, KindSignalWithStart, []*commonpb.Payload{signalArgs}, nil, map[string]any{
		optWorkflowType: "SignalledWorkflow",
		optWorkflowID:   "wf-already-running",
		optSignalName:   "add",
	})
	resp, err := w.Dispatch(ctx, combined)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), resp.ID)

	notice := waitForNotice(t, w, time.Second)
	assert.Equal(t, StateCompleted.String(), notice.Name)

	var result float64
	require.NoError(t, converter.GetDefaultDataConverter().FromPayload(notice.Payloads[0], &result))
	assert.Equal(t, -1.0, result)
}

func TestSignalBeforeStartIsIllegalState(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	_, err := w.Dispatch(ctx, command.NewRequest(1, KindSignalWorkflow, nil, nil, map[string]any{
		optWorkflowID: "never-started",
		optSignalName: "add",
	}))
	require.Error(t, err)
	var illegal *command.IllegalStateError
	assert.ErrorAs(t, err, &illegal)
}

func TestCancelProducesCanceledNotice(t *testing.T) {
	w := newTestWorker(t)
	ctx := context.Background()

	start := command.NewRequest(1, KindStartWorkflow, nil, nil, map[string]any{
		optWorkflowType: "SignalledWorkflow",
		optWorkflowID:   "wf-cancel",
	})
	_, err := w.Dispatch(ctx, start)
	require.NoError(t, err)

	_, err = w.Dispatch(ctx, command.NewRequest(2, KindCancelWorkflow, nil, nil, map[string]any{
		optWorkflowID: "wf-cancel",
	}))
	require.NoError(t, err)

	notice := waitForNotice(t, w, time.Second)
	assert.Equal(t, StateCanceled.String(), notice.Name)
	require.NotNil(t, notice.Failure)
}

func TestUnknownRequestKindIsNotImplemented(t *testing.T) {
	w := newTestWorker(t)
	_, err := w.Dispatch(context.Background(), command.NewRequest(1, "Bogus", nil, nil, nil))
	require.Error(t, err)
}
