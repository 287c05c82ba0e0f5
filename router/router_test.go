package router

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/taskqueue"
)

type fakeWorker struct {
	name string
	info taskqueue.Info
}

func (f fakeWorker) Name() string          { return f.name }
func (f fakeWorker) Info() taskqueue.Info { return f.info }
func (f fakeWorker) DrainNotices() []*command.Command { return nil }

func TestGetWorkerInfoListsRegisteredQueues(t *testing.T) {
	reg := taskqueue.New()
	require.NoError(t, reg.Register(fakeWorker{name: "a", info: taskqueue.Info{
		WorkflowNames: []string{"SimpleWorkflow"},
		ActivityNames: []string{"ChargeCard"},
		HandlerCount:  2,
	}}))
	require.NoError(t, reg.Register(fakeWorker{name: "b", info: taskqueue.Info{
		WorkflowNames: []string{"OtherWorkflow"},
		HandlerCount:  1,
	}}))

	r := New(reg)
	req := command.NewRequest(7, "GetWorkerInfo", nil, nil, nil)

	resp, err := r.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, uint64(7), resp.ID)
	require.False(t, resp.IsFailure())
	require.Len(t, resp.Payloads, 1)

	var infos []queueInfo
	require.NoError(t, json.Unmarshal(resp.Payloads[0].Data, &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, []string{"SimpleWorkflow"}, infos[0].WorkflowNames)
	assert.Equal(t, "b", infos[1].Name)
}

func TestDispatchUnknownNameIsNotFound(t *testing.T) {
	reg := taskqueue.New()
	r := New(reg)

	_, err := r.Dispatch(context.Background(), command.NewRequest(1, "Bogus", nil, nil, nil))
	require.Error(t, err)
}

func TestRegisterAddsFactoryScopedHandler(t *testing.T) {
	reg := taskqueue.New()
	r := New(reg)
	r.Register("Ping", func(ctx context.Context, req *command.Command) (*command.Command, error) {
		return command.NewResponse(req.ID, nil), nil
	})

	resp, err := r.Dispatch(context.Background(), command.NewRequest(3, "Ping", nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), resp.ID)
}
