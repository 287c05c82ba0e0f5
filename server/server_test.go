package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/queue"
	"github.com/kozlice/rrworker-go/taskqueue"
)

type fakeRouter struct {
	called bool
}

func (f *fakeRouter) Dispatch(ctx context.Context, req *command.Command) (*command.Command, error) {
	f.called = true
	return command.NewResponse(req.ID, nil), nil
}

type fakeWorker struct {
	name    string
	onCall  func(req *command.Command) (*command.Command, error)
}

func (f *fakeWorker) Name() string               { return f.name }
func (f *fakeWorker) Info() taskqueue.Info       { return taskqueue.Info{} }
func (f *fakeWorker) DrainNotices() []*command.Command { return nil }
func (f *fakeWorker) Dispatch(ctx context.Context, req *command.Command) (*command.Command, error) {
	return f.onCall(req)
}

func TestDispatchWithoutTaskQueueGoesToRouter(t *testing.T) {
	router := &fakeRouter{}
	reg := taskqueue.New()
	q := queue.New()
	s := New(router, reg, q)

	req := command.NewRequest(1, "GetWorkerInfo", nil, nil, nil)
	s.Dispatch(context.Background(), req)

	assert.True(t, router.called)
	require.Equal(t, 1, q.Len())
	assert.Equal(t, uint64(1), q.Peek()[0].ID)
}

func TestDispatchRoutesToNamedWorker(t *testing.T) {
	router := &fakeRouter{}
	reg := taskqueue.New()
	a := &fakeWorker{name: "a", onCall: func(req *command.Command) (*command.Command, error) {
		return command.NewResponse(req.ID, nil), nil
	}}
	b := &fakeWorker{name: "b", onCall: func(req *command.Command) (*command.Command, error) {
		t.Fatal("worker b should not be called")
		return nil, nil
	}}
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	q := queue.New()
	s := New(router, reg, q)

	req := command.NewRequest(5, "InvokeActivity", nil, map[string]string{command.HeaderTaskQueue: "a"}, nil)
	s.Dispatch(context.Background(), req)

	assert.False(t, router.called)
	require.Equal(t, 1, q.Len())
	assert.Equal(t, uint64(5), q.Peek()[0].ID)
}

func TestDispatchUnknownTaskQueueIsNotFoundFailure(t *testing.T) {
	router := &fakeRouter{}
	reg := taskqueue.New()
	q := queue.New()
	s := New(router, reg, q)

	req := command.NewRequest(9, "InvokeActivity", nil, map[string]string{command.HeaderTaskQueue: "c"}, nil)
	s.Dispatch(context.Background(), req)

	require.Equal(t, 1, q.Len())
	resp := q.Peek()[0]
	assert.Equal(t, uint64(9), resp.ID)
	assert.True(t, resp.IsFailure())
}
