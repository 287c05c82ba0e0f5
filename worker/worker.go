// Package worker implements the Worker: the per-task-queue owner of
// workflow and activity handler tables, and the explicit workflow
// execution state machine described in spec.md §4.5.
package worker

import (
	"context"
	"fmt"
	"sync"

	"go.temporal.io/sdk/converter"

	"github.com/kozlice/rrworker-go/client"
	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/registry"
	"github.com/kozlice/rrworker-go/taskqueue"
	"github.com/kozlice/rrworker-go/transport"
)

// Request kind names a Worker dispatches, per spec.md §4.5.
const (
	KindStartWorkflow     = "StartWorkflow"
	KindSignalWorkflow    = "SignalWorkflow"
	KindSignalWithStart   = "SignalWithStart"
	KindQueryWorkflow     = "QueryWorkflow"
	KindCancelWorkflow    = "CancelWorkflow"
	KindTerminateWorkflow = "TerminateWorkflow"
	KindContinueAsNew     = "ContinueAsNew"
	KindInvokeActivity    = "InvokeActivity"
)

// Option keys read from Command.Options by this worker's dispatch methods.
const (
	optWorkflowType = "workflowType"
	optWorkflowID   = "workflowId"
	optActivityType = "activityType"
	optSignalName   = "signalName"
	optQueryType    = "queryType"
	optReason       = "reason"
)

// Worker owns one task queue's workflow and activity handler tables and
// dispatches requests whose taskQueue header names it. Constructed eagerly
// via factory.Factory.NewWorker, before the tick loop starts.
type Worker struct {
	name      string
	converter converter.DataConverter
	client    *client.Client
	rpc       transport.RpcConnection

	mu         sync.Mutex
	workflows  map[string]registry.Handler
	activities map[string]registry.Handler
	executions map[string]*execution
	notices    []*command.Command
	nextNotice uint64
}

// New constructs an empty Worker for taskQueue name, sharing the given
// DataConverter, Client, and RpcConnection with the rest of the factory.
func New(name string, conv converter.DataConverter, c *client.Client, rpc transport.RpcConnection) *Worker {
	return &Worker{
		name:       name,
		converter:  conv,
		client:     c,
		rpc:        rpc,
		workflows:  make(map[string]registry.Handler),
		activities: make(map[string]registry.Handler),
		executions: make(map[string]*execution),
	}
}

// Name returns the task queue name this Worker serves.
func (w *Worker) Name() string { return w.name }

// RegisterHandlers adds the discovered handlers (registry.Scan's output) to
// this worker's workflow/activity tables, keyed by Handler.Name. Intended
// to be called only during factory construction, before Run.
func (w *Worker) RegisterHandlers(handlers []registry.Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range handlers {
		switch h.Kind {
		case registry.KindWorkflow:
			w.workflows[h.Name] = h
		case registry.KindActivity:
			w.activities[h.Name] = h
		}
	}
}

// Info reports this worker's handler inventory for GetWorkerInfo.
func (w *Worker) Info() taskqueue.Info {
	w.mu.Lock()
	defer w.mu.Unlock()
	wf := make([]string, 0, len(w.workflows))
	for name := range w.workflows {
		wf = append(wf, name)
	}
	act := make([]string, 0, len(w.activities))
	for name := range w.activities {
		act = append(act, name)
	}
	return taskqueue.Info{
		WorkflowNames: wf,
		ActivityNames: act,
		HandlerCount:  len(w.workflows) + len(w.activities),
	}
}

// DrainNotices returns and clears terminal workflow-execution notices
// queued since the last drain. Called only by the factory's tick loop, right
// after each tick's lifecycle events.
func (w *Worker) DrainNotices() []*command.Command {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.notices
	w.notices = nil
	return out
}

func (w *Worker) enqueueNotice(cmd *command.Command) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextNotice++
	cmd.ID = w.nextNotice
	w.notices = append(w.notices, cmd)
}

// Dispatch resolves req against this worker's handler tables, per the kind
// named by req.Name. Returns a fully-formed success Response, or an error
// the caller (server.Server) converts into a failure Response correlated
// to req.ID.
func (w *Worker) Dispatch(ctx context.Context, req *command.Command) (*command.Command, error) {
	switch req.Name {
	case KindStartWorkflow:
		return w.startWorkflow(ctx, req)
	case KindSignalWorkflow:
		return w.signalWorkflow(ctx, req)
	case KindSignalWithStart:
		return w.signalWithStart(ctx, req)
	case KindQueryWorkflow:
		return w.queryWorkflow(ctx, req)
	case KindCancelWorkflow:
		return w.cancelWorkflow(ctx, req)
	case KindTerminateWorkflow:
		return w.terminateWorkflow(ctx, req)
	case KindContinueAsNew:
		return w.continueAsNew(ctx, req)
	case KindInvokeActivity:
		return w.invokeActivity(ctx, req)
	default:
		return nil, command.ErrNotImplemented(fmt.Sprintf("worker %q: unknown request kind %q", w.name, req.Name))
	}
}

func optString(options map[string]any, key string) (string, bool) {
	v, ok := options[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
