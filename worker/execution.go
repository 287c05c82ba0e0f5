package worker

import (
	"context"
	"sync"

	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/registry"
)

// State is one state of the workflow execution state machine from spec.md
// §4.5: Fresh -> Running -> one of the terminal states. Terminal states do
// not accept further signals or queries.
type State int

const (
	StateFresh State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCanceled
	StateTerminated
	StateContinuedAsNew
)

// Terminal reports whether s is one of the terminal states.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// String renders the state's wire name, used as the terminal notice's Name
// and logged by the factory.
func (s State) String() string {
	switch s {
	case StateFresh:
		return "Fresh"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	case StateCanceled:
		return "Canceled"
	case StateTerminated:
		return "Terminated"
	case StateContinuedAsNew:
		return "ContinuedAsNew"
	default:
		return "Unknown"
	}
}

// ContinueAsNewError is returned by a workflow handler to request a fresh
// run under the same workflow id, carrying NewInput as the continuation's
// input value (SPEC_FULL.md's ContinueAsNew payload carry-over
// supplement).
type ContinueAsNewError struct {
	NewInput any
}

func (e *ContinueAsNewError) Error() string { return "workflow: continue as new requested" }

// execution tracks one running (or terminated) workflow execution: its
// handler, its WorkflowContext capability, and its terminal outcome once
// the handler goroutine returns.
type execution struct {
	id      string
	handler registry.Handler
	wfCtx   *WorkflowContext

	mu      sync.Mutex
	state   State
	output  any
	outErr  error
}

func newExecution(id string, h registry.Handler, wfCtx *WorkflowContext) *execution {
	return &execution{id: id, handler: h, wfCtx: wfCtx, state: StateFresh}
}

func (e *execution) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *execution) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// run executes the handler to completion in the calling goroutine (the
// caller is expected to have already done `go e.run(...)`), then invokes
// onDone exactly once with the terminal state and the raw handler result.
// If the execution was already moved to a terminal state while the handler
// ran (a TerminateWorkflow request), that state is kept and onDone is not
// called, since the terminating request staged its own notice.
// This is the explicit-state-machine option spec.md §9 endorses: the
// handler body is the whole execution, and suspension is expressed through
// WorkflowContext.AwaitSignal / WaitPromise blocking calls inside it rather
// than through cooperative scheduler yields.
func (e *execution) run(ctx context.Context, input any, onDone func(state State, output any, err error)) {
	e.mu.Lock()
	if e.state == StateFresh {
		e.state = StateRunning
	}
	e.mu.Unlock()
	execCtx := WithWorkflowContext(ctx, e.wfCtx)
	out, err := e.handler.Invoke(execCtx, input)

	var state State
	switch {
	case err == nil:
		state = StateCompleted
	case isContinueAsNew(err):
		state = StateContinuedAsNew
	case command.IsCanceled(err):
		state = StateCanceled
	default:
		state = StateFailed
	}

	e.mu.Lock()
	if e.state.Terminal() {
		e.mu.Unlock()
		return
	}
	e.state = state
	e.output = out
	e.outErr = err
	e.mu.Unlock()

	onDone(state, out, err)
}

func isContinueAsNew(err error) bool {
	_, ok := err.(*ContinueAsNewError)
	return ok
}
