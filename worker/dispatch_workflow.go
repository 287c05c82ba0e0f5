package worker

import (
	"context"

	commonpb "go.temporal.io/api/common/v1"

	"github.com/kozlice/rrworker-go/command"
)

func (w *Worker) startWorkflow(ctx context.Context, req *command.Command) (*command.Command, error) {
	workflowType, ok := optString(req.Options, optWorkflowType)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: StartWorkflow requires options.workflowType")
	}
	workflowID, ok := optString(req.Options, optWorkflowID)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: StartWorkflow requires options.workflowId")
	}

	w.mu.Lock()
	handler, ok := w.workflows[workflowType]
	if !ok {
		w.mu.Unlock()
		return nil, command.ErrNotFound("worker: no workflow registered named " + workflowType)
	}
	if existing, running := w.executions[workflowID]; running && !existing.State().Terminal() {
		w.mu.Unlock()
		return nil, &command.AlreadyStartedError{WorkflowID: workflowID}
	}
	w.mu.Unlock()

	input, err := decodeInput(w.converter, handler, req.Payloads)
	if err != nil {
		return nil, err
	}

	wfCtx := newWorkflowContext(workflowID, w.client, w.rpc)
	exec := newExecution(workflowID, handler, wfCtx)

	w.mu.Lock()
	w.executions[workflowID] = exec
	w.mu.Unlock()

	go exec.run(context.Background(), input, func(state State, output any, runErr error) {
		w.onExecutionDone(workflowID, state, output, runErr)
	})

	return command.NewResponse(req.ID, ackPayload("Started", workflowID)), nil
}

func (w *Worker) signalWorkflow(ctx context.Context, req *command.Command) (*command.Command, error) {
	workflowID, ok := optString(req.Options, optWorkflowID)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: SignalWorkflow requires options.workflowId")
	}
	signalName, ok := optString(req.Options, optSignalName)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: SignalWorkflow requires options.signalName")
	}

	exec, err := w.lookupRunning(workflowID)
	if err != nil {
		return nil, err
	}

	args, err := decodeAny(w.converter, req.Payloads)
	if err != nil {
		return nil, err
	}
	exec.wfCtx.deliverSignal(Signal{Name: signalName, Args: args})

	return command.NewResponse(req.ID, nil), nil
}

// signalWithStart handles spec.md §8.4's SignalWithStart scenario: one
// combined inbound command that starts workflowID if it isn't already
// running, or signals it in place if it is, and in both cases resolves to a
// single Started response plus one delivered signal.
//
// req.Payloads is split via splitSignalWithStartPayloads: every payload but
// the last is the workflow's start input (used only when a fresh start
// happens), and the last payload is the signal argument — mirroring the two
// separate payload groups (Input, SignalArgs) the real
// SignalWithStartWorkflowExecution request carries, condensed into this
// command model's single Payloads list.
func (w *Worker) signalWithStart(ctx context.Context, req *command.Command) (*command.Command, error) {
	workflowType, ok := optString(req.Options, optWorkflowType)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: SignalWithStart requires options.workflowType")
	}
	workflowID, ok := optString(req.Options, optWorkflowID)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: SignalWithStart requires options.workflowId")
	}
	signalName, ok := optString(req.Options, optSignalName)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: SignalWithStart requires options.signalName")
	}

	startPayloads, signalPayloads := splitSignalWithStartPayloads(req.Payloads)

	w.mu.Lock()
	exec, running := w.executions[workflowID]
	w.mu.Unlock()

	if running && !exec.State().Terminal() {
		args, err := decodeAny(w.converter, signalPayloads)
		if err != nil {
			return nil, err
		}
		exec.wfCtx.deliverSignal(Signal{Name: signalName, Args: args})
		return command.NewResponse(req.ID, ackPayload("Started", workflowID)), nil
	}

	w.mu.Lock()
	handler, ok := w.workflows[workflowType]
	w.mu.Unlock()
	if !ok {
		return nil, command.ErrNotFound("worker: no workflow registered named " + workflowType)
	}

	input, err := decodeInput(w.converter, handler, startPayloads)
	if err != nil {
		return nil, err
	}
	args, err := decodeAny(w.converter, signalPayloads)
	if err != nil {
		return nil, err
	}

	wfCtx := newWorkflowContext(workflowID, w.client, w.rpc)
	exec = newExecution(workflowID, handler, wfCtx)

	w.mu.Lock()
	w.executions[workflowID] = exec
	w.mu.Unlock()

	exec.wfCtx.deliverSignal(Signal{Name: signalName, Args: args})
	go exec.run(context.Background(), input, func(state State, output any, runErr error) {
		w.onExecutionDone(workflowID, state, output, runErr)
	})

	return command.NewResponse(req.ID, ackPayload("Started", workflowID)), nil
}

// splitSignalWithStartPayloads divides a SignalWithStart request's payloads
// into the workflow start input (all payloads but the last) and the signal
// argument (the last payload).
func splitSignalWithStartPayloads(payloads []*commonpb.Payload) (start, signal []*commonpb.Payload) {
	switch len(payloads) {
	case 0:
		return nil, nil
	case 1:
		return nil, payloads
	default:
		return payloads[:len(payloads)-1], payloads[len(payloads)-1:]
	}
}

func (w *Worker) queryWorkflow(ctx context.Context, req *command.Command) (*command.Command, error) {
	workflowID, ok := optString(req.Options, optWorkflowID)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: QueryWorkflow requires options.workflowId")
	}
	queryType, ok := optString(req.Options, optQueryType)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: QueryWorkflow requires options.queryType")
	}

	exec, err := w.lookupRunning(workflowID)
	if err != nil {
		return nil, err
	}

	fn, ok := exec.wfCtx.queryHandler(queryType)
	if !ok {
		return nil, command.ErrNotFound("worker: no query handler registered named " + queryType)
	}

	args, err := decodeAny(w.converter, req.Payloads)
	if err != nil {
		return nil, err
	}
	result, err := fn(ctx, args)
	if err != nil {
		return nil, err
	}
	payloads, err := encodeOutput(w.converter, result)
	if err != nil {
		return nil, err
	}
	return command.NewResponse(req.ID, payloads), nil
}

func (w *Worker) cancelWorkflow(ctx context.Context, req *command.Command) (*command.Command, error) {
	workflowID, ok := optString(req.Options, optWorkflowID)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: CancelWorkflow requires options.workflowId")
	}

	exec, err := w.lookupRunning(workflowID)
	if err != nil {
		return nil, err
	}
	exec.wfCtx.cancel()

	return command.NewResponse(req.ID, nil), nil
}

func (w *Worker) terminateWorkflow(ctx context.Context, req *command.Command) (*command.Command, error) {
	workflowID, ok := optString(req.Options, optWorkflowID)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: TerminateWorkflow requires options.workflowId")
	}
	reason, _ := optString(req.Options, optReason)

	w.mu.Lock()
	exec, ok := w.executions[workflowID]
	w.mu.Unlock()
	if !ok {
		return nil, command.ErrNotFound("worker: no execution for workflow id " + workflowID)
	}
	if exec.State().Terminal() {
		return nil, &command.IllegalStateError{WorkflowID: workflowID, Reason: "already terminal"}
	}

	exec.setState(StateTerminated)
	exec.wfCtx.cancel()
	notice := command.NewRequest(0, StateTerminated.String(), nil, nil, map[string]any{optWorkflowID: workflowID})
	notice.Failure = command.NewTerminatedFailure(reason)
	w.enqueueNotice(notice)

	return command.NewResponse(req.ID, nil), nil
}

func (w *Worker) continueAsNew(ctx context.Context, req *command.Command) (*command.Command, error) {
	workflowID, ok := optString(req.Options, optWorkflowID)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: ContinueAsNew requires options.workflowId")
	}

	w.mu.Lock()
	prev, ok := w.executions[workflowID]
	w.mu.Unlock()
	if !ok || prev.State() != StateContinuedAsNew {
		return nil, &command.IllegalStateError{WorkflowID: workflowID, Reason: "no pending continuation"}
	}

	workflowType, ok := optString(req.Options, optWorkflowType)
	handler := prev.handler
	if ok {
		w.mu.Lock()
		if h, found := w.workflows[workflowType]; found {
			handler = h
		}
		w.mu.Unlock()
	}

	input, err := decodeInput(w.converter, handler, req.Payloads)
	if err != nil {
		return nil, err
	}

	wfCtx := newWorkflowContext(workflowID, w.client, w.rpc)
	exec := newExecution(workflowID, handler, wfCtx)

	w.mu.Lock()
	w.executions[workflowID] = exec
	w.mu.Unlock()

	go exec.run(context.Background(), input, func(state State, output any, runErr error) {
		w.onExecutionDone(workflowID, state, output, runErr)
	})

	return command.NewResponse(req.ID, ackPayload("Started", workflowID)), nil
}

// lookupRunning returns the execution for workflowID, failing with
// IllegalState if it was never started or has already reached a terminal
// state, per spec.md §4.5: "Terminal states do not accept further
// signals/queries; responses are IllegalState failures."
func (w *Worker) lookupRunning(workflowID string) (*execution, error) {
	w.mu.Lock()
	exec, ok := w.executions[workflowID]
	w.mu.Unlock()
	if !ok {
		return nil, &command.IllegalStateError{WorkflowID: workflowID, Reason: "not started"}
	}
	if exec.State().Terminal() {
		return nil, &command.IllegalStateError{WorkflowID: workflowID, Reason: "already terminal"}
	}
	return exec, nil
}

// onExecutionDone builds the terminal notice for a finished execution and
// stages it for the next drain, which the tick loop runs after each tick's
// lifecycle events. Notices are Request-shaped commands
// (they carry a Name, not a correlation id that anything awaits) whose
// Options.workflowId lets the host correlate them to the execution that
// produced them, since nothing ties them to the original StartWorkflow
// request id (that id already resolved to the "Started" ack).
func (w *Worker) onExecutionDone(workflowID string, state State, output any, runErr error) {
	opts := map[string]any{optWorkflowID: workflowID}

	switch state {
	case StateCompleted:
		payloads, err := encodeOutput(w.converter, output)
		if err != nil {
			notice := command.NewRequest(0, StateFailed.String(), nil, nil, opts)
			notice.Failure = command.FailureFromError(err)
			w.enqueueNotice(notice)
			return
		}
		w.enqueueNotice(command.NewRequest(0, state.String(), payloads, nil, opts))
	case StateContinuedAsNew:
		caw, _ := runErr.(*ContinueAsNewError)
		encoded, err := encodeOutput(w.converter, caw.NewInput)
		if err != nil {
			encoded = nil
		}
		w.enqueueNotice(command.NewRequest(0, state.String(), encoded, nil, opts))
	case StateCanceled:
		notice := command.NewRequest(0, state.String(), nil, nil, opts)
		notice.Failure = command.NewCanceledFailure(runErr.Error())
		w.enqueueNotice(notice)
	default: // StateFailed
		notice := command.NewRequest(0, state.String(), nil, nil, opts)
		notice.Failure = command.FailureFromError(runErr)
		w.enqueueNotice(notice)
	}
}
