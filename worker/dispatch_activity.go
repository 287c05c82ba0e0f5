package worker

import (
	"context"

	"github.com/kozlice/rrworker-go/command"
)

// invokeActivity runs an activity handler synchronously. Activities are
// side-effectful and non-replayed (spec.md §9), so unlike workflow
// executions they need no explicit state machine or goroutine: the
// handler's own body is free to use native Go concurrency internally, and
// this dispatch simply waits for it to return before resolving the
// request.
func (w *Worker) invokeActivity(ctx context.Context, req *command.Command) (*command.Command, error) {
	activityType, ok := optString(req.Options, optActivityType)
	if !ok {
		return nil, command.ErrInvalidArgument("worker: InvokeActivity requires options.activityType")
	}

	w.mu.Lock()
	handler, ok := w.activities[activityType]
	w.mu.Unlock()
	if !ok {
		return nil, command.ErrNotFound("worker: no activity registered named " + activityType)
	}

	input, err := decodeInput(w.converter, handler, req.Payloads)
	if err != nil {
		return nil, err
	}

	result, err := handler.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}

	payloads, err := encodeOutput(w.converter, result)
	if err != nil {
		return nil, err
	}
	return command.NewResponse(req.ID, payloads), nil
}
