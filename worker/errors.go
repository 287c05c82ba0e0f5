package worker

import "go.temporal.io/sdk/temporal"

// errCanceled is returned by WorkflowContext.AwaitSignal / WaitPromise when
// the execution is canceled while a handler is blocked on one of them. It is
// a real Temporal canceled error (not a bare sentinel) so that
// command.IsCanceled classifies it correctly in execution.run.
var errCanceled = temporal.NewCanceledError("worker: execution canceled")
