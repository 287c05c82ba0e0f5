package command

import (
	"fmt"

	failurepb "go.temporal.io/api/failure/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/temporal"
)

// failureConverter bridges Go errors and the wire Failure message using the
// same converter the Temporal Go SDK uses at the workflow/host boundary.
var failureConverter = converter.GetDefaultFailureConverter()

// AlreadyStartedError reports that a StartWorkflow request targeted a
// workflow id that is already running. Surfaced to caller stubs per spec
// error kind "AlreadyStarted".
type AlreadyStartedError struct {
	WorkflowID string
}

func (e *AlreadyStartedError) Error() string {
	return fmt.Sprintf("workflow %q is already started", e.WorkflowID)
}

// IllegalStateError reports a signal/query/cancel delivered to a workflow
// execution that has not started or has already reached a terminal state.
type IllegalStateError struct {
	WorkflowID string
	Reason     string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("workflow %q: illegal state: %s", e.WorkflowID, e.Reason)
}

// ProtocolError reports an inbound response with no matching pending slot,
// or any other violation of the tick protocol's invariants.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// ErrInvalidArgument wraps msg as a Temporal InvalidArgument service error,
// used when a header is missing or ill-typed.
func ErrInvalidArgument(msg string) error {
	return serviceerror.NewInvalidArgument(msg)
}

// ErrNotFound wraps msg as a Temporal NotFound service error, used when a
// task queue is not registered.
func ErrNotFound(msg string) error {
	return serviceerror.NewNotFound(msg)
}

// ErrNotImplemented wraps msg as a Temporal Internal service error, used
// when a request kind has no matching handler on a Worker.
func ErrNotImplemented(msg string) error {
	return serviceerror.NewInternal("not implemented: " + msg)
}

// FailureFromError converts err into the wire Failure message for a failed
// Response. Returns nil for a nil error.
func FailureFromError(err error) *failurepb.Failure {
	if err == nil {
		return nil
	}
	return failureConverter.ErrorToFailure(err)
}

// ErrorFromFailure converts a wire Failure message back into a Go error.
// Returns nil for a nil failure.
func ErrorFromFailure(f *failurepb.Failure) error {
	if f == nil {
		return nil
	}
	return failureConverter.FailureToError(f)
}

// NewCanceledFailure builds the Failure a pending Client request resolves to
// when the corresponding command is canceled with no response ever arriving.
func NewCanceledFailure(details ...any) *failurepb.Failure {
	return FailureFromError(temporal.NewCanceledError(details...))
}

// NewTerminatedFailure builds the Failure a workflow execution resolves to
// when the host delivers a Terminate request, recording the reason given by
// the caller.
func NewTerminatedFailure(reason string) *failurepb.Failure {
	f := FailureFromError(temporal.NewApplicationError(reason, "Terminated", true, nil))
	if f != nil {
		f.FailureInfo = &failurepb.Failure_TerminatedFailureInfo{
			TerminatedFailureInfo: &failurepb.TerminatedFailureInfo{},
		}
	}
	return f
}

// IsCanceled reports whether err represents a workflow/activity cancellation,
// normalizing across the Temporal SDK's own canceled-error representation.
func IsCanceled(err error) bool {
	return temporal.IsCanceledError(err)
}
