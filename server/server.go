// Package server implements the Server: the inbound half of a tick,
// resolving each Request command to either the factory-scoped Router or a
// specific task-queue Worker, and enqueuing exactly one correlated
// Response for each.
package server

import (
	"context"

	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/queue"
	"github.com/kozlice/rrworker-go/taskqueue"
)

// Router is the subset of router.Router the Server needs.
type Router interface {
	Dispatch(ctx context.Context, req *command.Command) (*command.Command, error)
}

// Worker is the subset of worker.Worker the Server needs to route a
// taskQueue-addressed request, kept local to avoid server depending on the
// worker package beyond this single method.
type Worker interface {
	Dispatch(ctx context.Context, req *command.Command) (*command.Command, error)
}

// Server routes inbound Request commands per spec.md §4.2's resolution
// order: no taskQueue header goes to the Router; otherwise to the Worker
// named by the header.
type Server struct {
	router    Router
	taskQueue *taskqueue.Registry
	queue     *queue.ResponseQueue
}

// New constructs a Server that enqueues its responses onto q.
func New(router Router, taskQueue *taskqueue.Registry, q *queue.ResponseQueue) *Server {
	return &Server{router: router, taskQueue: taskQueue, queue: q}
}

// Dispatch routes req and enqueues exactly one correlated Response command,
// regardless of whether the underlying handler succeeds or fails (spec.md
// §4.2's edge case: a response is enqueued exactly once even for a
// synchronously-resolved or failing handler; the loop itself is never
// aborted by a handler failure).
func (s *Server) Dispatch(ctx context.Context, req *command.Command) {
	resp, err := s.resolve(ctx, req)
	if err != nil {
		s.queue.Push(command.NewFailureResponse(req.ID, command.FailureFromError(err)))
		return
	}
	s.queue.Push(resp)
}

// resolve implements spec.md §4.2's routing order. The header-value-is-a-
// string check that order calls for is structurally guaranteed by Go's
// map[string]string Header type, so it never produces an InvalidArgument
// here the way it would in a dynamically-typed host language; the NotFound
// check for an absent taskQueue registration is the one that matters in
// this implementation.
func (s *Server) resolve(ctx context.Context, req *command.Command) (*command.Command, error) {
	taskQueueName, hasHeader := req.TaskQueue()
	if !hasHeader {
		return s.router.Dispatch(ctx, req)
	}

	w, ok := s.taskQueue.Get(taskQueueName)
	if !ok {
		return nil, command.ErrNotFound("server: no worker registered for task queue " + taskQueueName)
	}

	worker, ok := w.(Worker)
	if !ok {
		return nil, command.ErrNotImplemented("server: worker does not implement Dispatch")
	}
	return worker.Dispatch(ctx, req)
}
