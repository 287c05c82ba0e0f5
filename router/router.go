// Package router implements the Router: the factory-scoped dispatch table
// for requests that arrive without a taskQueue header. It is consulted by
// server.Server before falling back to per-worker routing.
package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/taskqueue"
)

// HandlerFunc answers one factory-scoped request.
type HandlerFunc func(ctx context.Context, req *command.Command) (*command.Command, error)

// Router is a dispatch table keyed by request name. At minimum it carries
// GetWorkerInfo (registered by New); callers may register further
// factory-scoped request kinds via Register before the tick loop starts,
// since handlers are immutable thereafter per spec.md §4.4.
type Router struct {
	handlers map[string]HandlerFunc
}

// New constructs a Router with GetWorkerInfo already wired against registry.
func New(registry *taskqueue.Registry) *Router {
	r := &Router{handlers: make(map[string]HandlerFunc)}
	r.handlers["GetWorkerInfo"] = getWorkerInfoHandler(registry)
	return r
}

// Register adds a factory-scoped handler under name. Intended to be called
// only during factory construction, before Run; Router has no removal
// operation, matching spec.md §4.4's "immutable thereafter".
func (r *Router) Register(name string, h HandlerFunc) {
	r.handlers[name] = h
}

// Dispatch routes req by name. Returns a NotFound error if no handler is
// registered for req.Name.
func (r *Router) Dispatch(ctx context.Context, req *command.Command) (*command.Command, error) {
	h, ok := r.handlers[req.Name]
	if !ok {
		return nil, command.ErrNotFound(fmt.Sprintf("router: no handler registered for %q", req.Name))
	}
	return h(ctx, req)
}

// queueInfo is the wire shape of one registered task queue's entry in a
// GetWorkerInfo response.
type queueInfo struct {
	Name          string   `json:"name"`
	WorkflowNames []string `json:"workflowNames"`
	ActivityNames []string `json:"activityNames"`
	HandlerCount  int      `json:"handlerCount"`
}

func getWorkerInfoHandler(registry *taskqueue.Registry) HandlerFunc {
	return func(ctx context.Context, req *command.Command) (*command.Command, error) {
		names := registry.Names()
		infos := make([]queueInfo, 0, len(names))
		for _, name := range names {
			w, ok := registry.Get(name)
			if !ok {
				continue
			}
			info := w.Info()
			infos = append(infos, queueInfo{
				Name:          name,
				WorkflowNames: sortedCopy(info.WorkflowNames),
				ActivityNames: sortedCopy(info.ActivityNames),
				HandlerCount:  info.HandlerCount,
			})
		}
		payload, err := encodeQueueInfos(infos)
		if err != nil {
			return nil, err
		}
		return command.NewResponse(req.ID, payload), nil
	}
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
