// Package taskqueue implements the TaskQueueRegistry: a named, stable-order
// set of Workers that a Server consults when routing a request carrying a
// taskQueue header.
package taskqueue

import (
	"errors"
	"fmt"

	"github.com/kozlice/rrworker-go/command"
)

// ErrUnknownQueue names the unknown-task-queue condition. Get does not
// return it: Get reports a name that was never registered with ok == false.
var ErrUnknownQueue = errors.New("taskqueue: unknown task queue")

// ErrDuplicateQueue is returned by Register when a queue name is already
// taken. Queue names are unique by invariant (spec.md §3).
var ErrDuplicateQueue = errors.New("taskqueue: duplicate task queue name")

// Info summarizes a Worker's handler tables for GetWorkerInfo: the
// registered workflow/activity type names and a count of the total
// handlers, the RoadRunner-host pool-sizing detail from SPEC_FULL.md's
// supplemented GetWorkerInfo extension.
type Info struct {
	WorkflowNames []string
	ActivityNames []string
	HandlerCount  int
}

// Worker is the subset of worker.Worker the registry needs: just enough to
// route and to answer GetWorkerInfo, without taskqueue importing worker
// (worker imports taskqueue, not the reverse).
type Worker interface {
	Name() string
	Info() Info

	// DrainNotices returns and clears any terminal workflow-execution
	// notifications (Completed/Failed/Canceled/Terminated/ContinuedAsNew)
	// produced by execution goroutines since the last drain. Called only by
	// the tick loop right after each tick's lifecycle events; the tick loop
	// then appends these onto the shared ResponseQueue.
	DrainNotices() []*command.Command
}

// Registry is the TaskQueueRegistry: a set of Workers keyed by task-queue
// name, with unique names and stable iteration order. Workers are added at
// configuration time, before the tick loop starts, and never removed during
// a run (spec.md §3 invariant 6: no mutation of the registry during a tick).
type Registry struct {
	order []string
	byName map[string]Worker
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]Worker)}
}

// Register adds w under w.Name(). Returns ErrDuplicateQueue if that name is
// already registered. Intended to be called only during factory
// construction, before Run.
func (r *Registry) Register(w Worker) error {
	name := w.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateQueue, name)
	}
	r.byName[name] = w
	r.order = append(r.order, name)
	return nil
}

// Get looks up the Worker registered under name.
func (r *Registry) Get(name string) (Worker, bool) {
	w, ok := r.byName[name]
	return w, ok
}

// Names returns the registered queue names in registration order, the
// stable iteration order GetWorkerInfo relies on.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Workers returns the registered Workers in registration order.
func (r *Registry) Workers() []Worker {
	out := make([]Worker, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered queues.
func (r *Registry) Len() int {
	return len(r.order)
}
