package worker

import (
	"context"
	"sync"

	commonpb "go.temporal.io/api/common/v1"

	"github.com/kozlice/rrworker-go/client"
	"github.com/kozlice/rrworker-go/transport"
)

// QueryHandler answers a synchronous QueryWorkflow request. It must not
// mutate workflow state, per spec.md §4.5.
type QueryHandler func(ctx context.Context, args any) (any, error)

// Signal is one delivered SignalWorkflow payload, decoded via the shared
// DataConverter before being handed to AwaitSignal callers.
type Signal struct {
	Name string
	Args any
}

type workflowContextKey struct{}

// WorkflowContext is the capability handed to a running workflow execution:
// it lets the handler issue outbound requests through the shared Client,
// register query handlers, and await delivered signals. It is reachable
// from inside a handler via ContextFrom(ctx), following the teacher's
// context-wrapping convention rather than widening every handler's
// signature.
type WorkflowContext struct {
	ID     string
	Client *client.Client
	Rpc    transport.RpcConnection

	mu            sync.Mutex
	queryHandlers map[string]QueryHandler
	signalCh      chan Signal
	canceled      chan struct{}
	cancelOnce    sync.Once
}

func newWorkflowContext(id string, c *client.Client, rpc transport.RpcConnection) *WorkflowContext {
	return &WorkflowContext{
		ID:       id,
		Client:   c,
		Rpc:      rpc,
		signalCh: make(chan Signal, 16),
		canceled: make(chan struct{}),
	}
}

// WithWorkflowContext returns a child context carrying wc, retrievable with
// ContextFrom.
func WithWorkflowContext(parent context.Context, wc *WorkflowContext) context.Context {
	return context.WithValue(parent, workflowContextKey{}, wc)
}

// ContextFrom retrieves the WorkflowContext stashed by WithWorkflowContext,
// if any.
func ContextFrom(ctx context.Context) (*WorkflowContext, bool) {
	wc, ok := ctx.Value(workflowContextKey{}).(*WorkflowContext)
	return wc, ok
}

// SetQueryHandler registers fn to answer QueryWorkflow requests named name.
// Mirrors workflow.SetQueryHandler from the Temporal Go SDK, the facility
// spec.md §4.5 leaves unspecified at the registration-mechanism level
// (see SPEC_FULL.md's SUPPLEMENTED section).
func (wc *WorkflowContext) SetQueryHandler(name string, fn QueryHandler) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if wc.queryHandlers == nil {
		wc.queryHandlers = make(map[string]QueryHandler)
	}
	wc.queryHandlers[name] = fn
}

func (wc *WorkflowContext) queryHandler(name string) (QueryHandler, bool) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	fn, ok := wc.queryHandlers[name]
	return fn, ok
}

// AwaitSignal blocks until a signal is delivered, the workflow is canceled,
// or ctx is done, whichever happens first.
func (wc *WorkflowContext) AwaitSignal(ctx context.Context) (Signal, error) {
	select {
	case sig := <-wc.signalCh:
		return sig, nil
	case <-wc.canceled:
		return Signal{}, errCanceled
	case <-ctx.Done():
		return Signal{}, ctx.Err()
	}
}

func (wc *WorkflowContext) deliverSignal(sig Signal) {
	select {
	case wc.signalCh <- sig:
	default:
		// Buffer full: drop the oldest pending signal rather than block the
		// tick loop. A production host is expected to size the buffer via
		// its own backpressure; 16 is a generous default for this core.
		select {
		case <-wc.signalCh:
		default:
		}
		wc.signalCh <- sig
	}
}

func (wc *WorkflowContext) cancel() {
	wc.cancelOnce.Do(func() { close(wc.canceled) })
}

// WaitPromise blocks on p, same as p.Wait, but also returns early with a
// canceled error if the workflow execution is canceled first. Handlers that
// want outbound requests to observe cancellation should wait through this
// instead of calling p.Wait directly.
func (wc *WorkflowContext) WaitPromise(ctx context.Context, p *client.Promise) ([]*commonpb.Payload, error) {
	type result struct {
		payloads []*commonpb.Payload
		err      error
	}
	done := make(chan result, 1)
	go func() {
		payloads, err := p.Wait(ctx)
		done <- result{payloads, err}
	}()
	select {
	case r := <-done:
		return r.payloads, r.err
	case <-wc.canceled:
		return nil, errCanceled
	}
}
