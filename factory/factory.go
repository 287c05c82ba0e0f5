// Package factory implements the WorkerFactory/TickLoop: the top-level
// object that owns the codec, registries, router, client, and response
// queue, and drives the per-batch tick algorithm described in spec.md
// §4.1.
package factory

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/converter"

	"github.com/kozlice/rrworker-go/client"
	"github.com/kozlice/rrworker-go/codec"
	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/events"
	"github.com/kozlice/rrworker-go/queue"
	"github.com/kozlice/rrworker-go/registry"
	"github.com/kozlice/rrworker-go/router"
	"github.com/kozlice/rrworker-go/server"
	"github.com/kozlice/rrworker-go/taskqueue"
	"github.com/kozlice/rrworker-go/telemetry"
	"github.com/kozlice/rrworker-go/transport"
	"github.com/kozlice/rrworker-go/worker"
)

// Factory is the WorkerFactory: constructed once per process, owning every
// other core component. Workers are created through NewWorker before Run
// starts; the registry is never mutated afterward (spec.md §3 invariant 6).
type Factory struct {
	converter converter.DataConverter
	rpc       transport.RpcConnection

	registry *taskqueue.Registry
	client   *client.Client
	queue    *queue.ResponseQueue
	router   *router.Router
	server   *server.Server
	bus      *events.Bus
	codec    codec.Codec

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	tickNum uint64
}

// Option configures a Factory at construction time.
type Option func(*Factory)

// WithCodec overrides the codec that would otherwise be selected from
// RR_CODEC.
func WithCodec(c codec.Codec) Option {
	return func(f *Factory) { f.codec = c }
}

// WithLogger overrides the default no-op Logger.
func WithLogger(l telemetry.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// WithMetrics overrides the default no-op Metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(f *Factory) { f.metrics = m }
}

// WithTracer overrides the default no-op Tracer.
func WithTracer(t telemetry.Tracer) Option {
	return func(f *Factory) { f.tracer = t }
}

// New constructs a Factory. conv and rpc are the two external
// collaborators spec.md §1 names: the DataConverter and the RpcConnection.
// The codec defaults to the RR_CODEC environment selection (spec.md §6)
// unless overridden with WithCodec.
func New(conv converter.DataConverter, rpc transport.RpcConnection, opts ...Option) *Factory {
	reg := taskqueue.New()
	q := queue.New()

	f := &Factory{
		converter: conv,
		rpc:       rpc,
		registry:  reg,
		queue:     q,
		client:    client.New(q),
		bus:       events.NewBus(),
		codec:     codec.FromEnv(),
		logger:    telemetry.NewNoopLogger(),
		metrics:   telemetry.NewNoopMetrics(),
		tracer:    telemetry.NewNoopTracer(),
	}
	f.router = router.New(reg)
	f.server = server.New(f.router, reg, q)

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewWorker creates and registers a Worker for taskQueue, scanning
// handlerSrc for workflow/activity entry points via registry.Scan. Must be
// called before Run, per spec.md §4.1's "newWorker(taskQueue) → Worker...
// must be called before run".
func (f *Factory) NewWorker(taskQueue string, handlerSrc any, opts ...registry.Option) (*worker.Worker, error) {
	handlers, err := registry.Scan(handlerSrc, opts...)
	if err != nil {
		return nil, fmt.Errorf("factory: scan handlers for %q: %w", taskQueue, err)
	}

	w := worker.New(taskQueue, f.converter, f.client, f.rpc)
	w.RegisterHandlers(handlers)

	if err := f.registry.Register(w); err != nil {
		return nil, fmt.Errorf("factory: register worker %q: %w", taskQueue, err)
	}
	return w, nil
}

// Router returns the factory-scoped dispatch table, for registering
// additional factory-scoped request kinds beyond GetWorkerInfo.
func (f *Factory) Router() *router.Router { return f.router }

// Client returns the correlated request/response client shared by all
// workers on this factory.
func (f *Factory) Client() *client.Client { return f.client }

// ResponseQueue returns the shared outbound ResponseQueue.
func (f *Factory) ResponseQueue() *queue.ResponseQueue { return f.queue }

// DataConverter returns the shared DataConverter.
func (f *Factory) DataConverter() converter.DataConverter { return f.converter }

// Events returns the lifecycle event bus. Listeners registered here observe
// ON_SIGNAL, ON_CALLBACK, ON_QUERY, ON_TICK in that fixed order every tick.
func (f *Factory) Events() *events.Bus { return f.bus }

// dispatchInbound routes a single decoded command per spec.md §4.1 step 2:
// requests go to the Server, responses go to the Client.
func (f *Factory) dispatchInbound(ctx context.Context, cmd *command.Command) {
	if cmd.IsRequest() {
		f.server.Dispatch(ctx, cmd)
		return
	}
	if err := f.client.Dispatch(cmd); err != nil {
		f.logger.Warn(ctx, "factory: client dispatch protocol error", "error", err.Error(), "id", cmd.ID)
	}
}

// drainWorkerNotices appends every registered worker's pending terminal
// execution notices onto the ResponseQueue. This is the single point where
// the tick loop — the ResponseQueue's sole writer — touches state produced
// asynchronously by execution goroutines, run right after Tick's lifecycle
// events have all been emitted.
func (f *Factory) drainWorkerNotices() {
	for _, w := range f.registry.Workers() {
		for _, notice := range w.DrainNotices() {
			f.queue.Push(notice)
		}
	}
}
