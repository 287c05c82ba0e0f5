package factory

import (
	"context"
	"fmt"

	"github.com/kozlice/rrworker-go/events"
	"github.com/kozlice/rrworker-go/transport"
)

// Run enters the tick loop, blocking until host signals end-of-stream
// (spec.md §4.1 / §6: WaitBatch returning ok==false causes Run to return
// 0). A per-batch error anywhere in decode/dispatch/lifecycle/encode is
// reported via host.Error and the loop continues to the next batch; Run
// itself only returns on end-of-stream or a context cancellation.
func (f *Factory) Run(ctx context.Context, host transport.HostConnection) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 1, err
		}

		batch, ok, err := host.WaitBatch(ctx)
		if err != nil {
			host.Error(ctx, fmt.Errorf("factory: wait batch: %w", err))
			continue
		}
		if !ok {
			return 0, nil
		}

		f.runBatch(ctx, host, batch)
	}
}

// runBatch executes one full tick for a single inbound batch, recovering
// from any panic or error so that a single bad batch can never terminate
// the loop (spec.md §4.1 step 5, §7's propagation policy).
func (f *Factory) runBatch(ctx context.Context, host transport.HostConnection, batch transport.Batch) {
	defer func() {
		if r := recover(); r != nil {
			host.Error(ctx, fmt.Errorf("factory: panic recovered mid-tick: %v", r))
		}
	}()

	if err := f.processBatch(ctx, host, batch); err != nil {
		host.Error(ctx, err)
	}
}

// processBatch implements spec.md §4.1's tick algorithm steps 2-4: decode,
// dispatch each command, run the lifecycle events, then encode and send
// the accumulated ResponseQueue.
func (f *Factory) processBatch(ctx context.Context, host transport.HostConnection, batch transport.Batch) error {
	cmds, err := f.codec.Decode(batch.Messages)
	if err != nil {
		return fmt.Errorf("factory: decode batch: %w", err)
	}

	for _, cmd := range cmds {
		f.dispatchInbound(ctx, cmd)
	}

	if err := f.Tick(ctx); err != nil {
		return fmt.Errorf("factory: tick lifecycle: %w", err)
	}

	f.drainWorkerNotices()

	out, err := f.codec.Encode(f.queue.Drain())
	if err != nil {
		return fmt.Errorf("factory: encode batch: %w", err)
	}

	if err := host.Send(ctx, out); err != nil {
		return fmt.Errorf("factory: send batch: %w", err)
	}
	return nil
}

// Tick emits the four lifecycle events in their fixed contractual order
// (spec.md §4.1, §5(c)): ON_SIGNAL, ON_CALLBACK, ON_QUERY, ON_TICK.
// Listener-produced outbound commands land in the same ResponseQueue via
// the shared Client, same as any other tick-time side effect.
func (f *Factory) Tick(ctx context.Context) error {
	f.tickNum++
	for _, name := range events.Order {
		if err := f.bus.Emit(ctx, events.Event{Name: name, Tick: f.tickNum}); err != nil {
			return fmt.Errorf("factory: lifecycle event %s: %w", name, err)
		}
	}
	return nil
}
