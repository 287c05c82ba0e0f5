// Package transport declares the two external collaborators the worker
// core talks to but does not implement: the physical sidecar connection
// and the auxiliary RPC channel. Both are interfaces only, per spec.md §1
// and §6 — concrete implementations (a RoadRunner pipe, a gRPC client,
// ...) live outside this module.
package transport

import "context"

// Batch is one host.waitBatch() result: a framed message payload plus any
// context headers the host layered on top of the batch as a whole.
type Batch struct {
	Messages []byte
	Context  map[string]string
}

// HostConnection is the boundary to the sidecar host process that brokers
// traffic with the Temporal service. WaitBatch may block the calling
// goroutine; ok is false when the host signals end-of-stream, which causes
// factory.Factory.Run to return.
type HostConnection interface {
	WaitBatch(ctx context.Context) (batch Batch, ok bool, err error)
	Send(ctx context.Context, data []byte) error
	Error(ctx context.Context, err error)
}

// RpcConnection is the synchronous request/response RPC channel used by
// activity handlers and the workflow-service path. It is shared read/write
// across handlers and must be safe for serialized use by the tick
// goroutine; the worker package hands it to workflow handlers as an opaque
// capability (WorkflowContext.Rpc) and never inspects its wire format.
// Activity handlers are not given it: InvokeActivity calls them with a
// plain context.
type RpcConnection interface {
	Call(ctx context.Context, method string, payload []byte) ([]byte, error)
}
