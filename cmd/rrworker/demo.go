package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kozlice/rrworker-go/registry"
	"github.com/kozlice/rrworker-go/worker"
)

// DemoHandlers is the default task-queue handler set rrworker registers
// when no application-specific handlers are wired in: an UppercaseWorkflow
// that demonstrates the Start/Signal/Complete path, and a LogActivity that
// demonstrates activity invocation. Real deployments register their own
// handler struct in place of this one.
type DemoHandlers struct {
	_ registry.Marker `rr:"workflow=UppercaseWorkflow"`
	_ registry.Marker `rr:"activity=LogActivity"`
}

// UppercaseWorkflow waits for one signal (of any name) before completing,
// appending the signal's string argument upper-cased to the result,
// demonstrating SetQueryHandler and AwaitSignal together.
func (DemoHandlers) UppercaseWorkflow(ctx context.Context, in string) (string, error) {
	wfCtx, ok := worker.ContextFrom(ctx)
	if !ok {
		return "", fmt.Errorf("rrworker: demo workflow invoked without a workflow context")
	}

	result := strings.ToUpper(in)
	wfCtx.SetQueryHandler("currentResult", func(ctx context.Context, args any) (any, error) {
		return result, nil
	})

	sig, err := wfCtx.AwaitSignal(ctx)
	if err != nil {
		return "", err
	}
	if suffix, ok := sig.Args.(string); ok {
		result += strings.ToUpper(suffix)
	}
	return result, nil
}

// LogActivity echoes its input back, tagged with a fresh correlation id —
// a stand-in for the kind of side-effectful call (writing a log line,
// emitting a metric) a real activity would make through the RpcConnection.
func (DemoHandlers) LogActivity(ctx context.Context, in string) (string, error) {
	return fmt.Sprintf("[%s] %s", uuid.NewString(), in), nil
}
