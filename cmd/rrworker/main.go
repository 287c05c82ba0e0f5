// Command rrworker boots the worker runtime core against a framed stdio
// connection: the CLI/config/logging wiring SPEC_FULL.md carries as
// ambient scaffolding around the in-scope tick/dispatch core.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.temporal.io/sdk/converter"

	"github.com/kozlice/rrworker-go/codec"
	"github.com/kozlice/rrworker-go/factory"
	"github.com/kozlice/rrworker-go/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := telemetry.NewClueLogger()

	opts := []factory.Option{
		factory.WithLogger(logger),
		factory.WithMetrics(telemetry.NewClueMetrics()),
		factory.WithTracer(telemetry.NewClueTracer()),
	}
	if cfg.Codec != "" {
		opts = append(opts, factory.WithCodec(codec.Select(strings.ToLower(cfg.Codec))))
	}

	f := factory.New(converter.GetDefaultDataConverter(), nil, opts...)

	for _, name := range cfg.TaskQueues {
		if _, err := f.NewWorker(name, &DemoHandlers{}); err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("rrworker: register worker %q: %w", name, err))
			return 1
		}
	}

	host := newStdioHost(os.Stdin, os.Stdout, logger)

	ctx := context.Background()
	code, err := f.Run(ctx, host)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return code
}
