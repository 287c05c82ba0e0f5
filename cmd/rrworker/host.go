package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/kozlice/rrworker-go/telemetry"
	"github.com/kozlice/rrworker-go/transport"
)

// stdioHost implements transport.HostConnection over a pair of byte
// streams using a 4-byte big-endian length prefix per frame. The physical
// sidecar wire format itself is out of scope (spec.md §1); this is the
// minimal concrete framing needed to make the binary runnable end to end,
// not a claim about RoadRunner's actual on-wire protocol.
type stdioHost struct {
	in     *bufio.Reader
	out    io.Writer
	logger telemetry.Logger

	mu sync.Mutex
}

func newStdioHost(in io.Reader, out io.Writer, logger telemetry.Logger) *stdioHost {
	return &stdioHost{in: bufio.NewReader(in), out: out, logger: logger}
}

func (h *stdioHost) WaitBatch(ctx context.Context) (transport.Batch, bool, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(h.in, lenBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return transport.Batch{}, false, nil
		}
		return transport.Batch{}, false, fmt.Errorf("rrworker: read frame length: %w", err)
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(h.in, data); err != nil {
		return transport.Batch{}, false, fmt.Errorf("rrworker: read frame body: %w", err)
	}

	return transport.Batch{Messages: data}, true, nil
}

func (h *stdioHost) Send(ctx context.Context, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := h.out.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("rrworker: write frame length: %w", err)
	}
	if _, err := h.out.Write(data); err != nil {
		return fmt.Errorf("rrworker: write frame body: %w", err)
	}
	return nil
}

func (h *stdioHost) Error(ctx context.Context, err error) {
	h.logger.Error(ctx, "rrworker: batch error", "error", err.Error())
}
