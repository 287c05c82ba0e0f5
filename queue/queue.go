// Package queue implements the ResponseQueue: the ordered, append-only
// buffer of outbound commands produced during a single tick.
package queue

import "github.com/kozlice/rrworker-go/command"

// ResponseQueue is an ordered sequence of commands awaiting outbound
// framing. Per spec, it is single-writer (the tick loop owns it) and is
// drained to empty by each codec.Encode call; no cross-thread locking is
// required or performed.
type ResponseQueue struct {
	items []*command.Command
}

// New returns an empty ResponseQueue.
func New() *ResponseQueue {
	return &ResponseQueue{}
}

// Push appends cmd to the queue, preserving insertion order.
func (q *ResponseQueue) Push(cmd *command.Command) {
	q.items = append(q.items, cmd)
}

// Len returns the number of commands currently buffered.
func (q *ResponseQueue) Len() int {
	return len(q.items)
}

// Drain returns the buffered commands in insertion order and empties the
// queue. Per invariant 5, the queue is empty at the start of a tick, so
// every tick begins with a call to Drain (implicitly, via a fresh batch) or
// relies on the caller draining it at the end of the previous tick.
func (q *ResponseQueue) Drain() []*command.Command {
	items := q.items
	q.items = nil
	return items
}

// Peek returns a read-only snapshot of the currently buffered commands
// without draining the queue. Intended for tests and diagnostics.
func (q *ResponseQueue) Peek() []*command.Command {
	out := make([]*command.Command, len(q.items))
	copy(out, q.items)
	return out
}
