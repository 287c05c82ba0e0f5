// Package client implements the Client and its PromiseTable: the
// correlated request/response mechanism user workflow code uses to issue
// outbound commands to the host and observe their eventual resolution.
package client

import (
	"context"
	"fmt"
	"sync"

	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"

	"github.com/kozlice/rrworker-go/command"
	"github.com/kozlice/rrworker-go/queue"
)

// ErrUnknownResponse's message is written into the Reason of the
// command.ProtocolError that Dispatch returns when given a response with no
// matching pending slot (spec.md §3 invariant 3). The ProtocolError does not
// wrap it, so errors.Is does not match it.
var ErrUnknownResponse = fmt.Errorf("client: response correlates to no pending request")

// Promise is the pending completion slot for one outbound request. Exactly
// one of Payloads or Failure is set once resolved; Wait blocks the calling
// goroutine (a workflow or activity coroutine) until that happens.
type Promise struct {
	id   uint64
	done chan struct{}

	mu       sync.Mutex
	payloads []*commonpb.Payload
	failure  *failurepb.Failure
	resolved bool
}

// ID returns the outbound request id this promise correlates to.
func (p *Promise) ID() uint64 { return p.id }

// Wait blocks until the promise resolves or ctx is canceled, then returns
// the resolved payloads, or an error if the request failed or ctx expired
// first.
func (p *Promise) Wait(ctx context.Context) ([]*commonpb.Payload, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.failure != nil {
			return nil, command.ErrorFromFailure(p.failure)
		}
		return p.payloads, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Promise) resolveValue(payloads []*commonpb.Payload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return
	}
	p.payloads = payloads
	p.resolved = true
	close(p.done)
}

func (p *Promise) resolveFailure(f *failurepb.Failure) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return
	}
	p.failure = f
	p.resolved = true
	close(p.done)
}

// Client correlates outbound requests issued by workflow code with the
// inbound responses that eventually answer them. It owns the monotonic id
// counter (spec.md §3 invariant 1) and the PromiseTable.
//
// Client is single-writer: only the tick loop goroutine calls Request and
// Dispatch. Promise.Wait may be called concurrently from workflow/activity
// coroutines, which is why Promise itself guards its state with a mutex.
type Client struct {
	queue *queue.ResponseQueue

	mu       sync.Mutex
	nextID   uint64
	promises map[uint64]*Promise
}

// New constructs a Client that appends outbound requests to q.
func New(q *queue.ResponseQueue) *Client {
	return &Client{queue: q, promises: make(map[uint64]*Promise)}
}

// Request assigns a fresh monotonically increasing id to a new outbound
// request, appends it to the ResponseQueue, and records a pending slot for
// it. The returned Promise resolves on a later tick when Dispatch is called
// with the correlated response.
func (c *Client) Request(name string, payloads []*commonpb.Payload, header map[string]string, options map[string]any) *Promise {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	p := &Promise{id: id, done: make(chan struct{})}
	c.promises[id] = p
	c.mu.Unlock()

	c.queue.Push(command.NewRequest(id, name, payloads, header, options))
	return p
}

// Dispatch resolves the pending slot correlated to resp.ID. Returns a
// command.ProtocolError whose Reason carries ErrUnknownResponse's message
// and the id if no such slot exists,
// per spec.md §3 invariant 3. The slot is removed from the table once
// resolved: entries persist across ticks only until observed here.
func (c *Client) Dispatch(resp *command.Command) error {
	c.mu.Lock()
	p, ok := c.promises[resp.ID]
	if ok {
		delete(c.promises, resp.ID)
	}
	c.mu.Unlock()

	if !ok {
		return &command.ProtocolError{Reason: fmt.Sprintf("%v: id=%d", ErrUnknownResponse, resp.ID)}
	}

	if resp.IsFailure() {
		p.resolveFailure(resp.Failure)
	} else {
		p.resolveValue(resp.Payloads)
	}
	return nil
}

// Cancel marks the pending slot for id as canceled. Per spec.md §4.3, the
// policy is handler-specific but at minimum flips the pending slot into a
// canceled failure if no response ever arrives; this implementation applies
// that minimum policy by resolving the slot immediately with a canceled
// failure and removing it from the table. If a response subsequently
// arrives for the same id, Dispatch finds no slot and returns a
// command.ProtocolError; the promise keeps its canceled failure.
func (c *Client) Cancel(id uint64) {
	c.mu.Lock()
	p, ok := c.promises[id]
	if ok {
		delete(c.promises, id)
	}
	c.mu.Unlock()

	if ok {
		p.resolveFailure(command.NewCanceledFailure(fmt.Sprintf("request %d canceled", id)))
	}
}

// Pending returns the number of outbound requests awaiting a response.
// Intended for tests and diagnostics (spec.md §8: "the PromiseTable
// contains exactly one pending slot with that id at tick end").
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.promises)
}

// HasPending reports whether id currently has a pending slot.
func (c *Client) HasPending(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.promises[id]
	return ok
}
