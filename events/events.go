// Package events implements the process-scoped lifecycle observer bus. A
// tick publishes the four lifecycle events in a fixed, contractual order;
// listener order within a single event name is registration order, per the
// fan-out pattern this package is grounded on.
package events

import (
	"context"
	"errors"
	"sync"
)

// Name identifies one of the four fixed lifecycle events a tick emits.
type Name string

// The four lifecycle events, emitted by factory.Factory.Tick in this exact
// order on every tick.
const (
	OnSignal   Name = "ON_SIGNAL"
	OnCallback Name = "ON_CALLBACK"
	OnQuery    Name = "ON_QUERY"
	OnTick     Name = "ON_TICK"
)

// Order is the contractual emission order of the lifecycle events.
var Order = []Name{OnSignal, OnCallback, OnQuery, OnTick}

// Event is a single lifecycle occurrence published to a Bus.
type Event struct {
	// Name is one of OnSignal, OnCallback, OnQuery, OnTick.
	Name Name
	// Tick is the tick sequence number during which this event fired,
	// starting at 1 for the first tick.
	Tick uint64
}

// Listener reacts to published lifecycle events. Listeners are invoked
// synchronously, in registration order, for every event name they are
// registered against.
type Listener interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(ctx context.Context, evt Event) error

// HandleEvent calls f.
func (f ListenerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Subscription represents an active registration on a Bus. Close is
// idempotent: repeated calls are no-ops.
type Subscription interface {
	Close()
}

// Bus fans out lifecycle events to registered listeners in a deterministic,
// named-slot emitter: registration order within a name, with no ordering
// relationship promised across different names (the emitter's caller is
// responsible for the ON_SIGNAL/ON_CALLBACK/ON_QUERY/ON_TICK sequencing).
type Bus struct {
	mu        sync.RWMutex
	listeners map[Name][]*subscription
}

type subscription struct {
	bus   *Bus
	name  Name
	once  sync.Once
	inner Listener
}

// NewBus constructs an empty, ready-to-use lifecycle event bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[Name][]*subscription)}
}

// On registers l to receive every event published under name and returns a
// Subscription that can be closed to unregister. Returns an error if l is
// nil.
func (b *Bus) On(name Name, l Listener) (Subscription, error) {
	if l == nil {
		return nil, errors.New("events: listener is required")
	}
	sub := &subscription{bus: b, name: name, inner: l}
	b.mu.Lock()
	b.listeners[name] = append(b.listeners[name], sub)
	b.mu.Unlock()
	return sub, nil
}

// Emit publishes evt to every listener registered for evt.Name, in
// registration order. Iteration stops at the first listener error, which is
// returned to the caller; remaining listeners for this event are skipped.
//
// Emit snapshots the listener slice before iterating, so registering or
// closing a subscription during Emit does not affect the delivery already
// in progress.
func (b *Bus) Emit(ctx context.Context, evt Event) error {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.listeners[evt.Name]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		if err := sub.inner.HandleEvent(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close unregisters the subscription. Safe to call multiple times and safe
// to call concurrently with Emit: events already in flight may still reach
// a subscriber whose Close races the in-progress Emit.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		subs := s.bus.listeners[s.name]
		for i, cand := range subs {
			if cand == s {
				s.bus.listeners[s.name] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	})
}
