package realtime

import (
	"sync"

	"github.com/ebooth1202/agent-c-framework-sub007/core/events"
)

// Handler receives dispatched events.
type Handler func(events.Event)

// Subscription identifies one registered handler for later removal.
type Subscription struct {
	id uint64
}

type subscription struct {
	id      uint64
	kind    events.Kind
	any     bool
	once    bool
	handler Handler
}

// Bus is a typed publish/subscribe register. Dispatch is synchronous and
// strictly registration-ordered, which makes event ordering a tested
// guarantee rather than an accident of wiring.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// On registers a handler for one event kind.
func (b *Bus) On(kind events.Kind, handler Handler) Subscription {
	return b.add(&subscription{kind: kind, handler: handler})
}

// Once registers a handler invoked for at most one matching event. The
// subscription is removed before the handler runs.
func (b *Bus) Once(kind events.Kind, handler Handler) Subscription {
	return b.add(&subscription{kind: kind, once: true, handler: handler})
}

// OnAny registers a handler for every event regardless of kind.
func (b *Bus) OnAny(handler Handler) Subscription {
	return b.add(&subscription{any: true, handler: handler})
}

func (b *Bus) add(sub *subscription) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	return Subscription{id: sub.id}
}

// Off removes one subscription. Unknown subscriptions are ignored.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, registered := range b.subs {
		if registered.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit dispatches one event to all matching handlers in registration order.
// Handlers registered during dispatch are not invoked for the in-flight
// event.
func (b *Bus) Emit(event events.Event) {
	b.mu.Lock()
	matched := make([]Handler, 0, len(b.subs))
	remaining := b.subs[:0]
	for _, sub := range b.subs {
		if sub.any || sub.kind == event.Kind() {
			matched = append(matched, sub.handler)
			if sub.once {
				continue
			}
		}
		remaining = append(remaining, sub)
	}
	b.subs = remaining
	b.mu.Unlock()

	for _, handler := range matched {
		handler(event)
	}
}

// Reset removes every subscription.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
}
