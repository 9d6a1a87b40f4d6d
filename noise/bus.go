package noise

import (
	"log/slog"
	"sync"
)

// Handler receives every event emitted while it is subscribed.
type Handler func(Event)

// Handle identifies a subscription. The zero Handle is never issued.
type Handle uint64

type subscriber struct {
	handle  Handle
	handler Handler
}

// Bus is a synchronous publish/subscribe channel for noise events.
// It keeps no event history; Emit calls every live handler in subscription
// order and returns when they have all run.
//
// The bus is owned by the simulation root. Agents hold the Handle returned by
// Subscribe and release it on removal; ClearAll drops every subscriber at
// session teardown.
type Bus struct {
	mu     sync.Mutex
	subs   []subscriber
	next   Handle
	logger *slog.Logger
}

// NewBus creates an empty bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers h and returns its handle. A nil handler is ignored and
// yields the zero Handle.
func (b *Bus) Subscribe(h Handler) Handle {
	if h == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.subs = append(b.subs, subscriber{handle: b.next, handler: h})
	return b.next
}

// Unsubscribe removes the subscription for handle. Unknown handles are ignored.
// A dispatch already in progress still reaches the removed handler.
func (b *Bus) Unsubscribe(handle Handle) {
	if handle == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.handle == handle {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to every handler subscribed at the time of the call.
// A panicking handler is logged and skipped; the remaining handlers still run.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		b.dispatch(s, ev)
	}
}

func (b *Bus) dispatch(s subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("noise handler panicked",
				"handle", uint64(s.handle),
				"panic", r,
			)
		}
	}()
	s.handler(ev)
}

// ClearAll removes every subscriber.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
