package bus

import (
	"sync"
	"time"
)

// Handler receives events during Dispatch.
type Handler func(Event)

// Token identifies a subscription.
type Token uint64

// Bus is an in-process event bus. Emit may be called from any goroutine;
// handlers only run inside Dispatch, on the goroutine that calls it.
type Bus struct {
	mu     sync.Mutex
	subs   map[EventID][]subscription
	owners map[Token]EventID
	next   Token

	queueMu sync.Mutex
	queue   []Event
}

type subscription struct {
	token   Token
	handler Handler
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs:   make(map[EventID][]subscription),
		owners: make(map[Token]EventID),
	}
}

// Subscribe registers handler for events with the given id. Handlers for the
// same id run in subscription order.
func (b *Bus) Subscribe(id EventID, handler Handler) Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	tok := b.next
	b.subs[id] = append(b.subs[id], subscription{token: tok, handler: handler})
	b.owners[tok] = id
	return tok
}

// Unsubscribe removes a subscription. Unknown tokens are ignored.
func (b *Bus) Unsubscribe(tok Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.owners[tok]
	if !ok {
		return
	}
	delete(b.owners, tok)

	subs := b.subs[id]
	kept := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.token != tok {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(b.subs, id)
		return
	}
	b.subs[id] = kept
}

// Emit queues an event for the next Dispatch. It never invokes handlers.
func (b *Bus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.queueMu.Lock()
	b.queue = append(b.queue, evt)
	b.queueMu.Unlock()
}

// Dispatch delivers every event queued so far, in emission order. Events
// emitted by handlers during the pass are left for the next call.
func (b *Bus) Dispatch() {
	b.queueMu.Lock()
	pending := b.queue
	b.queue = nil
	b.queueMu.Unlock()

	for _, evt := range pending {
		for _, h := range b.handlers(evt.ID) {
			h(evt)
		}
	}
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	return len(b.queue)
}

func (b *Bus) handlers(id EventID) []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[id]
	out := make([]Handler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}
