// Package mailbox provides an unbounded FIFO with a wakeup signal, for
// producers that must never block on a slow consumer.
package mailbox

import "sync"

// Mailbox is safe for any number of producers and one consumer.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
}

// New returns an empty mailbox with room for capacity items before it
// grows. A non-positive capacity is fine.
func New[T any](capacity int) *Mailbox[T] {
	return &Mailbox[T]{items: make([]T, 0, max(capacity, 0)), signal: make(chan struct{}, 1)}
}

// Put appends v. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Take removes the oldest item, if any.
func (m *Mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	v := m.items[0]
	m.items[0] = zero
	m.items = m.items[1:]
	return v, true
}

// Len returns the number of queued items.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Ready fires at least once after every Put. A receive may be spurious,
// so consumers drain with Take until it reports false.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.signal
}
