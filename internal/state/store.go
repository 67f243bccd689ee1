// Package state provides a generic reducer store.
package state

import "sync"

// Reducer computes the next state from the current one and an action. It
// must not mutate current.
type Reducer[S, A any] func(current S, action A) S

// Token identifies a subscription.
type Token uint64

type subscriber[S any] struct {
	token Token
	fn    func(S)
}

// Store holds a state value that changes only through Dispatch.
//
// Transitions are totally ordered. Every subscriber sees each resulting
// state exactly once, in that order, after State already reflects it.
// Notifications run outside the state lock, so subscribers may call
// Dispatch, Subscribe or Unsubscribe; a nested Dispatch is delivered after
// the current notification finishes.
//
// Only one goroutine delivers notifications at a time. A Dispatch made while
// another goroutine is delivering updates State and returns at once; its
// state is delivered afterwards by the delivering goroutine. Callers that
// need to observe their own transition should read State, not wait for a
// subscriber on their goroutine.
type Store[S, A any] struct {
	mu     sync.Mutex
	state  S
	reduce Reducer[S, A]
	subs   []subscriber[S]
	next   Token

	notifyMu sync.Mutex
	pending  []S
	draining bool
}

// New creates a store with the given initial state.
func New[S, A any](initial S, reduce Reducer[S, A]) *Store[S, A] {
	return &Store[S, A]{state: initial, reduce: reduce}
}

// State returns the current snapshot.
func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with every new state.
func (s *Store[S, A]) Subscribe(fn func(S)) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.subs = append(s.subs, subscriber[S]{token: s.next, fn: fn})
	return s.next
}

// Unsubscribe removes a subscription. Unknown tokens are ignored.
func (s *Store[S, A]) Unsubscribe(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.token == tok {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Dispatch applies action and notifies subscribers, unless another
// goroutine is already notifying, in which case that goroutine delivers
// the new state after its current one.
func (s *Store[S, A]) Dispatch(action A) {
	s.mu.Lock()
	next := s.reduce(s.state, action)
	s.state = next

	// Queue while still holding mu so the queue order matches the
	// transition order.
	s.notifyMu.Lock()
	s.pending = append(s.pending, next)
	if s.draining {
		s.notifyMu.Unlock()
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.notifyMu.Unlock()
	s.mu.Unlock()

	s.drain()
}

func (s *Store[S, A]) drain() {
	for {
		s.notifyMu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.notifyMu.Unlock()
			return
		}
		st := s.pending[0]
		s.pending = s.pending[1:]
		s.notifyMu.Unlock()

		for _, fn := range s.subscribers() {
			fn(st)
		}
	}
}

func (s *Store[S, A]) subscribers() []func(S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(S), len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}
