// Package prototest provides a scripted in-memory protocol.Client.
package prototest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/lounge/internal/protocol"
)

// Sent is one recorded Send call.
type Sent struct {
	RequestID int64
	Function  protocol.Function
}

// Handler reacts to a Send. It runs on the sending goroutine and must not
// block; use Client.Reply and Client.Update to answer.
type Handler func(c *Client, requestID int64, fn protocol.Function)

// Client is a fake protocol.Client.
type Client struct {
	handler Handler
	inbox   chan protocol.Response
	sentCh  chan Sent

	mu     sync.Mutex
	sent   []Sent
	closed bool
}

// New creates a fake client. handler may be nil.
func New(handler Handler) *Client {
	return &Client{
		handler: handler,
		inbox:   make(chan protocol.Response, 1024),
		sentCh:  make(chan Sent, 1024),
	}
}

// ReadyHandler authorizes immediately and answers Close the way a real
// session does. Everything else is left to the test.
func ReadyHandler(c *Client, _ int64, fn protocol.Function) {
	switch fn.(type) {
	case protocol.GetAuthorizationState:
		c.Update(protocol.UpdateAuthorizationState{State: protocol.AuthReady{}})
	case protocol.Close:
		c.Update(protocol.UpdateAuthorizationState{State: protocol.AuthClosing{}})
		c.Update(protocol.UpdateAuthorizationState{State: protocol.AuthClosed{}})
	}
}

func (c *Client) Send(requestID int64, fn protocol.Function) {
	s := Sent{RequestID: requestID, Function: fn}
	c.mu.Lock()
	c.sent = append(c.sent, s)
	c.mu.Unlock()
	c.sentCh <- s
	if c.handler != nil {
		c.handler(c, requestID, fn)
	}
}

func (c *Client) Receive(timeout time.Duration) (protocol.Response, bool) {
	select {
	case r := <-c.inbox:
		return r, true
	case <-time.After(timeout):
		return protocol.Response{}, false
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Reply queues a response to requestID.
func (c *Client) Reply(requestID int64, obj protocol.Object) {
	c.inbox <- protocol.Response{RequestID: requestID, Object: obj}
}

// Update queues an unsolicited update.
func (c *Client) Update(obj protocol.Object) {
	c.Reply(0, obj)
}

// Sent returns every recorded Send so far.
func (c *Client) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sent, len(c.sent))
	copy(out, c.sent)
	return out
}

// Count returns how many recorded sends have type F.
func Count[F protocol.Function](c *Client) int {
	n := 0
	for _, s := range c.Sent() {
		if _, ok := s.Function.(F); ok {
			n++
		}
	}
	return n
}

// Expect waits for the next send of type F, skipping sends of other types.
func Expect[F protocol.Function](t testing.TB, c *Client) (int64, F) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-c.sentCh:
			if fn, ok := s.Function.(F); ok {
				return s.RequestID, fn
			}
		case <-deadline:
			var zero F
			t.Fatalf("timed out waiting for %T", zero)
			return 0, zero
		}
	}
}

// Opener returns a protocol.Opener that always yields c.
func Opener(c *Client) protocol.Opener {
	return func(_ context.Context) (protocol.Client, error) { return c, nil }
}
