// Package protocol is the typed request/response model shared by the chat
// adapter and the concrete protocol clients.
package protocol

import (
	"context"
	"time"
)

// Client is a session with a chat protocol backend.
//
// Send must not block. Every response produced for a Send carries the same
// request id; unsolicited updates carry request id 0.
type Client interface {
	Send(requestID int64, fn Function)
	// Receive waits up to timeout for the next object. ok is false when
	// nothing arrived in time.
	Receive(timeout time.Duration) (resp Response, ok bool)
	Close() error
}

// Opener creates a client session.
type Opener func(ctx context.Context) (Client, error)

// Response is an object received from the client.
type Response struct {
	RequestID int64
	Object    Object
}

// IsUpdate reports whether the response is unsolicited.
func (r Response) IsUpdate() bool { return r.RequestID == 0 }
