// Package chat holds the protocol-neutral domain values that flow between
// the adapter, the event bus, and the chat store.
package chat

// ID identifies a chat.
type ID int64

// MessageID identifies a message within the protocol backend.
type MessageID int64

// StatusKind is the coarse backend lifecycle reported to the UI.
type StatusKind int

const (
	Connecting StatusKind = iota
	Ready
	Error
	Stopped
)

func (k StatusKind) String() string {
	switch k {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Error:
		return "error"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Status is the payload of a BackendStatus event.
type Status struct {
	Kind   StatusKind
	Detail string
}

// Summary is one entry of a chat list.
type Summary struct {
	ID    ID
	Title string
}

// List is the payload of a BackendChatList event.
type List []Summary

// Message is a single text message.
type Message struct {
	ID        MessageID
	ChatID    ID
	Sender    string
	Text      string
	Timestamp int64 // unix seconds
}

// History is a page of messages for one chat, oldest first.
type History struct {
	ChatID   ID
	Messages []Message
}
