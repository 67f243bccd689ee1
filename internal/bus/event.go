package bus

import (
	"time"

	"github.com/matheus3301/lounge/internal/chat"
)

// EventID selects which handlers receive an event.
type EventID int

const (
	BackendStatus EventID = iota + 1
	BackendChatList
	BackendChatHistory
	BackendNewMessage
)

func (id EventID) String() string {
	switch id {
	case BackendStatus:
		return "backend.status"
	case BackendChatList:
		return "backend.chat_list"
	case BackendChatHistory:
		return "backend.chat_history"
	case BackendNewMessage:
		return "backend.new_message"
	default:
		return "unknown"
	}
}

// Event represents a domain event emitted on the bus.
type Event struct {
	ID        EventID
	Source    string
	Timestamp time.Time
	// Payload is one of chat.Status, chat.List, chat.History or chat.Message,
	// matching ID. Use the constructors below to keep the two in sync.
	Payload any
}

// StatusEvent builds a BackendStatus event.
func StatusEvent(source string, s chat.Status) Event {
	return Event{ID: BackendStatus, Source: source, Payload: s}
}

// ChatListEvent builds a BackendChatList event.
func ChatListEvent(source string, l chat.List) Event {
	return Event{ID: BackendChatList, Source: source, Payload: l}
}

// HistoryEvent builds a BackendChatHistory event.
func HistoryEvent(source string, h chat.History) Event {
	return Event{ID: BackendChatHistory, Source: source, Payload: h}
}

// MessageEvent builds a BackendNewMessage event.
func MessageEvent(source string, m chat.Message) Event {
	return Event{ID: BackendNewMessage, Source: source, Payload: m}
}
