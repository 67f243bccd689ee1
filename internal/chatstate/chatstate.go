// Package chatstate is the chat screen's reducer: its state, its actions and
// the store that binds them.
package chatstate

import (
	"slices"

	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/state"
)

// State is an immutable snapshot. Reduce never mutates the slices of a
// previous snapshot, so holders may keep them.
type State struct {
	BackendReady      bool
	BackendConnecting bool
	SelectedChat      chat.ID
	HasSelection      bool
	Chats             []chat.Summary
	ChatHistory       []chat.Message
}

// Action is one of SetBackendStatus, SetChats, SetChatHistory,
// AppendMessage or ResetChats.
type Action interface {
	isAction()
}

type SetBackendStatus struct{ Status chat.Status }

type SetChats struct{ Chats []chat.Summary }

type SetChatHistory struct{ History chat.History }

type AppendMessage struct{ Message chat.Message }

type ResetChats struct{}

func (SetBackendStatus) isAction() {}
func (SetChats) isAction()         {}
func (SetChatHistory) isAction()   {}
func (AppendMessage) isAction()    {}
func (ResetChats) isAction()       {}

// Store is the chat store type.
type Store = state.Store[State, Action]

// NewStore creates a chat store with the zero State.
func NewStore() *Store {
	return state.New[State, Action](State{}, Reduce)
}

// Reduce returns the state that follows cur after a.
func Reduce(cur State, a Action) State {
	switch a := a.(type) {
	case SetBackendStatus:
		next := cur
		next.BackendConnecting = a.Status.Kind == chat.Connecting
		next.BackendReady = a.Status.Kind == chat.Ready
		if !next.BackendReady {
			next.Chats = nil
			next.ChatHistory = nil
			next.SelectedChat = 0
			next.HasSelection = false
		}
		return next
	case SetChats:
		next := cur
		next.Chats = slices.Clone(a.Chats)
		return next
	case SetChatHistory:
		next := cur
		next.SelectedChat = a.History.ChatID
		next.HasSelection = true
		next.ChatHistory = slices.Clone(a.History.Messages)
		return next
	case AppendMessage:
		if !cur.HasSelection || cur.SelectedChat != a.Message.ChatID {
			return cur
		}
		next := cur
		next.ChatHistory = append(slices.Clip(cur.ChatHistory), a.Message)
		return next
	case ResetChats:
		return State{}
	default:
		panic("chatstate: unhandled action")
	}
}
