// Package bridge feeds backend events from the bus into the chat store.
package bridge

import (
	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/chatstate"
	"go.uber.org/zap"
)

// Options tunes the translation.
type Options struct {
	// MaxChats truncates chat lists before they reach the store. Zero
	// keeps every chat.
	MaxChats int
}

// Bridge holds the bus subscriptions that drive a chat store.
type Bridge struct {
	bus    *bus.Bus
	store  *chatstate.Store
	opts   Options
	logger *zap.Logger
	tokens []bus.Token
}

// Register subscribes store to every backend event on b. Handlers run on the
// goroutine that calls b.Dispatch.
func Register(b *bus.Bus, store *chatstate.Store, opts Options, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	br := &Bridge{bus: b, store: store, opts: opts, logger: logger}
	for _, id := range []bus.EventID{
		bus.BackendStatus,
		bus.BackendChatList,
		bus.BackendChatHistory,
		bus.BackendNewMessage,
	} {
		br.tokens = append(br.tokens, b.Subscribe(id, br.handle))
	}
	return br
}

// Close removes the bridge's subscriptions.
func (br *Bridge) Close() {
	for _, tok := range br.tokens {
		br.bus.Unsubscribe(tok)
	}
	br.tokens = nil
}

func (br *Bridge) handle(evt bus.Event) {
	action, ok := br.translate(evt)
	if !ok {
		br.logger.Warn("dropping event with unexpected payload",
			zap.Stringer("event", evt.ID),
			zap.String("source", evt.Source),
		)
		return
	}
	br.store.Dispatch(action)
}

// translate maps exactly one event to exactly one action.
func (br *Bridge) translate(evt bus.Event) (chatstate.Action, bool) {
	switch p := evt.Payload.(type) {
	case chat.Status:
		if evt.ID != bus.BackendStatus {
			return nil, false
		}
		br.logger.Info("backend status",
			zap.String("source", evt.Source),
			zap.Stringer("kind", p.Kind),
			zap.String("detail", p.Detail),
		)
		return chatstate.SetBackendStatus{Status: p}, true
	case chat.List:
		if evt.ID != bus.BackendChatList {
			return nil, false
		}
		chats := []chat.Summary(p)
		if br.opts.MaxChats > 0 && len(chats) > br.opts.MaxChats {
			chats = chats[:br.opts.MaxChats]
		}
		br.logger.Debug("chat list", zap.Int("chats", len(chats)))
		return chatstate.SetChats{Chats: chats}, true
	case chat.History:
		if evt.ID != bus.BackendChatHistory {
			return nil, false
		}
		br.logger.Debug("chat history",
			zap.Int64("chat_id", int64(p.ChatID)),
			zap.Int("messages", len(p.Messages)),
		)
		return chatstate.SetChatHistory{History: p}, true
	case chat.Message:
		if evt.ID != bus.BackendNewMessage {
			return nil, false
		}
		return chatstate.AppendMessage{Message: p}, true
	default:
		return nil, false
	}
}
