package bridge

import (
	"testing"

	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/chatstate"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts Options) (*bus.Bus, *chatstate.Store, *Bridge) {
	t.Helper()
	b := bus.New()
	s := chatstate.NewStore()
	br := Register(b, s, opts, nil)
	t.Cleanup(br.Close)
	return b, s, br
}

func TestEventsBecomeActions(t *testing.T) {
	b, s, _ := setup(t, Options{})

	b.Emit(bus.StatusEvent("test", chat.Status{Kind: chat.Ready}))
	b.Emit(bus.ChatListEvent("test", chat.List{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}))
	b.Emit(bus.HistoryEvent("test", chat.History{ChatID: 2, Messages: []chat.Message{{ID: 10, ChatID: 2, Text: "old"}}}))
	b.Emit(bus.MessageEvent("test", chat.Message{ID: 11, ChatID: 2, Text: "new"}))

	// Nothing reaches the store before the owner drains the bus.
	require.False(t, s.State().BackendReady)

	b.Dispatch()

	st := s.State()
	require.True(t, st.BackendReady)
	require.Equal(t, []chat.Summary{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}, st.Chats)
	require.True(t, st.HasSelection)
	require.Equal(t, chat.ID(2), st.SelectedChat)
	require.Len(t, st.ChatHistory, 2)
	require.Equal(t, "new", st.ChatHistory[1].Text)
}

func TestOneNotificationPerEvent(t *testing.T) {
	b, s, _ := setup(t, Options{})
	calls := 0
	s.Subscribe(func(chatstate.State) { calls++ })

	b.Emit(bus.StatusEvent("test", chat.Status{Kind: chat.Connecting}))
	b.Emit(bus.StatusEvent("test", chat.Status{Kind: chat.Ready}))
	b.Emit(bus.ChatListEvent("test", nil))
	b.Dispatch()

	require.Equal(t, 3, calls)
}

func TestMaxChats(t *testing.T) {
	b, s, _ := setup(t, Options{MaxChats: 2})
	b.Emit(bus.ChatListEvent("test", chat.List{{ID: 1}, {ID: 2}, {ID: 3}}))
	b.Dispatch()

	require.Len(t, s.State().Chats, 2)
	require.Equal(t, chat.ID(2), s.State().Chats[1].ID)
}

func TestMismatchedPayloadDropped(t *testing.T) {
	b, s, _ := setup(t, Options{})
	calls := 0
	s.Subscribe(func(chatstate.State) { calls++ })

	b.Emit(bus.Event{ID: bus.BackendChatList, Payload: chat.Status{Kind: chat.Ready}})
	b.Emit(bus.Event{ID: bus.BackendStatus, Payload: "nope"})
	b.Dispatch()

	require.Zero(t, calls)
}

func TestClose(t *testing.T) {
	b := bus.New()
	s := chatstate.NewStore()
	br := Register(b, s, Options{}, nil)
	br.Close()

	b.Emit(bus.StatusEvent("test", chat.Status{Kind: chat.Ready}))
	b.Dispatch()

	require.False(t, s.State().BackendReady)
}
