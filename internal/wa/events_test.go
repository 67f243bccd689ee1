package wa

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/lounge/internal/adapter"
	"github.com/matheus3301/lounge/internal/bridge"
	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chatstate"
	"github.com/matheus3301/lounge/internal/protocol"
	"github.com/matheus3301/lounge/internal/store"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waHistorySync"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

func liveMessage(id, chat, sender, text string, ts time.Time) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			ID:        id,
			PushName:  "Bob",
			Timestamp: ts,
			MessageSource: types.MessageSource{
				Chat:   types.JID{User: chat, Server: types.DefaultUserServer},
				Sender: types.JID{User: sender, Server: types.DefaultUserServer},
			},
		},
		Message: &waE2E.Message{Conversation: proto.String(text)},
	}
}

func TestLiveMessageAnnouncesNewChat(t *testing.T) {
	dev := newFakeLinker(true)
	db := testDB(t)
	c := newTestClient(t, dev, db)

	dev.emit(liveMessage("M1", "5511", "5511", "hello", time.Unix(1000, 0)))

	nc, _ := expect[protocol.UpdateNewChat](t, c)
	require.Equal(t, "5511", nc.Chat.Title)
	nm, id := expect[protocol.UpdateNewMessage](t, c)
	require.Equal(t, int64(0), id)
	require.Equal(t, nc.Chat.ID, nm.Message.ChatID)
	require.Equal(t, protocol.MessageText{Text: "hello"}, nm.Message.Content)
	require.Equal(t, protocol.SenderUser{UserID: 5511, Name: "Bob"}, nm.Message.Sender)
	require.Equal(t, int64(1000), nm.Message.Date)

	// Same chat again: no new chat, and redelivery is idempotent.
	dev.emit(liveMessage("M1", "5511", "5511", "hello", time.Unix(1000, 0)))
	r := next(t, c)
	again, ok := r.Object.(protocol.UpdateNewMessage)
	require.True(t, ok, "%T", r.Object)
	require.Equal(t, nm.Message.ID, again.Message.ID)

	n, err := db.MessageCount()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestBroadcastMessagesAreIgnored(t *testing.T) {
	dev := newFakeLinker(true)
	db := testDB(t)
	c := newTestClient(t, dev, db)

	evt := liveMessage("S1", "status", "5511", "story", time.Now())
	evt.Info.Chat = types.StatusBroadcastJID
	dev.emit(evt)

	_, ok := c.Receive(50 * time.Millisecond)
	require.False(t, ok)
	n, err := db.MessageCount()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHistorySyncAnnouncesChats(t *testing.T) {
	dev := newFakeLinker(true)
	db := testDB(t)
	c := newTestClient(t, dev, db)

	ts := uint64(time.Now().Unix())
	dev.emit(&events.HistorySync{
		Data: &waHistorySync.HistorySync{
			Conversations: []*waHistorySync.Conversation{
				{
					ID:   proto.String("chat@g.us"),
					Name: proto.String("Book club"),
					Messages: []*waHistorySync.HistorySyncMsg{
						{
							Message: &waWeb.WebMessageInfo{
								Key: &waCommon.MessageKey{
									ID:        proto.String("hm1"),
									FromMe:    proto.Bool(false),
									RemoteJID: proto.String("chat@g.us"),
								},
								MessageTimestamp: &ts,
								Message:          &waE2E.Message{Conversation: proto.String("history msg")},
							},
						},
					},
				},
			},
		},
	})

	nc, _ := expect[protocol.UpdateNewChat](t, c)
	require.Equal(t, "Book club", nc.Chat.Title)

	msgs, err := db.ListMessages(nc.Chat.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "history msg", msgs[0].Body)
}

func TestHistorySyncNilData(t *testing.T) {
	dev := newFakeLinker(true)
	c := newTestClient(t, dev, testDB(t))

	dev.emit(&events.HistorySync{Data: nil})

	_, ok := c.Receive(50 * time.Millisecond)
	require.False(t, ok)
}

func TestLoggedOutClosesSession(t *testing.T) {
	dev := newFakeLinker(true)
	c := newTestClient(t, dev, testDB(t))

	dev.emit(&events.LoggedOut{})

	require.Equal(t, protocol.AuthLoggingOut{}, authState(t, c))
	require.Equal(t, protocol.AuthClosed{}, authState(t, c))
}

// connectingLinker reports Connected as soon as Connect is called.
type connectingLinker struct {
	*fakeLinker
}

func (l connectingLinker) Connect() error {
	err := l.fakeLinker.Connect()
	go l.emit(&events.Connected{})
	return err
}

func TestAdapterOverWhatsApp(t *testing.T) {
	db := testDB(t)
	seed(t, db,
		store.Message{ChatJID: "5511@s.whatsapp.net", MsgID: "a", MessageType: "text", Body: "older", Timestamp: 10},
		store.Message{ChatJID: "5511@s.whatsapp.net", MsgID: "b", MessageType: "text", Body: "newer", Timestamp: 20},
		store.Message{ChatJID: "9999@g.us", MsgID: "c", MessageType: "image", Timestamp: 5},
	)
	dev := connectingLinker{newFakeLinker(true)}

	b := bus.New()
	st := chatstate.NewStore()
	br := bridge.Register(b, st, bridge.Options{}, zap.NewNop())
	defer br.Close()

	a := adapter.New(Opener(dev, db, zap.NewNop()), b, nil, nil, adapter.Options{
		Source:      "whatsapp",
		PollTimeout: 50 * time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))
	defer a.Stop()

	settle := func(cond func(chatstate.State) bool) chatstate.State {
		t.Helper()
		var s chatstate.State
		require.Eventually(t, func() bool {
			b.Dispatch()
			s = st.State()
			return cond(s)
		}, 3*time.Second, 10*time.Millisecond)
		return s
	}

	settle(func(s chatstate.State) bool { return s.BackendReady })

	a.RequestChats(10)
	s := settle(func(s chatstate.State) bool { return len(s.Chats) == 2 })
	require.Equal(t, "5511", s.Chats[0].Title)
	require.Equal(t, "9999", s.Chats[1].Title)

	a.RequestHistory(s.Chats[0].ID, 10)
	s = settle(func(s chatstate.State) bool { return len(s.ChatHistory) == 2 })
	require.Equal(t, "older", s.ChatHistory[0].Text)
	require.Equal(t, "newer", s.ChatHistory[1].Text)

	a.SendMessage(s.Chats[0].ID, "from lounge")
	s = settle(func(s chatstate.State) bool { return len(s.ChatHistory) == 3 })
	last := s.ChatHistory[2]
	require.Equal(t, "from lounge", last.Text)
	require.Equal(t, SelfName, last.Sender)
	require.Equal(t, s.Chats[0].ID, last.ChatID)
}
