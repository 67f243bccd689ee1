package bridge_test

import (
	"testing"
	"time"

	"github.com/matheus3301/lounge/internal/adapter"
	"github.com/matheus3301/lounge/internal/bridge"
	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/chatstate"
	"github.com/matheus3301/lounge/internal/network"
	"github.com/matheus3301/lounge/internal/protocol"
	"github.com/matheus3301/lounge/internal/protocol/prototest"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// server answers the chat list with ids 1 and 2 and titles A and B.
func server(c *prototest.Client, requestID int64, fn protocol.Function) {
	switch f := fn.(type) {
	case protocol.GetChats:
		c.Reply(requestID, protocol.Chats{TotalCount: 2, ChatIDs: []int64{1, 2}})
	case protocol.GetChat:
		c.Reply(requestID, protocol.Chat{ID: f.ChatID, Title: map[int64]string{1: "A", 2: "B"}[f.ChatID]})
	default:
		prototest.ReadyHandler(c, requestID, fn)
	}
}

func TestRequestChatsReachesChatState(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := prototest.New(server)
	b := bus.New()
	st := chatstate.NewStore()
	br := bridge.Register(b, st, bridge.Options{}, nil)
	defer br.Close()

	a := adapter.New(prototest.Opener(client), b, nil, nil, adapter.Options{Source: "test", PollTimeout: 10 * time.Millisecond}, zaptest.NewLogger(t))
	mgr := network.NewManager(a, network.Options{}, nil)
	require.NoError(t, mgr.Start())
	defer mgr.Stop()

	mgr.RequestChats(5)

	require.Eventually(t, func() bool {
		b.Dispatch()
		return len(st.State().Chats) == 2
	}, 2*time.Second, 5*time.Millisecond)

	state := st.State()
	require.True(t, state.BackendReady)
	require.Equal(t, []chat.Summary{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}, state.Chats)

	_, fn := prototest.Expect[protocol.GetChats](t, client)
	require.Equal(t, 5, fn.Limit)
}
