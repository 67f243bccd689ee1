package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/config"
	"github.com/matheus3301/lounge/internal/protocol"
	"github.com/matheus3301/lounge/internal/protocol/prototest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	b      *bus.Bus
	events []bus.Event
}

func record(b *bus.Bus) *recorder {
	r := &recorder{b: b}
	for _, id := range []bus.EventID{bus.BackendStatus, bus.BackendChatList, bus.BackendChatHistory, bus.BackendNewMessage} {
		b.Subscribe(id, func(e bus.Event) { r.events = append(r.events, e) })
	}
	return r
}

func (r *recorder) of(id bus.EventID) []bus.Event {
	var out []bus.Event
	for _, e := range r.events {
		if e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

// wait drains the bus until n events with the given id have arrived.
func (r *recorder) wait(t *testing.T, id bus.EventID, n int) []bus.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		r.b.Dispatch()
		if got := r.of(id); len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d %v events, have %d", n, id, len(r.of(id)))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// settle drains the bus for a short while so late events would show up.
func (r *recorder) settle() {
	for range 10 {
		r.b.Dispatch()
		time.Sleep(5 * time.Millisecond)
	}
}

type memCreds struct {
	mu    sync.Mutex
	creds config.Credentials
	saved int
}

func (m *memCreds) Credentials() config.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds
}

func (m *memCreds) SetCredentials(id int32, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = config.Credentials{APIID: id, APIHash: hash}
	m.saved++
	return nil
}

type scriptedPrompter struct {
	mu      sync.Mutex
	answers map[PromptKind][]string
	asked   []PromptKind
	links   []string
}

func (p *scriptedPrompter) Prompt(_ context.Context, kind PromptKind, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, kind)
	q := p.answers[kind]
	if len(q) == 0 {
		return "", errors.New("no scripted answer for " + kind.String())
	}
	p.answers[kind] = q[1:]
	return q[0], nil
}

func (p *scriptedPrompter) ShowLink(_ context.Context, link string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.links = append(p.links, link)
	return nil
}

type fixture struct {
	a      *Adapter
	client *prototest.Client
	rec    *recorder
}

func newFixture(t *testing.T, handler prototest.Handler, opts Options, creds CredentialStore, p Prompter) *fixture {
	t.Helper()
	if opts.PollTimeout == 0 {
		opts.PollTimeout = 10 * time.Millisecond
	}
	client := prototest.New(handler)
	b := bus.New()
	f := &fixture{
		a:      New(prototest.Opener(client), b, creds, p, opts, zaptest.NewLogger(t)),
		client: client,
		rec:    record(b),
	}
	t.Cleanup(f.a.Stop)
	return f
}

// ready returns a started adapter over a client that authorizes at once.
func ready(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := newFixture(t, prototest.ReadyHandler, opts, nil, nil)
	require.NoError(t, f.a.Start(context.Background()))
	return f
}

func textMessages(chatID int64, ids ...int64) []protocol.Message {
	out := make([]protocol.Message, len(ids))
	for i, id := range ids {
		out[i] = protocol.Message{
			ID:      id,
			ChatID:  chatID,
			Sender:  protocol.SenderUser{UserID: 1},
			Date:    id,
			Content: protocol.MessageText{Text: "m"},
		}
	}
	return out
}

// descending returns from, from-1, ... for n ids.
func descending(from int64, n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = from - int64(i)
	}
	return ids
}
