// Package adapter drives a protocol.Client: it runs the authorization
// handshake, aggregates chat-list and history responses, and emits the
// results as backend events.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/config"
	"github.com/matheus3301/lounge/internal/protocol"
	"go.uber.org/zap"
)

var (
	// ErrStart wraps every failure that keeps Start from reaching Ready.
	ErrStart = errors.New("backend start failed")
	// ErrAuthClosed is reported when the session closes before Ready.
	ErrAuthClosed = errors.New("authorization closed")
)

const (
	DefaultPollTimeout  = time.Second
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// CredentialStore reads and persists the application credentials.
type CredentialStore interface {
	Credentials() config.Credentials
	SetCredentials(apiID int32, apiHash string) error
}

// Options configures an Adapter.
type Options struct {
	// Source labels every emitted event.
	Source string
	// PollTimeout bounds each Receive call, and so how long Stop waits
	// for the receiver.
	PollTimeout time.Duration
	// AggregationTimeout discards chat-list and history aggregations
	// that have not completed in time. Zero disables expiry.
	AggregationTimeout time.Duration
	// AppCredentialsRequired makes the handshake prompt for an API id and
	// hash when the credential store has none.
	AppCredentialsRequired bool
	// Parameters is sent on WaitParameters with the API fields filled from
	// the credential store.
	Parameters protocol.SetParameters
}

// Adapter is a chat backend over a protocol.Client.
type Adapter struct {
	open     protocol.Opener
	bus      *bus.Bus
	creds    CredentialStore
	prompter Prompter
	opts     Options
	logger   *zap.Logger

	client     protocol.Client
	session    *Session
	nextID     atomic.Int64
	running    atomic.Bool
	authorized atomic.Bool
	stopping   atomic.Bool

	cancel       context.CancelFunc
	done         chan struct{}
	teardownOnce sync.Once
	stopOnce     sync.Once

	titlesMu   sync.Mutex
	chatTitles map[int64]string

	chatsMu sync.Mutex
	chats   chatAggregation

	historyMu   sync.Mutex
	history     map[int64]*historyAggregation
	historyReqs map[int64]int64 // request id -> chat id
}

// New creates an adapter. prompter and logger may be nil.
func New(open protocol.Opener, b *bus.Bus, creds CredentialStore, prompter Prompter, opts Options, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompter == nil {
		prompter = noPrompter{}
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.Source == "" {
		opts.Source = "backend"
	}
	return &Adapter{
		open:        open,
		bus:         b,
		creds:       creds,
		prompter:    prompter,
		opts:        opts,
		logger:      logger,
		session:     NewSession(),
		chatTitles:  make(map[int64]string),
		history:     make(map[int64]*historyAggregation),
		historyReqs: make(map[int64]int64),
	}
}

// Session exposes the authorization state.
func (a *Adapter) Session() *Session {
	return a.session
}

// Start opens the client and blocks until the session is Ready, fails, or
// ctx is done. On failure every resource it acquired is released.
func (a *Adapter) Start(ctx context.Context) error {
	a.emitStatus(chat.Connecting, "")

	client, err := a.open(ctx)
	if err != nil {
		a.emitStatus(chat.Error, err.Error())
		_ = a.session.Transition(Failed)
		return fmt.Errorf("%w: open client: %w", ErrStart, err)
	}
	a.client = client
	a.transition(Connecting)

	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.done = make(chan struct{})
	a.running.Store(true)
	go a.receive(rctx)

	a.send(protocol.GetAuthorizationState{})

	if err := a.session.Wait(ctx); err != nil {
		a.teardown()
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	a.logger.Info("backend ready", zap.String("source", a.opts.Source))
	return nil
}

// Stop closes the session and waits for the receiver to exit. It is safe to
// call more than once and after a failed Start.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		if a.client == nil {
			return
		}
		if a.running.Load() {
			a.stopping.Store(true)
			a.send(protocol.Close{})
			select {
			case <-a.done:
			case <-time.After(a.opts.PollTimeout):
			}
		}
		a.teardown()
		a.emitStatus(chat.Stopped, "")
		a.logger.Info("backend stopped", zap.String("source", a.opts.Source))
	})
}

func (a *Adapter) teardown() {
	a.teardownOnce.Do(func() {
		a.running.Store(false)
		a.authorized.Store(false)
		a.cancel()
		<-a.done
		if err := a.client.Close(); err != nil {
			a.logger.Warn("close protocol client", zap.Error(err))
		}
	})
}

// RequestChats asks for up to limit chats. The result arrives as one
// BackendChatList event.
func (a *Adapter) RequestChats(limit int) {
	if !a.authorized.Load() {
		a.logger.Debug("not authorized, ignoring chat request")
		return
	}
	id := a.requestID()
	a.chatsMu.Lock()
	a.chats.begin(id)
	a.chatsMu.Unlock()
	a.client.Send(id, protocol.GetChats{Limit: limit})
}

// RequestHistory asks for the last limit messages of a chat, replacing any
// request for the same chat still in flight. The result arrives as one
// BackendChatHistory event.
func (a *Adapter) RequestHistory(chatID chat.ID, limit int) {
	if !a.authorized.Load() {
		a.logger.Debug("not authorized, ignoring history request", zap.Int64("chat_id", int64(chatID)))
		return
	}
	limit = ClampHistoryLimit(limit)
	id := a.requestID()

	a.historyMu.Lock()
	if old, ok := a.history[int64(chatID)]; ok {
		delete(a.historyReqs, old.requestID)
		a.logger.Debug("history request superseded", zap.Int64("chat_id", int64(chatID)))
	}
	a.history[int64(chatID)] = &historyAggregation{
		requestID: id,
		limit:     limit,
		started:   time.Now(),
	}
	a.historyReqs[id] = int64(chatID)
	a.historyMu.Unlock()

	a.client.Send(id, protocol.GetChatHistory{ChatID: int64(chatID), Limit: limit})
}

// SendMessage sends a text message. The sent message comes back as a
// BackendNewMessage event once the protocol reports it.
func (a *Adapter) SendMessage(chatID chat.ID, text string) {
	if !a.authorized.Load() {
		a.logger.Debug("not authorized, ignoring send", zap.Int64("chat_id", int64(chatID)))
		return
	}
	if text == "" {
		return
	}
	a.send(protocol.SendMessage{ChatID: int64(chatID), Text: text})
}

// ClampHistoryLimit maps a requested history size into [1, MaxHistoryLimit].
func ClampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return min(limit, MaxHistoryLimit)
}

func (a *Adapter) requestID() int64 {
	return a.nextID.Add(1)
}

func (a *Adapter) send(fn protocol.Function) int64 {
	id := a.requestID()
	a.client.Send(id, fn)
	return id
}

func (a *Adapter) emit(evt bus.Event) {
	a.bus.Emit(evt)
}

func (a *Adapter) emitStatus(kind chat.StatusKind, detail string) {
	a.emit(bus.StatusEvent(a.opts.Source, chat.Status{Kind: kind, Detail: detail}))
}

func (a *Adapter) receive(ctx context.Context) {
	defer close(a.done)
	for a.running.Load() && ctx.Err() == nil {
		resp, ok := a.client.Receive(a.opts.PollTimeout)
		a.expire(time.Now())
		if !ok {
			continue
		}
		a.route(ctx, resp)
	}
}

// route dispatches by object type. Request ids only serve as generation
// tags for aggregations.
func (a *Adapter) route(ctx context.Context, resp protocol.Response) {
	switch obj := resp.Object.(type) {
	case protocol.UpdateAuthorizationState:
		a.onAuthState(ctx, obj.State)
	case protocol.UpdateNewMessage:
		a.onNewMessage(obj.Message)
	case protocol.UpdateNewChat:
		a.setTitle(obj.Chat.ID, obj.Chat.Title)
	case protocol.UpdateChatTitle:
		a.setTitle(obj.ChatID, obj.Title)
	case protocol.Chats:
		a.onChats(resp.RequestID, obj)
	case protocol.Chat:
		a.onChat(resp.RequestID, obj)
	case protocol.Messages:
		a.onMessages(resp.RequestID, obj)
	case protocol.Message, protocol.Ok:
	case *protocol.Error:
		a.onError(resp.RequestID, obj)
	default:
		a.logger.Debug("ignoring protocol object", zap.String("type", fmt.Sprintf("%T", obj)))
	}
}

func (a *Adapter) onNewMessage(m protocol.Message) {
	msg, ok := convertMessage(m)
	if !ok {
		a.logger.Debug("skipping message without text", zap.Int64("chat_id", m.ChatID), zap.Int64("msg_id", m.ID))
		return
	}
	a.emit(bus.MessageEvent(a.opts.Source, msg))
}

func (a *Adapter) onError(requestID int64, e *protocol.Error) {
	a.logger.Warn("protocol error",
		zap.Int64("request_id", requestID),
		zap.Int("code", e.Code),
		zap.String("message", e.Message),
	)
	a.dropChatRequest(requestID)
	a.dropHistoryRequest(requestID)
	a.emitStatus(chat.Error, e.Message)

	if !a.session.EverReady() {
		a.session.Resolve(e)
	}
}

func (a *Adapter) setTitle(chatID int64, title string) {
	if title == "" {
		return
	}
	a.titlesMu.Lock()
	a.chatTitles[chatID] = title
	a.titlesMu.Unlock()
}

func (a *Adapter) title(chatID int64) string {
	a.titlesMu.Lock()
	defer a.titlesMu.Unlock()
	return a.chatTitles[chatID]
}

func (a *Adapter) expire(now time.Time) {
	ttl := a.opts.AggregationTimeout
	if ttl <= 0 {
		return
	}

	a.chatsMu.Lock()
	if a.chats.requestID != 0 && now.Sub(a.chats.started) > ttl {
		a.logger.Warn("chat list aggregation expired",
			zap.Int("received", len(a.chats.summaries)),
			zap.Int("expected", a.chats.expected),
		)
		a.chats.reset()
	}
	a.chatsMu.Unlock()

	a.historyMu.Lock()
	for chatID, h := range a.history {
		if now.Sub(h.started) > ttl {
			a.logger.Warn("history aggregation expired",
				zap.Int64("chat_id", chatID),
				zap.Int("received", len(h.messages)),
				zap.Int("limit", h.limit),
			)
			delete(a.historyReqs, h.requestID)
			delete(a.history, chatID)
		}
	}
	a.historyMu.Unlock()
}
