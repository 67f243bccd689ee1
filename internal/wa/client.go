// Package wa implements protocol.Client on top of whatsmeow. Chats and
// history are served from the local message cache, which live traffic and
// history sync keep filled.
package wa

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/lounge/internal/mailbox"
	"github.com/matheus3301/lounge/internal/outbox"
	"github.com/matheus3301/lounge/internal/protocol"
	"github.com/matheus3301/lounge/internal/store"
	intsync "github.com/matheus3301/lounge/internal/sync"
	"go.mau.fi/whatsmeow"
	"go.uber.org/zap"
)

// Linker is the part of Device the client drives.
type Linker interface {
	outbox.TextSender
	IsLoggedIn() bool
	QRChannel(ctx context.Context) (<-chan whatsmeow.QRChannelItem, error)
	Connect() error
	Disconnect()
	AddEventHandler(handler whatsmeow.EventHandler) uint32
	RemoveEventHandler(id uint32) bool
	Contacts(ctx context.Context) []store.Contact
}

// Error codes used in protocol.Error replies.
const (
	CodeBadRequest  = 400
	CodeNotFound    = 404
	CodeTimeout     = 408
	CodeInternal    = 500
	CodeUnavailable = 503
)

const provisionalPrefix = "lounge-"

type request struct {
	id int64
	fn protocol.Function
}

// Client is a WhatsApp session speaking the protocol model.
type Client struct {
	dev    Linker
	db     *store.DB
	engine *intsync.Engine
	outbox *outbox.Sender
	logger *zap.Logger

	inbox *mailbox.Mailbox[protocol.Response]
	reqs  *mailbox.Mailbox[request]

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	handlerID uint32
	closeOnce sync.Once

	mu   sync.Mutex
	auth protocol.AuthState
}

// NewClient starts a session over dev, caching traffic in db.
func NewClient(dev Linker, db *store.DB, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		dev:    dev,
		db:     db,
		engine: intsync.NewEngine(db, logger),
		logger: logger,
		inbox:  mailbox.New[protocol.Response](0),
		reqs:   mailbox.New[request](0),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		auth:   protocol.AuthWaitParameters{},
	}
	c.outbox = outbox.NewSender(db, dev, c.onSent, logger)
	c.outbox.Start(ctx)
	c.handlerID = dev.AddEventHandler(c.handleEvent)
	go c.serve()
	return c
}

// Opener returns a protocol.Opener creating clients over dev.
func Opener(dev Linker, db *store.DB, logger *zap.Logger) protocol.Opener {
	return func(ctx context.Context) (protocol.Client, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewClient(dev, db, logger), nil
	}
}

func (c *Client) Send(requestID int64, fn protocol.Function) {
	c.reqs.Put(request{id: requestID, fn: fn})
}

func (c *Client) Receive(timeout time.Duration) (protocol.Response, bool) {
	if r, ok := c.inbox.Take(); ok {
		return r, true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-c.inbox.Ready():
			if r, ok := c.inbox.Take(); ok {
				return r, true
			}
		case <-timer.C:
			return c.inbox.Take()
		}
	}
}

// Close detaches from the device and stops the request loop and outbox.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.dev.RemoveEventHandler(c.handlerID)
		c.cancel()
		<-c.done
		c.outbox.Stop()
		c.dev.Disconnect()
	})
	return nil
}

func (c *Client) serve() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.reqs.Ready():
		}
		for c.ctx.Err() == nil {
			r, ok := c.reqs.Take()
			if !ok {
				break
			}
			c.handle(r)
		}
	}
}

func (c *Client) handle(r request) {
	switch fn := r.fn.(type) {
	case protocol.GetAuthorizationState:
		c.reply(r.id, protocol.UpdateAuthorizationState{State: c.authState()})
	case protocol.SetParameters:
		c.link(r.id)
	case protocol.SetPhoneNumber, protocol.CheckCode, protocol.CheckPassword:
		c.reply(r.id, &protocol.Error{Code: CodeBadRequest, Message: "WhatsApp only links by QR code"})
	case protocol.GetChats:
		c.getChats(r.id, fn.Limit)
	case protocol.GetChat:
		c.getChat(r.id, fn.ChatID)
	case protocol.GetChatHistory:
		c.getHistory(r.id, fn)
	case protocol.SendMessage:
		c.sendMessage(r.id, fn)
	case protocol.Close:
		c.closeSession(r.id)
	default:
		c.reply(r.id, &protocol.Error{Code: CodeBadRequest, Message: fmt.Sprintf("unsupported function %T", fn)})
	}
}

func (c *Client) reply(requestID int64, obj protocol.Object) {
	c.inbox.Put(protocol.Response{RequestID: requestID, Object: obj})
}

func (c *Client) update(obj protocol.Object) {
	c.reply(0, obj)
}

func (c *Client) fail(requestID int64, code int, err error) {
	c.reply(requestID, &protocol.Error{Code: code, Message: err.Error()})
}

func (c *Client) authState() protocol.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth
}

// setAuth records and announces a new auth state. Repeats are dropped and
// Closed is final.
func (c *Client) setAuth(st protocol.AuthState) {
	c.mu.Lock()
	if _, closed := c.auth.(protocol.AuthClosed); closed || c.auth == st {
		c.mu.Unlock()
		return
	}
	c.auth = st
	c.mu.Unlock()
	c.update(protocol.UpdateAuthorizationState{State: st})
}

func (c *Client) getChats(requestID int64, limit int) {
	chats, err := c.db.ListChats(limit)
	if err != nil {
		c.fail(requestID, CodeInternal, fmt.Errorf("list chats: %w", err))
		return
	}
	ids := make([]int64, len(chats))
	for i, ch := range chats {
		ids[i] = ch.ID
	}
	c.reply(requestID, protocol.Chats{TotalCount: len(ids), ChatIDs: ids})
}

func (c *Client) lookupChat(requestID, chatID int64) (*store.Chat, bool) {
	ch, err := c.db.GetChat(chatID)
	if err != nil {
		c.fail(requestID, CodeInternal, fmt.Errorf("get chat %d: %w", chatID, err))
		return nil, false
	}
	if ch == nil {
		c.fail(requestID, CodeNotFound, fmt.Errorf("chat %d not found", chatID))
		return nil, false
	}
	return ch, true
}

func (c *Client) getChat(requestID, chatID int64) {
	if ch, ok := c.lookupChat(requestID, chatID); ok {
		c.reply(requestID, chatObject(*ch))
	}
}

func (c *Client) getHistory(requestID int64, fn protocol.GetChatHistory) {
	msgs, err := c.db.ListMessages(fn.ChatID, fn.FromMessageID, fn.Limit)
	if err != nil {
		c.fail(requestID, CodeInternal, fmt.Errorf("list messages of chat %d: %w", fn.ChatID, err))
		return
	}
	out := make([]protocol.Message, len(msgs))
	for i, m := range msgs {
		out[i] = messageObject(m)
	}
	c.reply(requestID, protocol.Messages{TotalCount: len(out), Messages: out})
}

// sendMessage stores the message under a provisional id and hands it to
// the outbox. The stored message is reported right away.
func (c *Client) sendMessage(requestID int64, fn protocol.SendMessage) {
	ch, ok := c.lookupChat(requestID, fn.ChatID)
	if !ok {
		return
	}
	res, err := c.engine.IngestMessage(store.Message{
		ChatJID:     ch.JID,
		MsgID:       provisionalPrefix + uuid.NewString(),
		Body:        fn.Text,
		MessageType: "text",
		FromMe:      true,
		Timestamp:   time.Now().Unix(),
	})
	if err != nil {
		c.fail(requestID, CodeInternal, err)
		return
	}
	err = c.outbox.Enqueue(outbox.Entry{
		ChatID:      ch.ID,
		ChatJID:     ch.JID,
		ClientMsgID: res.Message.MsgID,
		Body:        fn.Text,
	})
	if err != nil {
		c.fail(requestID, CodeUnavailable, err)
		return
	}
	m := messageObject(res.Message)
	c.reply(requestID, m)
	c.update(protocol.UpdateNewMessage{Message: m})
}

// onSent runs on the outbox goroutine. A failed send keeps its provisional
// id in the cache.
func (c *Client) onSent(r outbox.Result) {
	if r.Err != nil && !errors.Is(r.Err, context.Canceled) {
		c.logger.Warn("message not delivered",
			zap.Int64("chat_id", r.Entry.ChatID),
			zap.String("client_msg_id", r.Entry.ClientMsgID),
			zap.Error(r.Err),
		)
	}
}

func (c *Client) closeSession(requestID int64) {
	c.setAuth(protocol.AuthClosing{})
	c.dev.Disconnect()
	c.reply(requestID, protocol.Ok{})
	c.setAuth(protocol.AuthClosed{})
}
