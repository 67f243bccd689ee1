// Package outbox sends outgoing text messages off the caller's goroutine.
package outbox

import (
	"context"
	"errors"
	"sync"

	"github.com/matheus3301/lounge/internal/store"
	"go.uber.org/zap"
)

// ErrFull is returned by Enqueue when the queue has no room left.
var ErrFull = errors.New("outbox full")

// ErrStopped is returned by Enqueue after Stop.
var ErrStopped = errors.New("outbox stopped")

// DefaultQueueSize bounds the number of unsent entries.
const DefaultQueueSize = 64

// TextSender is the interface for sending text messages via WhatsApp.
type TextSender interface {
	SendText(ctx context.Context, jid string, text string) (serverMsgID string, err error)
}

// Entry is a message already stored under a provisional id.
type Entry struct {
	ChatID      int64
	ChatJID     string
	ClientMsgID string
	Body        string
}

// Result reports the outcome of one send.
type Result struct {
	Entry       Entry
	ServerMsgID string
	Err         error
}

// Sender drains the queue in order and sends each entry via the TextSender.
// On success the stored message takes the server id.
type Sender struct {
	db       *store.DB
	sender   TextSender
	onResult func(Result)
	logger   *zap.Logger

	queue chan Entry

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSender creates a new outbox sender. onResult may be nil.
func NewSender(db *store.DB, sender TextSender, onResult func(Result), logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if onResult == nil {
		onResult = func(Result) {}
	}
	return &Sender{
		db:       db,
		sender:   sender,
		onResult: onResult,
		logger:   logger,
		queue:    make(chan Entry, DefaultQueueSize),
		done:     make(chan struct{}),
	}
}

// Start begins draining the queue.
func (s *Sender) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop and waits for it. Entries still queued are
// dropped.
func (s *Sender) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if started {
		<-s.done
	}
	if n := len(s.queue); n > 0 {
		s.logger.Warn("dropping unsent messages", zap.Int("count", n))
	}
}

// Enqueue schedules an entry without blocking.
func (s *Sender) Enqueue(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	select {
	case s.queue <- e:
		return nil
	default:
		return ErrFull
	}
}

func (s *Sender) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case e := <-s.queue:
			s.send(ctx, e)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) send(ctx context.Context, e Entry) {
	serverMsgID, err := s.sender.SendText(ctx, e.ChatJID, e.Body)
	if err != nil {
		s.logger.Error("failed to send message", zap.Error(err), zap.String("client_msg_id", e.ClientMsgID))
		s.onResult(Result{Entry: e, Err: err})
		return
	}

	if err := s.db.SetMessageID(e.ChatID, e.ClientMsgID, serverMsgID); err != nil {
		s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", e.ClientMsgID))
	}

	s.logger.Info("message sent", zap.String("client_msg_id", e.ClientMsgID), zap.String("server_msg_id", serverMsgID))
	s.onResult(Result{Entry: e, ServerMsgID: serverMsgID})
}
