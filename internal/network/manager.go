// Package network serializes outbound chat intents onto a single worker
// goroutine that owns the backend.
package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/mailbox"
	"go.uber.org/zap"
)

// DefaultQueueSize is the initial queue capacity when Options.QueueSize is
// not positive. The queue grows past it.
const DefaultQueueSize = 256

// ErrNoBackend is returned by Start when the manager has no backend.
var ErrNoBackend = errors.New("network: no backend")

// Backend is a chat protocol implementation driven by the worker.
type Backend interface {
	// Start blocks until the backend is ready or fails.
	Start(ctx context.Context) error
	Stop()
	RequestChats(limit int)
	RequestHistory(chatID chat.ID, limit int)
	SendMessage(chatID chat.ID, text string)
}

// Options configures a Manager.
type Options struct {
	// QueueSize preallocates room for that many pending commands.
	QueueSize int
}

// Manager owns the command queue and its worker.
type Manager struct {
	backend Backend
	logger  *zap.Logger
	queue   *mailbox.Mailbox[Command]

	mu      sync.Mutex
	started bool
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error

	stopOnce sync.Once
}

// NewManager creates a manager for backend.
func NewManager(backend Backend, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Manager{
		backend: backend,
		logger:  logger,
		queue:   mailbox.New[Command](opts.QueueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the worker and returns without waiting for the backend.
// A backend start failure is reported through Err once Done is closed.
func (m *Manager) Start() error {
	if m.backend == nil {
		return ErrNoBackend
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running.Store(true)
	go m.run(ctx)
	m.logger.Info("network worker started")
	return nil
}

// Stop shuts the worker down and waits for it to exit. Safe to call more
// than once, and before Start.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		started := m.started
		m.started = true
		m.mu.Unlock()
		if !started {
			close(m.done)
			return
		}

		m.running.Store(false)
		// Unblocks a backend still waiting for authorization.
		m.cancel()
		m.queue.Put(Shutdown{})
		<-m.done
		m.logger.Info("network worker stopped")
	})
}

// Done is closed when the worker has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err returns the backend start error, if any. Meaningful after Done.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Running reports whether the worker accepts commands.
func (m *Manager) Running() bool {
	return m.running.Load()
}

func (m *Manager) RequestChats(limit int) {
	m.enqueue(RequestChats{Limit: limit})
}

func (m *Manager) RequestHistory(chatID chat.ID, limit int) {
	m.enqueue(RequestHistory{ChatID: chatID, Limit: limit})
}

func (m *Manager) SendMessage(chatID chat.ID, text string) {
	m.enqueue(SendMessage{ChatID: chatID, Text: text})
}

// enqueue never blocks. Commands are only dropped while the worker is not
// running; commands queued during a slow backend start wait for it.
func (m *Manager) enqueue(cmd Command) {
	if !m.running.Load() {
		m.logger.Debug("network not running, dropping command", zap.String("command", fmt.Sprintf("%T", cmd)))
		return
	}
	m.queue.Put(cmd)
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	if err := m.backend.Start(ctx); err != nil {
		m.running.Store(false)
		m.mu.Lock()
		m.err = err
		m.mu.Unlock()
		m.logger.Error("backend start failed", zap.Error(err))
		return
	}

	for {
		cmd, ok := m.queue.Take()
		if !ok {
			<-m.queue.Ready()
			continue
		}
		if !m.exec(cmd) {
			break
		}
	}
	m.backend.Stop()
}

// exec applies one command. It returns false on Shutdown.
func (m *Manager) exec(cmd Command) bool {
	switch c := cmd.(type) {
	case RequestChats:
		m.backend.RequestChats(c.Limit)
	case RequestHistory:
		m.backend.RequestHistory(c.ChatID, c.Limit)
	case SendMessage:
		m.backend.SendMessage(c.ChatID, c.Text)
	case Shutdown:
		return false
	default:
		panic(fmt.Sprintf("network: unhandled command %T", cmd))
	}
	return true
}
