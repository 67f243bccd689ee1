// Package sync ingests WhatsApp traffic into the message cache.
package sync

import (
	"fmt"

	"github.com/matheus3301/lounge/internal/store"
	"go.uber.org/zap"
)

// Engine handles idempotent ingestion of messages into the store.
type Engine struct {
	db     *store.DB
	logger *zap.Logger
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{db: db, logger: logger}
}

// IngestMessage stores a single live message (idempotent).
func (e *Engine) IngestMessage(msg store.Message) (store.Ingested, error) {
	res, err := e.db.Ingest([]store.Message{msg})
	if err != nil {
		return store.Ingested{}, fmt.Errorf("ingest message %q: %w", msg.MsgID, err)
	}
	return res[0], nil
}

// Conversation is one chat of a history sync batch.
type Conversation struct {
	JID      string
	Name     string
	Messages []store.Message
}

// ChatUpdate reports a chat created or renamed by a history batch.
type ChatUpdate struct {
	ID   int64
	Name string
}

// IngestHistory stores a history sync batch and returns the chats it
// created or named.
func (e *Engine) IngestHistory(convs []Conversation) ([]ChatUpdate, error) {
	var updates []ChatUpdate
	msgs := 0
	for _, conv := range convs {
		if conv.JID == "" {
			continue
		}
		known := true
		res, err := e.db.Ingest(conv.Messages)
		if err != nil {
			return updates, fmt.Errorf("ingest history for %q: %w", conv.JID, err)
		}
		for _, r := range res {
			if r.NewChat {
				known = false
			}
		}
		msgs += len(res)

		if conv.Name == "" && known && len(res) > 0 {
			continue
		}
		id, err := e.db.UpsertChat(&store.Chat{JID: conv.JID, Name: conv.Name})
		if err != nil {
			return updates, fmt.Errorf("upsert chat %q: %w", conv.JID, err)
		}
		updates = append(updates, ChatUpdate{ID: id, Name: conv.Name})
	}
	e.logger.Info("history batch ingested", zap.Int("chats", len(convs)), zap.Int("messages", msgs))
	return updates, nil
}

// ImportContacts refreshes the contact table used for chat titles.
func (e *Engine) ImportContacts(contacts []store.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	if err := e.db.BulkUpsertContacts(contacts); err != nil {
		return fmt.Errorf("import contacts: %w", err)
	}
	e.logger.Info("contacts imported", zap.Int("count", len(contacts)))
	return nil
}
