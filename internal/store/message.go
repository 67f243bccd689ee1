package store

import (
	"database/sql"
	"fmt"
	"time"
)

const messageColumns = `m.id, m.chat_id, c.jid, m.msg_id, m.sender_jid, m.sender_name, m.body, m.message_type, m.from_me, m.timestamp`

func scanMessage(r rowScanner) (Message, error) {
	var m Message
	err := r.Scan(&m.ID, &m.ChatID, &m.ChatJID, &m.MsgID, &m.SenderJID, &m.SenderName, &m.Body, &m.MessageType, &m.FromMe, &m.Timestamp)
	return m, err
}

// Ingest stores messages idempotently (keyed on chat + msg id) in one
// transaction, creating chats as needed. Results follow input order.
func (db *DB) Ingest(msgs []Message) ([]Ingested, error) {
	out := make([]Ingested, 0, len(msgs))
	err := db.withTx(func(tx *sql.Tx) error {
		for _, m := range msgs {
			chatID, created, err := upsertChat(tx, &Chat{JID: m.ChatJID, LastMessageAt: m.Timestamp})
			if err != nil {
				return fmt.Errorf("upsert chat %q: %w", m.ChatJID, err)
			}
			m.ChatID = chatID
			if err := tx.QueryRow(`
				INSERT INTO messages (chat_id, msg_id, sender_jid, sender_name, body, message_type, from_me, timestamp, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(chat_id, msg_id) DO UPDATE SET
					sender_name = CASE WHEN excluded.sender_name != '' THEN excluded.sender_name ELSE messages.sender_name END,
					body = excluded.body
				RETURNING id`,
				chatID, m.MsgID, m.SenderJID, m.SenderName, m.Body, m.MessageType, m.FromMe, m.Timestamp, time.Now().UnixMilli(),
			).Scan(&m.ID); err != nil {
				return fmt.Errorf("upsert message %q: %w", m.MsgID, err)
			}
			out = append(out, Ingested{Message: m, NewChat: created})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns up to limit messages of a chat, newest first. With a
// non-zero before, only messages strictly older than that message are
// returned, ordered by (timestamp, id).
func (db *DB) ListMessages(chatID, before int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE m.chat_id = ?`
	args := []any{chatID}
	if before != 0 {
		query += ` AND (m.timestamp, m.id) < (SELECT timestamp, id FROM messages WHERE id = ?)`
		args = append(args, before)
	}
	query += ` ORDER BY m.timestamp DESC, m.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// SetMessageID replaces the provisional id of a sent message with the one
// assigned by the server. It is a no-op when the server id is already
// stored for the chat.
func (db *DB) SetMessageID(chatID int64, provisional, serverID string) error {
	_, err := db.Exec(`UPDATE OR IGNORE messages SET msg_id = ? WHERE chat_id = ? AND msg_id = ?`,
		serverID, chatID, provisional)
	if err != nil {
		return fmt.Errorf("set message id %q: %w", provisional, err)
	}
	return nil
}
