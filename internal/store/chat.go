package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// chatColumns resolves the display name with fallback:
// chat.name -> contact.name -> contact.push_name -> chat.jid
const chatColumns = `c.id, c.jid,
	COALESCE(NULLIF(c.name,''), NULLIF(ct.name,''), NULLIF(ct.push_name,''), c.jid) AS display_name,
	c.is_group, c.last_message_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(r rowScanner) (Chat, error) {
	var c Chat
	err := r.Scan(&c.ID, &c.JID, &c.Name, &c.IsGroup, &c.LastMessageAt)
	return c, err
}

// UpsertChat inserts or updates a chat and returns its id. An empty name
// keeps the stored one; last_message_at only moves forward.
func (db *DB) UpsertChat(c *Chat) (int64, error) {
	id, _, err := upsertChat(db.DB, c)
	return id, err
}

type execQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func upsertChat(q execQuerier, c *Chat) (id int64, created bool, err error) {
	err = q.QueryRow(`SELECT id FROM chats WHERE jid = ?`, c.JID).Scan(&id)
	created = errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return 0, false, err
	}
	err = q.QueryRow(`
		INSERT INTO chats (jid, name, is_group, last_message_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE chats.name END,
			is_group = excluded.is_group,
			last_message_at = MAX(chats.last_message_at, excluded.last_message_at),
			updated_at = excluded.updated_at
		RETURNING id`,
		c.JID, c.Name, c.IsGroup || strings.HasSuffix(c.JID, "@g.us"), c.LastMessageAt, time.Now().UnixMilli()).Scan(&id)
	return id, created, err
}

// ListChats returns chats sorted by last message timestamp descending.
func (db *DB) ListChats(limit int) ([]Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+chatColumns+`
		FROM chats c
		LEFT JOIN contacts ct ON c.jid = ct.jid
		WHERE c.jid NOT LIKE '%@lid' AND c.jid != 'status@broadcast'
		ORDER BY c.last_message_at DESC, c.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// GetChat returns a chat by id, or nil if there is none.
func (db *DB) GetChat(id int64) (*Chat, error) {
	c, err := scanChat(db.QueryRow(`
		SELECT `+chatColumns+`
		FROM chats c
		LEFT JOIN contacts ct ON c.jid = ct.jid
		WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChatCount returns the total number of chats.
func (db *DB) ChatCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM chats`).Scan(&count)
	return count, err
}
