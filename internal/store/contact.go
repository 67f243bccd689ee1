package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// A blank incoming name keeps whatever the row already had.
const upsertContactSQL = `
	INSERT INTO contacts (jid, name, push_name, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(jid) DO UPDATE SET
		name      = COALESCE(NULLIF(excluded.name, ''), contacts.name),
		push_name = COALESCE(NULLIF(excluded.push_name, ''), contacts.push_name),
		updated_at = excluded.updated_at`

// BulkUpsertContacts stores contacts in one transaction.
func (db *DB) BulkUpsertContacts(contacts []Contact) error {
	stamp := time.Now().UnixMilli()
	return db.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(upsertContactSQL)
		if err != nil {
			return fmt.Errorf("prepare contact upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()
		for _, c := range contacts {
			if _, err := stmt.Exec(c.JID, c.Name, c.PushName, stamp); err != nil {
				return fmt.Errorf("upsert contact %q: %w", c.JID, err)
			}
		}
		return nil
	})
}

// LookupContact reports the contact stored under jid, if any.
func (db *DB) LookupContact(jid string) (Contact, bool, error) {
	c := Contact{JID: jid}
	err := db.QueryRow(`SELECT name, push_name FROM contacts WHERE jid = ?`, jid).Scan(&c.Name, &c.PushName)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Contact{}, false, nil
	case err != nil:
		return Contact{}, false, fmt.Errorf("lookup contact %q: %w", jid, err)
	}
	return c, true, nil
}
