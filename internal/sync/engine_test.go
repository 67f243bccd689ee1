package sync

import (
	"path/filepath"
	"testing"

	"github.com/matheus3301/lounge/internal/store"
)

func testEngine(t *testing.T) (*Engine, *store.DB) {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewEngine(db, nil), db
}

func TestIngestMessageIdempotent(t *testing.T) {
	e, db := testEngine(t)
	m := store.Message{ChatJID: "c@g.us", MsgID: "m1", Body: "hi", MessageType: "text", Timestamp: 10}

	first, err := e.IngestMessage(m)
	if err != nil {
		t.Fatalf("IngestMessage() error = %v", err)
	}
	if !first.NewChat {
		t.Error("first ingest should create the chat")
	}
	second, err := e.IngestMessage(m)
	if err != nil {
		t.Fatal(err)
	}
	if second.NewChat || second.Message.ID != first.Message.ID {
		t.Errorf("second ingest = %+v, want same row and no new chat", second)
	}

	count, _ := db.MessageCount()
	if count != 1 {
		t.Errorf("MessageCount() = %d, want 1", count)
	}
}

func TestIngestHistoryReportsChats(t *testing.T) {
	e, db := testEngine(t)

	// Known chat without a name: no update expected for it.
	if _, err := e.IngestMessage(store.Message{ChatJID: "old@s.whatsapp.net", MsgID: "x", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}

	updates, err := e.IngestHistory([]Conversation{
		{JID: "grp@g.us", Name: "Team", Messages: []store.Message{
			{ChatJID: "grp@g.us", MsgID: "a", Body: "one", MessageType: "text", Timestamp: 5},
			{ChatJID: "grp@g.us", MsgID: "b", Body: "two", MessageType: "text", Timestamp: 6},
		}},
		{JID: "old@s.whatsapp.net", Messages: []store.Message{
			{ChatJID: "old@s.whatsapp.net", MsgID: "y", Timestamp: 2},
		}},
		{JID: ""},
	})
	if err != nil {
		t.Fatalf("IngestHistory() error = %v", err)
	}
	if len(updates) != 1 || updates[0].Name != "Team" {
		t.Fatalf("updates = %+v, want one for Team", updates)
	}

	c, err := db.GetChat(updates[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Team" || c.LastMessageAt != 6 {
		t.Errorf("chat = %+v", c)
	}
	count, _ := db.MessageCount()
	if count != 4 {
		t.Errorf("MessageCount() = %d, want 4", count)
	}
}

func TestImportContacts(t *testing.T) {
	e, db := testEngine(t)
	if err := e.ImportContacts(nil); err != nil {
		t.Fatal(err)
	}
	if err := e.ImportContacts([]store.Contact{{JID: "a@s", Name: "Ana"}}); err != nil {
		t.Fatal(err)
	}
	c, ok, err := db.LookupContact("a@s")
	if err != nil || !ok || c.Name != "Ana" {
		t.Errorf("LookupContact() = %+v, %v, %v", c, ok, err)
	}
}
