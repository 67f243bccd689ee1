package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, _, err := OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func msg(chatJID, msgID string, ts int64) Message {
	return Message{ChatJID: chatJID, MsgID: msgID, SenderJID: "s@s.whatsapp.net", Body: "body " + msgID, MessageType: "text", Timestamp: ts}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestMigrateFreshCache(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Version == 0 {
		t.Errorf("result = %+v, want a changed schema", result)
	}
}

func TestUpsertChat(t *testing.T) {
	db := testDB(t)

	id1, err := db.UpsertChat(&Chat{JID: "a@s.whatsapp.net", Name: "Ana", LastMessageAt: 100})
	if err != nil {
		t.Fatal(err)
	}
	// Empty name and an older timestamp must not clobber stored values.
	id2, err := db.UpsertChat(&Chat{JID: "a@s.whatsapp.net", LastMessageAt: 50})
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %d vs %d", id1, id2)
	}

	c, err := db.GetChat(id1)
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Name != "Ana" || c.LastMessageAt != 100 {
		t.Errorf("GetChat() = %+v", c)
	}

	missing, err := db.GetChat(9999)
	if err != nil || missing != nil {
		t.Errorf("GetChat(missing) = %+v, %v", missing, err)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	db := testDB(t)

	first, err := db.Ingest([]Message{msg("c@g.us", "m1", 10), msg("c@g.us", "m2", 20)})
	if err != nil {
		t.Fatal(err)
	}
	if !first[0].NewChat || first[1].NewChat {
		t.Errorf("NewChat flags = %v %v, want true false", first[0].NewChat, first[1].NewChat)
	}
	if first[0].Message.ChatID != first[1].Message.ChatID {
		t.Error("messages of one chat got different chat ids")
	}

	again, err := db.Ingest([]Message{msg("c@g.us", "m1", 10)})
	if err != nil {
		t.Fatal(err)
	}
	if again[0].Message.ID != first[0].Message.ID {
		t.Errorf("re-ingest id = %d, want %d", again[0].Message.ID, first[0].Message.ID)
	}
	if again[0].NewChat {
		t.Error("re-ingest reported a new chat")
	}

	n, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("MessageCount() = %d, want 2", n)
	}
}

func TestListChatsOrderAndNames(t *testing.T) {
	db := testDB(t)

	if _, err := db.Ingest([]Message{
		msg("old@s.whatsapp.net", "1", 10),
		msg("new@s.whatsapp.net", "2", 30),
		msg("mid@s.whatsapp.net", "3", 20),
		msg("x@lid", "4", 40),
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.BulkUpsertContacts([]Contact{
		{JID: "new@s.whatsapp.net", PushName: "Newton"},
		{JID: "mid@s.whatsapp.net", Name: "Midge", PushName: "m"},
	}); err != nil {
		t.Fatal(err)
	}

	chats, err := db.ListChats(10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Newton", "Midge", "old@s.whatsapp.net"}
	if len(chats) != len(want) {
		t.Fatalf("got %d chats, want %d: %+v", len(chats), len(want), chats)
	}
	for i, name := range want {
		if chats[i].Name != name {
			t.Errorf("chat %d name = %q, want %q", i, chats[i].Name, name)
		}
	}

	limited, err := db.ListChats(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("ListChats(1) returned %d", len(limited))
	}
}

func TestListMessagesKeyset(t *testing.T) {
	db := testDB(t)

	var batch []Message
	for i := range 7 {
		batch = append(batch, msg("c@g.us", string(rune('a'+i)), int64(100+i)))
	}
	// Same timestamp as "g"; ties break on id.
	batch = append(batch, msg("c@g.us", "h", 106))
	res, err := db.Ingest(batch)
	if err != nil {
		t.Fatal(err)
	}
	chatID := res[0].Message.ChatID

	page1, err := db.ListMessages(chatID, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page1); got != "hgf" {
		t.Fatalf("page1 = %s, want hgf", got)
	}

	page2, err := db.ListMessages(chatID, page1[len(page1)-1].ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page2); got != "edc" {
		t.Fatalf("page2 = %s, want edc", got)
	}

	page3, err := db.ListMessages(chatID, page2[len(page2)-1].ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page3); got != "ba" {
		t.Fatalf("page3 = %s, want ba", got)
	}

	page4, err := db.ListMessages(chatID, page3[len(page3)-1].ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(page4) != 0 {
		t.Errorf("page4 = %s, want empty", ids(page4))
	}
	if page1[0].ChatJID != "c@g.us" {
		t.Errorf("ChatJID = %q", page1[0].ChatJID)
	}
}

func TestSetMessageID(t *testing.T) {
	db := testDB(t)

	res, err := db.Ingest([]Message{msg("a@s.whatsapp.net", "tmp-1", 10), msg("a@s.whatsapp.net", "SRV2", 11)})
	if err != nil {
		t.Fatal(err)
	}
	chatID := res[0].Message.ChatID

	if err := db.SetMessageID(chatID, "tmp-1", "SRV1"); err != nil {
		t.Fatal(err)
	}
	// Conflicting server id leaves the row alone.
	if err := db.SetMessageID(chatID, "SRV1", "SRV2"); err != nil {
		t.Fatal(err)
	}
	msgs, err := db.ListMessages(chatID, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].MsgID != "SRV2" || msgs[1].MsgID != "SRV1" {
		t.Fatalf("msgs = %+v", msgs)
	}
}

func TestGroupChatsAreFlagged(t *testing.T) {
	db := testDB(t)

	id, err := db.UpsertChat(&Chat{JID: "123@g.us", Name: "Team"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := db.GetChat(id)
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || !c.IsGroup {
		t.Fatalf("chat = %+v, want group", c)
	}
	if missing, err := db.GetChat(id + 100); err != nil || missing != nil {
		t.Fatalf("GetChat(missing) = %+v, %v", missing, err)
	}
}

func TestContactsKeepKnownNames(t *testing.T) {
	db := testDB(t)

	if err := db.BulkUpsertContacts([]Contact{{JID: "a@s", Name: "Full", PushName: "Push"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.BulkUpsertContacts([]Contact{{JID: "a@s"}}); err != nil {
		t.Fatal(err)
	}
	c, ok, err := db.LookupContact("a@s")
	if err != nil || !ok {
		t.Fatalf("LookupContact() = %v, %v", ok, err)
	}
	if c.Name != "Full" || c.PushName != "Push" {
		t.Errorf("contact = %+v", c)
	}
	if _, ok, err := db.LookupContact("b@s"); err != nil || ok {
		t.Errorf("LookupContact(missing) = %v, %v", ok, err)
	}
}

func ids(msgs []Message) string {
	var s string
	for _, m := range msgs {
		s += m.MsgID
	}
	return s
}
