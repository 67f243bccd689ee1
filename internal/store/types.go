package store

// Chat is a cached conversation. ID is the numeric handle exposed to the
// chat core; JID is the WhatsApp address.
type Chat struct {
	ID            int64
	JID           string
	Name          string
	IsGroup       bool
	LastMessageAt int64
}

// Contact is a cached address book entry.
type Contact struct {
	JID      string
	Name     string
	PushName string
}

// Message is a cached message. Timestamp is in unix seconds.
type Message struct {
	ID          int64
	ChatID      int64
	ChatJID     string
	MsgID       string
	SenderJID   string
	SenderName  string
	Body        string
	MessageType string
	FromMe      bool
	Timestamp   int64
}

// Ingested reports what an ingest did with one message.
type Ingested struct {
	Message Message
	NewChat bool
}
