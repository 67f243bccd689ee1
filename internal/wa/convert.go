package wa

import (
	"strconv"
	"strings"

	"github.com/matheus3301/lounge/internal/protocol"
	"github.com/matheus3301/lounge/internal/store"
)

// SelfName labels messages sent from this account.
const SelfName = "me"

func chatObject(c store.Chat) protocol.Chat {
	return protocol.Chat{ID: c.ID, Title: chatTitle(c)}
}

// chatTitle prefers the resolved display name and falls back to the
// phone number or group id.
func chatTitle(c store.Chat) string {
	if c.Name != "" && c.Name != c.JID {
		return c.Name
	}
	return jidUser(c.JID)
}

func jidUser(jid string) string {
	if i := strings.IndexByte(jid, '@'); i > 0 {
		return jid[:i]
	}
	return jid
}

func messageObject(m store.Message) protocol.Message {
	return protocol.Message{
		ID:      m.ID,
		ChatID:  m.ChatID,
		Sender:  senderOf(m),
		Date:    m.Timestamp,
		Content: contentOf(m),
	}
}

func senderOf(m store.Message) protocol.Sender {
	if m.FromMe {
		return protocol.SenderUser{Name: SelfName}
	}
	jid := m.SenderJID
	// History of direct chats leaves the participant empty.
	if jid == "" && !strings.HasSuffix(m.ChatJID, "@g.us") {
		jid = m.ChatJID
	}
	if jid == "" && m.SenderName == "" {
		return protocol.SenderChat{ChatID: m.ChatID}
	}
	user := jidUser(jid)
	id, _ := strconv.ParseInt(user, 10, 64)
	name := m.SenderName
	if name == "" {
		name = user
	}
	return protocol.SenderUser{UserID: id, Name: name}
}

func contentOf(m store.Message) protocol.Content {
	if m.MessageType == "text" && m.Body != "" {
		return protocol.MessageText{Text: m.Body}
	}
	return protocol.MessageUnsupported{Kind: m.MessageType}
}
