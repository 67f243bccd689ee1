package wa

import (
	"github.com/matheus3301/lounge/internal/store"
	intsync "github.com/matheus3301/lounge/internal/sync"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waHistorySync"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// NormalizeJID drops the device part of a JID so every device of a contact
// lands in the same chat. Input that does not parse is returned as is.
func NormalizeJID(jid string) string {
	if jid == "" {
		return ""
	}
	parsed, err := types.ParseJID(jid)
	if err != nil {
		return jid
	}
	return parsed.ToNonAD().String()
}

// content is what the cache keeps of a message payload.
type content struct {
	body, kind string
}

// mediaKinds is checked in order after text.
var mediaKinds = []struct {
	kind    string
	present func(*waE2E.Message) bool
}{
	{"image", func(m *waE2E.Message) bool { return m.GetImageMessage() != nil }},
	{"video", func(m *waE2E.Message) bool { return m.GetVideoMessage() != nil }},
	{"audio", func(m *waE2E.Message) bool { return m.GetAudioMessage() != nil }},
	{"document", func(m *waE2E.Message) bool { return m.GetDocumentMessage() != nil }},
	{"sticker", func(m *waE2E.Message) bool { return m.GetStickerMessage() != nil }},
	{"contact", func(m *waE2E.Message) bool { return m.GetContactMessage() != nil }},
	{"location", func(m *waE2E.Message) bool { return m.GetLocationMessage() != nil }},
}

// contentOf keeps text only; media is recorded by kind with an empty body.
func contentOf(msg *waE2E.Message) content {
	if msg == nil {
		return content{kind: "unknown"}
	}
	if text := msg.GetConversation(); text != "" {
		return content{body: text, kind: "text"}
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return content{body: ext.GetText(), kind: "text"}
	}
	for _, mk := range mediaKinds {
		if mk.present(msg) {
			return content{kind: mk.kind}
		}
	}
	return content{kind: "unknown"}
}

// ParseLiveMessage converts a live message event into a cache row.
func ParseLiveMessage(evt *events.Message) store.Message {
	c := contentOf(evt.Message)
	return store.Message{
		ChatJID:     evt.Info.Chat.ToNonAD().String(),
		MsgID:       evt.Info.ID,
		SenderJID:   evt.Info.Sender.ToNonAD().String(),
		SenderName:  evt.Info.PushName,
		Body:        c.body,
		MessageType: c.kind,
		FromMe:      evt.Info.IsFromMe,
		Timestamp:   evt.Info.Timestamp.Unix(),
	}
}

// parseHistoryMessage returns false for entries without an id or payload.
func parseHistoryMessage(chatJID string, w *waWeb.WebMessageInfo) (store.Message, bool) {
	key := w.GetKey()
	if w.GetMessage() == nil || key.GetID() == "" {
		return store.Message{}, false
	}
	sender := key.GetParticipant()
	if sender == "" {
		sender = w.GetParticipant()
	}
	c := contentOf(w.GetMessage())
	return store.Message{
		ChatJID:     chatJID,
		MsgID:       key.GetID(),
		SenderJID:   NormalizeJID(sender),
		SenderName:  w.GetPushName(),
		Body:        c.body,
		MessageType: c.kind,
		FromMe:      key.GetFromMe(),
		Timestamp:   int64(w.GetMessageTimestamp()),
	}, true
}

// ParseHistorySync converts a history sync batch into conversations.
// Conversations without a JID are dropped.
func ParseHistorySync(data *waHistorySync.HistorySync) []intsync.Conversation {
	if data == nil {
		return nil
	}
	var convs []intsync.Conversation
	for _, hc := range data.GetConversations() {
		jid := NormalizeJID(hc.GetID())
		if jid == "" {
			continue
		}
		conv := intsync.Conversation{JID: jid, Name: hc.GetName()}
		for _, hm := range hc.GetMessages() {
			if m, ok := parseHistoryMessage(jid, hm.GetMessage()); ok {
				conv.Messages = append(conv.Messages, m)
			}
		}
		convs = append(convs, conv)
	}
	return convs
}
