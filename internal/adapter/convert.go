package adapter

import (
	"strconv"

	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/protocol"
)

// convertMessage keeps text messages only.
func convertMessage(m protocol.Message) (chat.Message, bool) {
	text, ok := m.Content.(protocol.MessageText)
	if !ok {
		return chat.Message{}, false
	}
	return chat.Message{
		ID:        chat.MessageID(m.ID),
		ChatID:    chat.ID(m.ChatID),
		Sender:    senderLabel(m.Sender),
		Text:      text.Text,
		Timestamp: m.Date,
	}, true
}

func senderLabel(s protocol.Sender) string {
	switch s := s.(type) {
	case protocol.SenderUser:
		if s.Name != "" {
			return s.Name
		}
		return "user:" + strconv.FormatInt(s.UserID, 10)
	case protocol.SenderChat:
		return "chat:" + strconv.FormatInt(s.ChatID, 10)
	default:
		return "unknown"
	}
}
