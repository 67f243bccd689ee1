package wa

import (
	"github.com/matheus3301/lounge/internal/protocol"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// handleEvent is the whatsmeow event handler. It caches traffic and
// reports it as protocol updates.
func (c *Client) handleEvent(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Connected:
		c.logger.Info("WhatsApp connected")
		c.importContacts()
		c.setAuth(protocol.AuthReady{})
	case *events.Disconnected:
		c.logger.Warn("WhatsApp disconnected")
	case *events.Message:
		c.handleMessage(evt)
	case *events.HistorySync:
		c.handleHistorySync(evt)
	case *events.LoggedOut:
		c.logger.Warn("WhatsApp logged out", zap.String("reason", evt.Reason.String()))
		c.setAuth(protocol.AuthLoggingOut{})
		c.setAuth(protocol.AuthClosed{})
	}
}

func (c *Client) importContacts() {
	if err := c.engine.ImportContacts(c.dev.Contacts(c.ctx)); err != nil {
		c.logger.Warn("contact import failed", zap.Error(err))
	}
}

func (c *Client) handleMessage(evt *events.Message) {
	if evt.Info.Chat.Server == types.BroadcastServer {
		return
	}
	res, err := c.engine.IngestMessage(ParseLiveMessage(evt))
	if err != nil {
		c.logger.Error("failed to ingest message", zap.Error(err))
		return
	}
	if res.NewChat {
		c.announceChat(res.Message.ChatID)
	}
	c.update(protocol.UpdateNewMessage{Message: messageObject(res.Message)})
}

func (c *Client) handleHistorySync(evt *events.HistorySync) {
	convs := ParseHistorySync(evt.Data)
	if len(convs) == 0 {
		return
	}
	updates, err := c.engine.IngestHistory(convs)
	if err != nil {
		c.logger.Error("failed to ingest history", zap.Error(err))
	}
	for _, u := range updates {
		c.announceChat(u.ID)
	}
}

func (c *Client) announceChat(chatID int64) {
	ch, err := c.db.GetChat(chatID)
	if err != nil || ch == nil {
		c.logger.Warn("chat vanished before announce", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	c.update(protocol.UpdateNewChat{Chat: chatObject(*ch)})
}
