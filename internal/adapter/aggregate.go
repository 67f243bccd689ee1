package adapter

import (
	"slices"
	"time"

	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/protocol"
	"go.uber.org/zap"
)

// chatAggregation is one chat-list generation. requestID is the GetChats
// call that opened it; zero means no generation is active.
type chatAggregation struct {
	requestID  int64
	started    time.Time
	listed     bool
	expected   int
	order      map[int64]int
	pending    map[int64]struct{}
	detailReqs map[int64]int64 // request id -> chat id
	summaries  []chat.Summary
}

func (c *chatAggregation) begin(requestID int64) {
	*c = chatAggregation{requestID: requestID, started: time.Now()}
}

func (c *chatAggregation) reset() {
	*c = chatAggregation{}
}

type historyAggregation struct {
	requestID int64
	limit     int
	started   time.Time
	anchor    int64          // oldest message id seen
	messages  []chat.Message // newest first
}

func (a *Adapter) onChats(requestID int64, list protocol.Chats) {
	a.chatsMu.Lock()
	if requestID == 0 || requestID != a.chats.requestID || a.chats.listed {
		a.chatsMu.Unlock()
		a.logger.Debug("dropping stale chat list", zap.Int64("request_id", requestID))
		return
	}

	agg := &a.chats
	agg.listed = true
	agg.order = make(map[int64]int, len(list.ChatIDs))
	agg.pending = make(map[int64]struct{}, len(list.ChatIDs))
	agg.detailReqs = make(map[int64]int64, len(list.ChatIDs))
	ids := make([]int64, 0, len(list.ChatIDs))
	for _, id := range list.ChatIDs {
		if _, dup := agg.order[id]; dup {
			continue
		}
		agg.order[id] = len(ids)
		agg.pending[id] = struct{}{}
		ids = append(ids, id)
	}
	agg.expected = len(ids)

	if agg.expected == 0 {
		agg.reset()
		a.chatsMu.Unlock()
		a.emit(bus.ChatListEvent(a.opts.Source, chat.List{}))
		return
	}

	rids := make([]int64, len(ids))
	for i, id := range ids {
		rids[i] = a.requestID()
		agg.detailReqs[rids[i]] = id
	}
	a.chatsMu.Unlock()

	for i, id := range ids {
		a.client.Send(rids[i], protocol.GetChat{ChatID: id})
	}
}

func (a *Adapter) onChat(requestID int64, c protocol.Chat) {
	a.setTitle(c.ID, c.Title)

	a.chatsMu.Lock()
	agg := &a.chats
	if _, ok := agg.pending[c.ID]; !ok {
		a.chatsMu.Unlock()
		a.logger.Debug("dropping chat detail outside the pending set", zap.Int64("chat_id", c.ID))
		return
	}
	delete(agg.pending, c.ID)
	delete(agg.detailReqs, requestID)

	title := c.Title
	if title == "" {
		title = a.title(c.ID)
	}
	agg.summaries = append(agg.summaries, chat.Summary{ID: chat.ID(c.ID), Title: title})

	list, done := a.completeChats()
	a.chatsMu.Unlock()
	if done {
		a.emit(bus.ChatListEvent(a.opts.Source, list))
	}
}

// completeChats returns the finished list and clears the generation once
// every expected summary is in. chatsMu must be held.
func (a *Adapter) completeChats() (chat.List, bool) {
	agg := &a.chats
	if !agg.listed || len(agg.summaries) < agg.expected {
		return nil, false
	}
	list := chat.List(agg.summaries)
	slices.SortStableFunc(list, func(x, y chat.Summary) int {
		return agg.order[int64(x.ID)] - agg.order[int64(y.ID)]
	})
	a.logger.Debug("chat list complete", zap.Int("chats", len(list)))
	agg.reset()
	return list, true
}

// dropChatRequest removes a failed detail request from the generation so
// the remaining chats can still complete it.
func (a *Adapter) dropChatRequest(requestID int64) {
	a.chatsMu.Lock()
	agg := &a.chats
	if requestID == agg.requestID && !agg.listed {
		agg.reset()
		a.chatsMu.Unlock()
		return
	}
	id, ok := agg.detailReqs[requestID]
	if !ok {
		a.chatsMu.Unlock()
		return
	}
	delete(agg.detailReqs, requestID)
	if _, pending := agg.pending[id]; pending {
		delete(agg.pending, id)
		agg.expected--
	}
	list, done := a.completeChats()
	a.chatsMu.Unlock()
	if done {
		a.emit(bus.ChatListEvent(a.opts.Source, list))
	}
}

func (a *Adapter) onMessages(requestID int64, page protocol.Messages) {
	a.historyMu.Lock()
	chatID, ok := a.historyReqs[requestID]
	if !ok {
		a.historyMu.Unlock()
		a.logger.Debug("dropping stale history page", zap.Int64("request_id", requestID))
		return
	}
	delete(a.historyReqs, requestID)
	agg := a.history[chatID]

	if n := len(page.Messages); n > 0 {
		agg.anchor = page.Messages[n-1].ID
	}
	for _, m := range page.Messages {
		if msg, ok := convertMessage(m); ok {
			agg.messages = append(agg.messages, msg)
		}
	}

	if len(page.Messages) == 0 || len(agg.messages) >= agg.limit {
		delete(a.history, chatID)
		a.historyMu.Unlock()

		msgs := agg.messages
		if len(msgs) > agg.limit {
			msgs = msgs[:agg.limit]
		}
		slices.Reverse(msgs)
		a.logger.Debug("history complete", zap.Int64("chat_id", chatID), zap.Int("messages", len(msgs)))
		a.emit(bus.HistoryEvent(a.opts.Source, chat.History{ChatID: chat.ID(chatID), Messages: msgs}))
		return
	}

	next := a.requestID()
	agg.requestID = next
	a.historyReqs[next] = chatID
	fn := protocol.GetChatHistory{
		ChatID:        chatID,
		FromMessageID: agg.anchor,
		Limit:         agg.limit - len(agg.messages),
	}
	a.historyMu.Unlock()

	a.client.Send(next, fn)
}

func (a *Adapter) dropHistoryRequest(requestID int64) {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()
	chatID, ok := a.historyReqs[requestID]
	if !ok {
		return
	}
	delete(a.historyReqs, requestID)
	delete(a.history, chatID)
	a.logger.Debug("history request failed", zap.Int64("chat_id", chatID))
}
