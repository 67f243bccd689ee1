package network

import "github.com/matheus3301/lounge/internal/chat"

// Command is an outbound intent: RequestChats, RequestHistory, SendMessage
// or Shutdown.
type Command interface {
	command()
}

type RequestChats struct{ Limit int }

type RequestHistory struct {
	ChatID chat.ID
	Limit  int
}

type SendMessage struct {
	ChatID chat.ID
	Text   string
}

// Shutdown ends the worker loop.
type Shutdown struct{}

func (RequestChats) command()   {}
func (RequestHistory) command() {}
func (SendMessage) command()    {}
func (Shutdown) command()       {}
