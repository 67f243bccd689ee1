package tui

import (
	"strconv"
	"strings"

	"github.com/matheus3301/lounge/internal/tui/ui"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

var commandHints = []ui.MenuHint{
	{Key: ":chat <name>", Description: "Open the first chat matching name"},
	{Key: ":filter <text>", Description: "Filter the chat list"},
	{Key: ":history <n>", Description: "Reload the open chat with n messages"},
	{Key: ":reload", Description: "Reload the chat list"},
	{Key: ":help", Description: "Show this help"},
	{Key: ":quit", Description: "Quit"},
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "":
	case "q", "quit":
		a.Stop()
	case "h", "help":
		a.showHelp()
	case "r", "reload":
		a.reloadChats()
	case "c", "chat":
		if !a.last.BackendReady {
			a.flash.Warn("not connected")
			return
		}
		c, ok := a.chats.Find(cmd.Args)
		if !ok || cmd.Args == "" {
			a.flash.Warn("no chat matches " + strconv.Quote(cmd.Args))
			return
		}
		a.pages.Reset(pageChats)
		a.openChat(c)
	case "f", "filter":
		if !a.last.BackendReady {
			a.flash.Warn("not connected")
			return
		}
		a.pages.Reset(pageChats)
		a.chats.SetFilter(cmd.Args)
		a.app.SetFocus(a.chats)
	case "history":
		id := a.thread.ChatID()
		if a.pages.Current() != pageThread || id == 0 {
			a.flash.Warn("no chat open")
			return
		}
		n, err := strconv.Atoi(cmd.Args)
		if err != nil || n <= 0 {
			a.flash.Warn("usage: :history <n>")
			return
		}
		a.backend.Commands.RequestHistory(id, n)
	default:
		a.flash.Warn("unknown command: " + cmd.Name)
	}
}
