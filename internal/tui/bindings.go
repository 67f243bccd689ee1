package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/lounge/internal/tui/keys"
	"github.com/matheus3301/lounge/internal/tui/ui"
	"github.com/matheus3301/lounge/internal/tui/views"
)

func (a *App) setupBindings() {
	r := a.registry

	r.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Description: "Command",
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	r.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Description: "Help",
		Handler: a.showHelp,
	})

	r.AddPage(pageAuth, &keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "Quit",
		Handler: a.Stop,
	})

	r.AddPage(pageChats, &keys.Action{
		Key: tcell.KeyEnter, Label: "Enter", Description: "Open",
		Handler: a.openSelected,
	})
	r.AddPage(pageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "Filter",
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	r.AddPage(pageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "Reload",
		Handler: a.reloadChats,
	})
	for d := '1'; d <= '9'; d++ {
		n := int(d - '0')
		r.AddPage(pageChats, &keys.Action{
			Key: tcell.KeyRune, Rune: d, Label: "1-9", Description: "Jump",
			Hidden:  d != '1',
			Handler: func() { a.openNth(n) },
		})
	}
	r.AddPage(pageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: '0', Description: "Clear filter",
		Handler: func() { a.chats.SetFilter("") },
	})
	r.AddPage(pageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "Quit",
		Handler: a.Stop,
	})

	r.AddPage(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Description: "Compose",
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	r.AddPage(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "Reload",
		Handler: a.reloadHistory,
	})
	for _, page := range []string{pageThread, pageHelp} {
		r.AddPage(page, &keys.Action{
			Key: tcell.KeyEscape, Label: "Esc", Description: "Back",
			Handler: a.back,
		})
		r.AddPage(page, &keys.Action{
			Key: tcell.KeyRune, Rune: 'q', Description: "Back",
			Hidden: true, Handler: a.back,
		})
	}
}

func (a *App) openNth(n int) {
	if c, ok := a.chats.Nth(n); ok {
		a.openChat(c)
	}
}

func (a *App) reloadHistory() {
	if id := a.thread.ChatID(); id != 0 {
		a.backend.Commands.RequestHistory(id, a.backend.Config.UI.HistoryLimit)
	}
}

func (a *App) helpSections() []views.HelpSection {
	return []views.HelpSection{
		{Title: "Chat List", Hints: a.registry.Hints(pageChats)},
		{Title: "Thread", Hints: append(a.registry.Hints(pageThread),
			ui.MenuHint{Key: "Enter", Description: "Send (in composer)"},
			ui.MenuHint{Key: "Esc", Description: "Leave composer"},
		)},
		{Title: "Commands", Hints: commandHints},
	}
}
