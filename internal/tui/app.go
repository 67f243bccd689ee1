// Package tui is the terminal host: it drains the event bus on the UI
// goroutine, renders the chat store and queues user commands.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/chatstate"
	"github.com/matheus3301/lounge/internal/config"
	"github.com/matheus3301/lounge/internal/state"
	"github.com/matheus3301/lounge/internal/tui/keys"
	"github.com/matheus3301/lounge/internal/tui/ui"
	"github.com/matheus3301/lounge/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageAuth   = "auth"
	pageChats  = "chats"
	pageThread = "thread"
	pageHelp   = "help"
)

var errNotBound = errors.New("tui: no backend bound")

// Commander queues backend work. *network.Manager implements it.
type Commander interface {
	RequestChats(limit int)
	RequestHistory(chatID chat.ID, limit int)
	SendMessage(chatID chat.ID, text string)
}

// Backend is the core the App drives.
type Backend struct {
	Bus      *bus.Bus
	Store    *chatstate.Store
	Commands Commander
	Config   *config.Config
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	pages    *ui.Pages
	registry *keys.Registry
	flash    *ui.FlashModel

	info     *ui.SessionInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	flashBar *ui.FlashBar
	prompt   *ui.Prompt
	body     *tview.Flex

	chats  *views.ChatList
	thread *views.Thread
	auth   *views.AuthView
	help   *views.HelpView

	profile string
	started time.Time

	backend Backend
	status  chat.Status
	last    chatstate.State
	busTok  bus.Token
	stTok   state.Token

	// queue runs f on the UI goroutine.
	queue func(f func())

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI for profile. It can answer login prompts right
// away; Bind must be called before Run.
func NewApp(profile string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		pages:    ui.NewPages(),
		registry: keys.NewRegistry(),
		flash:    ui.NewFlashModel(),
		info:     ui.NewSessionInfo(theme),
		menu:     ui.NewMenu(theme),
		crumbs:   ui.NewCrumbs(theme),
		flashBar: ui.NewFlashBar(theme),
		prompt:   ui.NewPrompt(theme),
		chats:    views.NewChatList(theme),
		thread:   views.NewThread(theme),
		auth:     views.NewAuthView(theme),
		help:     views.NewHelpView(theme),
		profile:  profile,
		started:  time.Now(),
		status:   chat.Status{Kind: chat.Connecting},
		ctx:      ctx,
		cancel:   cancel,
	}
	a.queue = func(f func()) { a.app.QueueUpdateDraw(f) }

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

// Bind attaches the backend and renders its current state.
func (a *App) Bind(b Backend) {
	if b.Config == nil {
		b.Config = config.Default()
	}
	a.backend = b
	a.busTok = b.Bus.Subscribe(bus.BackendStatus, a.onStatus)
	a.stTok = b.Store.Subscribe(a.render)
	a.render(b.Store.State())
}

func (a *App) unbind() {
	if a.backend.Bus == nil {
		return
	}
	a.backend.Bus.Unsubscribe(a.busTok)
	a.backend.Store.Unsubscribe(a.stTok)
}

func (a *App) setupCallbacks() {
	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.menu.Update(a.registry.Hints(a.pages.Current()))
	})

	a.chats.SetOnSelect(a.openChat)

	a.thread.SetOnSend(func(id chat.ID, text string) {
		a.backend.Commands.SendMessage(id, text)
	})
	a.thread.SetOnLeave(func() {
		a.app.SetFocus(a.thread.Messages())
	})

	a.prompt.SetEvents(ui.PromptEvents{
		Change: func(mode ui.PromptMode, text string) {
			if mode == ui.PromptFilter {
				a.chats.SetFilter(text)
			}
		},
		Submit: func(mode ui.PromptMode, text string) {
			a.hidePrompt()
			if mode == ui.PromptCommand {
				a.runCommand(ParseCommand(text))
			}
		},
		Cancel: func(mode ui.PromptMode) {
			if mode == ui.PromptFilter {
				a.chats.SetFilter("")
			}
			a.hidePrompt()
		},
	})
}

func (a *App) setupLayout() {
	a.pages.Add(a.auth)
	a.pages.Add(a.chats)
	a.pages.Add(a.thread)
	a.pages.Add(a.help)

	header := tview.NewFlex().
		AddItem(a.info, 40, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 22, 0, false)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(a.body, true)
	a.app.SetInputCapture(a.capture)

	a.pages.Reset(pageAuth)
	a.help.Update(a.helpSections())
}

func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	// Text inputs get every key.
	if _, ok := a.app.GetFocus().(*tview.InputField); ok {
		return ev
	}
	if a.registry.HandleEvent(a.pages.Current(), ev) {
		return nil
	}
	return ev
}

// Run drives the bus and the UI until Stop or a quit command.
func (a *App) Run() error {
	if a.backend.Bus == nil {
		return errNotBound
	}
	defer a.unbind()
	defer a.cancel()

	go a.loop(a.backend.Config.UI.TickInterval.Duration)
	return a.app.Run()
}

// Stop ends Run and every pending prompt.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func (a *App) loop(interval time.Duration) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.queue(a.tick)
		}
	}
}

// tick runs on the UI goroutine: bus handlers, the bridge and the store
// subscriptions all fire here.
func (a *App) tick() {
	a.backend.Bus.Dispatch()
	a.renderChrome()
}

func (a *App) onStatus(evt bus.Event) {
	s, ok := evt.Payload.(chat.Status)
	if !ok {
		return
	}
	a.status = s
	switch s.Kind {
	case chat.Error:
		a.flash.Err(s.Detail)
	case chat.Stopped:
		a.flash.Warn("backend stopped")
	case chat.Connecting:
		if a.pages.Current() == pageAuth && !a.auth.Asking() {
			a.auth.ShowMessage("Connecting...")
		}
	}
}

func (a *App) render(s chatstate.State) {
	prev := a.last
	a.last = s

	a.chats.Update(s.Chats)
	if s.HasSelection && s.SelectedChat == a.thread.ChatID() {
		a.thread.Update(s.ChatHistory)
	}

	switch {
	case s.BackendReady && !prev.BackendReady:
		if a.pages.Current() == pageAuth {
			a.auth.Cancel()
			a.pages.Reset(pageChats)
			a.app.SetFocus(a.chats)
		}
	case !s.BackendReady && prev.BackendReady:
		if a.pages.Current() == pageThread {
			a.pages.Reset(pageChats)
			a.app.SetFocus(a.chats)
		}
	}
	a.renderChrome()
}

func (a *App) renderChrome() {
	protocol := ""
	if a.backend.Config != nil {
		protocol = a.backend.Config.Protocol
	}
	a.info.Update(ui.SessionData{
		Profile:  a.profile,
		Protocol: protocol,
		Status:   a.status,
		Chats:    len(a.last.Chats),
		Uptime:   time.Since(a.started),
	})
	a.flashBar.Update(a.flash.Current())
}

func (a *App) openChat(c chat.Summary) {
	a.thread.Open(c.ID, c.Title)
	a.pages.Push(pageThread)
	a.app.SetFocus(a.thread.Messages())
	a.backend.Commands.RequestHistory(c.ID, a.backend.Config.UI.HistoryLimit)
}

func (a *App) openSelected() {
	if c, ok := a.chats.Selected(); ok {
		a.openChat(c)
	}
}

func (a *App) back() {
	if a.pages.Pop() == "" {
		return
	}
	switch a.pages.Current() {
	case pageChats:
		a.app.SetFocus(a.chats)
	case pageThread:
		a.app.SetFocus(a.thread.Messages())
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	initial := ""
	if mode == ui.PromptFilter {
		initial = a.chats.Filter()
	}
	a.prompt.Activate(mode, initial)
	a.body.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.body.ResizeItem(a.prompt, 0, 0)
	a.app.SetFocus(a.pages)
}

func (a *App) showHelp() {
	a.pages.Push(pageHelp)
	a.app.SetFocus(a.help)
}

func (a *App) reloadChats() {
	a.backend.Commands.RequestChats(a.backend.Config.UI.ChatLimit)
	a.flash.Info("reloading chats")
}
