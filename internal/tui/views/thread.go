package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/tui/ui"
	"github.com/rivo/tview"
)

// SelfSender is the sender label of messages sent from this account.
const SelfSender = "me"

// Thread displays the history of one chat above a composer.
type Thread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	chatID   chat.ID
	title    string
	count    int
	onSend   func(id chat.ID, text string)
	onLeave  func()
}

// NewThread creates an empty thread view.
func NewThread(theme *ui.Theme) *Thread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.Border)
	messages.SetBackgroundColor(theme.Bg)
	messages.SetTextColor(theme.Fg)
	messages.SetTitleColor(theme.Title)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.Border)
	composer.SetBackgroundColor(theme.Bg)
	composer.SetFieldBackgroundColor(theme.Bg)
	composer.SetFieldTextColor(theme.Fg)
	composer.SetLabelColor(theme.Key)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.Title)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	t := &Thread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			t.Submit()
		case tcell.KeyEscape:
			if t.onLeave != nil {
				t.onLeave()
			}
		}
	})
	t.Open(0, "")
	return t
}

// Name implements ui.Component.
func (t *Thread) Name() string { return "thread" }

// SetOnSend sets the callback run with the composer text on Enter.
func (t *Thread) SetOnSend(fn func(id chat.ID, text string)) {
	t.onSend = fn
}

// SetOnLeave sets the callback run on Escape in the composer.
func (t *Thread) SetOnLeave(fn func()) {
	t.onLeave = fn
}

// Open switches the view to id and clears the previous history.
func (t *Thread) Open(id chat.ID, title string) {
	t.chatID = id
	t.title = title
	t.count = 0
	t.messages.Clear()
	_, _ = fmt.Fprint(t.messages, "\n  [::d]Loading...[-:-:-]")
	t.messages.SetTitle(fmt.Sprintf(" %s ", tview.Escape(title)))
}

// ChatID returns the open chat.
func (t *Thread) ChatID() chat.ID {
	return t.chatID
}

// Update renders msgs, oldest first.
func (t *Thread) Update(msgs []chat.Message) {
	t.count = len(msgs)
	t.messages.Clear()
	self := ui.Tag(t.theme.Self)
	for _, m := range msgs {
		sender := display(m.Sender)
		if m.Sender == SelfSender {
			sender = fmt.Sprintf("[%s]%s[-]", self, sender)
		}
		_, _ = fmt.Fprintf(t.messages, "[::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			sender, formatTimestamp(m.Timestamp), display(m.Text))
	}
	t.messages.SetTitle(fmt.Sprintf(" %s (%d) ", tview.Escape(t.title), t.count))
	t.messages.ScrollToEnd()
}

// Submit hands the composer text to the send callback and clears it.
func (t *Thread) Submit() {
	text := t.composer.GetText()
	if text == "" || t.chatID == 0 {
		return
	}
	t.composer.SetText("")
	if t.onSend != nil {
		t.onSend(t.chatID, text)
	}
}

// Messages returns the history text view, for focus management.
func (t *Thread) Messages() *tview.TextView {
	return t.messages
}

// Composer returns the input field, for focus management.
func (t *Thread) Composer() *tview.InputField {
	return t.composer
}

// formatTimestamp renders unix seconds as a time today or a date otherwise.
func formatTimestamp(sec int64) string {
	if sec == 0 {
		return ""
	}
	ts := time.Unix(sec, 0)
	now := time.Now()
	if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
		return ts.Format("15:04")
	}
	return ts.Format("01/02 15:04")
}
