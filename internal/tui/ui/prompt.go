package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects what the prompt input is for.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

var promptLabels = map[PromptMode][2]string{
	PromptCommand: {":", " Command "},
	PromptFilter:  {"/", " Filter "},
}

// PromptEvents are the prompt callbacks. Nil fields are skipped.
type PromptEvents struct {
	Submit func(mode PromptMode, text string)
	Change func(mode PromptMode, text string)
	Cancel func(mode PromptMode)
}

// Prompt is the one-line command and filter bar.
type Prompt struct {
	*tview.InputField
	mode   PromptMode
	events PromptEvents
}

func NewPrompt(theme *Theme) *Prompt {
	p := &Prompt{InputField: tview.NewInputField()}
	p.SetBorder(true)
	p.SetBorderColor(theme.PromptBorder)
	p.SetBackgroundColor(theme.Bg)
	p.SetFieldBackgroundColor(theme.Bg)
	p.SetFieldTextColor(theme.Fg)
	p.SetLabelColor(theme.Key)
	p.SetChangedFunc(p.changed)
	p.SetDoneFunc(p.done)
	return p
}

// SetEvents replaces the callbacks.
func (p *Prompt) SetEvents(ev PromptEvents) {
	p.events = ev
}

func (p *Prompt) changed(text string) {
	if p.events.Change != nil {
		p.events.Change(p.mode, text)
	}
}

// done clears the field before running the callback, so a callback that
// reactivates the prompt is not undone.
func (p *Prompt) done(key tcell.Key) {
	text := p.GetText()
	switch key {
	case tcell.KeyEnter:
		p.SetText("")
		if p.events.Submit != nil {
			p.events.Submit(p.mode, text)
		}
	case tcell.KeyEscape:
		p.SetText("")
		if p.events.Cancel != nil {
			p.events.Cancel(p.mode)
		}
	}
}

// Activate switches the prompt to mode with initial as its text.
func (p *Prompt) Activate(mode PromptMode, initial string) {
	p.mode = mode
	l := promptLabels[mode]
	p.SetLabel(l[0])
	p.SetTitle(l[1])
	p.SetText(initial)
}

// Mode returns the mode of the last Activate.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
