package ui

import (
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel is the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// flashTTL is indexed by FlashLevel. Worse news stays up longer.
var flashTTL = [...]time.Duration{
	FlashInfo: 5 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  10 * time.Second,
}

// FlashMessage is a transient notification.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds at most one notification. A newer one replaces it.
// It is safe for concurrent use.
type FlashModel struct {
	mu      sync.RWMutex
	current FlashMessage
	now     func() time.Time
}

func NewFlashModel() *FlashModel {
	return &FlashModel{now: time.Now}
}

func (f *FlashModel) Info(msg string) { f.Set(FlashInfo, msg) }
func (f *FlashModel) Warn(msg string) { f.Set(FlashWarn, msg) }
func (f *FlashModel) Err(msg string)  { f.Set(FlashErr, msg) }

// Set shows msg at level for the level's lifetime.
func (f *FlashModel) Set(level FlashLevel, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = FlashMessage{Text: msg, Level: level, Expires: f.now().Add(flashTTL[level])}
}

// Current returns the live message, or nil once it has expired.
func (f *FlashModel) Current() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || !f.now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// FlashBar shows the current FlashMessage on one line.
type FlashBar struct {
	*tview.TextView
	theme *Theme
	shown string
}

func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.Bg)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update renders msg; nil clears the bar. Rendering the same text twice
// leaves the view untouched.
func (fb *FlashBar) Update(msg *FlashMessage) {
	var text string
	if msg != nil {
		text = " [" + Tag(fb.theme.Flash[msg.Level]) + "]" + tview.Escape(msg.Text) + "[-]"
	}
	if text == fb.shown {
		return
	}
	fb.shown = text
	fb.SetText(text)
}
