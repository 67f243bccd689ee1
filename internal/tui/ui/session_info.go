package ui

import (
	"fmt"
	"time"

	"github.com/matheus3301/lounge/internal/chat"
	"github.com/rivo/tview"
)

// SessionData is what the header shows about the running profile.
type SessionData struct {
	Profile  string
	Protocol string
	Status   chat.Status
	Chats    int
	Uptime   time.Duration
}

// SessionInfo displays profile metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.Bg)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders data.
func (si *SessionInfo) Update(data SessionData) {
	fg := Tag(si.theme.Fg)
	cc := Tag(si.theme.Counter)

	status := data.Status.Kind.String()
	if data.Status.Detail != "" && data.Status.Kind == chat.Error {
		status += ": " + data.Status.Detail
	}

	si.SetText(fmt.Sprintf(
		"[%s::b]Profile:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Protocol:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Status:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]    [%s]%d[-]\n"+
			"[%s::b]Uptime:[-:-:-]   [%s]%s[-]",
		fg, cc, tview.Escape(data.Profile),
		fg, cc, tview.Escape(data.Protocol),
		fg, si.statusColor(data.Status.Kind), tview.Escape(status),
		fg, cc, data.Chats,
		fg, cc, FormatUptime(data.Uptime),
	))
}

func (si *SessionInfo) statusColor(k chat.StatusKind) string {
	switch k {
	case chat.Ready:
		return Tag(si.theme.Ready)
	case chat.Connecting:
		return Tag(si.theme.Busy)
	default:
		return Tag(si.theme.Down)
	}
}

// FormatUptime renders d as "1h5m" or "7m".
func FormatUptime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
