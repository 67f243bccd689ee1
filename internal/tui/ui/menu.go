package ui

import (
	"strings"

	"github.com/rivo/tview"
)

// Menu lists the key hints of the current page, one per line.
type Menu struct {
	*tview.TextView
	keyTag string
}

func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.Bg)
	tv.SetBorderPadding(0, 0, 2, 0)
	return &Menu{TextView: tv, keyTag: "[" + Tag(theme.Key) + "::b]"}
}

func (m *Menu) Update(hints []MenuHint) {
	var sb strings.Builder
	for _, h := range hints {
		sb.WriteString(m.keyTag + "<" + tview.Escape(h.Key) + ">[-:-:-] " + h.Description + "\n")
	}
	m.SetText(sb.String())
}
