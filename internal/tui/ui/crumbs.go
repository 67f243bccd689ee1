package ui

import (
	"strings"

	"github.com/rivo/tview"
)

// Crumbs shows the page stack as <name> tabs, the top one highlighted.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.Bg)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update renders stack.
func (c *Crumbs) Update(stack []string) {
	var sb strings.Builder
	for i, name := range stack {
		style := c.theme.Crumb.Tag("")
		if i == len(stack)-1 {
			style = c.theme.ActiveCrumb.Tag("b")
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(style + " <" + tview.Escape(name) + "> [-:-:-]")
	}
	c.SetText(sb.String())
}
