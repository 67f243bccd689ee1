package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays the application name.
type Logo struct {
	*tview.TextView
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.Bg)
	tv.SetBorderPadding(1, 0, 1, 0)

	tc := Tag(theme.Title)
	_, _ = fmt.Fprintf(tv,
		"[%s::b]╦  ╔═╗╦ ╦╔╗╔╔═╗╔═╗[-:-:-]\n"+
			"[%s::b]║  ║ ║║ ║║║║║ ╦║╣ [-:-:-]\n"+
			"[%s::b]╩═╝╚═╝╚═╝╝╚╝╚═╝╚═╝[-:-:-]\n"+
			"[%s]chat in the terminal[-]",
		tc, tc, tc, Tag(theme.Fg),
	)
	return &Logo{TextView: tv}
}
