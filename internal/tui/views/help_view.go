package views

import (
	"fmt"

	"github.com/matheus3301/lounge/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpSection is one titled group of shortcuts.
type HelpSection struct {
	Title string
	Hints []ui.MenuHint
}

// HelpView displays the key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates an empty help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.Border)
	tv.SetBackgroundColor(theme.Bg)
	tv.SetTextColor(theme.Fg)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.Title)

	return &HelpView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "help" }

// Update renders sections in order.
func (hv *HelpView) Update(sections []HelpSection) {
	hv.Clear()
	kc := ui.Tag(hv.theme.Key)
	for _, s := range sections {
		_, _ = fmt.Fprintf(hv, "\n  [::b]%s[-:-:-]\n\n", s.Title)
		for _, h := range s.Hints {
			_, _ = fmt.Fprintf(hv, "  [%s]%-16s[-:-:-] %s\n", kc, tview.Escape(h.Key), h.Description)
		}
	}
	hv.ScrollToBeginning()
}
