package views

import (
	"strings"

	"github.com/rivo/tview"
)

// sanitizeForTerminal drops the codepoints tcell cannot lay out: skin tone
// modifiers, the zero width joiner and variation selectors. An emoji
// sequence collapses to its base emoji, which renders two cells wide.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F3FB && r <= 0x1F3FF, // skin tones
			r == 0x200D, // ZWJ
			r >= 0xFE00 && r <= 0xFE0F,
			r >= 0xE0100 && r <= 0xE01EF:
			return -1
		default:
			return r
		}
	}, s)
}

// display prepares user text for a tview cell or text view.
func display(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}
