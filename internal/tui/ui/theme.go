package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Pair is a foreground/background combination.
type Pair struct {
	Fg, Bg tcell.Color
}

// Tag returns the tview style tag for p with the given attributes.
func (p Pair) Tag(attrs string) string {
	return fmt.Sprintf("[%s:%s:%s]", Tag(p.Fg), Tag(p.Bg), attrs)
}

// Theme holds the colors of every TUI component.
type Theme struct {
	Bg, Fg       tcell.Color
	Border       tcell.Color
	PromptBorder tcell.Color
	Title        tcell.Color
	Counter      tcell.Color
	Key          tcell.Color
	Self         tcell.Color

	Header      Pair
	Cursor      Pair
	Crumb       Pair
	ActiveCrumb Pair

	// Flash is indexed by FlashLevel.
	Flash [3]tcell.Color

	Ready, Busy, Down tcell.Color
}

// DefaultTheme is dark with blue chrome.
func DefaultTheme() *Theme {
	return &Theme{
		Bg:           tcell.ColorBlack,
		Fg:           tcell.ColorCadetBlue,
		Border:       tcell.ColorDodgerBlue,
		PromptBorder: tcell.ColorDodgerBlue,
		Title:        tcell.ColorFuchsia,
		Counter:      tcell.ColorPapayaWhip,
		Key:          tcell.ColorDodgerBlue,
		Self:         tcell.ColorLightGreen,

		Header:      Pair{Fg: tcell.ColorWhite, Bg: tcell.ColorBlack},
		Cursor:      Pair{Fg: tcell.ColorBlack, Bg: tcell.ColorAqua},
		Crumb:       Pair{Fg: tcell.ColorBlack, Bg: tcell.ColorAqua},
		ActiveCrumb: Pair{Fg: tcell.ColorBlack, Bg: tcell.ColorOrange},

		Flash: [3]tcell.Color{
			FlashInfo: tcell.ColorNavajoWhite,
			FlashWarn: tcell.ColorOrange,
			FlashErr:  tcell.ColorOrangeRed,
		},

		Ready: tcell.ColorLightGreen,
		Busy:  tcell.ColorOrange,
		Down:  tcell.ColorOrangeRed,
	}
}

// Tag returns c as a tview color tag name, e.g. "dodgerblue".
func Tag(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
