package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/tui/ui"
	"github.com/rivo/tview"
)

// ChatList is the chat table, filterable by title.
type ChatList struct {
	*tview.Table
	theme    *ui.Theme
	chats    []chat.Summary
	visible  []chat.Summary
	filter   string
	onSelect func(chat.Summary)
}

// NewChatList creates an empty chat table.
func NewChatList(theme *ui.Theme) *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.Border)
	table.SetBackgroundColor(theme.Bg)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.Cursor.Fg).
		Background(theme.Cursor.Bg))
	table.SetTitleColor(theme.Title)

	cl := &ChatList{Table: table, theme: theme}
	table.SetSelectedFunc(func(row, _ int) {
		if c, ok := cl.at(row); ok && cl.onSelect != nil {
			cl.onSelect(c)
		}
	})
	cl.render()
	return cl
}

// Name implements ui.Component.
func (cl *ChatList) Name() string { return "chats" }

// SetOnSelect sets the callback run when Enter is pressed on a chat.
func (cl *ChatList) SetOnSelect(fn func(chat.Summary)) {
	cl.onSelect = fn
}

// Update replaces the chats. The selected row stays on the same chat when
// it is still listed.
func (cl *ChatList) Update(chats []chat.Summary) {
	selected, hadSelection := cl.Selected()
	cl.chats = chats
	cl.render()
	if !hadSelection || !cl.selectID(selected.ID) {
		cl.Select(1, 0)
	}
}

// SetFilter shows only chats whose title contains filter, ignoring case.
func (cl *ChatList) SetFilter(filter string) {
	cl.filter = strings.TrimSpace(filter)
	cl.render()
	cl.Select(1, 0)
}

// Filter returns the active filter.
func (cl *ChatList) Filter() string {
	return cl.filter
}

// Selected returns the chat under the cursor.
func (cl *ChatList) Selected() (chat.Summary, bool) {
	row, _ := cl.GetSelection()
	return cl.at(row)
}

// Nth returns the nth visible chat, 1-based.
func (cl *ChatList) Nth(n int) (chat.Summary, bool) {
	return cl.at(n)
}

// Find returns the first chat whose title contains name, ignoring case.
func (cl *ChatList) Find(name string) (chat.Summary, bool) {
	for _, c := range cl.chats {
		if matches(c.Title, name) {
			return c, true
		}
	}
	return chat.Summary{}, false
}

// Title returns the title of id, or "" when it is not listed.
func (cl *ChatList) Title(id chat.ID) string {
	for _, c := range cl.chats {
		if c.ID == id {
			return c.Title
		}
	}
	return ""
}

// at maps a table row to a visible chat; row 0 is the header.
func (cl *ChatList) at(row int) (chat.Summary, bool) {
	if row < 1 || row > len(cl.visible) {
		return chat.Summary{}, false
	}
	return cl.visible[row-1], true
}

func (cl *ChatList) selectID(id chat.ID) bool {
	for i, c := range cl.visible {
		if c.ID == id {
			cl.Select(i+1, 0)
			return true
		}
	}
	return false
}

func (cl *ChatList) render() {
	cl.Clear()

	for col, h := range []struct {
		text string
		exp  int
	}{
		{" #", 0},
		{" TITLE", 1},
		{" ID", 0},
	} {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.Header.Fg).
			SetBackgroundColor(cl.theme.Header.Bg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.chats {
		if cl.filter != "" && !matches(c.Title, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, c)
		row := len(cl.visible)
		cl.SetCell(row, 0, tview.NewTableCell(" "+strconv.Itoa(row)).SetTextColor(cl.theme.Counter))
		cl.SetCell(row, 1, tview.NewTableCell(" "+display(c.Title)).SetExpansion(1).SetTextColor(cl.theme.Fg))
		cl.SetCell(row, 2, tview.NewTableCell(strconv.FormatInt(int64(c.ID), 10)+" ").
			SetTextColor(cl.theme.Fg).
			SetAlign(tview.AlignRight))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Chats (%d/%d) /%s ", len(cl.visible), len(cl.chats), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Chats (%d) ", len(cl.chats)))
	}
}

func matches(title, substr string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(substr))
}
