package ui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

type page struct {
	*tview.Box
	name string
}

func (p page) Name() string { return p.name }

func newPages(names ...string) *Pages {
	p := NewPages()
	for _, n := range names {
		p.Add(page{Box: tview.NewBox(), name: n})
	}
	return p
}

func TestPagesStack(t *testing.T) {
	p := newPages("chats", "thread", "help")
	var seen [][]string
	p.SetOnChange(func(stack []string) { seen = append(seen, stack) })

	p.Reset("chats")
	p.Push("thread")
	p.Push("thread")
	p.Push("help")
	require.Equal(t, "help", p.Current())
	require.Equal(t, []string{"chats", "thread", "help"}, p.Stack())

	require.Equal(t, "help", p.Pop())
	require.Equal(t, "thread", p.Pop())
	require.Equal(t, "", p.Pop(), "bottom page is never popped")
	require.Equal(t, "chats", p.Current())

	front, _ := p.GetFrontPage()
	require.Equal(t, "chats", front)
	require.Len(t, seen, 5)
}

func TestPagesResetReplacesStack(t *testing.T) {
	p := newPages("auth", "chats", "thread")
	p.Reset("auth")
	p.Push("thread")
	p.Reset("chats")
	require.Equal(t, []string{"chats"}, p.Stack())
	require.False(t, p.HasPage("missing"))
}

func TestFlashExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	require.Nil(t, f.Current())

	f.Err("boom")
	msg := f.Current()
	require.NotNil(t, msg)
	require.Equal(t, "boom", msg.Text)
	require.Equal(t, FlashErr, msg.Level)

	now = now.Add(9 * time.Second)
	require.NotNil(t, f.Current())
	now = now.Add(time.Second)
	require.Nil(t, f.Current())

	f.Info("hello")
	require.Equal(t, FlashInfo, f.Current().Level)
}

func TestFlashBarEscapesText(t *testing.T) {
	fb := NewFlashBar(DefaultTheme())
	fb.Update(&FlashMessage{Text: "[red]not a tag", Level: FlashWarn})
	require.Contains(t, fb.GetText(false), tview.Escape("[red]not a tag"))
	fb.Update(nil)
	require.Equal(t, "", fb.GetText(false))
}

func TestTag(t *testing.T) {
	require.Equal(t, "black", Tag(tcell.ColorBlack))
	require.Equal(t, "#123456", Tag(tcell.NewHexColor(0x123456)))
}

func TestFormatUptime(t *testing.T) {
	require.Equal(t, "0m", FormatUptime(30*time.Second))
	require.Equal(t, "7m", FormatUptime(7*time.Minute))
	require.Equal(t, "1h5m", FormatUptime(65*time.Minute))
}

func TestCrumbsAndMenuText(t *testing.T) {
	theme := DefaultTheme()

	c := NewCrumbs(theme)
	c.Update([]string{"chats", "thread"})
	require.Contains(t, c.GetText(false), theme.ActiveCrumb.Tag("b")+" <thread>")
	require.Contains(t, c.GetText(false), theme.Crumb.Tag("")+" <chats>")

	m := NewMenu(theme)
	m.Update([]MenuHint{{Key: "q", Description: "Quit"}, {Key: "/", Description: "Filter"}})
	require.Contains(t, m.GetText(false), "<q>[-:-:-] Quit\n")
	require.Contains(t, m.GetText(false), "</>[-:-:-] Filter\n")
}
