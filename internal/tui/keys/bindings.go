// Package keys maps key events to page-scoped actions.
package keys

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/lounge/internal/tui/ui"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string // shown in the menu, e.g. "Enter" or "q"
	Description string
	Handler     func()
	Hidden      bool
}

// Matches returns true if key (and r, for tcell.KeyRune) selects this action.
func (a *Action) Matches(key tcell.Key, r rune) bool {
	if a.Key != tcell.KeyRune {
		return key == a.Key
	}
	return key == tcell.KeyRune && r == a.Rune
}

func (a *Action) label() string {
	if a.Label != "" {
		return a.Label
	}
	if a.Key == tcell.KeyRune {
		return string(a.Rune)
	}
	return tcell.KeyNames[a.Key]
}

// Registry holds keybindings in registration order, globally or per page.
type Registry struct {
	global []*Action
	pages  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		pages: make(map[string][]*Action),
	}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(action *Action) {
	r.global = append(r.global, action)
}

// AddPage registers a binding active on page only. Page bindings win over
// global ones.
func (r *Registry) AddPage(page string, action *Action) {
	r.pages[page] = append(r.pages[page], action)
}

// Hints returns the visible bindings of page, page bindings first.
func (r *Registry) Hints(page string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, set := range [][]*Action{r.pages[page], r.global} {
		for _, a := range set {
			if !a.Hidden {
				hints = append(hints, ui.MenuHint{Key: a.label(), Description: a.Description})
			}
		}
	}
	return hints
}

// HandleEvent runs the first binding of page matching ev.
// Returns true if a handler matched.
func (r *Registry) HandleEvent(page string, ev *tcell.EventKey) bool {
	return r.Handle(page, ev.Key(), ev.Rune())
}

// Handle is HandleEvent for a bare key and rune.
func (r *Registry) Handle(page string, key tcell.Key, ch rune) bool {
	for _, set := range [][]*Action{r.pages[page], r.global} {
		for _, a := range set {
			if a.Matches(key, ch) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
