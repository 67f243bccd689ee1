package ui

import "github.com/rivo/tview"

// MenuHint describes a keyboard shortcut for display in the menu.
type MenuHint struct {
	Key         string
	Description string
}

// Component is a page of the application. Name is both the page name and
// its breadcrumb.
type Component interface {
	tview.Primitive
	Name() string
}
