package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages stacks named components on top of tview.Pages. Only the top of
// the stack is visible and the bottom page is never popped.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// Add registers c as a hidden page named c.Name().
func (p *Pages) Add(c Component) {
	p.AddPage(c.Name(), c, true, false)
}

// SetOnChange registers fn to receive a copy of the stack after every change.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the current page is a no-op.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	p.replace(append(slices.Clone(p.stack), name))
}

// Pop drops the top page and returns its name, or "" when only the
// bottom page is left.
func (p *Pages) Pop() string {
	n := len(p.stack)
	if n < 2 {
		return ""
	}
	top := p.stack[n-1]
	p.replace(p.stack[:n-1])
	return top
}

// Reset makes name the only page on the stack.
func (p *Pages) Reset(name string) {
	p.replace([]string{name})
}

// Current returns the top page, or "" before anything was pushed.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the stack, bottom first.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

func (p *Pages) replace(stack []string) {
	if top := p.Current(); top != "" {
		p.HidePage(top)
	}
	p.stack = stack
	top := p.Current()
	p.ShowPage(top)
	p.SendToFront(top)
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
