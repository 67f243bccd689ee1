package tui

import (
	"context"
	"errors"

	"github.com/matheus3301/lounge/internal/adapter"
)

// ErrClosed is returned by prompts pending when the App stops.
var ErrClosed = errors.New("tui: closed")

// ShowLink implements adapter.Prompter on the auth page.
func (a *App) ShowLink(ctx context.Context, link string) error {
	errc := make(chan error, 1)
	a.queue(func() {
		a.pages.Push(pageAuth)
		errc <- a.auth.ShowQR(link)
	})
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return ErrClosed
	}
}

// Prompt implements adapter.Prompter. The answer is typed on the auth page.
func (a *App) Prompt(ctx context.Context, kind adapter.PromptKind, hint string) (string, error) {
	label := kind.String()
	if hint != "" {
		label += " (hint: " + hint + ")"
	}
	secret := kind == adapter.PromptPassword || kind == adapter.PromptAPIHash

	answer := make(chan string, 1)
	a.queue(func() {
		a.pages.Push(pageAuth)
		a.auth.ShowMessage("Login required")
		a.auth.Ask(label, secret, func(v string) {
			answer <- v
			a.auth.ShowMessage("Checking...")
		})
		a.app.SetFocus(a.auth.Input())
	})

	select {
	case v := <-answer:
		return v, nil
	case <-ctx.Done():
		a.queue(a.auth.Cancel)
		return "", ctx.Err()
	case <-a.ctx.Done():
		return "", ErrClosed
	}
}

var _ adapter.Prompter = (*App)(nil)
