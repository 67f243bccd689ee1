package adapter

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/protocol"
	"go.uber.org/zap"
)

// PromptKind names the value the handshake is asking for.
type PromptKind int

const (
	PromptAPIID PromptKind = iota
	PromptAPIHash
	PromptPhone
	PromptCode
	PromptPassword
)

func (k PromptKind) String() string {
	switch k {
	case PromptAPIID:
		return "API id"
	case PromptAPIHash:
		return "API hash"
	case PromptPhone:
		return "Phone number"
	case PromptCode:
		return "Login code"
	case PromptPassword:
		return "Password"
	default:
		return "Value"
	}
}

// Prompter collects interactive input during the handshake. It is called on
// the receiver goroutine, which processes no other traffic until it returns.
type Prompter interface {
	Prompt(ctx context.Context, kind PromptKind, hint string) (string, error)
	// ShowLink presents a login link for confirmation on another device.
	ShowLink(ctx context.Context, link string) error
}

var errNoPrompter = errors.New("interactive input required but no prompter configured")

type noPrompter struct{}

func (noPrompter) Prompt(context.Context, PromptKind, string) (string, error) {
	return "", errNoPrompter
}

func (noPrompter) ShowLink(context.Context, string) error { return errNoPrompter }

func (a *Adapter) transition(to AuthState) {
	from := a.session.Current()
	if err := a.session.Transition(to); err != nil {
		a.logger.Warn("unexpected auth transition", zap.Error(err))
		return
	}
	a.logger.Info("auth state", zap.String("from", string(from)), zap.String("to", string(to)))
}

func (a *Adapter) onAuthState(ctx context.Context, st protocol.AuthState) {
	switch st := st.(type) {
	case protocol.AuthWaitParameters:
		a.transition(WaitParams)
		a.sendParameters(ctx)
	case protocol.AuthWaitPhoneNumber:
		a.transition(WaitPhone)
		if v, ok := a.ask(ctx, PromptPhone, ""); ok {
			a.send(protocol.SetPhoneNumber{PhoneNumber: v})
		}
	case protocol.AuthWaitCode:
		a.transition(WaitCode)
		if v, ok := a.ask(ctx, PromptCode, ""); ok {
			a.send(protocol.CheckCode{Code: v})
		}
	case protocol.AuthWaitPassword:
		a.transition(WaitPassword)
		if v, ok := a.ask(ctx, PromptPassword, st.Hint); ok {
			a.send(protocol.CheckPassword{Password: v})
		}
	case protocol.AuthWaitOtherDevice:
		a.transition(WaitOtherDevice)
		if err := a.prompter.ShowLink(ctx, st.Link); err != nil {
			a.fail(err)
		}
	case protocol.AuthReady:
		a.transition(Ready)
		a.authorized.Store(true)
		a.session.Resolve(nil)
		a.emitStatus(chat.Ready, "")
	case protocol.AuthLoggingOut:
		a.transition(LoggingOut)
		a.authorized.Store(false)
	case protocol.AuthClosing:
		a.transition(Closing)
		a.authorized.Store(false)
	case protocol.AuthClosed:
		a.transition(Closed)
		a.authorized.Store(false)
		a.running.Store(false)
		a.session.Resolve(ErrAuthClosed)
		if !a.stopping.Load() {
			a.emitStatus(chat.Error, ErrAuthClosed.Error())
		}
	}
}

// ask prompts until it gets a non-empty answer. It fails the session when
// the prompter gives up.
func (a *Adapter) ask(ctx context.Context, kind PromptKind, hint string) (string, bool) {
	for {
		v, err := a.prompter.Prompt(ctx, kind, hint)
		if err != nil {
			a.fail(err)
			return "", false
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
}

func (a *Adapter) fail(err error) {
	if a.stopping.Load() || errors.Is(err, context.Canceled) {
		return
	}
	a.logger.Error("auth handshake failed", zap.Error(err))
	a.transition(Failed)
	a.emitStatus(chat.Error, err.Error())
	a.session.Resolve(err)
	a.running.Store(false)
}

func (a *Adapter) sendParameters(ctx context.Context) {
	params := a.opts.Parameters
	if a.creds != nil {
		c := a.creds.Credentials()
		params.APIID, params.APIHash = c.APIID, c.APIHash
	}

	if a.opts.AppCredentialsRequired && (params.APIID == 0 || params.APIHash == "") {
		id, ok := a.askAPIID(ctx)
		if !ok {
			return
		}
		hash, ok := a.ask(ctx, PromptAPIHash, "")
		if !ok {
			return
		}
		params.APIID, params.APIHash = id, hash
		if a.creds != nil {
			if err := a.creds.SetCredentials(id, hash); err != nil {
				a.logger.Warn("failed to persist credentials", zap.Error(err))
			}
		}
	}
	a.send(params)
}

func (a *Adapter) askAPIID(ctx context.Context) (int32, bool) {
	for {
		v, ok := a.ask(ctx, PromptAPIID, "")
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(v, 10, 32)
		if err == nil && id > 0 {
			return int32(id), true
		}
		a.logger.Warn("invalid API id", zap.String("value", v))
	}
}
