package adapter

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// AuthState is a step of the adapter's session lifecycle.
type AuthState string

const (
	Uninitialized   AuthState = "UNINITIALIZED"
	Connecting      AuthState = "CONNECTING"
	WaitParams      AuthState = "WAIT_PARAMS"
	WaitPhone       AuthState = "WAIT_PHONE"
	WaitCode        AuthState = "WAIT_CODE"
	WaitPassword    AuthState = "WAIT_PASSWORD"
	WaitOtherDevice AuthState = "WAIT_OTHER_DEVICE"
	Ready           AuthState = "READY"
	LoggingOut      AuthState = "LOGGING_OUT"
	Closing         AuthState = "CLOSING"
	Closed          AuthState = "CLOSED"
	Failed          AuthState = "ERROR"
)

var waiting = []AuthState{WaitParams, WaitPhone, WaitCode, WaitPassword, WaitOtherDevice}

func with(states []AuthState, extra ...AuthState) []AuthState {
	return append(slices.Clone(states), extra...)
}

// validTransitions defines allowed state transitions. Failed is reachable
// from every live state.
var validTransitions = map[AuthState][]AuthState{
	Uninitialized:   {Connecting, Failed},
	Connecting:      with(waiting, Ready, Closing, Closed, Failed),
	WaitParams:      with(waiting, Ready, Closing, Closed, Failed),
	WaitPhone:       with(waiting, Ready, Closing, Closed, Failed),
	WaitCode:        with(waiting, Ready, Closing, Closed, Failed),
	WaitPassword:    with(waiting, Ready, Closing, Closed, Failed),
	WaitOtherDevice: with(waiting, Ready, Closing, Closed, Failed),
	Ready:           {LoggingOut, Closing, Closed, Failed},
	LoggingOut:      with(waiting, Closing, Closed, Failed),
	Closing:         {Closed, Failed},
	Closed:          {},
	Failed:          {},
}

// Session tracks the authorization state and carries the one-shot result
// that Start waits for.
type Session struct {
	mu        sync.RWMutex
	current   AuthState
	everReady bool

	once   sync.Once
	result chan error
}

// NewSession creates a session in the Uninitialized state.
func NewSession() *Session {
	return &Session{
		current: Uninitialized,
		result:  make(chan error, 1),
	}
}

// Current returns the current state.
func (s *Session) Current() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// EverReady reports whether the session has reached Ready at least once.
func (s *Session) EverReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.everReady
}

// Transition moves to a new state. Returns error if the transition is invalid.
func (s *Session) Transition(to AuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(validTransitions[s.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", s.current, to)
	}
	s.current = to
	if to == Ready {
		s.everReady = true
	}
	return nil
}

// Resolve delivers the start result. Only the first call has any effect.
func (s *Session) Resolve(err error) {
	s.once.Do(func() {
		s.result <- err
	})
}

// Wait blocks until Resolve is called or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case err := <-s.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
