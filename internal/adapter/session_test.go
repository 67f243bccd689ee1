package adapter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionInitialState(t *testing.T) {
	s := NewSession()
	if s.Current() != Uninitialized {
		t.Errorf("initial state = %s, want UNINITIALIZED", s.Current())
	}
	if s.EverReady() {
		t.Error("new session should not have been ready")
	}
}

// walkTo drives s along a valid path to target.
func walkTo(t *testing.T, s *Session, target AuthState) {
	t.Helper()
	path := map[AuthState][]AuthState{
		Uninitialized:   {},
		Connecting:      {Connecting},
		WaitParams:      {Connecting, WaitParams},
		WaitPhone:       {Connecting, WaitParams, WaitPhone},
		WaitCode:        {Connecting, WaitParams, WaitPhone, WaitCode},
		WaitPassword:    {Connecting, WaitParams, WaitPhone, WaitCode, WaitPassword},
		WaitOtherDevice: {Connecting, WaitParams, WaitOtherDevice},
		Ready:           {Connecting, WaitParams, Ready},
		LoggingOut:      {Connecting, Ready, LoggingOut},
		Closing:         {Connecting, Ready, Closing},
		Closed:          {Connecting, Closed},
	}
	for _, st := range path[target] {
		if err := s.Transition(st); err != nil {
			t.Fatalf("walk to %s: %v", target, err)
		}
	}
}

func TestSessionValidTransitions(t *testing.T) {
	tests := []struct {
		from AuthState
		to   AuthState
	}{
		{Uninitialized, Connecting},
		{Uninitialized, Failed},
		{Connecting, WaitParams},
		{Connecting, Ready},
		{WaitParams, WaitPhone},
		{WaitPhone, WaitCode},
		{WaitCode, WaitPassword},
		{WaitCode, Ready},
		{WaitPassword, Ready},
		{WaitParams, WaitOtherDevice},
		{WaitOtherDevice, Ready},
		{WaitPhone, WaitPhone},
		{Ready, LoggingOut},
		{LoggingOut, WaitParams},
		{Ready, Closing},
		{Closing, Closed},
		{WaitCode, Closed},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			s := NewSession()
			walkTo(t, s, tt.from)
			if err := s.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if s.Current() != tt.to {
				t.Errorf("state = %s, want %s", s.Current(), tt.to)
			}
		})
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	tests := []struct {
		from AuthState
		to   AuthState
	}{
		{Uninitialized, Ready},
		{Ready, WaitCode},
		{Closing, Ready},
		{Closed, Connecting},
		{Closed, Failed},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			s := NewSession()
			walkTo(t, s, tt.from)
			if err := s.Transition(tt.to); err == nil {
				t.Errorf("Transition(%s -> %s) should fail", tt.from, tt.to)
			}
			if s.Current() != tt.from {
				t.Errorf("state = %s, want unchanged %s", s.Current(), tt.from)
			}
		})
	}
}

func TestSessionRemembersReady(t *testing.T) {
	s := NewSession()
	walkTo(t, s, Ready)
	if err := s.Transition(LoggingOut); err != nil {
		t.Fatal(err)
	}
	if !s.EverReady() {
		t.Error("EverReady = false after reaching Ready")
	}
}

func TestSessionResolveOnce(t *testing.T) {
	s := NewSession()
	first := errors.New("first")
	s.Resolve(first)
	s.Resolve(errors.New("second"))

	if err := s.Wait(context.Background()); !errors.Is(err, first) {
		t.Errorf("Wait = %v, want first", err)
	}
}

func TestSessionWaitHonoursContext(t *testing.T) {
	s := NewSession()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want DeadlineExceeded", err)
	}
}
