// Package component provides the two capabilities a UI component attaches in
// its own lifecycle hooks: a theme subscription and a style injector. They
// are independent; a component may use either, both, or neither.
package component

import (
	"sync"

	"github.com/jmylchreest/umbra/internal/hub"
)

// ThemeSubscription keeps a component's local copy of the theme and requests
// a re-render only when that copy changes.
//
// The zero value is ready to use.
type ThemeSubscription struct {
	mu          sync.Mutex
	dark        bool
	received    bool
	attached    bool
	onChange    func(dark bool)
	unsubscribe func()
}

// Attach subscribes to h. onChange runs for the initial value and then only
// when a delivered value differs from the local one, so it is idempotent with
// respect to repeated deliveries. Attaching an attached subscription is a no-op.
func (s *ThemeSubscription) Attach(h hub.Subscriber, onChange func(dark bool)) {
	s.mu.Lock()
	if s.attached {
		s.mu.Unlock()
		return
	}
	s.attached = true
	s.received = false
	s.onChange = onChange
	s.mu.Unlock()

	// The hub delivers the initial value before Subscribe returns, so the lock
	// must not be held here.
	unsubscribe := h.Subscribe(s.receive)

	s.mu.Lock()
	if !s.attached {
		// Detached while subscribing.
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

func (s *ThemeSubscription) receive(dark bool) {
	s.mu.Lock()
	if !s.attached || (s.received && s.dark == dark) {
		s.mu.Unlock()
		return
	}
	s.dark = dark
	s.received = true
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(dark)
	}
}

// Detach unsubscribes exactly once and drops the reference. It is safe on a
// subscription that was never attached. Deliveries arriving after Detach
// returns never reach onChange.
func (s *ThemeSubscription) Detach() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.attached = false
	s.onChange = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Attached reports whether the subscription is live.
func (s *ThemeSubscription) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Dark returns the last value received.
func (s *ThemeSubscription) Dark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}
