// Package hub broadcasts the shared dark/light theme value to subscribers.
//
// A Hub is constructed once by the application root and handed to every
// component that needs the theme. It owns the observers installed on its
// source; they live until Close or process exit.
package hub

import (
	"crypto/rand"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Source is the input the hub derives its value from.
type Source interface {
	Dark() bool
	Watch(onChange func()) (stop func())
}

// Subscriber is the part of the hub components depend on.
type Subscriber interface {
	Subscribe(fn func(dark bool)) (unsubscribe func())
	IsDark() bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Hub caches the derived theme value and notifies subscribers when it changes.
//
// Notification rounds never overlap. The goroutine that finds the hub idle
// becomes the dispatcher and keeps recomputing until no event is pending;
// events arriving meanwhile, including ones raised from inside a subscriber,
// are folded into its loop. No hub lock is held while a subscriber runs.
//
// Deliveries to one subscriber never overlap. A value that arrives while the
// subscriber is still running is handed over when it returns; if several
// arrive, only the latest is.
type Hub struct {
	src    Source
	logger *slog.Logger

	mu          sync.Mutex
	dark        bool
	subs        map[*subscription]struct{}
	pending     bool
	dispatching bool
	closed      bool
	changedAt   time.Time
	changes     uint64
	stop        func()
}

type subscription struct {
	id     ulid.ULID
	fn     func(dark bool)
	active atomic.Bool

	mu     sync.Mutex // guards the delivery state below
	busy   bool
	queued bool
	next   bool
	last   bool
}

// New creates a hub over src and installs its observers.
func New(src Source, opts ...Option) *Hub {
	h := &Hub{
		src:       src,
		logger:    slog.Default(),
		subs:      make(map[*subscription]struct{}),
		dark:      src.Dark(),
		changedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}

	stop := src.Watch(h.Refresh)

	h.mu.Lock()
	h.stop = stop
	h.mu.Unlock()

	// Pick up anything that changed between the first read and Watch.
	h.Refresh()

	h.logger.Debug("theme hub started", "dark", h.IsDark())
	return h
}

// IsDark returns the cached theme value.
func (h *Hub) IsDark() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dark
}

// ChangedAt returns when the value last changed (or the hub was created).
func (h *Hub) ChangedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.changedAt
}

// Changes returns how many times the value has changed.
func (h *Hub) Changes() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.changes
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscribe registers fn and calls it once with the current value before
// returning. Every call creates a distinct subscription, even for the same fn.
//
// The returned function removes the subscription; calling it again is a no-op.
// Once it returns, no new delivery to fn will start.
func (h *Hub) Subscribe(fn func(dark bool)) (unsubscribe func()) {
	sub := &subscription{
		id: ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader),
		fn: fn,
	}
	sub.active.Store(true)

	h.mu.Lock()
	if h.closed {
		dark := h.dark
		h.mu.Unlock()
		h.logger.Warn("subscribe on closed theme hub", "subscription", sub.id.String())
		sub.call(h.logger, dark)
		return func() {}
	}
	// Marked busy before it is visible to a round, so any change raised
	// meanwhile (including by fn itself) queues behind the initial value.
	sub.busy = true
	h.subs[sub] = struct{}{}
	dark := h.dark
	h.mu.Unlock()

	h.logger.Debug("theme subscriber added", "subscription", sub.id.String(), "dark", dark)
	sub.run(h.logger, dark)

	return func() { h.unsubscribe(sub) }
}

func (h *Hub) unsubscribe(sub *subscription) {
	if !sub.active.Swap(false) {
		return
	}

	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()

	h.logger.Debug("theme subscriber removed", "subscription", sub.id.String())
}

// Refresh recomputes the value and notifies subscribers if it changed.
// Sources call it on every input event; it is safe from any goroutine and
// from inside a subscriber.
func (h *Hub) Refresh() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.pending = true
	if h.dispatching {
		h.mu.Unlock()
		return
	}
	h.dispatching = true
	h.mu.Unlock()

	// Cleared on every exit; the lock is not held when a source panics.
	finished := false
	defer func() {
		if !finished {
			h.mu.Lock()
			h.dispatching = false
			h.mu.Unlock()
		}
	}()

	for {
		h.mu.Lock()
		if !h.pending || h.closed {
			h.dispatching = false
			finished = true
			h.mu.Unlock()
			return
		}
		h.pending = false
		h.mu.Unlock()

		dark := h.src.Dark()

		h.mu.Lock()
		if h.closed || dark == h.dark {
			h.mu.Unlock()
			continue
		}
		h.dark = dark
		h.changedAt = time.Now()
		h.changes++
		targets := make([]*subscription, 0, len(h.subs))
		for sub := range h.subs {
			targets = append(targets, sub)
		}
		h.mu.Unlock()

		h.logger.Debug("theme changed, notifying subscribers", "dark", dark, "subscribers", len(targets))
		for _, sub := range targets {
			sub.deliver(h.logger, dark)
		}
	}
}

// Close removes the hub's observers. Later input events are ignored and
// existing subscriptions receive no further deliveries. Close is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	stop := h.stop
	subs := h.subs
	h.subs = make(map[*subscription]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.active.Store(false)
	}
	if stop != nil {
		stop()
	}
	h.logger.Debug("theme hub closed", "dropped_subscribers", len(subs))
}

// deliver hands dark to the subscription. If a delivery is already running,
// on this goroutine or another, dark is queued for it; only the latest queued
// value is kept.
func (s *subscription) deliver(logger *slog.Logger, dark bool) {
	s.mu.Lock()
	if s.busy {
		s.next, s.queued = dark, true
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()

	s.run(logger, dark)
}

// run must be entered with s.busy set. It calls fn with dark, then with any
// value queued meanwhile that differs from the last one delivered.
func (s *subscription) run(logger *slog.Logger, dark bool) {
	for {
		if s.active.Load() {
			s.call(logger, dark)
		}

		s.mu.Lock()
		s.last = dark
		for {
			if !s.queued {
				s.busy = false
				s.mu.Unlock()
				return
			}
			dark, s.queued = s.next, false
			if dark != s.last {
				break
			}
		}
		s.mu.Unlock()
	}
}

// call runs fn without s.mu held. A panicking subscriber is logged so the
// rest of the round still runs.
func (s *subscription) call(logger *slog.Logger, dark bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("theme subscriber panicked", "subscription", s.id.String(), "panic", r)
		}
	}()
	s.fn(dark)
}
