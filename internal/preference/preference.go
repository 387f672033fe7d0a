// Package preference reports the operating system's dark color-scheme
// preference and, where the platform allows it, notifies listeners when that
// preference changes.
//
// Sources expose one of two listener APIs. ChangeNotifier is the modern form
// and returns its own removal function. LegacyNotifier is the older
// register/unregister-by-handle form. Consumers should prefer the former and
// fall back to the latter; a source implementing neither is read on demand only.
package preference

import (
	"sync"
)

// MediaQuery reports whether a dark color scheme is currently preferred.
type MediaQuery interface {
	Matches() bool
}

// ChangeNotifier is implemented by sources with the modern listener API.
type ChangeNotifier interface {
	AddChangeListener(fn func(matches bool)) (remove func())
}

// ListenerID identifies a listener registered through LegacyNotifier.
type ListenerID uint64

// LegacyNotifier is implemented by sources that only offer the older
// add/remove listener API.
type LegacyNotifier interface {
	AddListener(fn func(matches bool)) ListenerID
	RemoveListener(id ListenerID)
}

// listeners is the registry shared by the concrete sources.
type listeners struct {
	mu     sync.Mutex
	nextID ListenerID
	fns    map[ListenerID]func(bool)
}

func (l *listeners) add(fn func(bool)) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[ListenerID]func(bool))
	}
	l.nextID++
	l.fns[l.nextID] = fn
	return l.nextID
}

func (l *listeners) remove(id ListenerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.fns, id)
}

func (l *listeners) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}

// emit calls every listener outside the registry lock.
func (l *listeners) emit(matches bool) {
	l.mu.Lock()
	fns := make([]func(bool), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(matches)
	}
}

// Fixed is a preference set by the application rather than the OS.
// It backs the "dark" and "light" preference kinds and is handy in tests.
type Fixed struct {
	mu        sync.RWMutex
	dark      bool
	listeners listeners
}

// NewFixed returns a Fixed preference with the given initial value.
func NewFixed(dark bool) *Fixed {
	return &Fixed{dark: dark}
}

// Matches implements MediaQuery.
func (f *Fixed) Matches() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dark
}

// Set changes the value and notifies listeners if it differs.
func (f *Fixed) Set(dark bool) {
	f.mu.Lock()
	if f.dark == dark {
		f.mu.Unlock()
		return
	}
	f.dark = dark
	f.mu.Unlock()

	f.listeners.emit(dark)
}

// AddChangeListener implements ChangeNotifier.
func (f *Fixed) AddChangeListener(fn func(matches bool)) (remove func()) {
	id := f.listeners.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() { f.listeners.remove(id) })
	}
}

// Listeners returns the number of registered listeners.
func (f *Fixed) Listeners() int {
	return f.listeners.len()
}
