package root

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultThemeAttribute is the attribute consulted when none is configured.
const DefaultThemeAttribute = "data-theme"

// Recognised theme attribute values. Anything else defers to the OS preference.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto" // CLI spelling for "remove the attribute"
)

// ErrInvalidThemeValue is returned when a theme value is not dark, light or auto.
var ErrInvalidThemeValue = errors.New("invalid theme value")

// ParseThemeValue validates a user supplied theme value.
// It returns the attribute value to set and whether the attribute should be
// present at all (auto removes it).
func ParseThemeValue(s string) (value string, present bool, err error) {
	switch s {
	case ThemeDark, ThemeLight:
		return s, true, nil
	case ThemeAuto, "":
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: %q (want dark, light or auto)", ErrInvalidThemeValue, s)
	}
}

// Mutation describes a single attribute change delivered to observers.
type Mutation struct {
	Name     string
	OldValue string
	HadValue bool
	Value    string
	Present  bool
}

// Element is an attribute holder with filtered mutation observers, the
// terminal-side stand-in for a document root element.
//
// Observers run synchronously on the goroutine that performed the mutation,
// after the element's lock has been released, so an observer may read or
// mutate the element again.
type Element struct {
	mu        sync.RWMutex
	attrs     map[string]string
	observers map[uint64]*observer
	nextID    uint64
}

type observer struct {
	name string
	fn   func(Mutation)
}

// NewElement creates an element with no attributes.
func NewElement() *Element {
	return &Element{
		attrs:     make(map[string]string),
		observers: make(map[uint64]*observer),
	}
}

// Attribute returns the value of name and whether it is set.
func (e *Element) Attribute(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.attrs[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (e *Element) Attributes() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

// SetAttribute sets name to value and notifies observers of name.
// Like a DOM attribute write, observers fire even when the value is unchanged.
func (e *Element) SetAttribute(name, value string) {
	e.mu.Lock()
	old, had := e.attrs[name]
	e.attrs[name] = value
	targets := e.observersFor(name)
	e.mu.Unlock()

	dispatch(targets, Mutation{Name: name, OldValue: old, HadValue: had, Value: value, Present: true})
}

// RemoveAttribute removes name. Observers are only notified if it was set.
func (e *Element) RemoveAttribute(name string) {
	e.mu.Lock()
	old, had := e.attrs[name]
	if !had {
		e.mu.Unlock()
		return
	}
	delete(e.attrs, name)
	targets := e.observersFor(name)
	e.mu.Unlock()

	dispatch(targets, Mutation{Name: name, OldValue: old, HadValue: true})
}

// ReplaceAttributes makes the element's attributes equal to attrs, notifying
// observers once per attribute that was added, changed or removed. The whole
// diff is applied under one lock; observers run afterwards, so a write they
// make is never overwritten by the rest of the replacement.
func (e *Element) ReplaceAttributes(attrs map[string]string) {
	type pending struct {
		targets []func(Mutation)
		m       Mutation
	}
	var out []pending

	e.mu.Lock()
	// Stable order keeps observer delivery deterministic.
	var removed []string
	for k := range e.attrs {
		if _, ok := attrs[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(removed)
	for _, k := range removed {
		old := e.attrs[k]
		delete(e.attrs, k)
		out = append(out, pending{e.observersFor(k), Mutation{Name: k, OldValue: old, HadValue: true}})
	}

	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		old, had := e.attrs[k]
		if had && old == attrs[k] {
			continue
		}
		e.attrs[k] = attrs[k]
		out = append(out, pending{e.observersFor(k), Mutation{Name: k, OldValue: old, HadValue: had, Value: attrs[k], Present: true}})
	}
	e.mu.Unlock()

	for _, p := range out {
		dispatch(p.targets, p.m)
	}
}

// Observe registers fn for mutations of the attribute name only.
// The returned disconnect function is safe to call more than once.
func (e *Element) Observe(name string, fn func(Mutation)) (disconnect func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.observers[id] = &observer{name: name, fn: fn}
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.observers, id)
			e.mu.Unlock()
		})
	}
}

// ObserverCount returns the number of connected observers.
func (e *Element) ObserverCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.observers)
}

// observersFor must be called with e.mu held.
func (e *Element) observersFor(name string) []func(Mutation) {
	var out []func(Mutation)
	for _, o := range e.observers {
		if o.name == name {
			out = append(out, o.fn)
		}
	}
	return out
}

func dispatch(targets []func(Mutation), m Mutation) {
	for _, fn := range targets {
		fn(m)
	}
}
