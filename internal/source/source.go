// Package source derives the single "is dark" value from the root element's
// theme attribute and the OS color-scheme preference, and reports when either
// input changes in a way that could affect it.
package source

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/umbra/internal/preference"
	"github.com/jmylchreest/umbra/internal/root"
)

// Root is the attribute holder the source observes.
type Root interface {
	Attribute(name string) (string, bool)
	Observe(name string, fn func(root.Mutation)) (disconnect func())
}

// Derive applies the precedence rule: an explicit "dark" or "light" attribute
// wins, anything else defers to the OS preference.
func Derive(value string, present bool, osDark bool) bool {
	if present {
		switch value {
		case root.ThemeDark:
			return true
		case root.ThemeLight:
			return false
		}
	}
	return osDark
}

// Explicit reports whether the attribute overrides the OS preference.
func Explicit(value string, present bool) bool {
	return present && (value == root.ThemeDark || value == root.ThemeLight)
}

// Inputs is a snapshot of both inputs and the derived value.
type Inputs struct {
	Attribute string `json:"attribute" yaml:"attribute"`
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	Present   bool   `json:"present" yaml:"present"`
	OSDark    bool   `json:"os_dark" yaml:"os_dark"`
	Dark      bool   `json:"dark" yaml:"dark"`
}

// Source evaluates the theme from live inputs. Neither input is cached here;
// caching and change detection belong to the hub.
type Source struct {
	root      Root
	attribute string
	media     preference.MediaQuery
	logger    *slog.Logger
}

// New creates a source observing attribute on r. The attribute name is fixed
// for the life of the source; an empty name selects root.DefaultThemeAttribute.
func New(r Root, attribute string, media preference.MediaQuery, logger *slog.Logger) *Source {
	if attribute == "" {
		attribute = root.DefaultThemeAttribute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		root:      r,
		attribute: attribute,
		media:     media,
		logger:    logger,
	}
}

// Attribute returns the observed attribute name.
func (s *Source) Attribute() string {
	return s.attribute
}

// Dark evaluates Derive on the current inputs.
func (s *Source) Dark() bool {
	return s.Inputs().Dark
}

// Inputs returns the current inputs and derived value.
func (s *Source) Inputs() Inputs {
	value, present := s.root.Attribute(s.attribute)
	osDark := s.media != nil && s.media.Matches()
	return Inputs{
		Attribute: s.attribute,
		Value:     value,
		Present:   present,
		OSDark:    osDark,
		Dark:      Derive(value, present, osDark),
	}
}

// Watch calls onChange whenever the theme attribute is mutated, or when the OS
// preference changes while the attribute is not an explicit override.
// onChange runs on the goroutine that delivered the event.
//
// The returned stop function removes both observers and may be called more
// than once.
func (s *Source) Watch(onChange func()) (stop func()) {
	disconnect := s.root.Observe(s.attribute, func(root.Mutation) {
		onChange()
	})

	onPreference := func(matches bool) {
		// Read the attribute now; an override set since the last event wins.
		if Explicit(s.root.Attribute(s.attribute)) {
			s.logger.Debug("ignoring OS preference change, attribute overrides it",
				"attribute", s.attribute, "os_dark", matches)
			return
		}
		onChange()
	}

	removePreference := func() {}
	switch m := s.media.(type) {
	case preference.ChangeNotifier:
		removePreference = m.AddChangeListener(onPreference)
	case preference.LegacyNotifier:
		id := m.AddListener(onPreference)
		removePreference = func() { m.RemoveListener(id) }
		s.logger.Debug("using legacy preference listener")
	default:
		s.logger.Debug("preference source has no change listener, reading on demand only")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			disconnect()
			removePreference()
		})
	}
}
