package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/umbra/internal/component"
	"github.com/jmylchreest/umbra/internal/hub"
	"github.com/jmylchreest/umbra/internal/source"
)

// ThemeInfo is what the status bar reports about the hub.
type ThemeInfo interface {
	hub.Subscriber
	ChangedAt() time.Time
	Changes() uint64
	Len() int
}

// StatusBar shows the current theme, where it came from and when it last
// changed. It is itself a theme subscriber.
type StatusBar struct {
	*component.Base

	info   ThemeInfo
	inputs func() source.Inputs
	now    func() time.Time
}

// NewStatusBar creates a status bar reading from info. inputs may be nil.
func NewStatusBar(injector *component.StyleInjector, info ThemeInfo, inputs func() source.Inputs) *StatusBar {
	return &StatusBar{
		Base:   component.NewBase(injector),
		info:   info,
		inputs: inputs,
		now:    time.Now,
	}
}

// Init connects the status bar to its hub.
func (s *StatusBar) Init() tea.Cmd {
	return s.Connect(s.info)
}

// Update handles theme messages addressed to the status bar.
func (s *StatusBar) Update(msg tea.Msg) (tea.Cmd, bool) {
	return s.HandleTheme(msg)
}

// Line returns the unstyled status text.
func (s *StatusBar) Line() string {
	mode := "light"
	if s.Dark() {
		mode = "dark"
	}

	origin := ""
	if s.inputs != nil {
		in := s.inputs()
		switch {
		case source.Explicit(in.Value, in.Present):
			origin = fmt.Sprintf(" (%s=%s)", in.Attribute, in.Value)
		default:
			origin = " (os preference)"
		}
	}

	changed := humanize.RelTime(s.info.ChangedAt(), s.now(), "ago", "from now")
	return fmt.Sprintf("theme: %s%s · changed %s · %s · %s",
		mode, origin, changed,
		plural(s.info.Changes(), "change"),
		plural(uint64(s.info.Len()), "subscriber"))
}

// View renders the status line with the status class.
func (s *StatusBar) View() string {
	return s.Render("status", s.Line())
}

func plural(n uint64, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
