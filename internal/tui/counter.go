package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/umbra/internal/component"
	"github.com/jmylchreest/umbra/internal/hub"
)

// DefaultDocsHint is the hint shown under the counter button.
const DefaultDocsHint = "Press space to count, t to cycle the theme"

// Counter is the example component: a button-like line showing how many times
// it was pressed, plus a hint. It uses both capabilities through its Base.
type Counter struct {
	*component.Base

	// Title is rendered above the button, like slotted content.
	Title    string
	DocsHint string
	count    int
}

// NewCounter creates a counter whose root adopts the injector's sheet.
func NewCounter(injector *component.StyleInjector) *Counter {
	return &Counter{
		Base:     component.NewBase(injector),
		Title:    "umbra",
		DocsHint: DefaultDocsHint,
	}
}

// Init connects the counter to h.
func (c *Counter) Init(h hub.Subscriber) tea.Cmd {
	return c.Connect(h)
}

// Update handles theme messages addressed to the counter.
func (c *Counter) Update(msg tea.Msg) (tea.Cmd, bool) {
	return c.HandleTheme(msg)
}

// Increment adds one to the count.
func (c *Counter) Increment() {
	c.count++
}

// Reset sets the count back to zero.
func (c *Counter) Reset() {
	c.count = 0
}

// Count returns the current count.
func (c *Counter) Count() int {
	return c.count
}

// View renders the counter centred in width.
func (c *Counter) View(width int) string {
	var b strings.Builder
	if c.Title != "" {
		b.WriteString(c.Render("title", c.Title))
		b.WriteString("\n\n")
	}
	b.WriteString(c.Render("card", c.Render("button", fmt.Sprintf("count is %d", c.count))))
	b.WriteString("\n\n")
	b.WriteString(c.Render("muted", c.DocsHint))

	if width <= 0 {
		return b.String()
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}
