package component

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ThemeMsg is a re-render request carrying the new theme value to the
// component whose channel produced it.
type ThemeMsg struct {
	Dark bool

	from *ThemeChannel
}

// For reports whether the message was produced by c.
func (m ThemeMsg) For(c *ThemeChannel) bool {
	return m.from != nil && m.from == c
}

// ThemeChannel moves theme deliveries from the hub's goroutine onto the
// bubbletea event loop. It holds at most one value: a newer delivery replaces
// an unread one, so a busy UI never blocks the hub.
type ThemeChannel struct {
	ch   chan bool
	done chan struct{}
	once sync.Once
}

// NewThemeChannel creates an open channel.
func NewThemeChannel() *ThemeChannel {
	return &ThemeChannel{
		ch:   make(chan bool, 1),
		done: make(chan struct{}),
	}
}

// Send queues dark, replacing any value not yet read.
// It expects a single sender, which the hub guarantees per subscription.
func (c *ThemeChannel) Send(dark bool) {
	select {
	case c.ch <- dark:
		return
	default:
	}
	select {
	case <-c.ch:
	default:
	}
	select {
	case c.ch <- dark:
	default:
	}
}

// take returns a queued value without blocking.
func (c *ThemeChannel) take() (bool, bool) {
	select {
	case dark := <-c.ch:
		return dark, true
	default:
		return false, false
	}
}

// Wait returns a command that blocks until a value is queued or the channel is
// closed. A closed channel yields a nil message.
func (c *ThemeChannel) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case dark := <-c.ch:
			return ThemeMsg{Dark: dark, from: c}
		case <-c.done:
			return nil
		}
	}
}

// Close releases any pending Wait. It is idempotent.
func (c *ThemeChannel) Close() {
	c.once.Do(func() { close(c.done) })
}
