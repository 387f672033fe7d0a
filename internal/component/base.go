package component

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/umbra/internal/hub"
	"github.com/jmylchreest/umbra/internal/style"
)

// Base bundles a render root with both capabilities. Concrete components hold
// a *Base and call Connect from their attach hook (Init), HandleTheme from
// Update, and Disconnect when they are removed.
type Base struct {
	Root *style.Root

	injector *StyleInjector
	theme    ThemeSubscription
	channel  *ThemeChannel
}

// NewBase creates a component base. A nil injector leaves the root unstyled.
func NewBase(injector *StyleInjector) *Base {
	return &Base{
		Root:     style.NewRoot(),
		injector: injector,
	}
}

// Connect adopts the stylesheet, then subscribes to h. The root reflects the
// current theme when Connect returns; later changes arrive as ThemeMsg through
// the returned command. Connecting a connected base returns nil.
func (b *Base) Connect(h hub.Subscriber) tea.Cmd {
	b.injector.Attach(b.Root)

	if b.theme.Attached() {
		return nil
	}

	ch := NewThemeChannel()
	b.channel = ch
	b.theme.Attach(h, ch.Send)

	// Apply the synchronous initial value now so the first frame is correct.
	if dark, ok := ch.take(); ok {
		b.Root.SetDark(dark)
	}
	return ch.Wait()
}

// HandleTheme applies a ThemeMsg addressed to this base and re-arms the wait.
// handled is false for any other message.
func (b *Base) HandleTheme(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	tm, ok := msg.(ThemeMsg)
	if !ok || b.channel == nil || !tm.For(b.channel) {
		return nil, false
	}
	b.Root.SetDark(tm.Dark)
	return b.channel.Wait(), true
}

// Disconnect unsubscribes and releases the pending wait. Safe to call on a
// base that never connected, and more than once.
func (b *Base) Disconnect() {
	b.theme.Detach()
	if b.channel != nil {
		b.channel.Close()
		b.channel = nil
	}
}

// Connected reports whether the theme subscription is live.
func (b *Base) Connected() bool {
	return b.theme.Attached()
}

// Dark reports whether the root currently renders the dark variant.
func (b *Base) Dark() bool {
	return b.Root.Dark()
}

// Render renders strs with class from the root's active styles.
func (b *Base) Render(class string, strs ...string) string {
	return b.Root.Render(class, strs...)
}
