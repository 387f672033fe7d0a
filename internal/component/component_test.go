package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/umbra/internal/hub"
	"github.com/jmylchreest/umbra/internal/preference"
	"github.com/jmylchreest/umbra/internal/root"
	"github.com/jmylchreest/umbra/internal/source"
	"github.com/jmylchreest/umbra/internal/style"
)

const attr = root.DefaultThemeAttribute

func newHub(t *testing.T, osDark bool) (*hub.Hub, *root.Element, *preference.Fixed) {
	t.Helper()
	el := root.NewElement()
	pref := preference.NewFixed(osDark)
	h := hub.New(source.New(el, attr, pref, nil))
	t.Cleanup(h.Close)
	return h, el, pref
}

// fakeHub delivers whatever the test pushes, duplicates included, so the
// subscription's own dedupe can be observed.
type fakeHub struct {
	dark         bool
	fns          map[int]func(bool)
	next         int
	unsubscribes int
}

func newFakeHub(dark bool) *fakeHub {
	return &fakeHub{dark: dark, fns: make(map[int]func(bool))}
}

func (f *fakeHub) Subscribe(fn func(bool)) func() {
	id := f.next
	f.next++
	f.fns[id] = fn
	fn(f.dark)
	return func() {
		f.unsubscribes++
		delete(f.fns, id)
	}
}

func (f *fakeHub) IsDark() bool { return f.dark }

func (f *fakeHub) push(dark bool) {
	f.dark = dark
	for _, fn := range f.fns {
		fn(dark)
	}
}

func TestThemeSubscription_DedupesLocally(t *testing.T) {
	fh := newFakeHub(false)

	var s ThemeSubscription
	var renders []bool
	s.Attach(fh, func(dark bool) { renders = append(renders, dark) })

	fh.push(false)
	fh.push(true)
	fh.push(true)
	fh.push(false)

	assert.Equal(t, []bool{false, true, false}, renders)
	assert.False(t, s.Dark())
}

func TestThemeSubscription_DetachUnsubscribesOnce(t *testing.T) {
	fh := newFakeHub(false)

	var s ThemeSubscription
	calls := 0
	s.Attach(fh, func(bool) { calls++ })
	require.True(t, s.Attached())

	s.Detach()
	s.Detach()

	assert.Equal(t, 1, fh.unsubscribes)
	assert.False(t, s.Attached())
	assert.Empty(t, fh.fns)

	fh.push(true)
	assert.Equal(t, 1, calls)
}

func TestThemeSubscription_DetachWithoutAttach(t *testing.T) {
	var s ThemeSubscription
	assert.NotPanics(t, s.Detach)
	assert.False(t, s.Attached())
}

func TestThemeSubscription_AttachTwiceIsNoop(t *testing.T) {
	fh := newFakeHub(true)

	var s ThemeSubscription
	calls := 0
	s.Attach(fh, func(bool) { calls++ })
	s.Attach(fh, func(bool) { calls += 100 })

	assert.Len(t, fh.fns, 1)
	assert.Equal(t, 1, calls)
}

func TestThemeSubscription_ReattachGetsFreshInitialValue(t *testing.T) {
	h, el, _ := newHub(t, false)

	var s ThemeSubscription
	var renders []bool
	s.Attach(h, func(dark bool) { renders = append(renders, dark) })
	s.Detach()

	s.Attach(h, func(dark bool) { renders = append(renders, dark) })
	defer s.Detach()

	// The initial value counts even though it equals the local copy.
	assert.Equal(t, []bool{false, false}, renders)

	el.SetAttribute(attr, root.ThemeDark)
	assert.Equal(t, []bool{false, false, true}, renders)
	assert.Equal(t, 1, h.Len())
}

func TestThemeSubscription_DetachedComponentNeverCalled(t *testing.T) {
	h, el, _ := newHub(t, false)

	var a, b ThemeSubscription
	var aCalls, bCalls int
	a.Attach(h, func(bool) { aCalls++ })
	b.Attach(h, func(bool) { bCalls++ })
	require.Equal(t, 2, h.Len())

	a.Detach()
	el.SetAttribute(attr, root.ThemeDark)

	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 2, bCalls)
	assert.Equal(t, 1, h.Len())
	b.Detach()
	assert.Equal(t, 0, h.Len())
}

func TestThemeSubscription_MatchesHubAfterPreferenceChange(t *testing.T) {
	h, _, pref := newHub(t, false)

	var s ThemeSubscription
	s.Attach(h, nil)
	defer s.Detach()

	pref.Set(true)
	assert.True(t, s.Dark())
	assert.Equal(t, h.IsDark(), s.Dark())
}

func TestStyleInjector_Attach(t *testing.T) {
	shared := style.NewShared(style.MustDefault())
	inj := NewStyleInjector(shared)

	r := style.NewRoot()
	inj.Attach(r)
	inj.Attach(r)
	assert.True(t, r.Adopted())
	assert.Same(t, shared.Sheet(), r.Sheet())

	var nilInjector *StyleInjector
	other := style.NewRoot()
	assert.NotPanics(t, func() { nilInjector.Attach(other) })
	assert.False(t, other.Adopted())
}

func TestThemeChannel_LatestValueWins(t *testing.T) {
	c := NewThemeChannel()
	c.Send(true)
	c.Send(false)
	c.Send(true)

	msg := c.Wait()()
	tm, ok := msg.(ThemeMsg)
	require.True(t, ok)
	assert.True(t, tm.Dark)
	assert.True(t, tm.For(c))
	assert.False(t, tm.For(NewThemeChannel()))

	_, queued := c.take()
	assert.False(t, queued)
}

func TestThemeChannel_CloseReleasesWait(t *testing.T) {
	c := NewThemeChannel()
	done := make(chan interface{}, 1)
	go func() { done <- c.Wait()() }()

	c.Close()
	c.Close()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Close")
	}
}

func TestBase_ConnectAppliesStylesAndInitialTheme(t *testing.T) {
	h, el, _ := newHub(t, false)
	el.SetAttribute(attr, root.ThemeDark)

	b := NewBase(NewStyleInjector(style.NewShared(style.MustDefault())))
	cmd := b.Connect(h)
	require.NotNil(t, cmd)
	defer b.Disconnect()

	assert.True(t, b.Root.Adopted())
	assert.True(t, b.Dark(), "initial value applied before the first frame")
	assert.Equal(t, []string{style.DarkClass}, b.Root.Classes())
	assert.True(t, b.Connected())

	// Connecting again does not subscribe twice.
	assert.Nil(t, b.Connect(h))
	assert.Equal(t, 1, h.Len())
}

func TestBase_ThemeChangeFlowsThroughMessages(t *testing.T) {
	h, el, _ := newHub(t, false)

	b := NewBase(NewStyleInjector(style.NewShared(style.MustDefault())))
	cmd := b.Connect(h)
	defer b.Disconnect()
	require.False(t, b.Dark())

	el.SetAttribute(attr, root.ThemeDark)

	// The root only changes once the message is handled on the UI loop.
	assert.False(t, b.Dark())
	msg := cmd()
	next, handled := b.HandleTheme(msg)
	require.True(t, handled)
	require.NotNil(t, next)
	assert.True(t, b.Dark())

	// Messages for another component are not handled.
	other := NewBase(nil)
	otherCmd := other.Connect(h)
	defer other.Disconnect()
	require.NotNil(t, otherCmd)

	el.SetAttribute(attr, root.ThemeLight)
	otherMsg := otherCmd()
	_, handled = b.HandleTheme(otherMsg)
	assert.False(t, handled)
	_, handled = other.HandleTheme(otherMsg)
	assert.True(t, handled)
	assert.False(t, other.Root.Adopted())

	_, handled = b.HandleTheme("unrelated")
	assert.False(t, handled)
}

func TestBase_DisconnectBeforeConnect(t *testing.T) {
	b := NewBase(nil)
	assert.NotPanics(t, b.Disconnect)
	assert.False(t, b.Connected())
}

func TestBase_DisconnectStopsUpdates(t *testing.T) {
	h, el, _ := newHub(t, false)

	b := NewBase(nil)
	cmd := b.Connect(h)
	b.Disconnect()
	b.Disconnect()
	assert.Equal(t, 0, h.Len())

	el.SetAttribute(attr, root.ThemeDark)

	// The pending wait is released with no message.
	assert.Nil(t, cmd())
	assert.False(t, b.Dark())
}
