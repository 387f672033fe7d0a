package preference

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

// XDG desktop portal Settings interface.
const (
	PortalDest          = "org.freedesktop.portal.Desktop"
	PortalPath          = "/org/freedesktop/portal/desktop"
	PortalSettingsIface = "org.freedesktop.portal.Settings"
	AppearanceNamespace = "org.freedesktop.appearance"
	ColorSchemeKey      = "color-scheme"
)

// ColorScheme is the portal's org.freedesktop.appearance color-scheme value.
type ColorScheme uint32

const (
	ColorSchemeDefault     ColorScheme = 0
	ColorSchemePreferDark  ColorScheme = 1
	ColorSchemePreferLight ColorScheme = 2
)

// String returns the portal's name for the scheme.
func (c ColorScheme) String() string {
	switch c {
	case ColorSchemeDefault:
		return "default"
	case ColorSchemePreferDark:
		return "prefer-dark"
	case ColorSchemePreferLight:
		return "prefer-light"
	default:
		return "unknown"
	}
}

// Portal reads the color scheme from the XDG desktop portal and listens for
// SettingChanged signals on the session bus.
type Portal struct {
	conn   *dbus.Conn
	logger *slog.Logger

	mu     sync.RWMutex
	scheme ColorScheme

	listeners listeners
	signals   chan *dbus.Signal
	done      chan struct{}
	closeOnce sync.Once
}

// NewPortal connects to the session bus, reads the current color scheme and
// subscribes to changes.
func NewPortal(logger *slog.Logger) (*Portal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// A private connection, so Close does not tear down the shared session bus.
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	scheme, err := readColorScheme(conn.Object(PortalDest, PortalPath))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(PortalPath),
		dbus.WithMatchInterface(PortalSettingsIface),
		dbus.WithMatchMember("SettingChanged"),
		dbus.WithMatchArg(0, AppearanceNamespace),
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to add SettingChanged match: %w", err)
	}

	p := &Portal{
		conn:    conn,
		logger:  logger,
		scheme:  scheme,
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
	}
	conn.Signal(p.signals)
	go p.processSignals()

	logger.Info("reading color scheme from desktop portal", "scheme", scheme.String())
	return p, nil
}

// readColorScheme uses ReadOne (portal v2) and falls back to the deprecated
// Read, which wraps the value in an extra variant.
func readColorScheme(obj dbus.BusObject) (ColorScheme, error) {
	var v dbus.Variant
	err := obj.Call(PortalSettingsIface+".ReadOne", 0, AppearanceNamespace, ColorSchemeKey).Store(&v)
	if err != nil {
		if err := obj.Call(PortalSettingsIface+".Read", 0, AppearanceNamespace, ColorSchemeKey).Store(&v); err != nil {
			return ColorSchemeDefault, fmt.Errorf("failed to read %s %s: %w", AppearanceNamespace, ColorSchemeKey, err)
		}
	}
	return parseColorScheme(v)
}

// parseColorScheme unwraps nested variants down to the uint32 scheme.
func parseColorScheme(v dbus.Variant) (ColorScheme, error) {
	for {
		switch val := v.Value().(type) {
		case dbus.Variant:
			v = val
		case uint32:
			return ColorScheme(val), nil
		default:
			return ColorSchemeDefault, fmt.Errorf("unexpected color-scheme type %s", v.Signature())
		}
	}
}

// processSignals applies SettingChanged signals until Close.
func (p *Portal) processSignals() {
	for {
		select {
		case <-p.done:
			return
		case sig, ok := <-p.signals:
			if !ok {
				return
			}
			p.handleSignal(sig)
		}
	}
}

// handleSignal parses SettingChanged(namespace, key, value).
func (p *Portal) handleSignal(sig *dbus.Signal) {
	if sig.Name != PortalSettingsIface+".SettingChanged" || len(sig.Body) < 3 {
		return
	}
	namespace, ok := sig.Body[0].(string)
	if !ok || namespace != AppearanceNamespace {
		return
	}
	key, ok := sig.Body[1].(string)
	if !ok || key != ColorSchemeKey {
		return
	}
	value, ok := sig.Body[2].(dbus.Variant)
	if !ok {
		p.logger.Warn("invalid SettingChanged value type")
		return
	}

	scheme, err := parseColorScheme(value)
	if err != nil {
		p.logger.Warn("failed to parse color scheme", "error", err)
		return
	}
	p.setScheme(scheme)
}

// setScheme stores scheme and notifies listeners if the dark match changed.
func (p *Portal) setScheme(scheme ColorScheme) {
	p.mu.Lock()
	wasDark := p.scheme == ColorSchemePreferDark
	p.scheme = scheme
	p.mu.Unlock()

	p.logger.Debug("portal color scheme changed", "scheme", scheme.String())

	isDark := scheme == ColorSchemePreferDark
	if isDark != wasDark {
		p.listeners.emit(isDark)
	}
}

// Scheme returns the last known portal value.
func (p *Portal) Scheme() ColorScheme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scheme
}

// Matches implements MediaQuery.
func (p *Portal) Matches() bool {
	return p.Scheme() == ColorSchemePreferDark
}

// AddChangeListener implements ChangeNotifier.
func (p *Portal) AddChangeListener(fn func(matches bool)) (remove func()) {
	id := p.listeners.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() { p.listeners.remove(id) })
	}
}

// Close stops listening and closes the bus connection.
func (p *Portal) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.conn != nil {
			p.conn.RemoveSignal(p.signals)
			err = p.conn.Close()
		}
	})
	return err
}
