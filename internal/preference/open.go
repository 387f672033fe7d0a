package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
)

// Preference source kinds accepted by Open.
const (
	KindAuto      = "auto"
	KindPortal    = "portal"
	KindGSettings = "gsettings"
	KindTerminal  = "terminal"
	KindDark      = "dark"
	KindLight     = "light"
)

// ErrUnknownKind is returned for a preference kind Open does not know.
var ErrUnknownKind = errors.New("unknown preference source")

// Kinds lists every accepted kind.
func Kinds() []string {
	return []string{KindAuto, KindPortal, KindGSettings, KindTerminal, KindDark, KindLight}
}

// IsKnownKind reports whether kind is accepted by Open.
func IsKnownKind(kind string) bool {
	for _, k := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Terminal derives the preference from the terminal's background color.
// Terminals do not announce background changes, so it has no listener API and
// the value is sampled once.
type Terminal struct {
	dark bool
}

// NewTerminal samples the background through r (the default renderer if nil).
// It must run before a TUI takes over the terminal's input.
func NewTerminal(r *lipgloss.Renderer) *Terminal {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &Terminal{dark: r.HasDarkBackground()}
}

// Matches implements MediaQuery.
func (t *Terminal) Matches() bool {
	return t.dark
}

// Open creates the preference source named by kind.
// Sources that hold resources implement io.Closer.
//
// KindAuto tries the portal, then gsettings, then the terminal background.
func Open(ctx context.Context, kind string, logger *slog.Logger) (MediaQuery, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch kind {
	case KindDark:
		return NewFixed(true), nil
	case KindLight:
		return NewFixed(false), nil
	case KindTerminal:
		return NewTerminal(nil), nil
	case KindPortal:
		return NewPortal(logger)
	case KindGSettings:
		return NewGSettings(ctx, logger)
	case KindAuto, "":
		p, err := NewPortal(logger)
		if err == nil {
			return p, nil
		}
		logger.Debug("desktop portal unavailable", "error", err)

		g, err := NewGSettings(ctx, logger)
		if err == nil {
			return g, nil
		}
		logger.Debug("gsettings unavailable", "error", err)

		logger.Warn("no OS color scheme source available, using terminal background")
		return NewTerminal(nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
