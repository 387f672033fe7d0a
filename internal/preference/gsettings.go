package preference

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// GNOME interface settings consulted when no portal is available.
const (
	GSettingsSchema = "org.gnome.desktop.interface"
	GSettingsKey    = "color-scheme"
)

// GSettings follows the GNOME color-scheme key through `gsettings monitor`.
// It predates the portal and only offers the legacy listener API.
type GSettings struct {
	logger *slog.Logger

	mu   sync.RWMutex
	dark bool

	listeners listeners
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewGSettings reads the current value and starts the monitor process.
func NewGSettings(ctx context.Context, logger *slog.Logger) (*GSettings, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bin, err := exec.LookPath("gsettings")
	if err != nil {
		return nil, fmt.Errorf("gsettings not available: %w", err)
	}

	out, err := exec.CommandContext(ctx, bin, "get", GSettingsSchema, GSettingsKey).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", GSettingsSchema, GSettingsKey, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, bin, "monitor", GSettingsSchema, GSettingsKey)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open gsettings monitor output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start gsettings monitor: %w", err)
	}

	g := &GSettings{
		logger: logger,
		dark:   parseGSettingsValue(string(out)),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		g.follow(stdout)
		_ = cmd.Wait()
	}()

	logger.Info("reading color scheme from gsettings", "dark", g.dark)
	return g, nil
}

// parseGSettingsValue interprets a gsettings value such as 'prefer-dark'.
func parseGSettingsValue(s string) bool {
	s = strings.Trim(strings.TrimSpace(s), "'\"")
	return s == "prefer-dark"
}

// parseMonitorLine parses "color-scheme: 'prefer-dark'".
func parseMonitorLine(line string) (dark bool, ok bool) {
	key, value, found := strings.Cut(line, ":")
	if !found || strings.TrimSpace(key) != GSettingsKey {
		return false, false
	}
	return parseGSettingsValue(value), true
}

// follow reads monitor output until it ends.
func (g *GSettings) follow(r io.Reader) {
	defer close(g.done)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		dark, ok := parseMonitorLine(scanner.Text())
		if !ok {
			continue
		}
		g.set(dark)
	}
	if err := scanner.Err(); err != nil {
		g.logger.Debug("gsettings monitor ended", "error", err)
	}
}

func (g *GSettings) set(dark bool) {
	g.mu.Lock()
	changed := g.dark != dark
	g.dark = dark
	g.mu.Unlock()

	if changed {
		g.logger.Debug("gsettings color scheme changed", "dark", dark)
		g.listeners.emit(dark)
	}
}

// Matches implements MediaQuery.
func (g *GSettings) Matches() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dark
}

// AddListener implements LegacyNotifier.
func (g *GSettings) AddListener(fn func(matches bool)) ListenerID {
	return g.listeners.add(fn)
}

// RemoveListener implements LegacyNotifier.
func (g *GSettings) RemoveListener(id ListenerID) {
	g.listeners.remove(id)
}

// Close stops the monitor process.
func (g *GSettings) Close() error {
	g.closeOnce.Do(func() {
		if g.cancel != nil {
			g.cancel()
		}
		if g.done != nil {
			<-g.done
		}
	})
	return nil
}
