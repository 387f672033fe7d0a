package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmylchreest/umbra/internal/component"
	"github.com/jmylchreest/umbra/internal/config"
	"github.com/jmylchreest/umbra/internal/hub"
	"github.com/jmylchreest/umbra/internal/preference"
	"github.com/jmylchreest/umbra/internal/root"
	"github.com/jmylchreest/umbra/internal/source"
	"github.com/jmylchreest/umbra/internal/style"
	"github.com/jmylchreest/umbra/internal/tui"
)

// changeSource tags state file writes made by this binary.
const changeSource = "umbra"

// app is the application root: it owns the one hub and everything feeding it.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	statePath string

	element *root.Element
	media   preference.MediaQuery
	source  *source.Source
	hub     *hub.Hub

	shared   *style.Shared
	injector *component.StyleInjector

	stateWatcher *root.FileWatcher
	sheetWatcher *style.Watcher
}

type appOptions struct {
	// follow keeps the element in sync with the state file and reloads a user
	// stylesheet when it changes. One-shot commands leave it off.
	follow bool
}

// openApp wires the element, the preference source, the hub and the shared
// stylesheet from cfg.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	statePath, err := cfg.StatePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state path: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		statePath: statePath,
		element:   root.NewElement(),
	}

	// Mirror the state file into the element before anything observes it.
	state, err := root.LoadState(statePath)
	if err != nil {
		return nil, err
	}
	a.element.ReplaceAttributes(state.Attributes)

	a.media, err = preference.Open(ctx, cfg.Theme.Preference, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference source: %w", err)
	}

	a.source = source.New(a.element, cfg.Theme.Attribute, a.media, logger)
	a.hub = hub.New(a.source, hub.WithLogger(logger))

	sheetsDir, err := cfg.SheetsDir()
	if err != nil {
		logger.Warn("failed to resolve sheets directory", "error", err)
	}
	a.shared = style.LoadShared(cfg.Theme.Stylesheet, sheetsDir, logger)
	a.injector = component.NewStyleInjector(a.shared)

	if opts.follow {
		a.follow(ctx)
	}

	return a, nil
}

// follow starts the state file and stylesheet watchers. Failures degrade to a
// static value and are logged.
func (a *app) follow(ctx context.Context) {
	if err := os.MkdirAll(filepath.Dir(a.statePath), 0755); err != nil {
		a.logger.Warn("failed to create state directory", "error", err)
	}

	fw, err := root.NewFileWatcher(a.element, a.statePath, a.logger)
	if err != nil {
		a.logger.Warn("state file changes will not be followed", "error", err)
	} else if err := fw.Start(); err != nil {
		a.logger.Warn("state file changes will not be followed", "error", err)
	} else {
		a.stateWatcher = fw
	}

	if a.cfg.Theme.HotReload {
		w := style.NewWatcher(a.shared, a.logger)
		w.SetChangeCallback(func(sheet *style.Sheet) {
			a.logger.Info("stylesheet reloaded", "name", sheet.Name())
		})
		if err := w.Start(ctx); err != nil {
			a.logger.Warn("stylesheet hot reload disabled", "error", err)
		} else {
			a.sheetWatcher = w
		}
	}
}

// setTheme writes the attribute to the state file and applies it to the
// element right away; the file watcher's later sync is then a no-op.
func (a *app) setTheme(value string, present bool) error {
	attribute := a.source.Attribute()
	if _, err := root.SetTheme(a.statePath, attribute, value, present, changeSource); err != nil {
		return err
	}
	if present {
		a.element.SetAttribute(attribute, value)
	} else {
		a.element.RemoveAttribute(attribute)
	}
	return nil
}

// tuiOptions returns the options every TUI model, local or remote, shares.
func (a *app) tuiOptions() tui.Options {
	return tui.Options{
		Hub:      a.hub,
		Inputs:   a.source.Inputs,
		Injector: a.injector,
		SetTheme: a.setTheme,
		Logger:   a.logger,
	}
}

// Close tears everything down in reverse order.
func (a *app) Close() {
	if a.sheetWatcher != nil {
		a.sheetWatcher.Stop()
	}
	if a.stateWatcher != nil {
		if err := a.stateWatcher.Stop(); err != nil {
			a.logger.Debug("state watcher close", "error", err)
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if c, ok := a.media.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Debug("preference source close", "error", err)
		}
	}
}
