package style

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a user stylesheet and swaps recompiled versions into a Shared
// handle. Bundled sheets have no file and are not watched.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	shared  *Shared
	modTime time.Time

	pollInterval time.Duration

	onChangeCallback func(*Sheet)

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a watcher for the sheet currently held by shared.
func NewWatcher(shared *Shared, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		shared:       shared,
		pollInterval: 1 * time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetChangeCallback sets the callback invoked after a new sheet is swapped in.
func (w *Watcher) SetChangeCallback(callback func(*Sheet)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// Start begins polling. It does nothing for bundled sheets.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	path := w.shared.Sheet().Path()
	if path == "" {
		w.mu.Unlock()
		w.logger.Debug("not watching bundled stylesheet")
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.modTime = info.ModTime()

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("stylesheet watcher started", "path", path, "interval", interval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("stylesheet watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges recompiles the sheet when its file's mtime advances.
// A sheet that fails to compile is reported and the previous one kept.
func (w *Watcher) checkForChanges() {
	current := w.shared.Sheet()
	path := current.Path()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.logger.Debug("stylesheet no longer exists", "path", path)
		}
		return
	}

	w.mu.RLock()
	last := w.modTime
	callback := w.onChangeCallback
	w.mu.RUnlock()

	if !info.ModTime().After(last) {
		return
	}

	w.mu.Lock()
	w.modTime = info.ModTime()
	w.mu.Unlock()

	sheet, err := LoadFile(path)
	if err != nil {
		w.logger.Warn("failed to reload stylesheet", "path", path, "error", err)
		return
	}

	w.shared.Replace(sheet)
	w.logger.Info("stylesheet changed, reloaded", "path", path)
	if callback != nil {
		callback(sheet)
	}
}
