package root

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher mirrors a state file into an Element.
// Every write, create, rename or removal of the file re-applies its attributes,
// so element observers only fire for attributes that actually changed.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	element  *Element
	filePath string
	logger   *slog.Logger
	done     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewFileWatcher creates a watcher that keeps element in sync with filePath.
func NewFileWatcher(element *Element, filePath string, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		element:  element,
		filePath: filePath,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start applies the current file contents and begins watching for changes.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	// Apply the initial state before any event can arrive.
	fw.sync()

	// Watch the directory containing the file; atomic saves replace the inode.
	dir := filepath.Dir(fw.filePath)
	if err := fw.watcher.Add(dir); err != nil {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go fw.watch()
	fw.logger.Debug("state watcher started", "path", fw.filePath)
	return nil
}

// watch is the main watch loop.
func (fw *FileWatcher) watch() {
	defer close(fw.stopped)
	filename := filepath.Base(fw.filePath)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				fw.logger.Debug("state file changed", "file", fw.filePath, "op", event.Op.String())
				fw.sync()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("state watcher error", "error", err)

		case <-fw.done:
			return
		}
	}
}

// sync loads the file and applies it to the element.
// A file that fails to parse leaves the element untouched.
func (fw *FileWatcher) sync() {
	state, err := LoadState(fw.filePath)
	if err != nil {
		fw.logger.Warn("failed to load state file", "path", fw.filePath, "error", err)
		return
	}
	fw.element.ReplaceAttributes(state.Attributes)
}

// Stop stops the watcher and waits for the watch loop to exit.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	close(fw.done)
	fw.mu.Unlock()

	err := fw.watcher.Close()
	<-fw.stopped
	fw.logger.Debug("state watcher stopped", "path", fw.filePath)
	return err
}
