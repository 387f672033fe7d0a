package root

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// CurrentSchemaVersion is the version written to new state files.
const CurrentSchemaVersion = 1

// Change records who last wrote the state file.
type Change struct {
	Source    string `toml:"source"`    // e.g. "cli", "tui", "ssh"
	Timestamp int64  `toml:"timestamp"` // Unix seconds
}

// State is the persisted form of the root element.
// It lives at $XDG_STATE_HOME/umbra/root.toml.
type State struct {
	SchemaVersion int               `toml:"schema_version"`
	Attributes    map[string]string `toml:"attributes"`
	LastChange    *Change           `toml:"last_change,omitempty"`
}

// stateFileMutex serialises reads and writes of state files within the process.
var stateFileMutex sync.RWMutex

// DefaultState returns an empty state.
func DefaultState() *State {
	return &State{
		SchemaVersion: CurrentSchemaVersion,
		Attributes:    make(map[string]string),
	}
}

// StateDir returns the umbra state directory.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StateDir() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "umbra"), nil
}

// StatePath returns the default root state file path.
func StatePath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "root.toml"), nil
}

// LoadState reads the state file at path.
// A missing file yields DefaultState.
func LoadState(path string) (*State, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	state := DefaultState()
	if err := toml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if state.Attributes == nil {
		state.Attributes = make(map[string]string)
	}
	return state, nil
}

// Save writes the state atomically (temp file + rename) so watchers never
// observe a half-written file.
func (s *State) Save(path string) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// SetTheme updates a single theme attribute in the state file at path.
// An absent value (present == false) removes the attribute.
func SetTheme(path, attribute, value string, present bool, source string) (*State, error) {
	state, err := LoadState(path)
	if err != nil {
		return nil, err
	}

	if present {
		state.Attributes[attribute] = value
	} else {
		delete(state.Attributes, attribute)
	}
	state.SchemaVersion = CurrentSchemaVersion
	state.LastChange = &Change{
		Source:    source,
		Timestamp: time.Now().Unix(),
	}

	if err := state.Save(path); err != nil {
		return nil, err
	}
	return state, nil
}
