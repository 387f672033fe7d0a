package style

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

// SheetsDir returns the user stylesheet directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func SheetsDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "umbra", "sheets"), nil
}

// LoadFile compiles the stylesheet at path.
func LoadFile(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sheet, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sheet.name == "" {
		sheet.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	sheet.path = path
	return sheet, nil
}

// LoadSheet resolves a sheet by name.
// Resolution order:
//  1. dir/<name>.toml (the user sheets directory; skipped if dir is empty)
//  2. bundled sheets
//
// so a user file overrides a bundled sheet of the same name.
func LoadSheet(name, dir string) (*Sheet, error) {
	if name == "" {
		name = DefaultSheetName
	}

	if dir != "" {
		path := filepath.Join(dir, name+".toml")
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	data, found := GetEmbeddedSheet(name)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	sheet, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("bundled sheet %q: %w", name, err)
	}
	return sheet, nil
}

// MustDefault compiles the bundled default sheet. It panics if the bundled
// file is broken, which the package tests rule out.
func MustDefault() *Sheet {
	sheet, err := LoadSheet(DefaultSheetName, "")
	if err != nil {
		panic(err)
	}
	return sheet
}

// LoadShared loads name and wraps it for sharing, falling back to the
// default sheet with a warning when name cannot be loaded.
func LoadShared(name, dir string, logger *slog.Logger) *Shared {
	if logger == nil {
		logger = slog.Default()
	}

	sheet, err := LoadSheet(name, dir)
	if err != nil {
		logger.Warn("stylesheet unavailable, using default", "sheet", name, "error", err)
		sheet = MustDefault()
	} else {
		logger.Info("loaded stylesheet", "name", sheet.Name(), "path", sheet.Path())
	}
	return NewShared(sheet)
}

// SheetInfo describes an available sheet.
type SheetInfo struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	IsDefault bool   `json:"is_default" yaml:"is_default"`
	IsBundled bool   `json:"is_bundled" yaml:"is_bundled"`
}

// ListSheets lists bundled sheets and the .toml files in dir, user files
// shadowing bundled ones.
func ListSheets(dir string) ([]SheetInfo, error) {
	byName := make(map[string]SheetInfo)

	for _, name := range ListEmbeddedSheets() {
		byName[name] = SheetInfo{
			Name:      name,
			IsDefault: name == DefaultSheetName,
			IsBundled: true,
		}
	}

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".toml")
			byName[name] = SheetInfo{
				Name:      name,
				Path:      filepath.Join(dir, entry.Name()),
				IsDefault: name == DefaultSheetName,
			}
		}
	}

	out := make([]SheetInfo, 0, len(byName))
	for _, info := range byName {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Shared is the process-wide handle to the current sheet. Render roots adopt
// the handle, so a hot-reloaded sheet reaches every root on its next render.
type Shared struct {
	sheet atomic.Pointer[Sheet]
}

// NewShared wraps sheet.
func NewShared(sheet *Sheet) *Shared {
	s := &Shared{}
	s.sheet.Store(sheet)
	return s
}

// Sheet returns the current sheet.
func (s *Shared) Sheet() *Sheet {
	return s.sheet.Load()
}

// Replace swaps in a new sheet.
func (s *Shared) Replace(sheet *Sheet) {
	s.sheet.Store(sheet)
}
