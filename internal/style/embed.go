// Package style compiles TOML stylesheets into lipgloss styles and applies
// them to per-component render roots.
package style

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

// EmbeddedSheets contains all bundled stylesheets.
//
//go:embed sheets/*.toml
var EmbeddedSheets embed.FS

// DefaultSheetName is the name of the built-in default sheet.
const DefaultSheetName = "default"

// BundledSheets lists all embedded sheet names.
var BundledSheets = []string{"catppuccin", "default", "minimal"}

// GetEmbeddedSheet retrieves a bundled sheet's TOML source by name.
func GetEmbeddedSheet(name string) ([]byte, bool) {
	data, err := EmbeddedSheets.ReadFile("sheets/" + name + ".toml")
	if err != nil {
		return nil, false
	}
	return data, true
}

// ListEmbeddedSheets returns names of all embedded sheets.
func ListEmbeddedSheets() []string {
	var sheets []string

	entries, err := fs.ReadDir(EmbeddedSheets, "sheets")
	if err != nil {
		return BundledSheets
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ext := filepath.Ext(name); ext == ".toml" {
			sheets = append(sheets, strings.TrimSuffix(name, ext))
		}
	}

	return sheets
}

// IsEmbeddedSheet checks if a sheet name is bundled.
func IsEmbeddedSheet(name string) bool {
	_, found := GetEmbeddedSheet(name)
	return found
}
