// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/umbra/internal/preference"
	"github.com/jmylchreest/umbra/internal/root"
	"github.com/jmylchreest/umbra/internal/style"
)

// Default configuration values.
const (
	DefaultPreference  = preference.KindAuto
	DefaultServeAddr   = "127.0.0.1:23234"
	DefaultIdleTimeout = 10 * time.Minute
	DefaultMaxSessions = 16
)

// Config represents the umbra configuration.
type Config struct {
	Theme ThemeConfig `toml:"theme"`
	State StateConfig `toml:"state"`
	Serve ServeConfig `toml:"serve"`
}

// ThemeConfig selects where the theme comes from and how it looks.
type ThemeConfig struct {
	Attribute  string `toml:"attribute"`  // Root attribute holding dark/light
	Preference string `toml:"preference"` // auto, portal, gsettings, terminal, dark, light
	Stylesheet string `toml:"stylesheet"` // Bundled or user sheet name
	SheetsDir  string `toml:"sheets_dir"` // Empty = ~/.config/umbra/sheets
	HotReload  bool   `toml:"hot_reload"` // Reload user sheets when they change
}

// StateConfig locates the root state file.
type StateConfig struct {
	Path string `toml:"path"` // Empty = $XDG_STATE_HOME/umbra/root.toml
}

// ServeConfig holds SSH server settings.
type ServeConfig struct {
	Address     string   `toml:"address"`
	HostKeyPath string   `toml:"host_key_path"` // Empty = <state dir>/ssh_host_ed25519
	IdleTimeout Duration `toml:"idle_timeout"`
	MaxSessions int      `toml:"max_sessions"` // 0 = unlimited
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Theme: ThemeConfig{
			Attribute:  root.DefaultThemeAttribute,
			Preference: DefaultPreference,
			Stylesheet: style.DefaultSheetName,
			HotReload:  true,
		},
		Serve: ServeConfig{
			Address:     DefaultServeAddr,
			IdleTimeout: Duration(DefaultIdleTimeout),
			MaxSessions: DefaultMaxSessions,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "umbra", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Theme.Attribute) == "" {
		return errors.New("theme.attribute must not be empty")
	}
	if !preference.IsKnownKind(c.Theme.Preference) {
		return fmt.Errorf("theme.preference %q: %w (must be one of: %v)",
			c.Theme.Preference, preference.ErrUnknownKind, preference.Kinds())
	}
	if c.Theme.Stylesheet == "" {
		return errors.New("theme.stylesheet must not be empty")
	}
	if c.Serve.MaxSessions < 0 {
		return fmt.Errorf("serve.max_sessions must not be negative, got %d", c.Serve.MaxSessions)
	}
	if c.Serve.IdleTimeout < 0 {
		return fmt.Errorf("serve.idle_timeout must not be negative, got %s", c.Serve.IdleTimeout.Duration())
	}
	return nil
}

// StatePath returns the configured root state file, or the default.
func (c *Config) StatePath() (string, error) {
	if c.State.Path != "" {
		return expandPath(c.State.Path), nil
	}
	return root.StatePath()
}

// SheetsDir returns the configured user stylesheet directory, or the default.
func (c *Config) SheetsDir() (string, error) {
	if c.Theme.SheetsDir != "" {
		return expandPath(c.Theme.SheetsDir), nil
	}
	return style.SheetsDir()
}

// HostKeyPath returns the configured SSH host key path, or one in the state
// directory.
func (c *Config) HostKeyPath() (string, error) {
	if c.Serve.HostKeyPath != "" {
		return expandPath(c.Serve.HostKeyPath), nil
	}
	dir, err := root.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ssh_host_ed25519"), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
