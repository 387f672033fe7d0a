package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/umbra/internal/config"
	"github.com/jmylchreest/umbra/internal/root"
	"github.com/jmylchreest/umbra/internal/source"
	"github.com/jmylchreest/umbra/internal/style"
)

func testConfig(t *testing.T, pref string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := config.DefaultConfig()
	c.Theme.Preference = pref
	c.Theme.SheetsDir = filepath.Join(dir, "sheets")
	c.State.Path = filepath.Join(dir, "state", "root.toml")
	return c
}

func TestOpenApp_ReadsStateFile(t *testing.T) {
	c := testConfig(t, "light")
	_, err := root.SetTheme(c.State.Path, c.Theme.Attribute, root.ThemeDark, true, "test")
	require.NoError(t, err)

	a, err := openApp(context.Background(), c, nil, appOptions{})
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.hub.IsDark())
	in := a.source.Inputs()
	assert.Equal(t, root.ThemeDark, in.Value)
	assert.False(t, in.OSDark)
	assert.Equal(t, style.DefaultSheetName, a.shared.Sheet().Name())
}

func TestOpenApp_SetThemeUpdatesHubAndFile(t *testing.T) {
	c := testConfig(t, "dark")

	a, err := openApp(context.Background(), c, nil, appOptions{})
	require.NoError(t, err)
	defer a.Close()
	require.True(t, a.hub.IsDark())

	var seen []bool
	unsubscribe := a.hub.Subscribe(func(dark bool) { seen = append(seen, dark) })
	defer unsubscribe()

	require.NoError(t, a.setTheme(root.ThemeLight, true))
	assert.False(t, a.hub.IsDark())
	assert.Equal(t, []bool{true, false}, seen)

	state, err := root.LoadState(c.State.Path)
	require.NoError(t, err)
	assert.Equal(t, root.ThemeLight, state.Attributes[c.Theme.Attribute])
	require.NotNil(t, state.LastChange)
	assert.Equal(t, changeSource, state.LastChange.Source)

	require.NoError(t, a.setTheme("", false))
	assert.True(t, a.hub.IsDark(), "auto follows the dark OS preference")
}

func TestOpenApp_UnknownStylesheetFallsBack(t *testing.T) {
	c := testConfig(t, "light")
	c.Theme.Stylesheet = "does-not-exist"

	a, err := openApp(context.Background(), c, nil, appOptions{})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, style.DefaultSheetName, a.shared.Sheet().Name())
}

func TestOpenApp_CloseIsSafeTwice(t *testing.T) {
	c := testConfig(t, "light")
	a, err := openApp(context.Background(), c, nil, appOptions{follow: true})
	require.NoError(t, err)

	a.Close()
	assert.NotPanics(t, a.Close)
	assert.Equal(t, 0, a.element.ObserverCount())
}

func TestWriteInputs(t *testing.T) {
	in := source.Inputs{
		Attribute: "data-theme",
		Value:     "dark",
		Present:   true,
		OSDark:    false,
		Dark:      true,
	}

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeInputs(&buf, in, "plain"))
		assert.Equal(t, "dark\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeInputs(&buf, in, "JSON"))
		var got source.Inputs
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, in, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeInputs(&buf, in, "yaml"))
		var got source.Inputs
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, in, got)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeInputs(&bytes.Buffer{}, in, "xml"))
	})
}

func TestGenerateStatus(t *testing.T) {
	explicit := generateStatus(source.Inputs{
		Attribute: "data-theme", Value: "light", Present: true, OSDark: true, Dark: false,
	}, time.Time{})
	assert.Equal(t, "light", explicit.Text)
	assert.Equal(t, "light", explicit.Class)
	assert.Contains(t, explicit.Tooltip, "Set by data-theme=light")
	assert.NotContains(t, explicit.Tooltip, "Changed")

	auto := generateStatus(source.Inputs{
		Attribute: "data-theme", OSDark: true, Dark: true,
	}, time.Now().Add(-2*time.Hour))
	assert.Equal(t, "dark", auto.Alt)
	assert.Contains(t, auto.Tooltip, "Following OS preference (dark)")
	assert.Contains(t, auto.Tooltip, "Changed 2 hours ago")

	var buf bytes.Buffer
	require.NoError(t, outputStatus(&buf, auto))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
}

func TestChangePrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p, err := newChangePrinter(&buf, "", nil)
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return start }
	p.print(false)
	p.now = func() time.Time { return start.Add(5 * time.Minute) }
	p.print(true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "20:00:00  light", lines[0])
	assert.Equal(t, "20:05:00  dark  (light after 5 minutes)", lines[1])
}

func TestChangePrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	inputs := func() source.Inputs { return source.Inputs{Attribute: "data-theme", Dark: true} }
	p, err := newChangePrinter(&buf, "json", inputs)
	require.NoError(t, err)

	p.print(true)

	var ev watchEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "dark", ev.Theme)
	assert.True(t, ev.Inputs.Dark)

	_, err = newChangePrinter(&buf, "csv", nil)
	assert.Error(t, err)
}

func TestWriteSheets(t *testing.T) {
	sheets := []style.SheetInfo{
		{Name: "catppuccin", IsBundled: true},
		{Name: "default", IsBundled: true, IsDefault: true},
		{Name: "mine", Path: "/home/u/.config/umbra/sheets/mine.toml"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeSheets(&buf, sheets, "mine", "plain"))
	out := buf.String()
	assert.Contains(t, out, "* mine")
	assert.Contains(t, out, "  default")
	assert.Contains(t, out, "/home/u/.config/umbra/sheets/mine.toml")

	buf.Reset()
	require.NoError(t, writeSheets(&buf, sheets, "default", "json"))
	var got []style.SheetInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sheets, got)
}
