package style

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredClasses = []string{"title", "text", "muted", "card", "button", "status", "badge", "error"}

func TestBundledSheets_Compile(t *testing.T) {
	for _, name := range BundledSheets {
		t.Run(name, func(t *testing.T) {
			sheet, err := LoadSheet(name, "")
			require.NoError(t, err)
			assert.Equal(t, name, sheet.Name())
			assert.NotEmpty(t, sheet.Description())
			assert.Empty(t, sheet.Path())

			for _, dark := range []bool{false, true} {
				styles := sheet.Variant(dark)
				require.NotNil(t, styles)
				for _, class := range requiredClasses {
					assert.Contains(t, styles.Classes(), class, "sheet %s (dark=%v) should define %s", name, dark, class)
				}
			}
		})
	}
}

func TestListEmbeddedSheets(t *testing.T) {
	sheets := ListEmbeddedSheets()
	assert.ElementsMatch(t, BundledSheets, sheets)
	assert.True(t, IsEmbeddedSheet("default"))
	assert.False(t, IsEmbeddedSheet("nonexistent"))
}

func TestCompile_VariantsDiffer(t *testing.T) {
	sheet := MustDefault()

	light := sheet.Variant(false).Class("title")
	dark := sheet.Variant(true).Class("title")

	assert.Equal(t, lipgloss.Color("#2563eb"), light.GetForeground())
	assert.Equal(t, lipgloss.Color("#60a5fa"), dark.GetForeground())
	assert.True(t, dark.GetBold())
}

func TestCompile_RuleProperties(t *testing.T) {
	src := `
name = "test"
[light]
foreground = "#000000"
accent = "#0000ff"
border = "#cccccc"
[dark]
foreground = "#ffffff"
accent = "#8888ff"
border = "#333333"
[classes.box]
foreground = "accent"
background = "#123456"
border = "rounded"
border_foreground = "border"
padding = [1, 2]
width = 20
align = "center"
italic = true
[classes.ansi]
foreground = "12"
`
	sheet, err := Parse([]byte(src))
	require.NoError(t, err)

	box := sheet.Variant(true).Class("box")
	assert.Equal(t, lipgloss.Color("#8888ff"), box.GetForeground())
	assert.Equal(t, lipgloss.Color("#123456"), box.GetBackground())
	assert.Equal(t, lipgloss.RoundedBorder(), box.GetBorderStyle())
	assert.Equal(t, 1, box.GetPaddingTop())
	assert.Equal(t, 2, box.GetPaddingLeft())
	assert.Equal(t, 20, box.GetWidth())
	assert.True(t, box.GetItalic())

	ansi := sheet.Variant(false).Class("ansi")
	assert.Equal(t, lipgloss.Color("12"), ansi.GetForeground())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "unknown role",
			src:  "[classes.x]\nforeground = \"sparkle\"",
			want: ErrUnknownColor,
		},
		{
			name: "empty role",
			src:  "[classes.x]\nforeground = \"accent\"",
			want: ErrUnknownColor,
		},
		{
			name: "unknown border",
			src:  "[light]\naccent = \"#fff\"\n[dark]\naccent = \"#000\"\n[classes.x]\nborder = \"wavy\"",
			want: ErrUnknownBorder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParse_InvalidTOML(t *testing.T) {
	_, err := Parse([]byte("[classes"))
	assert.Error(t, err)
}

func TestStyles_MissingClassIsPlain(t *testing.T) {
	styles := MustDefault().Variant(false)
	assert.Equal(t, "x", styles.Class("nope").Render("x"))

	var nilStyles *Styles
	assert.Equal(t, "x", nilStyles.Class("title").Render("x"))
	assert.Nil(t, nilStyles.Classes())
}

func writeSheet(t *testing.T, dir, name, accent string) string {
	t.Helper()
	content := `name = "` + name + `"
[light]
accent = "` + accent + `"
[dark]
accent = "` + accent + `"
[classes.title]
foreground = "accent"
`
	path := filepath.Join(dir, name+".toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSheet_UserOverridesBundled(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir, "default", "#abcdef")

	sheet, err := LoadSheet("default", dir)
	require.NoError(t, err)
	assert.Equal(t, path, sheet.Path())
	assert.Equal(t, lipgloss.Color("#abcdef"), sheet.Variant(false).Class("title").GetForeground())
}

func TestLoadSheet_NotFound(t *testing.T) {
	_, err := LoadSheet("nonexistent", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

func TestLoadSheet_EmptyNameIsDefault(t *testing.T) {
	sheet, err := LoadSheet("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSheetName, sheet.Name())
}

func TestLoadFile_NameFromFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unnamed.toml")
	require.NoError(t, os.WriteFile(path, []byte("[classes.x]\nbold = true\n"), 0644))

	sheet, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "unnamed", sheet.Name())
}

func TestLoadShared_FallsBackToDefault(t *testing.T) {
	shared := LoadShared("nonexistent", t.TempDir(), nil)
	assert.Equal(t, DefaultSheetName, shared.Sheet().Name())
}

func TestListSheets(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "ocean", "#0077be")
	writeSheet(t, dir, "minimal", "#111111")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	sheets, err := ListSheets(dir)
	require.NoError(t, err)

	byName := make(map[string]SheetInfo)
	for _, s := range sheets {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "ocean")
	require.Contains(t, byName, "minimal")
	require.Contains(t, byName, "default")
	assert.False(t, byName["ocean"].IsBundled)
	assert.False(t, byName["minimal"].IsBundled, "user file shadows bundled sheet")
	assert.True(t, byName["default"].IsBundled)
	assert.True(t, byName["default"].IsDefault)
	assert.NotContains(t, byName, "notes")

	sheets, err = ListSheets(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Len(t, sheets, len(BundledSheets))
}

func TestRoot_AdoptAndDarkClass(t *testing.T) {
	r := NewRoot()
	assert.False(t, r.Adopted())
	assert.Nil(t, r.Styles())
	assert.Equal(t, "plain", r.Render("title", "plain"))

	shared := NewShared(MustDefault())
	r.Adopt(shared)
	r.Adopt(shared)
	assert.True(t, r.Adopted())
	assert.Same(t, shared.Sheet(), r.Sheet())

	assert.False(t, r.Dark())
	assert.Same(t, shared.Sheet().Variant(false), r.Styles())

	r.SetDark(true)
	assert.True(t, r.Dark())
	assert.Equal(t, []string{DarkClass}, r.Classes())
	assert.Same(t, shared.Sheet().Variant(true), r.Styles())

	r.AddClass("focused")
	assert.Equal(t, []string{DarkClass, "focused"}, r.Classes())

	r.SetDark(false)
	assert.Equal(t, []string{"focused"}, r.Classes())
	assert.True(t, strings.Contains(r.Render("title", "hi"), "hi"))
}

func TestRoot_ClassesAreIsolated(t *testing.T) {
	shared := NewShared(MustDefault())
	a, b := NewRoot(), NewRoot()
	a.Adopt(shared)
	b.Adopt(shared)

	a.SetDark(true)
	assert.True(t, a.Dark())
	assert.False(t, b.Dark())
	assert.Same(t, a.Sheet(), b.Sheet())
}

func TestShared_ReplaceReachesRoots(t *testing.T) {
	shared := NewShared(MustDefault())
	r := NewRoot()
	r.Adopt(shared)

	other, err := LoadSheet("minimal", "")
	require.NoError(t, err)
	shared.Replace(other)

	assert.Equal(t, "minimal", r.Sheet().Name())
}

func TestWatcher_BundledSheetNotWatched(t *testing.T) {
	w := NewWatcher(NewShared(MustDefault()), nil)
	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.IsRunning())
	w.Stop()
}

func TestWatcher_ReloadsUserSheet(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir, "live", "#111111")

	sheet, err := LoadFile(path)
	require.NoError(t, err)
	shared := NewShared(sheet)

	reloaded := make(chan *Sheet, 1)
	w := NewWatcher(shared, nil)
	w.SetPollInterval(10 * time.Millisecond)
	w.SetChangeCallback(func(s *Sheet) {
		select {
		case reloaded <- s:
		default:
		}
	})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, w.IsRunning())

	// Ensure a strictly later mtime on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	writeSheet(t, dir, "live", "#222222")
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case s := <-reloaded:
		assert.Equal(t, lipgloss.Color("#222222"), s.Variant(false).Class("title").GetForeground())
	case <-time.After(2 * time.Second):
		t.Fatal("stylesheet was not reloaded")
	}
	assert.Equal(t, lipgloss.Color("#222222"), shared.Sheet().Variant(true).Class("title").GetForeground())
}

func TestWatcher_BrokenSheetKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir, "live", "#111111")

	sheet, err := LoadFile(path)
	require.NoError(t, err)
	shared := NewShared(sheet)

	w := NewWatcher(shared, nil)
	require.NoError(t, os.WriteFile(path, []byte("[classes"), 0644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	w.checkForChanges()
	assert.Same(t, sheet, shared.Sheet())
}
