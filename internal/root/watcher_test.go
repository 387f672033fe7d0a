package root

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_AppliesInitialState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root.toml")
	_, err := SetTheme(path, DefaultThemeAttribute, ThemeLight, true, "test")
	require.NoError(t, err)

	e := NewElement()
	fw, err := NewFileWatcher(e, path, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	v, ok := e.Attribute(DefaultThemeAttribute)
	require.True(t, ok)
	assert.Equal(t, ThemeLight, v)
}

func TestFileWatcher_FollowsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root.toml")

	e := NewElement()
	fw, err := NewFileWatcher(e, path, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	_, ok := e.Attribute(DefaultThemeAttribute)
	assert.False(t, ok)

	_, err = SetTheme(path, DefaultThemeAttribute, ThemeDark, true, "test")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		v, ok := e.Attribute(DefaultThemeAttribute)
		return ok && v == ThemeDark
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool {
		_, ok := e.Attribute(DefaultThemeAttribute)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root.toml")

	fw, err := NewFileWatcher(NewElement(), path, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start())

	require.NoError(t, fw.Stop())
	assert.NoError(t, fw.Stop())
}
