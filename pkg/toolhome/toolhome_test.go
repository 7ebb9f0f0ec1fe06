package toolhome

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ResolvesAbsolute(t *testing.T) {
	d := New("some/relative/root")

	assert.True(t, filepath.IsAbs(d.Root()))
}

func TestPaths(t *testing.T) {
	root := t.TempDir()
	d := New(root)

	assert.Equal(t, filepath.Join(root, "config.yaml"), d.ConfigPath())
	assert.Equal(t, filepath.Join(root, "state.json"), d.StatePath())
	assert.Equal(t, filepath.Join(root, "src"), d.SourceDir())
	assert.Equal(t, filepath.Join(root, "venv", "bin", "python"), d.VenvPython())
	assert.Equal(t, filepath.Join(root, "venv", "bin", "pip"), d.VenvPip())
	assert.Equal(t, filepath.Join(root, "src", "mtk"), d.ToolEntrypoint())
	assert.Equal(t, filepath.Join(root, "src", "requirements.txt"), d.RequirementsPath())
	assert.Equal(t, filepath.Join(root, "logs", "wipe.log"), d.LogPath("wipe"))
}

func TestExists(t *testing.T) {
	tmp := t.TempDir()

	d := New(filepath.Join(tmp, "missing"))
	assert.False(t, d.Exists())

	require.NoError(t, os.MkdirAll(d.Root(), 0o750))
	assert.True(t, d.Exists())
}

func TestEnsureStructure_Idempotent(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), DefaultDirName))

	require.NoError(t, EnsureStructure(d))
	require.NoError(t, EnsureStructure(d))

	info, err := os.Stat(d.LogsDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
