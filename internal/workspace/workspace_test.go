package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_CreateMakesUniqueDirectory(t *testing.T) {
	base := t.TempDir()

	first := NewManager(base)
	require.NoError(t, first.Create())
	second := NewManager(base)
	require.NoError(t, second.Create())

	require.NotEmpty(t, first.GetPath())
	require.NotEqual(t, first.GetPath(), second.GetPath())
	require.True(t, strings.HasPrefix(filepath.Base(first.GetPath()), "gardenbuilder-"))

	info, err := os.Stat(first.GetPath())
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestManager_CleanupRemovesDirectory(t *testing.T) {
	mgr := NewManager(t.TempDir())
	require.NoError(t, mgr.Create())
	dir := mgr.GetPath()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.md"), []byte("x"), 0o644))
	require.NoError(t, mgr.Cleanup())

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
	require.Empty(t, mgr.GetPath())
}

func TestManager_CleanupBeforeCreateIsNoop(t *testing.T) {
	mgr := NewManager("")
	require.NoError(t, mgr.Cleanup())
	require.NoError(t, mgr.Cleanup())
}

func TestManager_EmptyBaseUsesTempDir(t *testing.T) {
	mgr := NewManager("")
	require.NoError(t, mgr.Create())
	defer func() { require.NoError(t, mgr.Cleanup()) }()

	require.True(t, strings.HasPrefix(mgr.GetPath(), os.TempDir()))
}
