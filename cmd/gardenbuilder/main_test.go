package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, vaultDir string) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "gardenbuilder.yaml")
	raw := fmt.Sprintf(
		"vault:\n  path: %s\ngarden:\n  url: https://example.com/garden.git\noutput:\n  directory: %s\n",
		vaultDir, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(raw), 0o644))
	return cfgPath
}

func TestRunBuild_WritesCompiledNotes(t *testing.T) {
	vaultDir := t.TempDir()
	note := "---\ndg-publish: true\ntitle: Sprout\n---\n# Sprout\n\nGrowing.\n"
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Sprout.md"), []byte(note), 0o644))

	CLI.Config = writeTestConfig(t, vaultDir)
	outDir := filepath.Join(t.TempDir(), "site")

	require.NoError(t, runBuild(outDir))

	compiled, err := os.ReadFile(filepath.Join(outDir, "src", "site", "notes", "Sprout.md"))
	require.NoError(t, err)
	require.Contains(t, string(compiled), "Growing.")
}

func TestRunValidate_FailsOnMalformedFrontmatter(t *testing.T) {
	vaultDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Good.md"),
		[]byte("---\ndg-publish: true\n---\nbody\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Broken.md"),
		[]byte("---\ndg-publish: true\nno closing delimiter\n"), 0o644))

	CLI.Config = writeTestConfig(t, vaultDir)

	err := runValidate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed frontmatter")
}

func TestRunValidate_CleanVaultSucceeds(t *testing.T) {
	vaultDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Published.md"),
		[]byte("---\ndg-publish: true\n---\nbody\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Draft.md"),
		[]byte("---\ntitle: Draft\n---\nbody\n"), 0o644))

	CLI.Config = writeTestConfig(t, vaultDir)

	require.NoError(t, runValidate())
}

func TestShortSHA(t *testing.T) {
	require.Equal(t, "deadbeef", shortSHA("deadbeefcafe0123"))
	require.Equal(t, "abc", shortSHA("abc"))
	require.Equal(t, "", shortSHA(""))
}
