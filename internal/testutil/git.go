// Package testutil provides shared helpers for tests that exercise the
// garden repository, using local bare repositories in place of a remote.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// SeedGardenRepo creates a bare repository whose master branch already
// contains the given files (repo-relative slash paths). The returned path
// works as a go-git clone URL, so tests publish against it like a real
// garden remote.
func SeedGardenRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	tmp := t.TempDir()
	bare := filepath.Join(tmp, "garden.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	seedDir := filepath.Join(tmp, "seed")
	repo, err := git.PlainInit(seedDir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		dest := filepath.Join(seedDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
		require.NoError(t, os.WriteFile(dest, []byte(content), 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("seed", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Push(&git.PushOptions{RemoteName: "origin"}))

	return bare
}

// CheckoutFiles clones the bare repository fresh and returns every tracked
// file keyed by repo-relative slash path.
func CheckoutFiles(t *testing.T, bare string) map[string]string {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainClone(dir, false, &git.CloneOptions{URL: bare})
	require.NoError(t, err)

	files := map[string]string{}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return files
}

// AdvanceGardenRepo adds or overwrites one file on the bare repository's
// master branch through a fresh clone, simulating an out-of-band edit to
// the garden between two publishes.
func AdvanceGardenRepo(t *testing.T, bare, name, content string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: bare})
	require.NoError(t, err)

	dest := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("out-of-band edit", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Push(&git.PushOptions{}))
}
