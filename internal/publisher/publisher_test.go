package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/garden"
	"github.com/A1i98/obsidian-digital-garden/internal/retry"
	"github.com/A1i98/obsidian-digital-garden/internal/testutil"
	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

const postOne = "---\ndraft: false\npermalink: /posts/one\ntitle: One\n---\n# One\n\nHello garden.\n"

func testGarden(url string) *config.GardenConfig {
	return &config.GardenConfig{
		URL:       url,
		Branch:    "master", // go-git PlainInit default
		NotesDir:  "src/site/notes",
		ImagesDir: "src/site/img/user",
	}
}

func testBuild(pages map[string]string, images ...string) *garden.Build {
	build := &garden.Build{Images: images}
	for rel, content := range pages {
		build.Pages = append(build.Pages, &garden.Page{
			Note:    &vault.Note{RelativePath: rel},
			Content: content,
		})
	}
	return build
}

func testVaultDir(t *testing.T, images map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range images {
		dest := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
		require.NoError(t, os.WriteFile(dest, content, 0o644))
	}
	return dir
}

func TestPublish_CreatesCommitsAndPushes(t *testing.T) {
	bare := testutil.SeedGardenRepo(t, map[string]string{"README.md": "# Site\n"})
	vaultDir := testVaultDir(t, map[string][]byte{
		"attachments/My Pic.png": {0x89, 'P', 'N', 'G'},
	})
	build := testBuild(map[string]string{"Blog/One.md": postOne}, "attachments/My Pic.png")

	p := NewPublisher(testGarden(bare), vaultDir, nil)
	result, err := p.Publish(context.Background(), build)
	require.NoError(t, err)

	require.True(t, result.Pushed)
	require.Len(t, result.CommitSHA, 40)
	require.NotEmpty(t, result.SessionID)
	require.Equal(t, []string{
		"src/site/img/user/attachments/My-Pic.png",
		"src/site/notes/Blog/One.md",
	}, result.Changes.Create)
	require.Empty(t, result.Changes.Update)
	require.Empty(t, result.Changes.Delete)

	files := testutil.CheckoutFiles(t, bare)
	require.Equal(t, postOne, files["src/site/notes/Blog/One.md"])
	require.Equal(t, string([]byte{0x89, 'P', 'N', 'G'}), files["src/site/img/user/attachments/My-Pic.png"])
	require.Equal(t, "# Site\n", files["README.md"], "files outside managed dirs stay untouched")
}

func TestPublish_SecondRunIsNoop(t *testing.T) {
	bare := testutil.SeedGardenRepo(t, map[string]string{"README.md": "# Site\n"})
	build := testBuild(map[string]string{"Blog/One.md": postOne})
	p := NewPublisher(testGarden(bare), t.TempDir(), nil)

	first, err := p.Publish(context.Background(), build)
	require.NoError(t, err)
	require.True(t, first.Pushed)

	second, err := p.Publish(context.Background(), build)
	require.NoError(t, err)
	require.False(t, second.Pushed)
	require.Empty(t, second.CommitSHA)
	require.True(t, second.Changes.Empty())
	require.Equal(t, 1, second.Changes.Unchanged)
}

func TestPublish_DeletesStaleNotes(t *testing.T) {
	bare := testutil.SeedGardenRepo(t, map[string]string{
		"README.md":             "# Site\n",
		"src/site/notes/Old.md": "---\ntitle: Old\n---\nretired\n",
	})
	build := testBuild(map[string]string{"Blog/One.md": postOne})

	p := NewPublisher(testGarden(bare), t.TempDir(), nil)
	result, err := p.Publish(context.Background(), build)
	require.NoError(t, err)
	require.Equal(t, []string{"src/site/notes/Old.md"}, result.Changes.Delete)

	files := testutil.CheckoutFiles(t, bare)
	require.NotContains(t, files, "src/site/notes/Old.md")
	require.Contains(t, files, "src/site/notes/Blog/One.md")
	require.Contains(t, files, "README.md")
}

func TestPublish_UpdatesChangedNote(t *testing.T) {
	bare := testutil.SeedGardenRepo(t, map[string]string{
		"src/site/notes/Blog/One.md": "---\ntitle: One\n---\nstale body\n",
	})
	build := testBuild(map[string]string{"Blog/One.md": postOne})

	p := NewPublisher(testGarden(bare), t.TempDir(), nil)
	result, err := p.Publish(context.Background(), build)
	require.NoError(t, err)
	require.Equal(t, []string{"src/site/notes/Blog/One.md"}, result.Changes.Update)
	require.Empty(t, result.Changes.Create)

	files := testutil.CheckoutFiles(t, bare)
	require.Equal(t, postOne, files["src/site/notes/Blog/One.md"])
}

func TestPublish_KeyOrderOnlyDifferenceIsNoop(t *testing.T) {
	// Same fields and body as postOne, different key order.
	reordered := "---\ntitle: One\npermalink: /posts/one\ndraft: false\n---\n# One\n\nHello garden.\n"
	bare := testutil.SeedGardenRepo(t, map[string]string{
		"src/site/notes/Blog/One.md": reordered,
	})
	build := testBuild(map[string]string{"Blog/One.md": postOne})

	p := NewPublisher(testGarden(bare), t.TempDir(), nil)
	result, err := p.Publish(context.Background(), build)
	require.NoError(t, err)
	require.False(t, result.Pushed)
	require.True(t, result.Changes.Empty())
}

func TestPublish_PreservesOutOfBandEdits(t *testing.T) {
	bare := testutil.SeedGardenRepo(t, map[string]string{"README.md": "# Site\n"})
	p := NewPublisher(testGarden(bare), t.TempDir(), nil).
		WithRetryPolicy(retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2))

	_, err := p.Publish(context.Background(), testBuild(map[string]string{"Blog/One.md": postOne}))
	require.NoError(t, err)

	testutil.AdvanceGardenRepo(t, bare, "README.md", "# Site v2\n")

	updated := "---\ndraft: false\npermalink: /posts/one\ntitle: One\n---\n# One\n\nRevised.\n"
	result, err := p.Publish(context.Background(), testBuild(map[string]string{"Blog/One.md": updated}))
	require.NoError(t, err)
	require.True(t, result.Pushed)

	files := testutil.CheckoutFiles(t, bare)
	require.Equal(t, "# Site v2\n", files["README.md"], "out-of-band edits survive a publish")
	require.Equal(t, updated, files["src/site/notes/Blog/One.md"])
}

func TestStatus_ReportsWithoutWriting(t *testing.T) {
	bare := testutil.SeedGardenRepo(t, map[string]string{
		"src/site/notes/Old.md": "---\ntitle: Old\n---\nretired\n",
	})
	build := testBuild(map[string]string{"Blog/One.md": postOne})

	p := NewPublisher(testGarden(bare), t.TempDir(), nil)
	changes, err := p.Status(context.Background(), build)
	require.NoError(t, err)
	require.Equal(t, []string{"src/site/notes/Blog/One.md"}, changes.Create)
	require.Equal(t, []string{"src/site/notes/Old.md"}, changes.Delete)

	files := testutil.CheckoutFiles(t, bare)
	require.Contains(t, files, "src/site/notes/Old.md")
	require.NotContains(t, files, "src/site/notes/Blog/One.md")
}

func TestPublish_CloneFailureWrapsSentinel(t *testing.T) {
	cfg := testGarden(filepath.Join(t.TempDir(), "no-such-repo"))
	p := NewPublisher(cfg, t.TempDir(), nil)

	_, err := p.Publish(context.Background(), testBuild(nil))
	require.ErrorIs(t, err, ErrCloneFailed)
}

func TestPublish_MissingAttachmentFails(t *testing.T) {
	bare := testutil.SeedGardenRepo(t, map[string]string{"README.md": "# Site\n"})
	build := testBuild(map[string]string{"Blog/One.md": postOne}, "attachments/gone.png")

	p := NewPublisher(testGarden(bare), t.TempDir(), nil)
	_, err := p.Publish(context.Background(), build)
	require.ErrorIs(t, err, ErrPublishFailed)
}

func TestRetryablePushError(t *testing.T) {
	require.True(t, retryablePushError(errors.New("non-fast-forward update: refs/heads/master")))
	require.True(t, retryablePushError(errors.New("read tcp 10.0.0.2:443: i/o timeout")))
	require.True(t, retryablePushError(fmt.Errorf("%w: push: %w", ErrPublishFailed, errors.New("remote hung up unexpectedly"))))
	require.False(t, retryablePushError(errors.New("repository not found")))
	require.False(t, retryablePushError(errors.New("authentication required")))
	require.False(t, retryablePushError(nil))
}
