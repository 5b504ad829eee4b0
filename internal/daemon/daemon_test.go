package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/eventstore"
	"github.com/A1i98/obsidian-digital-garden/internal/testutil"
)

const helloNote = "---\ndg-publish: true\ntitle: Hello\n---\n# Hello\n\nFirst sprout.\n"

func seedGarden(t *testing.T) string {
	t.Helper()
	return testutil.SeedGardenRepo(t, map[string]string{"README.md": "# Garden\n"})
}

func testDaemonConfig(t *testing.T, vaultDir, gardenURL string) *config.Config {
	t.Helper()

	raw := fmt.Sprintf(`
vault:
  path: %s
garden:
  url: %s
  branch: master
daemon:
  sync_schedule: "0 * * * *"
  watch_debounce:
    quiet_window: 50ms
    max_delay: 500ms
  event_store:
    path: %s
`, vaultDir, gardenURL, filepath.Join(t.TempDir(), "journal.db"))

	cfg, err := config.Parse([]byte(raw))
	require.NoError(t, err)
	return cfg
}

func gardenContents(t *testing.T, bare string) map[string]string {
	t.Helper()
	return testutil.CheckoutFiles(t, bare)
}

func TestDaemon_PublishesOnVaultChange(t *testing.T) {
	vaultDir := t.TempDir()
	gardenURL := seedGarden(t)
	cfg := testDaemonConfig(t, vaultDir, gardenURL)

	d, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Hello.md"), []byte(helloNote), 0o644))

	require.Eventually(t, func() bool {
		runs, err := d.Journal().Recent(context.Background(), 5)
		if err != nil {
			return false
		}
		for _, run := range runs {
			if run.Pushed && run.Trigger == eventstore.TriggerWatch {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond, "no pushed watch-triggered run was journaled")

	stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, d.Stop(stopCtx))

	files := gardenContents(t, gardenURL)
	require.Contains(t, files, "src/site/notes/Hello.md")
	require.Contains(t, files["src/site/notes/Hello.md"], "First sprout.")
	require.Contains(t, files, "README.md")
}

func TestDaemon_ManualTriggerRunsImmediately(t *testing.T) {
	vaultDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Hello.md"), []byte(helloNote), 0o644))

	gardenURL := seedGarden(t)
	cfg := testDaemonConfig(t, vaultDir, gardenURL)

	d, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))

	d.Trigger()

	require.Eventually(t, func() bool {
		runs, err := d.Journal().Recent(context.Background(), 5)
		if err != nil {
			return false
		}
		for _, run := range runs {
			if run.Pushed && run.Trigger == eventstore.TriggerManual {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond, "manual trigger did not produce a pushed run")

	stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, d.Stop(stopCtx))
}

func TestDaemon_JournalsFailedRuns(t *testing.T) {
	vaultDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, "Hello.md"), []byte(helloNote), 0o644))

	missingRemote := filepath.Join(t.TempDir(), "missing.git")
	cfg := testDaemonConfig(t, vaultDir, missingRemote)

	d, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))

	d.Trigger()

	require.Eventually(t, func() bool {
		runs, err := d.Journal().Recent(context.Background(), 5)
		if err != nil {
			return false
		}
		for _, run := range runs {
			if !run.Success && run.Error != "" && run.SessionID != "" {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond, "failed run was not journaled")

	stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, d.Stop(stopCtx))
}

func TestDaemon_StopWithoutStartReleasesResources(t *testing.T) {
	vaultDir := t.TempDir()
	cfg := testDaemonConfig(t, vaultDir, filepath.Join(t.TempDir(), "unused.git"))

	d, err := New(cfg)
	require.NoError(t, err)

	stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, d.Stop(stopCtx))
}
