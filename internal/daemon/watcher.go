package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
)

// VaultWatcher emits vault-relative paths for filesystem changes inside the
// vault. It applies the same skip rules as the vault scanner: hidden files
// and directories never produce events, and configured ignore prefixes are
// excluded, so the daemon does not rebuild for files a build would not read.
type VaultWatcher struct {
	root           string
	ignorePrefixes []string
	watcher        *fsnotify.Watcher
	events         chan string
}

// NewVaultWatcher creates a watcher rooted at the vault directory. Call
// Start to register the directory tree and begin receiving events.
func NewVaultWatcher(root string, ignorePrefixes []string) (*VaultWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create vault watcher: %w", err)
	}

	return &VaultWatcher{
		root:           abs,
		ignorePrefixes: ignorePrefixes,
		watcher:        fsw,
		events:         make(chan string, 64),
	}, nil
}

// Start registers the vault directory tree with the filesystem watcher and
// begins forwarding change events. The event channel closes when ctx is
// canceled or the watcher is closed.
func (w *VaultWatcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return fmt.Errorf("failed to watch vault: %w", err)
	}

	go w.loop(ctx)

	slog.Info("Watching vault for changes", logfields.Vault(w.root))
	return nil
}

// Events returns the channel of vault-relative paths that changed. Events
// are dropped rather than blocking when the consumer falls behind; the
// debouncer only needs to know that something changed.
func (w *VaultWatcher) Events() <-chan string {
	return w.events
}

// Close stops the underlying filesystem watcher.
func (w *VaultWatcher) Close() error {
	return w.watcher.Close()
}

// addTree registers dir and every non-hidden, non-ignored directory below it.
func (w *VaultWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if path != w.root && w.ignored(w.relative(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *VaultWatcher) loop(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Vault watcher error", logfields.Error(err))
		}
	}
}

func (w *VaultWatcher) handle(event fsnotify.Event) {
	rel := w.relative(event.Name)
	if rel == "" || hiddenPath(rel) || w.ignored(rel) {
		return
	}

	// New directories must be registered before the event is forwarded so
	// that files written immediately afterwards are not missed.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Error("Failed to watch new directory", logfields.Path(rel), logfields.Error(err))
			}
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	select {
	case w.events <- rel:
	default:
	}
}

// relative converts an absolute event path to a slash-separated vault-relative
// path, or "" when the path lies outside the vault.
func (w *VaultWatcher) relative(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (w *VaultWatcher) ignored(rel string) bool {
	for _, prefix := range w.ignorePrefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

// hiddenPath reports whether any segment of the slash-separated relative
// path starts with a dot.
func hiddenPath(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
