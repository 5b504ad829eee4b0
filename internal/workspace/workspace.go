// Package workspace manages scratch directories for garden repository
// checkouts. Each Create makes a fresh uniquely-named directory under the
// base dir; Cleanup removes it completely.
package workspace

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
)

// Manager owns one scratch directory at a time.
type Manager struct {
	baseDir string
	dir     string
}

// NewManager creates a workspace manager rooted at baseDir. An empty baseDir
// falls back to the system temp directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create makes a new scratch directory. Unique names keep concurrent
// checkouts from sharing a directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "gardenbuilder-")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("created workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the current scratch directory, empty before Create.
func (m *Manager) GetPath() string {
	return m.dir
}

// Cleanup removes the scratch directory. Safe to call before Create or twice.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to clean up workspace: %w", err)
	}
	slog.Debug("cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
