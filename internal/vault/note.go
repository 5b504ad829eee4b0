package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoteReadFailed indicates a note's content could not be loaded.
var ErrNoteReadFailed = errors.New("failed to read note content")

// Note represents a file discovered in the vault: a markdown note or an
// attachment (image or other embeddable asset).
type Note struct {
	Path         string // Absolute path to the file
	RelativePath string // Path relative to the vault root, slash-separated
	Name         string // File name without extension
	Extension    string // File extension including the dot
	Created      time.Time
	Modified     time.Time
	IsAttachment bool   // True for non-markdown files
	Content      []byte // File content (loaded on demand)
}

// LoadContent loads the note's content from disk. Loading is idempotent;
// content already in memory is kept.
func (n *Note) LoadContent() error {
	if n.Content != nil {
		return nil
	}

	content, err := os.ReadFile(n.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNoteReadFailed, n.Path, err)
	}

	n.Content = content
	return nil
}

// Folder returns the vault-relative folder holding the note, "" for
// vault-root notes.
func (n *Note) Folder() string {
	dir := filepath.ToSlash(filepath.Dir(n.RelativePath))
	if dir == "." {
		return ""
	}
	return dir
}

// PathWithoutExtension returns the vault-relative path with the markdown
// extension stripped.
func (n *Note) PathWithoutExtension() string {
	return strings.TrimSuffix(n.RelativePath, n.Extension)
}
