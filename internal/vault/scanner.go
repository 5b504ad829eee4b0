package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
)

// ErrVaultWalkFailed indicates the vault directory could not be traversed.
var ErrVaultWalkFailed = errors.New("failed to walk vault directory")

// Scanner discovers notes and attachments inside an Obsidian vault.
type Scanner struct {
	root           string
	ignorePrefixes []string
}

// NewScanner creates a scanner rooted at the vault directory. ignorePrefixes
// are vault-relative path prefixes to skip; hidden files and directories
// (.obsidian, .trash) are always skipped.
func NewScanner(root string, ignorePrefixes []string) *Scanner {
	return &Scanner{root: root, ignorePrefixes: ignorePrefixes}
}

// Scan walks the vault and returns every markdown note and attachment,
// sorted by vault-relative path. Content is not loaded.
func (s *Scanner) Scan() ([]*Note, error) {
	var notes []*Note

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != s.root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if s.ignored(relPath) {
			return nil
		}

		isNote := isMarkdownFile(path)
		isAttach := isAttachment(path)
		if !isNote && !isAttach {
			return nil
		}

		ext := filepath.Ext(info.Name())
		notes = append(notes, &Note{
			Path:         path,
			RelativePath: relPath,
			Name:         strings.TrimSuffix(info.Name(), ext),
			Extension:    ext,
			Created:      createdTime(info),
			Modified:     info.ModTime(),
			IsAttachment: isAttach,
		})

		slog.Debug("Discovered vault file", logfields.File(relPath), slog.Bool("attachment", isAttach))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrVaultWalkFailed, s.root, err)
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].RelativePath < notes[j].RelativePath
	})

	slog.Info("Vault scan complete", logfields.Vault(s.root), logfields.Count(len(notes)))
	return notes, nil
}

func (s *Scanner) ignored(relPath string) bool {
	for _, prefix := range s.ignorePrefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(relPath, prefix) {
			return true
		}
	}
	return false
}

// createdTime extracts the file creation time. Platforms without birth-time
// metadata fall back to the modification time.
func createdTime(info os.FileInfo) time.Time {
	return info.ModTime()
}

// isMarkdownFile checks if a file is a markdown note.
func isMarkdownFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".md")
}

// isAttachment checks if a file is an embeddable vault attachment.
func isAttachment(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	attachmentExtensions := []string{
		// Images
		".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico",
		// Documents
		".pdf",
		// Audio
		".mp3", ".wav", ".m4a", ".ogg", ".flac",
		// Video
		".mp4", ".webm", ".ogv", ".mov",
	}
	for _, attachExt := range attachmentExtensions {
		if ext == attachExt {
			return true
		}
	}
	return false
}
