package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeVaultFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestScan_FindsNotesAndAttachmentsSorted(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, "zettel/note.md", "# Note")
	writeVaultFile(t, root, "attachments/img.png", "png")
	writeVaultFile(t, root, "Blog/post.md", "# Post")

	notes, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)
	require.Len(t, notes, 3)

	require.Equal(t, "Blog/post.md", notes[0].RelativePath)
	require.Equal(t, "attachments/img.png", notes[1].RelativePath)
	require.Equal(t, "zettel/note.md", notes[2].RelativePath)

	require.False(t, notes[0].IsAttachment)
	require.True(t, notes[1].IsAttachment)
	require.Equal(t, "img", notes[1].Name)
	require.Equal(t, ".png", notes[1].Extension)
}

func TestScan_SkipsHiddenFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, ".obsidian/workspace.json", "{}")
	writeVaultFile(t, root, ".trash/old.md", "gone")
	writeVaultFile(t, root, "notes/.hidden.md", "hidden")
	writeVaultFile(t, root, "notes/visible.md", "# Visible")

	notes, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "notes/visible.md", notes[0].RelativePath)
}

func TestScan_SkipsConfiguredIgnorePrefixes(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, "templates/daily.md", "template")
	writeVaultFile(t, root, "notes/real.md", "# Real")

	notes, err := NewScanner(root, []string{"templates/"}).Scan()
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "notes/real.md", notes[0].RelativePath)
}

func TestScan_SkipsNonNoteNonAttachmentFiles(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, "notes/script.canvas", "{}")
	writeVaultFile(t, root, "notes/note.md", "# Note")

	notes, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "notes/note.md", notes[0].RelativePath)
}

func TestScan_MissingRoot_ReturnsError(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "nope"), nil).Scan()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrVaultWalkFailed)
}

func TestLoadContent_ReadsOnceAndCaches(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, "note.md", "# Hello")

	notes, err := NewScanner(root, nil).Scan()
	require.NoError(t, err)
	require.Len(t, notes, 1)

	n := notes[0]
	require.NoError(t, n.LoadContent())
	require.Equal(t, "# Hello", string(n.Content))

	// Deleting the file must not disturb already-loaded content.
	require.NoError(t, os.Remove(n.Path))
	require.NoError(t, n.LoadContent())
	require.Equal(t, "# Hello", string(n.Content))
}

func TestNote_FolderAndPathWithoutExtension(t *testing.T) {
	n := &Note{RelativePath: "Blog/ideas/post.md", Name: "post", Extension: ".md"}
	require.Equal(t, "Blog/ideas", n.Folder())
	require.Equal(t, "Blog/ideas/post", n.PathWithoutExtension())

	rootNote := &Note{RelativePath: "index.md", Name: "index", Extension: ".md"}
	require.Equal(t, "", rootNote.Folder())
}
