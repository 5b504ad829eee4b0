package publisher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoteFingerprint_KeyOrderInvariant(t *testing.T) {
	a := []byte("---\ntitle: One\ndraft: false\n---\nbody\n")
	b := []byte("---\ndraft: false\ntitle: One\n---\nbody\n")

	require.Equal(t, NoteFingerprint(a), NoteFingerprint(b))
}

func TestNoteFingerprint_LineEndingInvariant(t *testing.T) {
	lf := []byte("---\ntitle: One\n---\nline one\nline two\n")
	crlf := []byte("---\r\ntitle: One\r\n---\r\nline one\r\nline two\r\n")

	require.Equal(t, NoteFingerprint(lf), NoteFingerprint(crlf))
}

func TestNoteFingerprint_BodyChangeDiffers(t *testing.T) {
	a := []byte("---\ntitle: One\n---\nbody\n")
	b := []byte("---\ntitle: One\n---\nbody edited\n")

	require.NotEqual(t, NoteFingerprint(a), NoteFingerprint(b))
}

func TestNoteFingerprint_FieldChangeDiffers(t *testing.T) {
	a := []byte("---\ntitle: One\ndraft: false\n---\nbody\n")
	b := []byte("---\ntitle: One\ndraft: true\n---\nbody\n")

	require.NotEqual(t, NoteFingerprint(a), NoteFingerprint(b))
}

func TestNoteFingerprint_NoFrontmatter(t *testing.T) {
	content := []byte("just a body\n")

	fp := NoteFingerprint(content)
	require.NotEmpty(t, fp)
	require.Equal(t, fp, NoteFingerprint(content))
}

func TestNoteFingerprint_MalformedFrontmatterIsStable(t *testing.T) {
	malformed := []byte("---\ntitle: One\nno closing delimiter")

	fp := NoteFingerprint(malformed)
	require.NotEmpty(t, fp)
	require.Equal(t, fp, NoteFingerprint(malformed))
	require.NotEqual(t, fp, NoteFingerprint([]byte("---\ntitle: One\n---\nbody\n")))
}
