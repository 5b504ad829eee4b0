package garden

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

func testLinkIndex() (*vault.LinkIndex, *vault.Note) {
	note := testNote("Blog/Post.md")
	other := testNote("Wiki/Other.md")
	img := testNote("attachments/pic.png")
	img.IsAttachment = true
	return vault.NewLinkIndex([]*vault.Note{note, other, img}), note
}

func TestUnresolvedLinks_ReportsMissingLocalTargets(t *testing.T) {
	index, note := testLinkIndex()

	body := []byte("[gone](missing/Note.md) and ![lost](attachments/nope.png)\n" +
		`<img src="attachments/also-gone.png">` + "\n")

	unresolved := UnresolvedLinks(index, note, body)

	require.Equal(t, []string{"missing/Note.md", "attachments/nope.png", "attachments/also-gone.png"}, unresolved)
}

func TestUnresolvedLinks_ResolvableAndExternalAreSilent(t *testing.T) {
	index, note := testLinkIndex()

	body := []byte("[ok](Wiki/Other.md) ![ok](attachments/pic.png)\n" +
		"[web](https://example.com/page) [mail](mailto:a@b.c) [top](#heading) [site](/wiki/other)\n" +
		`<img src="attachments/pic.png">` + "\n")

	require.Empty(t, UnresolvedLinks(index, note, body))
}

func TestUnresolvedLinks_DecodesEscapedDestinations(t *testing.T) {
	index, note := testLinkIndex()

	require.Empty(t, UnresolvedLinks(index, note, []byte("![pic](attachments/pic.png)")))
	require.Equal(t, []string{"Wiki/No%20Such.md"},
		UnresolvedLinks(index, note, []byte("[gone](Wiki/No%20Such.md)")))
}
