package garden

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

func testPageCompiler(t *testing.T) (*PageCompiler, *vault.Note) {
	t.Helper()

	note := testNote("Blog/Post.md")
	target := testNote("Wiki/Target Note.md")
	private := testNote("Private.md")
	img := testNote("attachments/Pasted Image.png")
	img.IsAttachment = true
	img2 := testNote("attachments/two.png")
	img2.IsAttachment = true
	doc := testNote("files/Spec.pdf")
	doc.IsAttachment = true

	index := vault.NewLinkIndex([]*vault.Note{note, target, private, img, img2, doc})
	permalinks := map[string]string{
		"Blog/Post.md":        "/posts/post",
		"Wiki/Target Note.md": "/wiki/target-note",
	}

	compiler := NewCompiler(testSettings(), index)
	return NewPageCompiler(compiler, index, permalinks, "src/site/img/user"), note
}

func TestRewriteBody_WikiLinkBecomesPermalink(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, _ := pc.RewriteBody(note, []byte("See [[Target Note]] now."))

	require.Equal(t, "See [Target Note](/wiki/target-note) now.", out)
}

func TestRewriteBody_AliasBecomesDisplayText(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, _ := pc.RewriteBody(note, []byte("Read [[Target Note|the target]]."))

	require.Equal(t, "Read [the target](/wiki/target-note).", out)
}

func TestRewriteBody_AnchorIsSlugified(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, _ := pc.RewriteBody(note, []byte("Jump to [[Target Note#My Heading]]."))

	require.Equal(t, "Jump to [Target Note#My Heading](/wiki/target-note#my-heading).", out)
}

func TestRewriteBody_SelfAnchorUsesOwnPermalink(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, _ := pc.RewriteBody(note, []byte("Back to [[#Top]]."))

	require.Equal(t, "Back to [#Top](/posts/post#top).", out)
}

func TestRewriteBody_UnpublishedTargetDegradesToText(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, _ := pc.RewriteBody(note, []byte("About [[Private|my secret]]."))

	require.Equal(t, "About my secret.", out)
}

func TestRewriteBody_UnresolvableLinkDegradesToText(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, _ := pc.RewriteBody(note, []byte("Lost [[Nowhere]] link."))

	require.Equal(t, "Lost Nowhere link.", out)
}

func TestRewriteBody_ImageEmbedRepointedAndCollected(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, images := pc.RewriteBody(note, []byte("Look:\n![[Pasted Image.png]]\n"))

	require.Equal(t, "Look:\n![](/img/user/attachments/Pasted-Image.png)\n", out)
	require.Equal(t, []string{"attachments/Pasted Image.png"}, images)
}

func TestRewriteBody_NonImageEmbedBecomesLink(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, images := pc.RewriteBody(note, []byte("Spec: ![[Spec.pdf]]"))

	require.Equal(t, "Spec: [Spec.pdf](/img/user/files/Spec.pdf)", out)
	require.Equal(t, []string{"files/Spec.pdf"}, images)
}

func TestRewriteBody_MarkdownImageDestinationRewritten(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, images := pc.RewriteBody(note, []byte("![alt](attachments/Pasted%20Image.png)"))

	require.Equal(t, "![alt](/img/user/attachments/Pasted-Image.png)", out)
	require.Equal(t, []string{"attachments/Pasted Image.png"}, images)
}

func TestRewriteBody_ExternalDestinationsUntouched(t *testing.T) {
	pc, note := testPageCompiler(t)
	body := "![x](https://example.com/a.png) and <img src=\"data:image/png;base64,xyz\">"

	out, images := pc.RewriteBody(note, []byte(body))

	require.Equal(t, body, out)
	require.Empty(t, images)
}

func TestRewriteBody_HTMLImageSrcRewritten(t *testing.T) {
	pc, note := testPageCompiler(t)

	out, images := pc.RewriteBody(note, []byte(`<img src="attachments/two.png" width="100">`))

	require.Equal(t, `<img src="/img/user/attachments/two.png" width="100">`, out)
	require.Equal(t, []string{"attachments/two.png"}, images)
}

func TestRewriteBody_ImagesDedupedInFirstReferenceOrder(t *testing.T) {
	pc, note := testPageCompiler(t)
	body := "![[Pasted Image.png]]\n![[two.png]]\n![[Pasted Image.png]]\n"

	_, images := pc.RewriteBody(note, []byte(body))

	require.Equal(t, []string{"attachments/Pasted Image.png", "attachments/two.png"}, images)
}

func TestRewriteBody_CodeBlocksAreLeftAlone(t *testing.T) {
	pc, note := testPageCompiler(t)
	body := "```\n[[Target Note]]\n```\nAnd `[[Target Note]]` inline."

	out, _ := pc.RewriteBody(note, []byte(body))

	require.Equal(t, body, out)
}

func TestCompilePage_AssemblesFrontmatterAndBody(t *testing.T) {
	pc, note := testPageCompiler(t)

	page, err := pc.CompilePage(note, map[string]any{"dg-publish": true}, []byte("Hello [[Target Note]].\n"))

	require.NoError(t, err)
	require.Equal(t, "/posts/post", page.Permalink)
	require.True(t, strings.HasPrefix(page.Content, "---\n"))
	require.Contains(t, page.Content, "permalink: /posts/post")
	require.True(t, strings.HasSuffix(page.Content, "Hello [Target Note](/wiki/target-note).\n"))
	require.Empty(t, page.Images)
}
