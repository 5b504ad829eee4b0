package vault

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testIndex() *LinkIndex {
	return NewLinkIndex([]*Note{
		{RelativePath: "Blog/My Post.md", Name: "My Post", Extension: ".md"},
		{RelativePath: "Blog/nested/My Post.md", Name: "My Post", Extension: ".md"},
		{RelativePath: "Reference.md", Name: "Reference", Extension: ".md"},
		{RelativePath: "attachments/diagram.png", Name: "diagram", Extension: ".png", IsAttachment: true},
	})
}

func TestResolve_BareName_PicksShortestPath(t *testing.T) {
	ix := testIndex()

	n := ix.Resolve("My Post", "somewhere/else.md")
	require.NotNil(t, n)
	require.Equal(t, "Blog/My Post.md", n.RelativePath)
}

func TestResolve_VaultAbsolutePath_WithAndWithoutExtension(t *testing.T) {
	ix := testIndex()

	require.Equal(t, "Blog/nested/My Post.md", ix.Resolve("Blog/nested/My Post", "").RelativePath)
	require.Equal(t, "Blog/nested/My Post.md", ix.Resolve("Blog/nested/My Post.md", "").RelativePath)
}

func TestResolve_SourceFolderRelative_WinsOverName(t *testing.T) {
	ix := testIndex()

	n := ix.Resolve("nested/My Post", "Blog/My Post.md")
	require.NotNil(t, n)
	require.Equal(t, "Blog/nested/My Post.md", n.RelativePath)
}

func TestResolve_StripsAliasHeadingAndBlockSuffixes(t *testing.T) {
	ix := testIndex()

	require.Equal(t, "Reference.md", ix.Resolve("Reference|the ref", "").RelativePath)
	require.Equal(t, "Reference.md", ix.Resolve("Reference#Heading", "").RelativePath)
	require.Equal(t, "Reference.md", ix.Resolve("Reference#^block1", "").RelativePath)
	require.Equal(t, "Reference.md", ix.Resolve("Reference#Heading|alias", "").RelativePath)
}

func TestResolve_CaseInsensitive(t *testing.T) {
	ix := testIndex()

	require.NotNil(t, ix.Resolve("reference", ""))
	require.NotNil(t, ix.Resolve("blog/my post", ""))
}

func TestResolve_Attachment_ByNameWithExtension(t *testing.T) {
	ix := testIndex()

	n := ix.Resolve("diagram.png", "Blog/My Post.md")
	require.NotNil(t, n)
	require.True(t, n.IsAttachment)
	require.Equal(t, "attachments/diagram.png", n.RelativePath)
}

func TestResolve_Unresolvable_ReturnsNil(t *testing.T) {
	ix := testIndex()

	require.Nil(t, ix.Resolve("No Such Note", ""))
	require.Nil(t, ix.Resolve("", "Blog/My Post.md"))
	require.Nil(t, ix.Resolve("#just-a-heading", ""))
}
