package garden

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugifySegment(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My First Post", "my-first-post"},
		{"Café Récit", "cafe-recit"},
		{"  padded  ", "padded"},
		{"Hello, World!", "hello-world"},
		{"2024 Goals", "2024-goals"},
		{"already-slugged", "already-slugged"},
		{"___", ""},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, SlugifySegment(tc.in), "input %q", tc.in)
	}
}

func TestPermalinkForPath(t *testing.T) {
	require.Equal(t, "/posts/my-note", PermalinkForPath("posts/My Note.md", true))
	require.Equal(t, "/posts/My%20Note", PermalinkForPath("posts/My Note.md", false))
	require.Equal(t, "/a/b/c", PermalinkForPath("a\\b\\c.md", true))
	require.Equal(t, "/", PermalinkForPath("", true))
}

func TestPermalinkForPath_NoTrailingSlash(t *testing.T) {
	require.Equal(t, "/notes/deep/nested", PermalinkForPath("notes/deep/nested.md", true))
}

func TestSanitizePermalink(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Path!", "/My-Path"},
		{"/already/safe", "/already/safe"},
		{"about", "/about"},
		{"a\\b", "/a/b"},
		{"a//b///c", "/a/b/c"},
		{"spaces   and\ttabs", "/spaces-and-tabs"},
		{"quoted\"chars'&stuff", "/quotedcharsstuff"},
		{"dots.and_underscores~ok", "/dots.and_underscores~ok"},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, SanitizePermalink(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeVaultPath(t *testing.T) {
	require.Equal(t, "img/user/Pasted-Image.png", NormalizeVaultPath("img\\user\\Pasted Image.png"))
	require.Equal(t, "plain.png", NormalizeVaultPath("plain.png"))
}

func TestKebabize(t *testing.T) {
	require.Equal(t, "dg-show-backlinks", kebabize("dgShowBacklinks"))
	require.Equal(t, "dg-pass-frontmatter", kebabize("dgPassFrontmatter"))
	require.Equal(t, "dg-home-link", kebabize("dgHomeLink"))
	require.Equal(t, "plain", kebabize("plain"))
}

func TestRelativePath(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want string
	}{
		{"", "img/pic.png", "img/pic.png"},
		{"Blog", "Blog/pic.png", "pic.png"},
		{"Blog", "attachments/pic.png", "../attachments/pic.png"},
		{"A/B", "A/C/pic.png", "../C/pic.png"},
		{"A/B/C", "pic.png", "../../../pic.png"},
		{"A", "A/B/pic.png", "B/pic.png"},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, relativePath(tc.from, tc.to), "from %q to %q", tc.from, tc.to)
	}
}
