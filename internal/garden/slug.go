package garden

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes to NFD, drops combining marks and recomposes,
// so "Café Récit" slugifies to "cafe-recit".
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SlugifySegment normalizes one path segment into a lowercase, dash
// separated, URL-safe token.
func SlugifySegment(s string) string {
	normalized, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		normalized = s
	}

	var b strings.Builder
	b.Grow(len(normalized))
	pendingDash := false
	for _, r := range strings.ToLower(normalized) {
		isSafe := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isSafe {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PermalinkForPath turns a garden path into a permalink: the markdown
// extension is stripped, each segment is slugified or percent-escaped, and a
// leading slash is ensured. No trailing slash is emitted.
func PermalinkForPath(gardenPath string, slugify bool) string {
	p := strings.TrimSuffix(gardenPath, ".md")
	p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return "/"
	}

	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if slugify {
			if slug := SlugifySegment(seg); slug != "" {
				segments[i] = slug
			}
			continue
		}
		segments[i] = url.PathEscape(seg)
	}

	return "/" + strings.Join(segments, "/")
}

// SanitizePermalink normalizes an explicit permalink override: backslashes
// become slashes, whitespace runs become single dashes, characters outside
// the safe set are dropped, duplicate slashes collapse and a leading slash
// is ensured.
func SanitizePermalink(raw string) string {
	s := strings.ReplaceAll(raw, "\\", "/")
	s = collapseWhitespace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/', r == '.', r == '_', r == '~', r == '-':
			b.WriteRune(r)
		}
	}

	out := b.String()
	for strings.Contains(out, "//") {
		out = strings.ReplaceAll(out, "//", "/")
	}
	if !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	return out
}

// NormalizeVaultPath normalizes a path-like frontmatter value: backslashes
// become forward slashes and whitespace runs collapse into single dashes.
func NormalizeVaultPath(s string) string {
	return collapseWhitespace(strings.ReplaceAll(s, "\\", "/"))
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inRun = true
			continue
		}
		if inRun {
			b.WriteByte('-')
			inRun = false
		}
		b.WriteRune(r)
	}
	if inRun {
		b.WriteByte('-')
	}
	return b.String()
}

// kebabize converts a camelCase setting name to its dash-cased frontmatter
// variant: dgShowBacklinks becomes dg-show-backlinks.
func kebabize(camel string) string {
	var b strings.Builder
	b.Grow(len(camel) + 4)
	for _, r := range camel {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// relativePath computes the slash-separated path of toPath relative to
// fromFolder ("" means the vault root).
func relativePath(fromFolder, toPath string) string {
	if fromFolder == "" {
		return toPath
	}

	fromParts := strings.Split(fromFolder, "/")
	toParts := strings.Split(toPath, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts)-1 && fromParts[common] == toParts[common] {
		common++
	}

	parts := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for i := common; i < len(fromParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	return strings.Join(parts, "/")
}
