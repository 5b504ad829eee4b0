package publisher

import (
	"strings"

	"github.com/inful/mdfp"

	"github.com/A1i98/obsidian-digital-garden/internal/frontmatter"
)

// NoteFingerprint computes a stable content fingerprint for a published note.
//
// Canonicalization rules:
//   - frontmatter is parsed and re-serialized with sorted keys and LF
//     newlines, then a single trailing newline is trimmed before hashing
//   - body line endings are normalized to LF
//
// Equivalent notes therefore fingerprint equal regardless of key order or
// line endings. Content that fails to parse is hashed as an opaque body so a
// malformed checkout file still compares (and replaces) cleanly.
func NoteFingerprint(content []byte) string {
	fm, body, _, _, err := frontmatter.Split(content)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", canonicalBody(content))
	}

	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", canonicalBody(content))
	}

	frontmatterForHash := ""
	if len(fields) > 0 {
		serialized, err := frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return mdfp.CalculateFingerprintFromParts("", canonicalBody(content))
		}
		frontmatterForHash = strings.TrimSuffix(string(serialized), "\n")
	}

	return mdfp.CalculateFingerprintFromParts(frontmatterForHash, canonicalBody(body))
}

func canonicalBody(body []byte) string {
	return strings.ReplaceAll(string(body), "\r\n", "\n")
}
