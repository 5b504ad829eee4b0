package garden

import (
	"net/url"
	"strings"

	"github.com/A1i98/obsidian-digital-garden/internal/markdown"
	"github.com/A1i98/obsidian-digital-garden/internal/util/sets"
	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

// UnresolvedLinks returns the local markdown and HTML destinations in a note
// body that resolve to nothing in the vault, in first-reference order.
// External URLs, mailto/data references, in-page anchors and site-absolute
// paths are not vault references and are never reported.
func UnresolvedLinks(index *vault.LinkIndex, note *vault.Note, body []byte) []string {
	unresolved := &sets.Ordered[string]{}

	for _, link := range markdown.ExtractLinks(body) {
		checkDestination(index, note, link.Destination, unresolved)
	}
	for _, src := range markdown.ExtractHTMLImages(body) {
		checkDestination(index, note, src, unresolved)
	}

	return unresolved.Values()
}

func checkDestination(index *vault.LinkIndex, note *vault.Note, dest string, unresolved *sets.Ordered[string]) {
	if dest == "" || isExternalDestination(dest) || strings.HasPrefix(dest, "/") {
		return
	}

	lookup := dest
	if decoded, err := url.PathUnescape(lookup); err == nil {
		lookup = decoded
	}
	if idx := strings.IndexByte(lookup, '#'); idx >= 0 {
		lookup = lookup[:idx]
	}
	if lookup == "" {
		return
	}

	if index.Resolve(lookup, note.RelativePath) == nil {
		unresolved.Add(dest)
	}
}
