package vault

import (
	"path"
	"strings"
)

// LinkIndex resolves Obsidian-style link references to vault files.
//
// Lookups are case-insensitive. Base-name references resolve to the note
// with the shortest vault-relative path when several share a name.
type LinkIndex struct {
	byPath      map[string]*Note // full vault-relative path, with extension
	byPathNoExt map[string]*Note // markdown notes without the .md extension
	byName      map[string]*Note // file name with extension
	byNameNoExt map[string]*Note // markdown note name without extension
}

// NewLinkIndex builds an index over the scanned vault files (notes and
// attachments alike).
func NewLinkIndex(notes []*Note) *LinkIndex {
	ix := &LinkIndex{
		byPath:      map[string]*Note{},
		byPathNoExt: map[string]*Note{},
		byName:      map[string]*Note{},
		byNameNoExt: map[string]*Note{},
	}
	for _, n := range notes {
		ix.byPath[strings.ToLower(n.RelativePath)] = n
		indexShortest(ix.byName, strings.ToLower(n.Name+n.Extension), n)
		if !n.IsAttachment {
			ix.byPathNoExt[strings.ToLower(n.PathWithoutExtension())] = n
			indexShortest(ix.byNameNoExt, strings.ToLower(n.Name), n)
		}
	}
	return ix
}

func indexShortest(m map[string]*Note, key string, n *Note) {
	if existing, ok := m[key]; ok && len(existing.RelativePath) <= len(n.RelativePath) {
		return
	}
	m[key] = n
}

// Resolve turns a link reference into the vault file it points at, or nil
// when nothing matches.
//
// The reference may carry an alias (`target|alias`), a heading
// (`target#heading`) or a block anchor (`target#^block`); all are stripped.
// Candidates are tried source-folder relative first, then vault-absolute,
// then by bare name.
func (ix *LinkIndex) Resolve(link string, sourcePath string) *Note {
	target := normalizeLink(link)
	if target == "" {
		return nil
	}
	lower := strings.ToLower(target)

	if folder := sourceFolder(sourcePath); folder != "" {
		joined := strings.ToLower(path.Join(folder, target))
		if n := ix.lookupPath(joined); n != nil {
			return n
		}
	}

	if n := ix.lookupPath(lower); n != nil {
		return n
	}

	if n, ok := ix.byName[lower]; ok {
		return n
	}
	if n, ok := ix.byNameNoExt[lower]; ok {
		return n
	}
	return nil
}

func (ix *LinkIndex) lookupPath(lower string) *Note {
	if n, ok := ix.byPath[lower]; ok {
		return n
	}
	if n, ok := ix.byPathNoExt[lower]; ok {
		return n
	}
	return nil
}

// normalizeLink strips alias, heading and block suffixes and normalizes
// separators.
func normalizeLink(link string) string {
	target := link
	if idx := strings.IndexByte(target, '|'); idx >= 0 {
		target = target[:idx]
	}
	if idx := strings.IndexByte(target, '#'); idx >= 0 {
		target = target[:idx]
	}
	target = strings.ReplaceAll(target, "\\", "/")
	target = strings.TrimSpace(target)
	return strings.Trim(target, "/")
}

func sourceFolder(sourcePath string) string {
	if sourcePath == "" {
		return ""
	}
	dir := path.Dir(strings.ReplaceAll(sourcePath, "\\", "/"))
	if dir == "." {
		return ""
	}
	return dir
}
