package garden

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/A1i98/obsidian-digital-garden/internal/frontmatter"
	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
	"github.com/A1i98/obsidian-digital-garden/internal/markdown"
	"github.com/A1i98/obsidian-digital-garden/internal/util/sets"
	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

// ErrCompileFailed indicates a note could not be compiled into a page.
var ErrCompileFailed = errors.New("failed to compile note")

// Page is one published note: compiled frontmatter, rewritten body and the
// vault attachments the body references.
type Page struct {
	Note      *vault.Note
	Fields    map[string]any
	Permalink string
	Content   string   // full published document, frontmatter block plus body
	Images    []string // vault-relative attachment paths, first-reference order
}

// PageCompiler assembles published pages. Wiki links are rewritten to
// permalinks, image references are repointed at the published images
// directory, and links to unpublished or unresolvable notes degrade to their
// display text.
type PageCompiler struct {
	compiler   *Compiler
	index      *vault.LinkIndex
	permalinks map[string]string
	imagesDir  string
}

// NewPageCompiler creates a page compiler. permalinks maps the vault
// relative path of every published note to its permalink; imagesDir is the
// site repo directory attachments are published under.
func NewPageCompiler(compiler *Compiler, index *vault.LinkIndex, permalinks map[string]string, imagesDir string) *PageCompiler {
	return &PageCompiler{
		compiler:   compiler,
		index:      index,
		permalinks: permalinks,
		imagesDir:  imagesDir,
	}
}

// CompilePage compiles one published note into its final artifact.
func (p *PageCompiler) CompilePage(note *vault.Note, source map[string]any, body []byte) (*Page, error) {
	fields := p.compiler.CompileFields(note, source)

	block, err := frontmatter.Render(fields, frontmatter.DefaultStyle)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompileFailed, note.RelativePath, err)
	}

	content, images := p.RewriteBody(note, body)

	permalink, _ := fields["permalink"].(string)
	return &Page{
		Note:      note,
		Fields:    fields,
		Permalink: permalink,
		Content:   string(block) + content,
		Images:    images,
	}, nil
}

// RewriteBody rewrites every link and image reference in a note body for
// publishing and returns the referenced attachments in first-reference
// order.
func (p *PageCompiler) RewriteBody(note *vault.Note, body []byte) (string, []string) {
	images := &sets.Ordered[string]{}
	var edits []markdown.Edit

	for _, link := range markdown.ExtractWikiLinks(body) {
		edits = append(edits, p.wikiLinkEdit(note, link, images))
	}
	for _, span := range markdown.ExtractImageDestinations(body) {
		if edit, ok := p.destinationEdit(note, span, images); ok {
			edits = append(edits, edit)
		}
	}
	for _, span := range markdown.ExtractImgSrcAttributes(body) {
		if edit, ok := p.destinationEdit(note, span, images); ok {
			edits = append(edits, edit)
		}
	}

	rewritten, err := markdown.ApplyEdits(body, edits)
	if err != nil {
		// Extraction produces disjoint spans; if that invariant ever breaks,
		// publish the body untouched rather than a corrupted one.
		slog.Warn("link rewrite produced conflicting edits, keeping body as-is",
			logfields.Note(note.RelativePath), logfields.Error(err))
		return string(body), images.Values()
	}
	return string(rewritten), images.Values()
}

func (p *PageCompiler) wikiLinkEdit(note *vault.Note, link markdown.WikiLink, images *sets.Ordered[string]) markdown.Edit {
	edit := markdown.Edit{Start: link.Start, End: link.End}
	display := link.DisplayText()

	target := note // [[#heading]] links point into the note itself
	if link.Target != "" {
		target = p.index.Resolve(link.Target, note.RelativePath)
	}

	switch {
	case target == nil:
		edit.Replacement = []byte(display)

	case target.IsAttachment:
		images.Add(target.RelativePath)
		web := p.imageWebPath(target.RelativePath)
		if link.IsEmbed && isImageExtension(target.Extension) {
			edit.Replacement = []byte(fmt.Sprintf("![%s](%s)", link.Alias, web))
		} else {
			edit.Replacement = []byte(fmt.Sprintf("[%s](%s)", display, web))
		}

	default:
		permalink, published := p.permalinks[target.RelativePath]
		if !published {
			edit.Replacement = []byte(display)
			break
		}
		href := permalink
		if link.Anchor != "" {
			href += "#" + SlugifySegment(link.Anchor)
		}
		edit.Replacement = []byte(fmt.Sprintf("[%s](%s)", display, href))
	}

	return edit
}

// destinationEdit repoints a local image destination at the published
// images directory. External URLs and references that do not resolve to a
// vault attachment are left untouched.
func (p *PageCompiler) destinationEdit(note *vault.Note, span markdown.DestinationSpan, images *sets.Ordered[string]) (markdown.Edit, bool) {
	dest := span.Destination
	if isExternalDestination(dest) {
		return markdown.Edit{}, false
	}
	if decoded, err := url.PathUnescape(dest); err == nil {
		dest = decoded
	}

	target := p.index.Resolve(dest, note.RelativePath)
	if target == nil || !target.IsAttachment {
		return markdown.Edit{}, false
	}

	images.Add(target.RelativePath)
	return markdown.Edit{
		Start:       span.Start,
		End:         span.End,
		Replacement: []byte(p.imageWebPath(target.RelativePath)),
	}, true
}

// imageWebPath maps a vault-relative attachment path to its public URL. The
// site serves the tree rooted at src/site, so that prefix is stripped from
// the configured images directory.
func (p *PageCompiler) imageWebPath(rel string) string {
	base := strings.TrimPrefix(p.imagesDir, "src/site")
	base = "/" + strings.Trim(base, "/")
	return base + "/" + PublishedImagePath(rel)
}

// PublishedImagePath is the repo path of an attachment relative to the
// images directory: the vault path with backslashes normalized and
// whitespace runs dashed, so published URLs never need escaping.
func PublishedImagePath(rel string) string {
	return NormalizeVaultPath(rel)
}

func isImageExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico":
		return true
	}
	return false
}

func isExternalDestination(dest string) bool {
	return strings.Contains(dest, "://") ||
		strings.HasPrefix(dest, "data:") ||
		strings.HasPrefix(dest, "mailto:") ||
		strings.HasPrefix(dest, "#")
}
