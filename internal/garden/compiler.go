package garden

import (
	"log/slog"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/frontmatter"
	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

// LinkResolver resolves an Obsidian link reference from a source note to a
// vault file. Implemented by vault.LinkIndex; nil disables embed resolution.
type LinkResolver interface {
	Resolve(link, sourcePath string) *vault.Note
}

// fieldTransform rewrites one slice of the published frontmatter. Transforms
// read the source mapping and write into the accumulator; they never touch
// the source and never fail.
type fieldTransform func(src, out map[string]any)

// Compiler turns a note's source frontmatter into the frontmatter published
// to the garden site. Compilation is pure: the same note, source mapping and
// settings always produce the same output, and the source mapping is never
// mutated.
type Compiler struct {
	settings *config.CompileConfig
	resolver LinkResolver
}

// NewCompiler creates a compiler over read-only settings and an optional
// link resolver for banner-image embeds.
func NewCompiler(settings *config.CompileConfig, resolver LinkResolver) *Compiler {
	return &Compiler{settings: settings, resolver: resolver}
}

// CompileFields runs every transform step in order and returns the final
// published mapping. A nil source mapping is treated as empty.
func (c *Compiler) CompileFields(note *vault.Note, source map[string]any) map[string]any {
	src := source
	if src == nil {
		src = map[string]any{}
	}

	steps := []fieldTransform{
		c.permalinkTransform(note),
		c.defaultFieldsTransform(note),
		c.contentClassesTransform(),
		c.tagsTransform(),
		c.noteSettingsTransform(),
		c.noteIconTransform(),
		c.timestampsTransform(note),
	}

	out := map[string]any{}
	for _, step := range steps {
		step(src, out)
	}

	return c.mergeFinal(src, out)
}

// Compile runs CompileFields and serializes the result as a `---` delimited
// block ready to sit ahead of the note body.
func (c *Compiler) Compile(note *vault.Note, source map[string]any) string {
	fields := c.CompileFields(note, source)

	block, err := frontmatter.Render(fields, frontmatter.DefaultStyle)
	if err != nil {
		// All compiled values are YAML-encodable; guard anyway so a compile
		// never fails outright.
		slog.Error("frontmatter serialization failed", logfields.Note(note.RelativePath), logfields.Error(err))
		return "---\n---\n"
	}
	return string(block)
}

// mergeFinal applies the pass-through policy: when the effective
// dgPassFrontmatter flag is set, the full source mapping sits underneath
// every derived field, and derived fields win on collision.
func (c *Compiler) mergeFinal(src, out map[string]any) map[string]any {
	if !truthy(out["dgPassFrontmatter"]) {
		return out
	}

	merged := deepCopyMap(src)
	for k, v := range out {
		merged[k] = v
	}
	return merged
}

// truthy mirrors the flag semantics of note frontmatter: nil, false, zero
// numbers and empty strings are falsy; everything else is truthy, including
// the string "false".
func truthy(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int:
		return vv != 0
	case int64:
		return vv != 0
	case uint64:
		return vv != 0
	case float64:
		return vv != 0
	default:
		return true
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = deepCopyValue(item)
		}
		return result
	default:
		return v
	}
}
