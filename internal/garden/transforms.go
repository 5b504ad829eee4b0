package garden

import (
	"fmt"
	"strings"
	"time"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

// permalinkTransform derives the note's public URL path. An explicit
// dg-permalink override is sanitized and carried through alongside its raw
// value; otherwise the permalink is built from the garden path, which is the
// dg-path override when present or the vault path run through the rewrite
// rules.
func (c *Compiler) permalinkTransform(note *vault.Note) fieldTransform {
	rules := c.settings.RewriteRules
	slugify := c.settings.Slugify
	return func(src, out map[string]any) {
		if raw, ok := stringField(src, "dg-permalink"); ok {
			out["dg-permalink"] = raw
			out["permalink"] = SanitizePermalink(raw)
			return
		}

		gardenPath := rewritePath(note.RelativePath, rules)
		if override, ok := stringField(src, "dg-path"); ok {
			gardenPath = override
		}
		out["permalink"] = PermalinkForPath(gardenPath, slugify)
	}
}

// rewritePath applies the first matching prefix rewrite rule, identity when
// none match.
func rewritePath(path string, rules []config.RewriteRule) string {
	for _, rule := range rules {
		if strings.HasPrefix(path, rule.From) {
			return rule.To + strings.TrimPrefix(path, rule.From)
		}
	}
	return path
}

// defaultFieldsTransform copies the standard pass-through fields: title,
// metatags, the hide/pin flags, category, score, the published/updated
// dates, the draft flag and the resolved banner image.
func (c *Compiler) defaultFieldsTransform(note *vault.Note) fieldTransform {
	layout := c.settings.Timestamps.Format
	return func(src, out map[string]any) {
		out["title"] = note.Name
		if v := src["title"]; truthy(v) {
			out["title"] = v
		}

		if v := src["dg-metatags"]; truthy(v) {
			out["metatags"] = v
		}
		if v := src["dg-hide"]; truthy(v) {
			out["hide"] = v
		}
		if v := src["dg-hide-in-graph"]; truthy(v) {
			out["hideInGraph"] = v
		}
		if v := src["dg-pinned"]; truthy(v) {
			out["pinned"] = v
		}

		if v := src["category"]; truthy(v) {
			out["category"] = v
		} else if folder := note.Folder(); folder != "" {
			segment, _, _ := strings.Cut(folder, "/")
			out["category"] = segment
		}

		// score is presence-copied: 0 is a legitimate score.
		if v, ok := src["score"]; ok {
			out["score"] = v
		}

		if v := src["published"]; truthy(v) {
			out["published"] = dateOrVerbatim(v, layout)
		}
		if v := src["updated"]; truthy(v) {
			out["updated"] = dateOrVerbatim(v, layout)
		}

		out["draft"] = !truthy(src["dg-publish"])

		if v, ok := stringField(src, "image"); ok {
			if image := c.resolveImage(v, note); image != "" {
				out["image"] = image
			}
		}
	}
}

// resolveImage turns a banner image reference into a path relative to the
// note's folder. Wiki-style embeds go through the link index; literal values
// are treated as vault paths. Unresolvable embeds drop the field.
func (c *Compiler) resolveImage(value string, note *vault.Note) string {
	if target, isEmbed := wikiEmbedTarget(value); isEmbed {
		if c.resolver == nil {
			return ""
		}
		resolved := c.resolver.Resolve(target, note.RelativePath)
		if resolved == nil {
			return ""
		}
		return NormalizeVaultPath(relativePath(note.Folder(), resolved.RelativePath))
	}

	literal := strings.TrimPrefix(NormalizeVaultPath(value), "/")
	if literal == "" {
		return ""
	}
	return relativePath(note.Folder(), literal)
}

// wikiEmbedTarget extracts the link target from a [[...]] or ![[...]]
// reference, reporting whether the value was one.
func wikiEmbedTarget(value string) (string, bool) {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "!")
	if !strings.HasPrefix(v, "[[") || !strings.HasSuffix(v, "]]") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(v, "[["), "]]"), true
}

// contentClassesTransform publishes the configured source key as
// contentClasses: strings as-is, sequences joined with spaces, anything else
// as an empty string.
func (c *Compiler) contentClassesTransform() fieldTransform {
	key := c.settings.ContentClassesKey
	return func(src, out map[string]any) {
		if key == "" {
			return
		}
		v := src[key]
		if !truthy(v) {
			return
		}

		switch vv := v.(type) {
		case string:
			out["contentClasses"] = vv
		case []string:
			out["contentClasses"] = strings.Join(vv, " ")
		case []any:
			parts := make([]string, len(vv))
			for i, item := range vv {
				parts[i] = stringify(item)
			}
			out["contentClasses"] = strings.Join(parts, " ")
		default:
			out["contentClasses"] = ""
		}
	}
}

// tagsTransform normalizes the tag list. Comma-separated strings are split,
// segments are trimmed, empties dropped; a truthy dg-home appends the
// gardenEntry tag unless already present. An empty list omits the field.
func (c *Compiler) tagsTransform() fieldTransform {
	return func(src, out map[string]any) {
		tags := normalizeTags(src["tags"])

		if truthy(src["dg-home"]) && !containsTag(tags, "gardenEntry") {
			tags = append(tags, "gardenEntry")
		}
		if len(tags) == 0 {
			return
		}
		out["tags"] = tags
	}
}

func normalizeTags(v any) []string {
	var raw []string
	switch vv := v.(type) {
	case string:
		raw = strings.Split(vv, ",")
	case []string:
		raw = vv
	case []any:
		raw = make([]string, len(vv))
		for i, item := range vv {
			raw[i] = stringify(item)
		}
	default:
		return nil
	}

	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// noteSettingsTransform applies per-note overrides: for every configured
// default setting, a truthy dash-cased variant in the source wins. The
// pass-through flag itself is copied from the defaults when enabled so the
// final merge can see it.
func (c *Compiler) noteSettingsTransform() fieldTransform {
	defaults := c.settings.NoteSettings
	return func(src, out map[string]any) {
		for key := range defaults {
			if v := src[kebabize(key)]; truthy(v) {
				out[key] = v
			}
		}

		if _, overridden := out["dgPassFrontmatter"]; !overridden && truthy(defaults["dgPassFrontmatter"]) {
			out["dgPassFrontmatter"] = defaults["dgPassFrontmatter"]
		}
	}
}

// noteIconTransform publishes the noteIcon field, but only when an icon
// display toggle is on. Gardens with icons disabled never see the field, so
// enabling the feature later is the only thing that diffs every note.
func (c *Compiler) noteIconTransform() fieldTransform {
	icon := c.settings.NoteIcon
	return func(src, out map[string]any) {
		if !icon.Enabled() {
			return
		}
		if v := src[icon.Key]; truthy(v) {
			out["noteIcon"] = v
			return
		}
		out["noteIcon"] = icon.Default
	}
}

// timestampsTransform fills the created/updated keys: the source value is
// carried when it has one (reformatted when parseable), the file times fill
// the gaps.
func (c *Compiler) timestampsTransform(note *vault.Note) fieldTransform {
	ts := c.settings.Timestamps
	return func(src, out map[string]any) {
		if ts.ShowCreated {
			out[ts.CreatedKey] = timestampField(src[ts.CreatedKey], note.Created, ts.Format)
		}
		if ts.ShowUpdated {
			out[ts.UpdatedKey] = timestampField(src[ts.UpdatedKey], note.Modified, ts.Format)
		}
	}
}

func timestampField(srcValue any, fileTime time.Time, layout string) any {
	if truthy(srcValue) {
		return carryDateValue(srcValue, layout)
	}
	return fileTime.Format(layout)
}

// dateOrVerbatim parses a date-like value into a time.Time for the
// serializer, passing unparseable values through untouched.
func dateOrVerbatim(v any, layout string) any {
	if t, ok := parseDateValue(v, layout); ok {
		return t
	}
	return v
}

// stringField returns a non-empty string value for key.
func stringField(src map[string]any, key string) (string, bool) {
	if s, ok := src[key].(string); ok && s != "" {
		return s, true
	}
	return "", false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
