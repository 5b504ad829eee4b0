package config

// CompileConfig is the read-only settings object consumed by the
// frontmatter compiler. Loaded once, never mutated afterwards.
type CompileConfig struct {
	// RewriteRules map vault path prefixes to garden path prefixes.
	// Ordered: the first matching rule wins, identity if none match.
	RewriteRules []RewriteRule `yaml:"rewrite_rules,omitempty"`
	// Slugify lowercases and dash-separates permalink segments and strips
	// diacritics.
	Slugify bool `yaml:"slugify"`
	// ContentClassesKey names the frontmatter key whose value is published
	// as contentClasses. Empty disables the step.
	ContentClassesKey string `yaml:"content_classes_key,omitempty"`
	// NoteSettings holds the default per-note settings. Keys are the
	// camelCase destination names (dgShowBacklinks); notes override them
	// with the dash-cased variant (dg-show-backlinks).
	NoteSettings map[string]any  `yaml:"note_settings,omitempty"`
	NoteIcon     NoteIconConfig  `yaml:"note_icon"`
	Timestamps   TimestampConfig `yaml:"timestamps"`
}

// RewriteRule rewrites one vault path prefix.
type RewriteRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// NoteIconConfig controls the noteIcon field. The icon step runs only when
// at least one of the display toggles is on, so gardens that never show
// icons never see icon fields in their diffs.
type NoteIconConfig struct {
	Key                 string `yaml:"key,omitempty"`
	Default             string `yaml:"default,omitempty"`
	ShowOnTitle         bool   `yaml:"show_on_title"`
	ShowInFileTree      bool   `yaml:"show_in_file_tree"`
	ShowOnInternalLinks bool   `yaml:"show_on_internal_links"`
	ShowOnBacklinks     bool   `yaml:"show_on_backlinks"`
}

// Enabled reports whether any icon display toggle is on.
func (c NoteIconConfig) Enabled() bool {
	return c.ShowOnTitle || c.ShowInFileTree || c.ShowOnInternalLinks || c.ShowOnBacklinks
}

// TimestampConfig controls the published created/updated keys. When a
// toggle is on the key is always emitted: source values are carried, file
// times fill the gaps.
type TimestampConfig struct {
	ShowCreated bool   `yaml:"show_created"`
	CreatedKey  string `yaml:"created_key,omitempty"`
	ShowUpdated bool   `yaml:"show_updated"`
	UpdatedKey  string `yaml:"updated_key,omitempty"`
	// Format is the Go time layout emitted timestamps are rendered with.
	Format string `yaml:"format,omitempty"`
}

// DefaultNoteSettings returns a fresh copy of the built-in per-note setting
// defaults.
func DefaultNoteSettings() map[string]any {
	return map[string]any{
		"dgHomeLink":        true,
		"dgPassFrontmatter": false,
		"dgShowBacklinks":   true,
		"dgShowLocalGraph":  true,
		"dgShowInlineTitle": true,
		"dgShowFileTree":    true,
		"dgEnableSearch":    true,
		"dgShowToc":         true,
		"dgLinkPreview":     true,
		"dgShowTags":        true,
	}
}
