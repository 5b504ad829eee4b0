package garden

import "github.com/A1i98/obsidian-digital-garden/internal/notify"

// publishFlagMessage is shown once per failed validation.
const publishFlagMessage = "note is missing dg-publish: true; add it and publish again"

// HasPublishFlag reports whether the source frontmatter opts the note into
// publishing. Absent and falsy values both mean unpublished.
func HasPublishFlag(source map[string]any) bool {
	if source == nil {
		return false
	}
	return truthy(source["dg-publish"])
}

// Validator checks notes for the publish flag and surfaces a user-facing
// notice when it is missing.
type Validator struct {
	notifier notify.Notifier
}

// NewValidator creates a validator. A nil notifier falls back to the no-op
// notifier.
func NewValidator(notifier notify.Notifier) *Validator {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &Validator{notifier: notifier}
}

// IsValid reports whether the note may be published. A missing or falsy
// publish flag emits exactly one notification and returns false; a set flag
// returns true with no side effect.
func (v *Validator) IsValid(source map[string]any) bool {
	if HasPublishFlag(source) {
		return true
	}
	v.notifier.Notify(publishFlagMessage)
	return false
}
