package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// DefaultStyle is used when a note carries no frontmatter to detect a style
// from, or when composing a published block from scratch.
var DefaultStyle = Style{Newline: "\n", HasTrailingNewline: true}

// ErrMissingClosingDelimiter indicates the note started with a frontmatter
// delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the note body.
//
// If the note does not start with a frontmatter delimiter, had is false and
// body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	fmStart := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[fmStart:], closeLine) {
		bodyStart := fmStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[fmStart:], closeSeq)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	fmEnd := fmStart + idx + len(nl)
	bodyStart := fmStart + idx + len(closeSeq)
	return content[fmStart:fmEnd], content[bodyStart:], true, style, nil
}

// Join reassembles a note from raw frontmatter and body.
//
// If had is false, Join returns body as-is. Otherwise it emits the
// frontmatter between `---` delimiters using the newline style in Style.
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	marker := []byte("---" + nl)
	out := make([]byte, 0, 2*len(marker)+len(frontmatter)+len(body))
	out = append(out, marker...)
	out = append(out, frontmatter...)
	out = append(out, marker...)
	out = append(out, body...)
	return out
}

// Render serializes fields and wraps them between `---` marker lines,
// producing a block ready to sit ahead of a published note body.
func Render(fields map[string]any, style Style) ([]byte, error) {
	inner, err := SerializeYAML(fields, style)
	if err != nil {
		return nil, err
	}
	return Join(inner, nil, true, style), nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
// Empty input yields an empty, non-nil map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
