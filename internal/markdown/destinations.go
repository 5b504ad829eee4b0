package markdown

import "strings"

// DestinationSpan marks a rewritable resource reference in a note body.
// Start and End cover only the destination text, so a replacement keeps the
// surrounding construct (alt text, title, attribute quotes) intact.
type DestinationSpan struct {
	Start       int
	End         int
	Destination string
}

// ExtractImageDestinations scans a body for Markdown image destinations,
// `![alt](dest)` and `![alt](dest "title")`. Occurrences inside fenced code
// blocks, indented code blocks and inline code spans are skipped, as are
// wiki embeds.
func ExtractImageDestinations(body []byte) []DestinationSpan {
	var spans []DestinationSpan
	scanLines(string(body), func(line string, lineOffset int) {
		codeSpans := inlineCodeSpanRanges(line)
		for i := 0; i+2 < len(line); i++ {
			if line[i] != '!' || line[i+1] != '[' || line[i+2] == '[' {
				continue
			}
			if insideSpan(codeSpans, i) {
				continue
			}
			span, next, ok := imageDestinationSpan(line, i)
			if !ok {
				continue
			}
			span.Start += lineOffset
			span.End += lineOffset
			spans = append(spans, span)
			i = next - 1
		}
	})
	return spans
}

// ExtractImgSrcAttributes scans a body for the src attribute of raw HTML
// <img> tags, skipping code blocks and inline code spans.
func ExtractImgSrcAttributes(body []byte) []DestinationSpan {
	if !strings.Contains(string(body), "<img") {
		return nil
	}

	var spans []DestinationSpan
	scanLines(string(body), func(line string, lineOffset int) {
		codeSpans := inlineCodeSpanRanges(line)
		rest := 0
		for {
			tag := strings.Index(line[rest:], "<img")
			if tag == -1 {
				return
			}
			tag += rest

			tagEnd := strings.IndexByte(line[tag:], '>')
			if tagEnd == -1 {
				tagEnd = len(line)
			} else {
				tagEnd += tag
			}
			rest = tagEnd

			if insideSpan(codeSpans, tag) {
				continue
			}
			if span, ok := srcAttributeSpan(line[tag:tagEnd], tag); ok {
				span.Start += lineOffset
				span.End += lineOffset
				spans = append(spans, span)
			}
		}
	})
	return spans
}

// scanLines walks body line by line, tracking byte offsets and skipping
// fenced and indented code, and invokes fn for every content line.
func scanLines(src string, fn func(line string, lineOffset int)) {
	inCodeBlock := false
	activeFence := ""

	offset := 0
	for {
		rest := src[offset:]
		lineEnd := strings.IndexByte(rest, '\n')
		lastLine := lineEnd == -1

		var line string
		if lastLine {
			line = rest
		} else {
			line = rest[:lineEnd]
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			inCodeBlock, activeFence = toggleFencedBlock(inCodeBlock, activeFence, "```")
		case strings.HasPrefix(trimmed, "~~~"):
			inCodeBlock, activeFence = toggleFencedBlock(inCodeBlock, activeFence, "~~~")
		case inCodeBlock || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t"):
			// code content, skip
		default:
			fn(line, offset)
		}

		if lastLine {
			return
		}
		offset += lineEnd + 1
	}
}

// imageDestinationSpan parses the destination of a `![...](...)` construct
// starting at the '!' byte. It returns the destination span, the offset to
// resume scanning from, and whether a destination was found.
func imageDestinationSpan(line string, bang int) (DestinationSpan, int, bool) {
	closeBracket := strings.Index(line[bang+2:], "]")
	if closeBracket == -1 {
		return DestinationSpan{}, 0, false
	}
	closeBracket += bang + 2

	if closeBracket+1 >= len(line) || line[closeBracket+1] != '(' {
		return DestinationSpan{}, 0, false
	}

	// Find the matching close paren; destinations may themselves contain
	// balanced parens.
	depth := 1
	closeParen := -1
	for j := closeBracket + 2; j < len(line); j++ {
		switch line[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeParen = j
			}
		}
		if closeParen != -1 {
			break
		}
	}
	if closeParen == -1 {
		return DestinationSpan{}, 0, false
	}

	start := closeBracket + 2
	raw := line[start:closeParen]

	// Angle-bracketed destination: the span covers the inside only.
	if strings.HasPrefix(raw, "<") {
		if gt := strings.IndexByte(raw, '>'); gt >= 0 {
			span := DestinationSpan{Start: start + 1, End: start + gt, Destination: raw[1:gt]}
			return span, closeParen + 1, span.Destination != ""
		}
	}

	// Strip an optional trailing title.
	if idx := trailingTitleIndex(raw); idx >= 0 {
		raw = raw[:idx]
	}

	leading := len(raw) - len(strings.TrimLeft(raw, " \t"))
	dest := strings.TrimSpace(raw)
	if dest == "" {
		return DestinationSpan{}, closeParen + 1, false
	}

	span := DestinationSpan{
		Start:       start + leading,
		End:         start + leading + len(dest),
		Destination: dest,
	}
	return span, closeParen + 1, true
}

// trailingTitleIndex finds where an optional `"title"` or `'title'` suffix
// begins, -1 when there is none.
func trailingTitleIndex(raw string) int {
	for _, q := range []byte{'"', '\''} {
		if len(raw) < 3 || raw[len(raw)-1] != q {
			continue
		}
		if idx := strings.LastIndex(raw[:len(raw)-1], " "+string(q)); idx >= 0 {
			return idx
		}
	}
	return -1
}

// srcAttributeSpan locates the src attribute value within one <img> tag.
// Offsets are relative to the tag start plus base.
func srcAttributeSpan(tag string, base int) (DestinationSpan, bool) {
	idx := strings.Index(tag, "src")
	if idx == -1 {
		return DestinationSpan{}, false
	}

	rest := tag[idx+3:]
	eq := strings.IndexByte(rest, '=')
	if eq == -1 || strings.TrimSpace(rest[:eq]) != "" {
		return DestinationSpan{}, false
	}

	valStart := idx + 3 + eq + 1
	for valStart < len(tag) && (tag[valStart] == ' ' || tag[valStart] == '\t') {
		valStart++
	}
	if valStart >= len(tag) || (tag[valStart] != '"' && tag[valStart] != '\'') {
		return DestinationSpan{}, false
	}

	quote := tag[valStart]
	valEnd := strings.IndexByte(tag[valStart+1:], quote)
	if valEnd == -1 {
		return DestinationSpan{}, false
	}
	valEnd += valStart + 1

	dest := tag[valStart+1 : valEnd]
	if dest == "" {
		return DestinationSpan{}, false
	}
	return DestinationSpan{
		Start:       base + valStart + 1,
		End:         base + valEnd,
		Destination: dest,
	}, true
}
