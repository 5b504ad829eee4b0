package markdown

import "strings"

// WikiLink is an Obsidian-style link occurrence in a note body.
//
// Start and End are byte offsets into the original source covering the whole
// construct (including a leading '!' for embeds), so occurrences can be
// rewritten in place via ApplyEdits.
type WikiLink struct {
	Start   int
	End     int
	Target  string // target without anchor or alias; may be empty for [[#heading]] self links
	Anchor  string // "#heading" or "#^block" suffix, "" when absent
	Alias   string // display alias, "" when absent
	IsEmbed bool
}

// DisplayText returns the text a reader sees for the link.
func (w WikiLink) DisplayText() string {
	if w.Alias != "" {
		return w.Alias
	}
	return w.Target + w.Anchor
}

// ExtractWikiLinks scans a note body for `[[...]]` links and `![[...]]`
// embeds. Occurrences inside fenced code blocks, indented code blocks and
// inline code spans are ignored.
func ExtractWikiLinks(body []byte) []WikiLink {
	links := make([]WikiLink, 0)
	scanLines(string(body), func(line string, lineOffset int) {
		links = append(links, scanLineWikiLinks(line, lineOffset)...)
	})
	return links
}

func scanLineWikiLinks(line string, lineOffset int) []WikiLink {
	spans := inlineCodeSpanRanges(line)

	var links []WikiLink
	i := 0
	for {
		open := strings.Index(line[i:], "[[")
		if open == -1 {
			break
		}
		open += i

		closing := strings.Index(line[open+2:], "]]")
		if closing == -1 {
			break
		}
		closing += open + 2

		if insideSpan(spans, open) {
			i = open + 2
			continue
		}

		inner := line[open+2 : closing]
		if strings.HasPrefix(inner, "[") {
			// Re-scan from the nested opener.
			i = open + 1
			continue
		}

		start := open
		isEmbed := open > 0 && line[open-1] == '!'
		if isEmbed {
			start = open - 1
		}

		link := parseWikiLinkInner(inner)
		link.Start = lineOffset + start
		link.End = lineOffset + closing + 2
		link.IsEmbed = isEmbed
		if link.Target != "" || link.Anchor != "" {
			links = append(links, link)
		}

		i = closing + 2
	}
	return links
}

func parseWikiLinkInner(inner string) WikiLink {
	var link WikiLink

	target := inner
	if idx := strings.IndexByte(target, '|'); idx >= 0 {
		link.Alias = strings.TrimSpace(target[idx+1:])
		target = target[:idx]
	}
	if idx := strings.IndexByte(target, '#'); idx >= 0 {
		link.Anchor = strings.TrimSpace(target[idx:])
		target = target[:idx]
	}
	link.Target = strings.TrimSpace(target)
	return link
}

// inlineCodeSpanRanges returns the byte ranges of inline code spans in a
// line, delimiters included.
func inlineCodeSpanRanges(s string) [][2]int {
	if !strings.Contains(s, "`") {
		return nil
	}

	var ranges [][2]int
	for i := 0; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}

		run := 1
		for i+run < len(s) && s[i+run] == '`' {
			run++
		}

		marker := strings.Repeat("`", run)
		closeRel := strings.Index(s[i+run:], marker)
		if closeRel == -1 {
			// Unclosed code span; treat backticks as literal text.
			i += run
			continue
		}

		end := i + run + closeRel + run
		ranges = append(ranges, [2]int{i, end})
		i = end
	}
	return ranges
}

func insideSpan(spans [][2]int, pos int) bool {
	for _, span := range spans {
		if pos >= span[0] && pos < span[1] {
			return true
		}
	}
	return false
}
