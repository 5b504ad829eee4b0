package garden

import (
	"fmt"
	"time"
)

// dateLayouts are tried in order when parsing date-like frontmatter values.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDateValue interprets a frontmatter value as a timestamp. YAML decodes
// ISO dates to time.Time already; strings are tried against the known
// layouts plus the configured one.
func parseDateValue(v any, configuredLayout string) (time.Time, bool) {
	switch vv := v.(type) {
	case time.Time:
		return vv, true
	case string:
		layouts := dateLayouts
		if configuredLayout != "" {
			layouts = append([]string{configuredLayout}, dateLayouts...)
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, vv); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// carryDateValue returns the value to publish for a date-like field: parsed
// timestamps are reformatted with the configured layout, anything else is
// carried verbatim.
func carryDateValue(v any, layout string) any {
	if t, ok := parseDateValue(v, layout); ok {
		return t.Format(layout)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
