package markdown

import (
	"errors"
	"fmt"
	"sort"
)

// Edit represents a targeted byte-range replacement.
//
// Start and End are byte offsets into the original source, with End
// exclusive. Replacement replaces source[Start:End].
//
// Link rewriting is expressed as edits so published notes differ from their
// sources only where a link actually changed.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies a set of byte-range edits to source and returns the
// updated content.
//
// Edits must be non-overlapping and refer to offsets in the original
// source. They are applied from the end of the content toward the beginning
// so earlier edits do not invalidate offsets for later edits.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start > sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start {
			return nil, fmt.Errorf("invalid edit[%d]: bad range [%d,%d)", i, e.Start, e.End)
		}
		if e.End > len(source) {
			return nil, fmt.Errorf("invalid edit[%d]: range out of bounds", i)
		}
		// Sorted by Start descending: the current edit must end at or
		// before the previous edit's start.
		if i > 0 && e.End > sorted[i-1].Start {
			return nil, errors.New("invalid edits: overlapping ranges")
		}
	}

	out := append([]byte(nil), source...)
	for _, e := range sorted {
		next := make([]byte, 0, len(out)-(e.End-e.Start)+len(e.Replacement))
		next = append(next, out[:e.Start]...)
		next = append(next, e.Replacement...)
		next = append(next, out[e.End:]...)
		out = next
	}

	return out, nil
}
