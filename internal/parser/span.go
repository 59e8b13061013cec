package parser

import (
	"sort"
	"strings"
)

// Span is a byte range [Start, End) of the input consumed by a rule.
type Span struct {
	Start int
	End   int
}

// Text returns the part of src covered by the span, or "" when the span
// does not fit src.
func (s Span) Text(src string) string {
	if !s.valid(len(src)) {
		return ""
	}
	return src[s.Start:s.End]
}

func (s Span) valid(n int) bool {
	return s.Start >= 0 && s.End <= n && s.Start < s.End
}

// stripSpans removes the spans from text and collapses the remaining
// whitespace. Out-of-range spans are ignored, overlapping ones merged.
func stripSpans(text string, spans []Span) string {
	kept := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.valid(len(text)) {
			kept = append(kept, s)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	var b strings.Builder
	pos := 0
	for _, s := range kept {
		if s.End <= pos {
			continue
		}
		if s.Start > pos {
			b.WriteString(text[pos:s.Start])
			// keep words on either side of the cut apart
			b.WriteByte(' ')
		}
		pos = s.End
	}
	b.WriteString(text[pos:])

	return strings.Join(strings.Fields(b.String()), " ")
}
