package problemgen

import (
	"cmp"
	"slices"
)

// Span is an inclusive range of operand indexes wrapped in one
// parenthesis pair.
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether s and o share any index.
func (s Span) Overlaps(o Span) bool {
	return !(s.End < o.Start || o.End < s.Start)
}

// pickSpans places up to maxPairs non-overlapping spans over count operand
// slots. It draws a target pair count, then tries SpanAttempts random
// candidates, so it may return fewer spans than the target (possibly none).
// The result is sorted by start index.
func (g *Generator) pickSpans(count, maxPairs int) []Span {
	limit := min(maxPairs, count/2)
	if limit < 1 || count < 2 {
		return nil
	}
	target := between(g.rand, 1, limit)

	var spans []Span
	for range g.opts.SpanAttempts {
		if len(spans) >= target {
			break
		}
		start := between(g.rand, 0, count-2)
		candidate := Span{Start: start, End: between(g.rand, start+1, count-1)}
		if slices.ContainsFunc(spans, candidate.Overlaps) {
			continue
		}
		spans = append(spans, candidate)
	}

	slices.SortFunc(spans, func(a, b Span) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})
	return spans
}
