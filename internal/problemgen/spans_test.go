package problemgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/mathdrill/internal/expr"
)

func TestSpan_Overlaps(t *testing.T) {
	tests := []struct {
		a, b Span
		want bool
	}{
		{Span{0, 1}, Span{2, 3}, false},
		{Span{2, 3}, Span{0, 1}, false},
		{Span{0, 2}, Span{2, 3}, true},
		{Span{0, 3}, Span{1, 2}, true},
		{Span{1, 2}, Span{1, 2}, true},
		{Span{0, 1}, Span{1, 4}, true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.a.Overlaps(tc.b), "%v vs %v", tc.a, tc.b)
		assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "%v vs %v", tc.b, tc.a)
	}
}

func TestPickSpans_NonOverlappingAndSorted(t *testing.T) {
	g := testGenerator(11)
	for trial := range 2000 {
		count := 3 + trial%6
		maxPairs := 1 + trial%4
		spans := g.pickSpans(count, maxPairs)

		assert.LessOrEqual(t, len(spans), min(maxPairs, count/2))
		for i, s := range spans {
			assert.GreaterOrEqual(t, s.Start, 0)
			assert.Less(t, s.Start, s.End)
			assert.LessOrEqual(t, s.End, count-1)
			if i > 0 {
				assert.Less(t, spans[i-1].Start, s.Start, "not sorted: %v", spans)
			}
			for _, o := range spans[i+1:] {
				assert.False(t, s.Overlaps(o), "overlap in %v", spans)
			}
		}
	}
}

func TestPickSpans_NoPairsRequested(t *testing.T) {
	g := testGenerator(1)
	assert.Empty(t, g.pickSpans(5, 0))
	assert.Empty(t, g.pickSpans(1, 3))
}

func TestPickSpans_BoundedAttempts(t *testing.T) {
	// With a single attempt the result can hold at most one span.
	g := New(NewRand(2), Options{SpanAttempts: 1})
	for range 200 {
		assert.LessOrEqual(t, len(g.pickSpans(9, 4)), 1)
	}
}

func TestRenderMixed(t *testing.T) {
	ops := []expr.Op{expr.OpAdd, expr.OpMul, expr.OpSub}
	tests := []struct {
		spans []Span
		want  string
	}{
		{nil, "3 + 4 * 2 - 5"},
		{[]Span{{0, 1}}, "(3 + 4) * 2 - 5"},
		{[]Span{{0, 1}, {2, 3}}, "(3 + 4) * (2 - 5)"},
		{[]Span{{1, 3}}, "3 + (4 * 2 - 5)"},
		{[]Span{{0, 3}}, "(3 + 4 * 2 - 5)"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, renderMixed([]int{3, 4, 2, 5}, ops, tc.spans))
	}
}
