// Package problemgen synthesizes arithmetic practice questions by
// constrained random search. Every question's answer is verified with the
// exact evaluator in package expr.
package problemgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/mathdrill/internal/expr"
)

// Options tunes the rejection loops. Zero values fall back to defaults.
type Options struct {
	// Validators run against each mixed candidate after evaluation.
	Validators []Validator

	// DivisionAttempts bounds the division rejection loop.
	DivisionAttempts int

	// MixedAttempts bounds the mixed-expression rejection loop.
	MixedAttempts int

	// SpanAttempts bounds parenthesis span placement per expression.
	SpanAttempts int
}

// DefaultOptions returns the standard retry budgets and validator chain.
func DefaultOptions() Options {
	return Options{
		Validators:       DefaultValidators(),
		DivisionAttempts: 200,
		MixedAttempts:    500,
		SpanAttempts:     40,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Validators == nil {
		o.Validators = d.Validators
	}
	if o.DivisionAttempts <= 0 {
		o.DivisionAttempts = d.DivisionAttempts
	}
	if o.MixedAttempts <= 0 {
		o.MixedAttempts = d.MixedAttempts
	}
	if o.SpanAttempts <= 0 {
		o.SpanAttempts = d.SpanAttempts
	}
	return o
}

// Generator produces questions from a Config. It is not safe for
// concurrent use unless its Rand is.
type Generator struct {
	rand Rand
	opts Options
}

// New creates a Generator drawing from r.
func New(r Rand, opts Options) *Generator {
	return &Generator{rand: r, opts: opts.withDefaults()}
}

// Generate returns cfg.QuestionCount questions. Exhausted retry budgets
// are not errors: they yield the fixed fallback questions. The only error
// is a Config that fails validation.
func (g *Generator) Generate(cfg Config) ([]Question, error) {
	if err := cfg.validateGeneration(); err != nil {
		return nil, err
	}
	questions := make([]Question, 0, cfg.QuestionCount)
	for range cfg.QuestionCount {
		questions = append(questions, g.Question(cfg, pick(g.rand, cfg.Operations)))
	}
	return questions, nil
}

// Question builds a single question for op. cfg must already be valid.
func (g *Generator) Question(cfg Config, op Operation) Question {
	lo, hi := cfg.NumberMin, cfg.NumberMax
	switch op {
	case OpAdd:
		a, b := between(g.rand, lo, hi), between(g.rand, lo, hi)
		return binary(op, a, b, a+b)
	case OpSub:
		a, b := between(g.rand, lo, hi), between(g.rand, lo, hi)
		if a < b {
			a, b = b, a
		}
		return binary(op, a, b, a-b)
	case OpMul:
		a, b := between(g.rand, lo, hi), between(g.rand, lo, hi)
		return binary(op, a, b, a*b)
	case OpDiv:
		return g.division(lo, hi)
	default:
		return g.mixed(cfg)
	}
}

func binary(op Operation, a, b, answer int) Question {
	return Question{
		Expression: fmt.Sprintf("%d %s %d", a, op.Symbol(), b),
		Answer:     answer,
		Operation:  op,
	}
}

// division builds dividend = divisor * quotient and accepts it only when
// the dividend lies in [lo, hi].
func (g *Generator) division(lo, hi int) Question {
	dlo, dhi := max(1, lo), max(1, hi)
	for range g.opts.DivisionAttempts {
		b := between(g.rand, dlo, dhi)
		maxQ := max(1, hi/b)
		q := 1
		if dlo <= maxQ {
			q = between(g.rand, dlo, maxQ)
		}
		a := b * q
		if a >= lo && a <= hi {
			return binary(OpDiv, a, b, q)
		}
	}
	return FallbackDivision
}

var mixedOperators = []expr.Op{expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv}

func (g *Generator) mixed(cfg Config) Question {
	opCount := mixedOperatorCount(cfg.MixedOperatorCount)
	withParens := cfg.EnableParentheses && cfg.MaxParenthesesPairs > 0
	for range g.opts.MixedAttempts {
		operands := make([]int, opCount+1)
		for i := range operands {
			operands[i] = between(g.rand, cfg.NumberMin, cfg.NumberMax)
		}
		operators := make([]expr.Op, opCount)
		for i := range operators {
			operators[i] = pick(g.rand, mixedOperators)
		}
		var spans []Span
		if withParens {
			spans = g.pickSpans(len(operands), cfg.MaxParenthesesPairs)
		}

		expression := renderMixed(operands, operators, spans)
		value, err := expr.Evaluate(expression)
		if err != nil {
			// division by zero or a malformed candidate
			continue
		}
		if runValidators(g.opts.Validators, expression, value) != nil {
			continue
		}
		if !value.IsInt() || !value.Num().IsInt64() {
			continue
		}
		return Question{Expression: expression, Answer: int(value.Num().Int64()), Operation: OpMixed}
	}
	return FallbackMixed
}

// renderMixed joins operands and operators with single spaces, attaching
// parentheses to the boundary operands of each span.
func renderMixed(operands []int, operators []expr.Op, spans []Span) string {
	prefix := make([]string, len(operands))
	suffix := make([]string, len(operands))
	for _, s := range spans {
		prefix[s.Start] += "("
		suffix[s.End] = ")" + suffix[s.End]
	}

	var b strings.Builder
	for i, n := range operands {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(operators[i-1].String())
			b.WriteByte(' ')
		}
		b.WriteString(prefix[i])
		b.WriteString(strconv.Itoa(n))
		b.WriteString(suffix[i])
	}
	return b.String()
}
