package problemgen

import (
	"fmt"
	"strings"
)

// Operation is a kind of question a learner can practice.
type Operation string

const (
	OpAdd   Operation = "add"
	OpSub   Operation = "sub"
	OpMul   Operation = "mul"
	OpDiv   Operation = "div"
	OpMixed Operation = "mixed"
)

// AllOperations lists every supported operation in display order.
var AllOperations = []Operation{OpAdd, OpSub, OpMul, OpDiv, OpMixed}

// Valid reports whether o is one of the supported operations.
func (o Operation) Valid() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv, OpMixed:
		return true
	}
	return false
}

// Symbol returns the operator used to render o, or "" for mixed.
func (o Operation) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return ""
}

// ParseOperation maps a user-supplied name to an Operation.
// Accepts the canonical names plus a few common aliases.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "addition", "+":
		return OpAdd, nil
	case "sub", "subtract", "subtraction", "-":
		return OpSub, nil
	case "mul", "multiply", "multiplication", "*", "x":
		return OpMul, nil
	case "div", "divide", "division", "/":
		return OpDiv, nil
	case "mixed", "mix":
		return OpMixed, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// ParseOperations parses a list of names, dropping duplicates while
// keeping first-seen order.
func ParseOperations(names []string) ([]Operation, error) {
	var ops []Operation
	seen := make(map[Operation]bool)
	for _, n := range names {
		op, err := ParseOperation(n)
		if err != nil {
			return nil, err
		}
		if seen[op] {
			continue
		}
		seen[op] = true
		ops = append(ops, op)
	}
	return ops, nil
}

// Question is a generated problem and its verified integer answer.
type Question struct {
	// Expression is the infix display string, tokens separated by spaces,
	// e.g. "12 + 7" or "(3 + 4) * 2 - 5".
	Expression string

	// Answer is the exact value of Expression.
	Answer int

	// Operation is the kind of question this was generated for.
	Operation Operation
}

// Fixed questions used when a rejection loop runs out of attempts.
// They are returned as-is even when they fall outside the configured range.
var (
	FallbackDivision = Question{Expression: "10 / 2", Answer: 5, Operation: OpDiv}
	FallbackMixed    = Question{Expression: "(8 + 4) * 2", Answer: 24, Operation: OpMixed}
)
