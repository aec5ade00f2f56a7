package expr

import (
	"fmt"
	"math/big"
)

// Evaluate parses s and returns its exact value in lowest terms.
func Evaluate(s string) (*big.Rat, error) {
	n, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return Eval(n)
}

// Eval computes the exact value of a parsed tree.
func Eval(n Node) (*big.Rat, error) {
	switch n := n.(type) {
	case *Literal:
		if n == nil || n.Value == nil {
			return nil, fmt.Errorf("%w: empty literal", ErrUnsupportedExpression)
		}
		return new(big.Rat).SetInt(n.Value), nil

	case *Negate:
		v, err := Eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return v.Neg(v), nil

	case *Binary:
		left, err := Eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Eval(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case OpAdd:
			return new(big.Rat).Add(left, right), nil
		case OpSub:
			return new(big.Rat).Sub(left, right), nil
		case OpMul:
			return new(big.Rat).Mul(left, right), nil
		case OpDiv:
			if right.Sign() == 0 {
				return nil, ErrDivisionByZero
			}
			return new(big.Rat).Quo(left, right), nil
		}
		return nil, fmt.Errorf("%w: operator %d", ErrUnsupportedExpression, n.Op)

	default:
		return nil, fmt.Errorf("%w: node %T", ErrUnsupportedExpression, n)
	}
}
