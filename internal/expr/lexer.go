// Package expr parses and evaluates the restricted arithmetic expressions
// used as practice questions. Results are exact rationals; there is no
// identifier, call, float or bitwise syntax.
package expr

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrUnsupportedExpression is returned for any input outside the grammar.
	ErrUnsupportedExpression = errors.New("unsupported expression")

	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = errors.New("division by zero")
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "unknown"
	}
}

type token struct {
	kind  tokenKind
	value *big.Int // set for tokNumber
	pos   int
}

// tokenize splits s into tokens. Only ASCII digits, the four operators,
// parentheses and blanks are accepted.
func tokenize(s string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
			v, ok := new(big.Int).SetString(s[start:i], 10)
			if !ok {
				return nil, fmt.Errorf("%w: bad literal %q", ErrUnsupportedExpression, s[start:i])
			}
			tokens = append(tokens, token{kind: tokNumber, value: v, pos: start})
		default:
			kind, ok := operatorTokens[c]
			if !ok {
				return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrUnsupportedExpression, c, i)
			}
			tokens = append(tokens, token{kind: kind, pos: i})
			i++
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(s)})
	return tokens, nil
}

var operatorTokens = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'(': tokLParen,
	')': tokRParen,
}
