package problemgen

import (
	"fmt"
	"math"
	"math/big"
)

// Validator checks the exact value of a candidate mixed expression.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g. "integral".
	Name() string

	// Validate returns nil if the candidate is acceptable.
	Validate(expression string, value *big.Rat) *ValidationError
}

// ValidationError describes why a candidate was rejected.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators returns the checks every mixed question must pass.
func DefaultValidators() []Validator {
	return []Validator{IntegralValidator{}, NonNegativeValidator{}, FitsIntValidator{}}
}

// IntegralValidator rejects fractional results.
type IntegralValidator struct{}

func (IntegralValidator) Name() string { return "integral" }

func (IntegralValidator) Validate(expression string, value *big.Rat) *ValidationError {
	if value.IsInt() {
		return nil
	}
	return &ValidationError{
		Validator: "integral",
		Message:   fmt.Sprintf("%s = %s is not an integer", expression, value.RatString()),
	}
}

// NonNegativeValidator rejects results below zero.
type NonNegativeValidator struct{}

func (NonNegativeValidator) Name() string { return "non-negative" }

func (NonNegativeValidator) Validate(expression string, value *big.Rat) *ValidationError {
	if value.Sign() >= 0 {
		return nil
	}
	return &ValidationError{
		Validator: "non-negative",
		Message:   fmt.Sprintf("%s = %s is negative", expression, value.RatString()),
	}
}

// FitsIntValidator rejects results that would overflow an int answer.
type FitsIntValidator struct{}

func (FitsIntValidator) Name() string { return "fits-int" }

func (FitsIntValidator) Validate(expression string, value *big.Rat) *ValidationError {
	num := value.Num()
	if num.IsInt64() && num.Int64() >= math.MinInt && num.Int64() <= math.MaxInt {
		return nil
	}
	return &ValidationError{
		Validator: "fits-int",
		Message:   fmt.Sprintf("%s overflows int", expression),
	}
}

// runValidators returns the first failure in chain, or nil.
func runValidators(chain []Validator, expression string, value *big.Rat) *ValidationError {
	for _, v := range chain {
		if verr := v.Validate(expression, value); verr != nil {
			return verr
		}
	}
	return nil
}
