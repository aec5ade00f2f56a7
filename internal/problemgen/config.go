package problemgen

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the learner-chosen configuration for one practice session.
type Config struct {
	// Username identifies the learner in history. Must be non-blank.
	Username string

	// Operations are drawn uniformly for each question.
	Operations []Operation

	// NumberMin and NumberMax bound generated operands (inclusive).
	NumberMin int
	NumberMax int

	// QuestionCount is the number of questions in the session.
	QuestionCount int

	// MixedOperatorCount is the operator count inside a mixed expression.
	// Values below 2 are raised to 2.
	MixedOperatorCount int

	// EnableParentheses allows parenthesis pairs in mixed expressions.
	EnableParentheses bool

	// MaxParenthesesPairs caps the pairs per mixed expression. Only
	// meaningful when EnableParentheses is set.
	MaxParenthesesPairs int
}

// ErrInvalidConfig wraps every Config validation failure.
var ErrInvalidConfig = errors.New("invalid practice config")

// Validate checks everything a caller must guarantee before starting a
// session with cfg.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidConfig)
	}
	return c.validateGeneration()
}

// validateGeneration checks the fields question generation depends on.
func (c Config) validateGeneration() error {
	if len(c.Operations) == 0 {
		return fmt.Errorf("%w: at least one operation is required", ErrInvalidConfig)
	}
	for _, op := range c.Operations {
		if !op.Valid() {
			return fmt.Errorf("%w: unknown operation %q", ErrInvalidConfig, op)
		}
	}
	if c.NumberMin > c.NumberMax {
		return fmt.Errorf("%w: number range [%d, %d] is empty", ErrInvalidConfig, c.NumberMin, c.NumberMax)
	}
	if c.QuestionCount < 1 {
		return fmt.Errorf("%w: question count must be positive, got %d", ErrInvalidConfig, c.QuestionCount)
	}
	if c.MaxParenthesesPairs < 0 {
		return fmt.Errorf("%w: parentheses pairs must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Normalized returns a copy of c with derived fields settled: blank
// username trimmed, pairs cleared when parentheses are disabled, and the
// mixed operator count raised to its minimum.
func (c Config) Normalized() Config {
	c.Username = strings.TrimSpace(c.Username)
	if !c.EnableParentheses {
		c.MaxParenthesesPairs = 0
	}
	c.MixedOperatorCount = mixedOperatorCount(c.MixedOperatorCount)
	c.Operations = append([]Operation(nil), c.Operations...)
	return c
}

func mixedOperatorCount(n int) int {
	return max(2, n)
}

// Difficulty names a preset operand range.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficultyRanges = map[Difficulty][2]int{
	DifficultyEasy:   {1, 10},
	DifficultyMedium: {1, 50},
	DifficultyHard:   {1, 100},
}

// Range returns the inclusive operand range for d.
func (d Difficulty) Range() (int, int, error) {
	r, ok := difficultyRanges[Difficulty(strings.ToLower(string(d)))]
	if !ok {
		return 0, 0, fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", d)
	}
	return r[0], r[1], nil
}

// DefaultConfig returns an easy addition drill for username.
func DefaultConfig(username string) Config {
	return Config{
		Username:           username,
		Operations:         []Operation{OpAdd},
		NumberMin:          1,
		NumberMax:          10,
		QuestionCount:      10,
		MixedOperatorCount: 2,
	}
}
