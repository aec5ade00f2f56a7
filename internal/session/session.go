// Package session runs one practice session at a time: it loads generated
// questions, grades answers, advances the cursor and produces the final
// summary. An Engine is not safe for concurrent use; create one per
// learner.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

var (
	// ErrNotStarted is returned when an operation needs an active session.
	ErrNotStarted = errors.New("session not started")

	// ErrEmptyAnswer is returned for blank answer text.
	ErrEmptyAnswer = errors.New("empty answer")

	// ErrSessionComplete is returned when every question has been passed.
	ErrSessionComplete = errors.New("session already complete")

	// ErrInvalidAnswer is returned for text that is not a base-10 integer.
	ErrInvalidAnswer = errors.New("answer is not a whole number")

	// ErrAlreadyAnswered is returned for a second submission before MoveNext.
	ErrAlreadyAnswered = errors.New("question already answered")
)

// QuestionSource produces the question list for a session.
// *problemgen.Generator satisfies it.
type QuestionSource interface {
	Generate(cfg problemgen.Config) ([]problemgen.Question, error)
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Engine is the session state machine.
type Engine struct {
	source QuestionSource
	clock  Clock
	newID  func() string

	run        *run
	lastConfig *problemgen.Config
}

// NewEngine creates an idle engine. A nil clock uses SystemClock.
func NewEngine(source QuestionSource, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{
		source: source,
		clock:  clock,
		newID:  uuid.NewString,
	}
}

// Start generates questions for cfg and begins a new session, discarding
// any session in progress.
func (e *Engine) Start(cfg problemgen.Config) error {
	questions, err := e.source.Generate(cfg)
	if err != nil {
		return fmt.Errorf("generate questions: %w", err)
	}
	e.run = &run{
		Config:    cfg,
		Questions: questions,
		StartTime: e.clock.Now(),
	}
	e.lastConfig = &cfg
	return nil
}

// Phase returns the current lifecycle state.
func (e *Engine) Phase() Phase {
	if e.run == nil {
		return PhaseIdle
	}
	return e.run.phase()
}

// Active reports whether a session is in progress.
func (e *Engine) Active() bool {
	return e.run != nil
}

// Complete reports whether every question has been passed.
func (e *Engine) Complete() bool {
	return e.Phase() == PhaseComplete
}

// LastConfig returns the config of the most recent Start, kept across
// Finish so the same settings can be replayed.
func (e *Engine) LastConfig() (problemgen.Config, bool) {
	if e.lastConfig == nil {
		return problemgen.Config{}, false
	}
	return *e.lastConfig, true
}

// CurrentQuestion returns the question at the cursor.
func (e *Engine) CurrentQuestion() (problemgen.Question, error) {
	switch e.Phase() {
	case PhaseIdle:
		return problemgen.Question{}, ErrNotStarted
	case PhaseComplete:
		return problemgen.Question{}, ErrSessionComplete
	}
	return e.run.Questions[e.run.Cursor], nil
}

// SubmitAnswer grades text against the current question and records the
// attempt. It does not advance the cursor. Session state is checked before
// the text, so a blank answer with no session is ErrNotStarted.
func (e *Engine) SubmitAnswer(text string) (SubmitResult, error) {
	switch e.Phase() {
	case PhaseIdle:
		return SubmitResult{}, ErrNotStarted
	case PhaseComplete:
		return SubmitResult{}, ErrSessionComplete
	}
	if strings.TrimSpace(text) == "" {
		return SubmitResult{}, ErrEmptyAnswer
	}

	r := e.run
	if r.Submitted {
		return SubmitResult{}, ErrAlreadyAnswered
	}
	answer, err := ParseAnswer(text)
	if err != nil {
		return SubmitResult{}, err
	}

	q := r.Questions[r.Cursor]
	correct := answer == q.Answer
	r.Records = append(r.Records, AnswerRecord{
		Question:      q.Expression,
		UserAnswer:    &answer,
		CorrectAnswer: q.Answer,
		IsCorrect:     correct,
	})
	r.Progress.Record(correct)
	r.Submitted = true

	return SubmitResult{
		IsCorrect:     correct,
		CorrectAnswer: q.Answer,
		AnsweredCount: r.Progress.Answered,
		CorrectCount:  r.Progress.Correct,
	}, nil
}

// MoveNext advances the cursor and reports whether questions remain.
// It returns false without error when no session is active.
func (e *Engine) MoveNext() bool {
	if e.run == nil {
		return false
	}
	if e.run.Cursor < len(e.run.Questions) {
		e.run.Cursor++
		e.run.Submitted = false
	}
	return e.run.Cursor < len(e.run.Questions)
}

// Finish ends the session and returns its summary. The engine returns to
// idle but keeps the config for LastConfig.
func (e *Engine) Finish() (*SessionSummary, error) {
	r := e.run
	if r == nil {
		return nil, ErrNotStarted
	}

	now := e.clock.Now()
	total := len(r.Questions)
	summary := &SessionSummary{
		ID:             e.newID(),
		Timestamp:      now,
		Username:       r.Config.Username,
		Score:          r.Progress.Correct,
		Total:          total,
		Accuracy:       Accuracy(r.Progress.Correct, total),
		ElapsedSeconds: elapsedSeconds(r.StartTime, now),
		Details:        append([]AnswerRecord(nil), r.Records...),
		Operations:     append([]problemgen.Operation(nil), r.Config.Operations...),
		NumberMin:      r.Config.NumberMin,
		NumberMax:      r.Config.NumberMax,
	}

	e.run = nil
	return summary, nil
}

// CurrentIndex returns the zero-based cursor, or 0 when idle.
func (e *Engine) CurrentIndex() int {
	if e.run == nil {
		return 0
	}
	return e.run.Cursor
}

// TotalQuestions returns the size of the active question list.
func (e *Engine) TotalQuestions() int {
	if e.run == nil {
		return 0
	}
	return len(e.run.Questions)
}

// AnsweredCount returns the number of graded submissions.
func (e *Engine) AnsweredCount() int {
	if e.run == nil {
		return 0
	}
	return e.run.Progress.Answered
}

// CorrectCount returns the number of correct submissions.
func (e *Engine) CorrectCount() int {
	if e.run == nil {
		return 0
	}
	return e.run.Progress.Correct
}

// ElapsedSeconds returns whole seconds since Start, or 0 when idle.
func (e *Engine) ElapsedSeconds() int {
	if e.run == nil {
		return 0
	}
	return elapsedSeconds(e.run.StartTime, e.clock.Now())
}

func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// ParseAnswer parses answer text: surrounding whitespace, an optional sign
// and base-10 digits.
func ParseAnswer(text string) (int, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, ErrEmptyAnswer
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
	}
	return n, nil
}
