// Package controller drives a practice session on behalf of a user
// interface: it starts sessions, forwards answers to the engine, saves
// finished sessions and reads handwritten answers.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/recognize"
	"github.com/abhisek/mathdrill/internal/session"
)

// ErrNoPreviousSession is returned by Repeat before any session started.
var ErrNoPreviousSession = errors.New("no previous session to repeat")

// History is the persistence the controller needs.
// store.HistoryRepo satisfies it.
type History interface {
	Save(ctx context.Context, s *session.SessionSummary) error
	Load(ctx context.Context, nameFilter string) ([]*session.SessionSummary, error)
}

// QuestionView is what a UI shows for the current question.
type QuestionView struct {
	Expression     string
	Number         int // 1-based
	Total          int
	ElapsedSeconds int
	Correct        int
	Answered       int
}

// Step is the outcome of Next: either the next question or, after the
// last one, the finished session's summary.
type Step struct {
	Question *QuestionView
	Summary  *session.SessionSummary
}

// Done reports whether the session finished.
func (s Step) Done() bool { return s.Summary != nil }

// Controller coordinates one engine and its collaborators.
type Controller struct {
	engine  *session.Engine
	history History

	recognizers *recognize.Registry
	recognizer  recognize.Recognizer
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecognizers enables handwriting recognition through reg.
func WithRecognizers(reg *recognize.Registry) Option {
	return func(c *Controller) { c.recognizers = reg }
}

// New creates a controller. history may be nil, in which case finished
// sessions are not saved.
func New(engine *session.Engine, history History, opts ...Option) *Controller {
	c := &Controller{engine: engine, history: history}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine exposes the underlying engine for read-only queries.
func (c *Controller) Engine() *session.Engine { return c.engine }

// StartPractice validates cfg, starts a session and returns its first
// question.
func (c *Controller) StartPractice(cfg problemgen.Config) (QuestionView, error) {
	if err := cfg.Validate(); err != nil {
		return QuestionView{}, err
	}
	if err := c.engine.Start(cfg.Normalized()); err != nil {
		return QuestionView{}, fmt.Errorf("start practice: %w", err)
	}
	return c.Current()
}

// Current returns the view of the question at the cursor.
func (c *Controller) Current() (QuestionView, error) {
	q, err := c.engine.CurrentQuestion()
	if err != nil {
		return QuestionView{}, err
	}
	return QuestionView{
		Expression:     q.Expression,
		Number:         c.engine.CurrentIndex() + 1,
		Total:          c.engine.TotalQuestions(),
		ElapsedSeconds: c.engine.ElapsedSeconds(),
		Correct:        c.engine.CorrectCount(),
		Answered:       c.engine.AnsweredCount(),
	}, nil
}

// Submit grades answer text. Engine errors (ErrEmptyAnswer,
// ErrInvalidAnswer, ...) are returned unchanged for the UI to map.
func (c *Controller) Submit(text string) (session.SubmitResult, error) {
	return c.engine.SubmitAnswer(text)
}

// Next advances to the next question. After the last question it
// finishes the session and saves it. A save failure is returned together
// with the summary so the UI can still show the results.
func (c *Controller) Next(ctx context.Context) (Step, error) {
	if c.engine.MoveNext() {
		v, err := c.Current()
		if err != nil {
			return Step{}, err
		}
		return Step{Question: &v}, nil
	}

	summary, err := c.engine.Finish()
	if err != nil {
		return Step{}, err
	}
	step := Step{Summary: summary}
	if c.history == nil {
		return step, nil
	}
	if err := c.history.Save(ctx, summary); err != nil {
		slog.ErrorContext(ctx, "failed to save session", "session_id", summary.ID, "error", err)
		return step, fmt.Errorf("save session: %w", err)
	}
	return step, nil
}

// Repeat starts a new session with the last used config.
func (c *Controller) Repeat() (QuestionView, error) {
	cfg, ok := c.engine.LastConfig()
	if !ok {
		return QuestionView{}, ErrNoPreviousSession
	}
	return c.StartPractice(cfg)
}

// LoadHistory returns saved sessions, newest first, whose username
// contains nameFilter (case-insensitive).
func (c *Controller) LoadHistory(ctx context.Context, nameFilter string) ([]*session.SessionSummary, error) {
	if c.history == nil {
		return nil, nil
	}
	sessions, err := c.history.Load(ctx, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return sessions, nil
}

// SelectRecognizer switches the handwriting backend. An unavailable
// backend is still selected; callers should warn and keep manual input.
func (c *Controller) SelectRecognizer(ctx context.Context, key string) (recognize.Recognizer, error) {
	if c.recognizers == nil {
		return nil, errors.New("handwriting recognition is not configured")
	}
	rec, err := c.recognizers.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !rec.Available() {
		slog.WarnContext(ctx, "recognizer backend unavailable", "backend", rec.Name())
	} else {
		slog.InfoContext(ctx, "using recognizer backend", "backend", rec.Name())
	}
	c.recognizer = rec
	return rec, nil
}

// Recognizer returns the selected backend, or nil.
func (c *Controller) Recognizer() recognize.Recognizer { return c.recognizer }

// Recognize reads img with the selected backend and returns the value as
// answer text.
func (c *Controller) Recognize(ctx context.Context, img recognize.Image) (string, bool) {
	if c.recognizer == nil || !c.recognizer.Available() {
		return "", false
	}
	n, ok := c.recognizer.Recognize(ctx, img)
	if !ok {
		return "", false
	}
	return strconv.Itoa(n), true
}
