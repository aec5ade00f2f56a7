package controller

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/recognize"
	"github.com/abhisek/mathdrill/internal/session"
)

type memHistory struct {
	saved   []*session.SessionSummary
	saveErr error
}

func (h *memHistory) Save(_ context.Context, s *session.SessionSummary) error {
	if h.saveErr != nil {
		return h.saveErr
	}
	h.saved = append(h.saved, s)
	return nil
}

func (h *memHistory) Load(context.Context, string) ([]*session.SessionSummary, error) {
	return h.saved, nil
}

type fixedRecognizer struct {
	value     int
	ok        bool
	available bool
}

func (r fixedRecognizer) Recognize(context.Context, recognize.Image) (int, bool) { return r.value, r.ok }
func (r fixedRecognizer) Name() string                                            { return "fixed" }
func (r fixedRecognizer) Available() bool                                         { return r.available }

func newTestController(t *testing.T, h History, opts ...Option) *Controller {
	t.Helper()
	gen := problemgen.New(problemgen.NewRand(7), problemgen.DefaultOptions())
	clock := session.ClockFunc(func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) })
	return New(session.NewEngine(gen, clock), h, opts...)
}

func smallConfig(count int) problemgen.Config {
	cfg := problemgen.DefaultConfig("ada")
	cfg.QuestionCount = count
	return cfg
}

func answerCurrent(t *testing.T, c *Controller, correct bool) session.SubmitResult {
	t.Helper()
	q, err := c.Engine().CurrentQuestion()
	require.NoError(t, err)
	a := q.Answer
	if !correct {
		a++
	}
	res, err := c.Submit(strconv.Itoa(a))
	require.NoError(t, err)
	return res
}

func TestController_StartPracticeRejectsInvalidConfig(t *testing.T) {
	c := newTestController(t, nil)
	cfg := smallConfig(3)
	cfg.Username = "  "

	_, err := c.StartPractice(cfg)
	assert.ErrorIs(t, err, problemgen.ErrInvalidConfig)
	assert.False(t, c.Engine().Active())
}

func TestController_FullSessionIsSaved(t *testing.T) {
	h := &memHistory{}
	c := newTestController(t, h)

	v, err := c.StartPractice(smallConfig(2))
	require.NoError(t, err)
	assert.Equal(t, 1, v.Number)
	assert.Equal(t, 2, v.Total)
	assert.NotEmpty(t, v.Expression)

	res := answerCurrent(t, c, true)
	assert.True(t, res.IsCorrect)

	step, err := c.Next(context.Background())
	require.NoError(t, err)
	require.False(t, step.Done())
	assert.Equal(t, 2, step.Question.Number)
	assert.Equal(t, 1, step.Question.Correct)
	assert.Equal(t, 1, step.Question.Answered)

	res = answerCurrent(t, c, false)
	assert.False(t, res.IsCorrect)

	step, err = c.Next(context.Background())
	require.NoError(t, err)
	require.True(t, step.Done())
	assert.Equal(t, 1, step.Summary.Score)
	assert.Equal(t, 2, step.Summary.Total)
	assert.InDelta(t, 50.0, step.Summary.Accuracy, 0.001)
	require.Len(t, h.saved, 1)
	assert.Same(t, step.Summary, h.saved[0])

	sessions, err := c.LoadHistory(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestController_SaveFailureStillReturnsSummary(t *testing.T) {
	h := &memHistory{saveErr: errors.New("disk full")}
	c := newTestController(t, h)

	_, err := c.StartPractice(smallConfig(1))
	require.NoError(t, err)
	answerCurrent(t, c, true)

	step, err := c.Next(context.Background())
	assert.Error(t, err)
	require.True(t, step.Done())
	assert.Equal(t, 1, step.Summary.Score)
}

func TestController_NextWhenIdle(t *testing.T) {
	c := newTestController(t, nil)
	_, err := c.Next(context.Background())
	assert.ErrorIs(t, err, session.ErrNotStarted)
}

func TestController_Repeat(t *testing.T) {
	c := newTestController(t, nil)

	_, err := c.Repeat()
	assert.ErrorIs(t, err, ErrNoPreviousSession)

	_, err = c.StartPractice(smallConfig(1))
	require.NoError(t, err)
	answerCurrent(t, c, true)
	_, err = c.Next(context.Background())
	require.NoError(t, err)

	v, err := c.Repeat()
	require.NoError(t, err)
	assert.Equal(t, 1, v.Number)
	assert.Equal(t, 1, v.Total)
	assert.Equal(t, 0, v.Answered)
}

func TestController_SubmitErrorsPassThrough(t *testing.T) {
	c := newTestController(t, nil)
	_, err := c.Submit("")
	assert.ErrorIs(t, err, session.ErrNotStarted)

	_, err = c.StartPractice(smallConfig(2))
	require.NoError(t, err)

	_, err = c.Submit("")
	assert.ErrorIs(t, err, session.ErrEmptyAnswer)
	_, err = c.Submit("abc")
	assert.ErrorIs(t, err, session.ErrInvalidAnswer)
}

func TestController_Recognize(t *testing.T) {
	reg := recognize.NewRegistry()
	reg.Register("fixed", func(context.Context) (recognize.Recognizer, error) {
		return fixedRecognizer{value: 42, ok: true, available: true}, nil
	})
	reg.Register("offline", func(context.Context) (recognize.Recognizer, error) {
		return fixedRecognizer{value: 42, ok: true}, nil
	})
	c := newTestController(t, nil, WithRecognizers(reg))
	ctx := context.Background()

	text, ok := c.Recognize(ctx, recognize.Image{})
	assert.False(t, ok, "no backend selected")
	assert.Empty(t, text)

	_, err := c.SelectRecognizer(ctx, "fixed")
	require.NoError(t, err)
	text, ok = c.Recognize(ctx, recognize.Image{})
	assert.True(t, ok)
	assert.Equal(t, "42", text)

	rec, err := c.SelectRecognizer(ctx, "offline")
	require.NoError(t, err)
	assert.False(t, rec.Available())
	_, ok = c.Recognize(ctx, recognize.Image{})
	assert.False(t, ok)

	_, err = c.SelectRecognizer(ctx, "missing")
	assert.Error(t, err)
}

func TestController_SelectRecognizerWithoutRegistry(t *testing.T) {
	c := newTestController(t, nil)
	_, err := c.SelectRecognizer(context.Background(), recognize.KeyNone)
	assert.Error(t, err)
}
