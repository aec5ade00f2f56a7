package session

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixedSource struct {
	questions []problemgen.Question
	err       error
	calls     int
}

func (s *fixedSource) Generate(cfg problemgen.Config) ([]problemgen.Question, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]problemgen.Question(nil), s.questions...), nil
}

var threeQuestions = []problemgen.Question{
	{Expression: "1 + 2", Answer: 3, Operation: problemgen.OpAdd},
	{Expression: "9 - 4", Answer: 5, Operation: problemgen.OpSub},
	{Expression: "6 / 3", Answer: 2, Operation: problemgen.OpDiv},
}

func testEngine(t *testing.T, questions ...problemgen.Question) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	e := NewEngine(&fixedSource{questions: questions}, clock)
	e.newID = func() string { return "session-1" }
	return e, clock
}

func testCfg() problemgen.Config {
	return problemgen.DefaultConfig("ada")
}

func TestEngine_IdleOperations(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)

	assert.Equal(t, PhaseIdle, e.Phase())
	_, err := e.CurrentQuestion()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = e.SubmitAnswer("3")
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = e.Finish()
	assert.ErrorIs(t, err, ErrNotStarted)

	assert.False(t, e.MoveNext(), "MoveNext on idle engine")
	assert.Zero(t, e.ElapsedSeconds())
	assert.Zero(t, e.TotalQuestions())
	_, ok := e.LastConfig()
	assert.False(t, ok)
}

func TestEngine_EmptyAnswer_ScenarioB(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := e.SubmitAnswer(in)
		assert.ErrorIs(t, err, ErrEmptyAnswer)
	}
	assert.Zero(t, e.AnsweredCount(), "blank answers must not be recorded")
}

func TestEngine_BlankAnswerChecksSessionFirst(t *testing.T) {
	e, _ := testEngine(t, problemgen.Question{Expression: "4 + 5", Answer: 9})

	_, err := e.SubmitAnswer("")
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, e.Start(testCfg()))
	_, err = e.SubmitAnswer("9")
	require.NoError(t, err)
	assert.False(t, e.MoveNext())

	_, err = e.SubmitAnswer("  ")
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestEngine_InvalidAnswerNotRecorded(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	_, err := e.SubmitAnswer("three")
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	assert.Zero(t, e.AnsweredCount())
}

func TestEngine_SingleQuestion_ScenarioC(t *testing.T) {
	e, clock := testEngine(t, problemgen.Question{Expression: "4 + 5", Answer: 9})
	require.NoError(t, e.Start(testCfg()))
	clock.Advance(12*time.Second + 300*time.Millisecond)

	res, err := e.SubmitAnswer(" 9 ")
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{IsCorrect: true, CorrectAnswer: 9, AnsweredCount: 1, CorrectCount: 1}, res)

	assert.False(t, e.MoveNext())
	assert.True(t, e.Complete())
	assert.Equal(t, PhaseComplete, e.Phase())

	sum, err := e.Finish()
	require.NoError(t, err)
	assert.Equal(t, "session-1", sum.ID)
	assert.Equal(t, "ada", sum.Username)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 1, sum.Total)
	assert.InDelta(t, 100.0, sum.Accuracy, 1e-9)
	assert.Equal(t, 12, sum.ElapsedSeconds)
	assert.Equal(t, clock.now, sum.Timestamp)
	require.Len(t, sum.Details, 1)
	assert.Equal(t, "4 + 5", sum.Details[0].Question)
	require.NotNil(t, sum.Details[0].UserAnswer)
	assert.Equal(t, 9, *sum.Details[0].UserAnswer)
}

func TestEngine_FinishTwice_ScenarioD(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	_, err := e.Finish()
	require.NoError(t, err)
	_, err = e.Finish()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Equal(t, PhaseIdle, e.Phase())
}

func TestEngine_FullRun(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	answers := []string{"3", "4", "-2"}
	for i, a := range answers {
		q, err := e.CurrentQuestion()
		require.NoError(t, err)
		assert.Equal(t, threeQuestions[i], q)
		assert.Equal(t, i, e.CurrentIndex())

		_, err = e.SubmitAnswer(a)
		require.NoError(t, err)
		more := e.MoveNext()
		assert.Equal(t, i < len(answers)-1, more)
	}

	_, err := e.SubmitAnswer("1")
	assert.ErrorIs(t, err, ErrSessionComplete)
	_, err = e.CurrentQuestion()
	assert.ErrorIs(t, err, ErrSessionComplete)

	sum, err := e.Finish()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 3, sum.Total)
	assert.InDelta(t, 100.0/3, sum.Accuracy, 1e-9)
	assert.Len(t, sum.Incorrect(), 2)
	assert.Equal(t, -2, *sum.Details[2].UserAnswer)
}

func TestEngine_CursorNeverPassesTotal(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	for range 10 {
		e.MoveNext()
		assert.GreaterOrEqual(t, e.CurrentIndex(), 0)
		assert.LessOrEqual(t, e.CurrentIndex(), e.TotalQuestions())
		assert.LessOrEqual(t, e.AnsweredCount(), e.TotalQuestions())
	}
	assert.Equal(t, 3, e.CurrentIndex())
}

func TestEngine_ResubmitBeforeMoveNext(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	_, err := e.SubmitAnswer("5")
	require.NoError(t, err)
	_, err = e.SubmitAnswer("3")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, 1, e.AnsweredCount())
	assert.Zero(t, e.CorrectCount())

	require.True(t, e.MoveNext())
	res, err := e.SubmitAnswer("5")
	require.NoError(t, err)
	assert.Equal(t, 2, res.AnsweredCount)
	assert.Equal(t, 1, res.CorrectCount)
}

func TestEngine_SkippedQuestionsAreNotRecorded(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	e.MoveNext()
	e.MoveNext()
	_, err := e.SubmitAnswer("2")
	require.NoError(t, err)
	e.MoveNext()

	sum, err := e.Finish()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Score)
	assert.Len(t, sum.Details, 1)
}

func TestEngine_CurrentQuestionIsStable(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))

	first, err := e.CurrentQuestion()
	require.NoError(t, err)
	for range 5 {
		q, err := e.CurrentQuestion()
		require.NoError(t, err)
		assert.Equal(t, first, q)
	}
	_, err = e.SubmitAnswer("0")
	require.NoError(t, err)
	q, err := e.CurrentQuestion()
	require.NoError(t, err)
	assert.Equal(t, first, q, "submit must not advance")
}

func TestEngine_RestartDiscardsProgress(t *testing.T) {
	e, clock := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))
	_, err := e.SubmitAnswer("3")
	require.NoError(t, err)
	e.MoveNext()
	clock.Advance(time.Minute)

	require.NoError(t, e.Start(testCfg()))
	assert.Zero(t, e.CurrentIndex())
	assert.Zero(t, e.AnsweredCount())
	assert.Zero(t, e.ElapsedSeconds())
}

func TestEngine_FinishKeepsLastConfig(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	cfg := testCfg()
	cfg.Username = "grace"
	require.NoError(t, e.Start(cfg))
	_, err := e.Finish()
	require.NoError(t, err)

	last, ok := e.LastConfig()
	require.True(t, ok)
	assert.Equal(t, "grace", last.Username)
	assert.Zero(t, e.TotalQuestions())
	assert.Zero(t, e.AnsweredCount())
}

func TestEngine_SummaryIsSnapshot(t *testing.T) {
	e, _ := testEngine(t, threeQuestions...)
	require.NoError(t, e.Start(testCfg()))
	_, err := e.SubmitAnswer("3")
	require.NoError(t, err)

	sum, err := e.Finish()
	require.NoError(t, err)
	require.NoError(t, e.Start(testCfg()))
	_, err = e.SubmitAnswer("7")
	require.NoError(t, err)

	require.Len(t, sum.Details, 1)
	assert.Equal(t, 3, *sum.Details[0].UserAnswer)
}

func TestEngine_StartPropagatesGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEngine(&fixedSource{err: boom}, nil)
	err := e.Start(testCfg())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, PhaseIdle, e.Phase())
}

func TestEngine_WithRealGenerator(t *testing.T) {
	gen := problemgen.New(problemgen.NewRand(4), problemgen.DefaultOptions())
	e := NewEngine(gen, nil)
	cfg := testCfg()
	cfg.Operations = problemgen.AllOperations
	cfg.QuestionCount = 8
	require.NoError(t, e.Start(cfg))

	for {
		q, err := e.CurrentQuestion()
		require.NoError(t, err)
		res, err := e.SubmitAnswer(strconv.Itoa(q.Answer))
		require.NoError(t, err)
		assert.True(t, res.IsCorrect)
		if !e.MoveNext() {
			break
		}
	}
	sum, err := e.Finish()
	require.NoError(t, err)
	assert.Equal(t, 8, sum.Score)
	assert.NotEmpty(t, sum.ID)
}

func TestAccuracy(t *testing.T) {
	assert.Zero(t, Accuracy(0, 0))
	assert.InDelta(t, 50.0, Accuracy(1, 2), 1e-9)
	assert.InDelta(t, 100.0, Accuracy(4, 4), 1e-9)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"42", 42, nil},
		{" -7 ", -7, nil},
		{"+3", 3, nil},
		{"007", 7, nil},
		{"", 0, ErrEmptyAnswer},
		{"4.0", 0, ErrInvalidAnswer},
		{"1 2", 0, ErrInvalidAnswer},
		{"x", 0, ErrInvalidAnswer},
	}
	for _, tc := range tests {
		got, err := ParseAnswer(tc.in)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}
