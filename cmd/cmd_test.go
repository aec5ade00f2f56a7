package cmd

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathdrill/internal/controller"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/store"
)

type fixedSource []problemgen.Question

func (f fixedSource) Generate(problemgen.Config) ([]problemgen.Question, error) {
	return append([]problemgen.Question(nil), f...), nil
}

type memHistory struct{ saved []*session.SessionSummary }

func (h *memHistory) Save(_ context.Context, s *session.SessionSummary) error {
	h.saved = append(h.saved, s)
	return nil
}

func (h *memHistory) Load(context.Context, string) ([]*session.SessionSummary, error) {
	return h.saved, nil
}

func newPlainController(h *memHistory) *controller.Controller {
	src := fixedSource{
		{Expression: "2 + 3", Answer: 5, Operation: problemgen.OpAdd},
		{Expression: "8 / 2", Answer: 4, Operation: problemgen.OpDiv},
	}
	clock := session.ClockFunc(func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) })
	return controller.New(session.NewEngine(src, clock), h)
}

func plainConfig() problemgen.Config {
	cfg := problemgen.DefaultConfig("ada")
	cfg.QuestionCount = 2
	return cfg
}

func TestRunPlain_FullSession(t *testing.T) {
	h := &memHistory{}
	in := bufio.NewReader(strings.NewReader("\nabc\n5\n3\nn\n"))
	var out bytes.Buffer

	err := runPlain(context.Background(), newPlainController(h), plainConfig(), in, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "[1/2] 2 + 3 = ")
	assert.Contains(t, text, "Type an answer first.")
	assert.Contains(t, text, "Answers are whole numbers.")
	assert.Contains(t, text, "Correct!")
	assert.Contains(t, text, "Not quite. The answer is 4.")
	assert.Contains(t, text, "Score: 1/2  Accuracy: 50.0%")
	assert.Contains(t, text, "(answer: 4)")

	require.Len(t, h.saved, 1)
	assert.Equal(t, "ada", h.saved[0].Username)
}

func TestRunPlain_Repeat(t *testing.T) {
	h := &memHistory{}
	in := bufio.NewReader(strings.NewReader("5\n4\ny\n5\n4\n"))
	var out bytes.Buffer

	err := runPlain(context.Background(), newPlainController(h), plainConfig(), in, &out)
	require.NoError(t, err)

	// The second summary is saved before the repeat prompt hits EOF.
	assert.Len(t, h.saved, 2)
	assert.Equal(t, 2, strings.Count(out.String(), "Score: 2/2"))
}

func TestRunPlain_InputClosedMidSession(t *testing.T) {
	h := &memHistory{}
	in := bufio.NewReader(strings.NewReader("5\n"))
	var out bytes.Buffer

	err := runPlain(context.Background(), newPlainController(h), plainConfig(), in, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "not saved")
	assert.Empty(t, h.saved)
}

func TestRunPlain_ImageWithoutRecognizer(t *testing.T) {
	h := &memHistory{}
	in := bufio.NewReader(strings.NewReader("@/does/not/exist.png\n5\n4\n"))
	var out bytes.Buffer

	err := runPlain(context.Background(), newPlainController(h), plainConfig(), in, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Could not open that image")
	assert.Len(t, h.saved, 1)
}

func TestExportFormat(t *testing.T) {
	cases := []struct {
		format, output, want string
		wantErr              bool
	}{
		{"", "out.xlsx", "xlsx", false},
		{"", "out.XLSX", "xlsx", false},
		{"", "out.csv", "csv", false},
		{"", "-", "csv", false},
		{"CSV", "-", "csv", false},
		{"xlsx", "-", "", true},
		{"pdf", "out.pdf", "", true},
	}
	for _, tc := range cases {
		got, err := exportFormat(tc.format, tc.output)
		if tc.wantErr {
			assert.Error(t, err, "%s %s", tc.format, tc.output)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestWriteHistoryTable(t *testing.T) {
	sessions := []*session.SessionSummary{{
		ID:             "0123456789abcdef",
		Timestamp:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local),
		Username:       "小明",
		Score:          3,
		Total:          4,
		Accuracy:       75,
		ElapsedSeconds: 65,
		Operations:     []problemgen.Operation{problemgen.OpAdd, problemgen.OpMul},
	}}
	var out bytes.Buffer
	writeHistoryTable(&out, sessions)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "01234567")
	assert.Contains(t, lines[2], "2024-05-01 10:00:00")
	assert.Contains(t, lines[2], "3/4")
	assert.Contains(t, lines[2], "75.0%")
	assert.Contains(t, lines[2], "1:05")
	assert.Contains(t, lines[2], string(problemgen.OpAdd)+", "+string(problemgen.OpMul))
}

func TestFindSession(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	for _, id := range []string{"abc123", "abd456", "ffe789"} {
		require.NoError(t, st.HistoryRepo().Save(ctx, &session.SessionSummary{
			ID: id, Timestamp: time.Now(), Username: "ada", Score: 1, Total: 1, Accuracy: 100,
		}))
	}
	c := &cobra.Command{}
	c.SetContext(ctx)

	s, err := findSession(c, st, "abd456")
	require.NoError(t, err)
	assert.Equal(t, "abd456", s.ID)

	s, err = findSession(c, st, "ff")
	require.NoError(t, err)
	assert.Equal(t, "ffe789", s.ID)

	_, err = findSession(c, st, "ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = findSession(c, st, "zzz")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorContains(t, err, "zzz")
}
