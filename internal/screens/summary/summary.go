package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/layout"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// Options wires the follow-up actions offered on the summary screen.
// A nil factory hides its action.
type Options struct {
	// Warning is shown above the results, e.g. when saving failed.
	Warning string

	Repeat  func() screen.Screen
	History func() screen.Screen
}

// SummaryScreen displays the result of a finished session.
type SummaryScreen struct {
	summary *session.SessionSummary
	opts    Options
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *session.SessionSummary, opts Options) *SummaryScreen {
	return &SummaryScreen{summary: summary, opts: opts}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	var hints []layout.KeyHint
	if s.opts.Repeat != nil {
		hints = append(hints, layout.HintRepeat)
	}
	if s.opts.History != nil {
		hints = append(hints, layout.HintHistory)
	}
	return append(hints, layout.KeyHint{Key: "Enter", Description: "Quit"})
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "r", "R":
		if s.opts.Repeat != nil {
			next := s.opts.Repeat()
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
		}
	case "h", "H":
		if s.opts.History != nil {
			next := s.opts.History()
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	case "enter", "esc", "q":
		return s, tea.Quit
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	if s.opts.Warning != "" {
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Inherit(theme.Warning).Render(s.opts.Warning))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(fmt.Sprintf("Well done, %s!", sum.Username)))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Score: %d/%d        Accuracy: %.1f%%        Time: %s",
		sum.Score, sum.Total, sum.Accuracy, layout.FormatElapsed(sum.ElapsedSeconds))
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Text).Render(stats))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	// Leave room for the header lines above.
	rows := DetailLines(sum.Details)
	if limit := height - 9; limit > 0 && len(rows) > limit {
		hidden := len(rows) - limit + 1
		rows = append(rows[:limit-1], fmt.Sprintf("... %d more", hidden))
	}
	for i, line := range rows {
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i < len(sum.Details) && !sum.Details[i].IsCorrect {
			style = style.Foreground(theme.Error)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}

// DetailLines renders one line per answer record.
func DetailLines(details []session.AnswerRecord) []string {
	lines := make([]string, 0, len(details))
	for i, d := range details {
		mark := "✓"
		if !d.IsCorrect {
			mark = "✗"
		}
		given := "-"
		if d.UserAnswer != nil {
			given = fmt.Sprint(*d.UserAnswer)
		}
		line := fmt.Sprintf("%2d. %s  %s = %s", i+1, mark, d.Question, given)
		if !d.IsCorrect {
			line += fmt.Sprintf("  (answer: %d)", d.CorrectAnswer)
		}
		lines = append(lines, line)
	}
	return lines
}
