package practice

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

func (s *PracticeScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.view == nil:
		return centered(width, theme.TextDim, "\n\n\n  Preparing your questions...")
	case s.confirmQuit:
		return renderQuitConfirm(width)
	}

	var b strings.Builder
	v := s.view

	progress := components.NewProgressBar(
		fmt.Sprintf("Q %d/%d", v.Number, v.Total),
		float64(v.Number-1)/float64(max(v.Total, 1)),
		false,
		min(width-8, 60),
	)
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, progress.View()))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Expression.Render(v.Expression+" = ?")))
	b.WriteString("\n\n")

	if s.feedback != nil {
		b.WriteString(s.renderFeedback(width))
		return b.String()
	}

	label := "Answer: "
	if s.imageMode {
		label = "Image: "
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, label+s.input.View()))
	b.WriteString("\n\n")

	if s.notice != "" {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Inherit(theme.Warning).
			Render(s.notice))
	}
	return b.String()
}

func (s *PracticeScreen) renderFeedback(width int) string {
	var b strings.Builder
	if s.feedback.IsCorrect {
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Inherit(theme.Correct).Render("Correct!"))
	} else {
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Inherit(theme.Incorrect).Render("Not quite"))
		b.WriteString("\n")
		b.WriteString(centered(width, theme.Text, fmt.Sprintf("The answer is %d", s.feedback.CorrectAnswer)))
	}
	b.WriteString("\n\n")

	hint := "Press any key for the next question..."
	if s.view.Number == s.view.Total {
		hint = "Press any key to see your results..."
	}
	b.WriteString(centered(width, theme.TextDim, hint))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Quit this session?"))
	b.WriteString("\n")
	b.WriteString(centered(width, theme.TextDim, "Unfinished sessions are not saved."))
	b.WriteString("\n\n")
	b.WriteString(centered(width, theme.Error, "[Y] Yes, quit"))
	b.WriteString("\n")
	b.WriteString(centered(width, theme.Primary, "[N] No, keep going"))
	return b.String()
}

func renderError(width int, errMsg string) string {
	return centered(width, theme.Error, fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to quit.", errMsg))
}

func centered(width int, fg color.Color, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(fg).
		Render(text)
}
