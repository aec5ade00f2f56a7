// Package layout draws the frame around every screen: a header with the
// session's progress, the screen content and a footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 20

	// CompactWidth is the width below which the header drops the learner
	// and recognizer.
	CompactWidth = 100
)

// Status is the session state shown in the header.
type Status struct {
	Learner        string
	Question       int // 1-based; 0 hides the counter
	Total          int
	Correct        int
	Answered       int
	ElapsedSeconds int

	// Recognizer names the handwriting backend, empty when answers are
	// typed only.
	Recognizer string
}

// Running reports whether a session is in progress.
func (s Status) Running() bool { return s.Total > 0 }

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Hints used across the practice flow.
var (
	HintSubmit     = KeyHint{Key: "Enter", Description: "Submit"}
	HintContinue   = KeyHint{Key: "any key", Description: "Continue"}
	HintFromImage  = KeyHint{Key: "Ctrl+O", Description: "Answer from image"}
	HintReadImage  = KeyHint{Key: "Enter", Description: "Read image"}
	HintTypeAnswer = KeyHint{Key: "Ctrl+O", Description: "Type answer"}
	HintRepeat     = KeyHint{Key: "R", Description: "Repeat"}
	HintHistory    = KeyHint{Key: "H", Description: "History"}
	HintQuit       = KeyHint{Key: "Esc", Description: "Quit"}
	HintBack       = KeyHint{Key: "Esc", Description: "Back"}
)

// IsTooSmall reports whether the terminal cannot fit the practice screen.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the learner to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"The practice screen needs %d x %d.\n\nThis terminal is %d x %d.",
			MinWidth, MinHeight, width, height,
		))
}

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// RenderHeader draws the app name and learner on the left, the screen
// title and question counter in the middle, and the score, timer and
// recognizer on the right.
func RenderHeader(title string, st Status, width int) string {
	compact := width < CompactWidth

	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("mathdrill")
	if st.Learner != "" && !compact {
		left += lipgloss.NewStyle().Foreground(theme.TextDim).Render("  " + st.Learner)
	}

	center := title
	if st.Question > 0 && st.Total > 0 {
		center += fmt.Sprintf("  ·  Question %d of %d", st.Question, st.Total)
	}
	center = lipgloss.NewStyle().Foreground(theme.Text).Render(center)

	var right string
	if st.Running() {
		right = lipgloss.NewStyle().Foreground(theme.Accent).
			Render(fmt.Sprintf("✓ %d/%d   ⏱ %s", st.Correct, st.Answered, FormatElapsed(st.ElapsedSeconds)))
		if st.Recognizer != "" && !compact {
			right += lipgloss.NewStyle().Foreground(theme.TextDim).Render("   ✎ " + st.Recognizer)
		}
	}

	inner := max(width-4, 0)
	lw, cw, rw := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(right)
	leftGap := max((inner-cw)/2-lw, 1)
	rightGap := max(inner-lw-leftGap-cw-rw, 1)

	row := " " + left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
	return theme.Bar.Width(width).Render(row)
}

// RenderFooter draws hints left to right. When they do not fit, the hints
// just before the last are dropped first; the last one, the way out,
// always stays.
func RenderFooter(hints []KeyHint, width int) string {
	rendered := make([]string, len(hints))
	for i, h := range hints {
		rendered[i] = theme.Keycap.Render(h.Key) + " " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
	}

	room := max(width-6, 0)
	for len(rendered) > 1 && lipgloss.Width(strings.Join(rendered, "   ")) > room {
		rendered = append(rendered[:len(rendered)-2], rendered[len(rendered)-1])
	}

	return theme.Bar.Width(width).Render(" " + strings.Join(rendered, "   "))
}

// RenderFrame stacks header, content and footer, padding the content to
// fill the terminal.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(contentHeight).Render(content)
	return header + "\n" + body + "\n" + footer
}
