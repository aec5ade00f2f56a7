// Package theme holds the colours and styles shared by the practice,
// results and history screens.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette. The bars sit on Chalk; feedback uses Success and Error.
var (
	Primary = lipgloss.Color("#60A5FA") // sky
	Accent  = lipgloss.Color("#FBBF24") // amber, the running score
	Success = lipgloss.Color("#4ADE80")
	Error   = lipgloss.Color("#F87171")
	Text    = lipgloss.Color("#F1F5F9")
	TextDim = lipgloss.Color("#9CA3AF")
	Chalk   = lipgloss.Color("#1F2937")
	Border  = lipgloss.Color("#374151")
)

// Expression is the question line on the practice screen.
var Expression = lipgloss.NewStyle().
	Foreground(Text).
	Bold(true).
	Padding(1, 4).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary)

// Answer feedback.
var (
	Correct   = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Incorrect = lipgloss.NewStyle().Foreground(Error).Bold(true)
	Warning   = lipgloss.NewStyle().Foreground(Accent)
)

// Bar frames the header and footer.
var Bar = lipgloss.NewStyle().
	Background(Chalk).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border)

// Keycap renders the key of a footer hint.
var Keycap = lipgloss.NewStyle().Foreground(Chalk).Background(TextDim).Bold(true).Padding(0, 1)

// Question progress bar.
var (
	ProgressFilled = lipgloss.NewStyle().Background(Primary)
	ProgressEmpty  = lipgloss.NewStyle().Background(Border)
)
