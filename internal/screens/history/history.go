package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/screens/summary"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/layout"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// Loader reads saved sessions; controller.Controller implements it.
type Loader interface {
	LoadHistory(ctx context.Context, nameFilter string) ([]*session.SessionSummary, error)
}

type historyLoadedMsg struct {
	Sessions []*session.SessionSummary
	Err      error
}

// HistoryScreen lists past sessions for a username filter.
type HistoryScreen struct {
	loader   Loader
	filter   string
	sessions []*session.SessionSummary
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string

	editing bool
	input   components.TextInput
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen showing sessions whose username contains
// filter.
func New(loader Loader, filter string) *HistoryScreen {
	return &HistoryScreen{
		loader:   loader,
		filter:   filter,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return s.load()
}

func (s *HistoryScreen) load() tea.Cmd {
	loader, filter := s.loader, s.filter
	return func() tea.Msg {
		sessions, err := loader.LoadHistory(context.Background(), filter)
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	if s.filter == "" {
		return "History"
	}
	return fmt.Sprintf("History: %s", s.filter)
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.editing {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "/", Description: "Filter"},
		layout.HintBack,
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.errMsg = ""
			s.sessions = msg.Sessions
		}
		s.loaded = true
		s.selected = 0
		s.expanded = make(map[int]bool)
		return s, nil

	case tea.KeyPressMsg:
		if s.editing {
			return s.updateFilter(msg)
		}
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
		case "enter", "space":
			s.expanded[s.selected] = !s.expanded[s.selected]
		case "/":
			s.editing = true
			s.input = components.NewTextInput("username", false, 40)
			s.input.SetValue(s.filter)
			return s, s.input.Init()
		}
	}
	return s, nil
}

func (s *HistoryScreen) updateFilter(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.editing = false
		return s, nil
	case "enter":
		s.editing = false
		s.filter = strings.TrimSpace(s.input.Value())
		s.loaded = false
		return s, s.load()
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *HistoryScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	if s.editing {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, "Filter: "+s.input.View()))
		b.WriteString("\n\n")
	}

	switch {
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\nError: %s", s.errMsg)))
		return b.String()
	case !s.loaded:
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n  Loading history..."))
		return b.String()
	case len(s.sessions) == 0:
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n  No sessions yet. Start practicing!"))
		return b.String()
	}

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := prefix + Row(sess)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			details := summary.DetailLines(sess.Details)
			if len(details) == 0 {
				details = []string{"No answers recorded"}
			}
			for _, d := range details {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Render("    "+d)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// Row renders a one-line description of a saved session.
func Row(s *session.SessionSummary) string {
	return fmt.Sprintf("%s  %-12s  %d/%d  %5.1f%%  %s",
		s.Timestamp.Local().Format("Jan 02 15:04"),
		s.Username,
		s.Score, s.Total,
		s.Accuracy,
		layout.FormatElapsed(s.ElapsedSeconds))
}
