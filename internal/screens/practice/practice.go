// Package practice is the screen where a learner answers questions.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathdrill/internal/controller"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/recognize"
	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/screens/history"
	"github.com/abhisek/mathdrill/internal/screens/summary"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/layout"
)

const answerWidth = 12

// PracticeScreen runs one session through the controller.
type PracticeScreen struct {
	ctrl  *controller.Controller
	cfg   problemgen.Config
	start func() (controller.QuestionView, error)

	view     *controller.QuestionView
	input    components.TextInput
	feedback *session.SubmitResult

	confirmQuit bool
	imageMode   bool
	recognizing bool
	advancing   bool

	notice string
	errMsg string
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.StatusProvider = (*PracticeScreen)(nil)

// New creates a screen that starts a session with cfg.
func New(ctrl *controller.Controller, cfg problemgen.Config) *PracticeScreen {
	s := &PracticeScreen{ctrl: ctrl, cfg: cfg, input: newAnswerInput()}
	s.start = func() (controller.QuestionView, error) { return ctrl.StartPractice(cfg) }
	return s
}

// NewRepeat creates a screen that restarts the previous session's config.
func NewRepeat(ctrl *controller.Controller) *PracticeScreen {
	s := &PracticeScreen{ctrl: ctrl, input: newAnswerInput()}
	if cfg, ok := ctrl.Engine().LastConfig(); ok {
		s.cfg = cfg
	}
	s.start = ctrl.Repeat
	return s
}

func newAnswerInput() components.TextInput {
	return components.NewTextInput("Type your answer...", true, answerWidth)
}

func newPathInput() components.TextInput {
	return components.NewTextInput("Path to an image of your answer...", false, 0)
}

func (s *PracticeScreen) Init() tea.Cmd {
	start := s.start
	return tea.Batch(
		func() tea.Msg {
			v, err := start()
			return startedMsg{View: v, Err: err}
		},
		s.input.Init(),
	)
}

func (s *PracticeScreen) Title() string {
	return "Practice"
}

func (s *PracticeScreen) Status() layout.Status {
	st := layout.Status{Learner: s.cfg.Username}
	if s.view == nil {
		return st
	}
	st.Question = s.view.Number
	st.Total = s.view.Total
	st.Correct = s.view.Correct
	st.Answered = s.view.Answered
	st.ElapsedSeconds = s.view.ElapsedSeconds
	if s.canRecognize() {
		st.Recognizer = s.ctrl.Recognizer().Name()
	}
	return st
}

func (s *PracticeScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Quit"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "N", Description: "Keep going"},
			{Key: "Y", Description: "Quit"},
		}
	case s.feedback != nil:
		return []layout.KeyHint{layout.HintContinue}
	case s.imageMode:
		return []layout.KeyHint{layout.HintReadImage, layout.HintTypeAnswer, layout.HintQuit}
	}
	hints := []layout.KeyHint{layout.HintSubmit}
	if s.canRecognize() {
		hints = append(hints, layout.HintFromImage)
	}
	return append(hints, layout.HintQuit)
}

func (s *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)
	case timerTickMsg:
		return s.handleTick()
	case nextMsg:
		return s.handleNext(msg)
	case recognizedMsg:
		return s.handleRecognized(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.acceptingInput() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *PracticeScreen) acceptingInput() bool {
	return s.view != nil && s.feedback == nil && !s.confirmQuit && !s.recognizing && s.errMsg == ""
}

func (s *PracticeScreen) canRecognize() bool {
	rec := s.ctrl.Recognizer()
	return rec != nil && rec.Available()
}

func (s *PracticeScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	v := msg.View
	s.view = &v
	return s, tickCmd()
}

func (s *PracticeScreen) handleTick() (screen.Screen, tea.Cmd) {
	if s.view == nil || !s.ctrl.Engine().Active() {
		return s, nil
	}
	s.view.ElapsedSeconds = s.ctrl.Engine().ElapsedSeconds()
	return s, tickCmd()
}

func (s *PracticeScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, tea.Quit
	}
	if s.view == nil || s.advancing {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			return s, tea.Quit
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if s.feedback != nil {
		s.advancing = true
		return s, s.nextCmd()
	}
	if s.recognizing {
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "ctrl+o":
		return s.toggleImageMode()
	case "enter":
		if s.imageMode {
			return s.readImage()
		}
		return s.submitAnswer()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *PracticeScreen) submitAnswer() (screen.Screen, tea.Cmd) {
	res, err := s.ctrl.Submit(s.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyAnswer):
		s.notice = "Type an answer first."
		return s, nil
	case errors.Is(err, session.ErrInvalidAnswer):
		s.notice = "Answers are whole numbers."
		return s, nil
	case err != nil:
		s.errMsg = err.Error()
		return s, nil
	}

	s.notice = ""
	s.feedback = &res
	s.view.Answered = res.AnsweredCount
	s.view.Correct = res.CorrectCount
	s.input.Submit(res.IsCorrect)
	return s, nil
}

func (s *PracticeScreen) nextCmd() tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		step, err := ctrl.Next(context.Background())
		return nextMsg{Step: step, Err: err}
	}
}

func (s *PracticeScreen) handleNext(msg nextMsg) (screen.Screen, tea.Cmd) {
	s.advancing = false
	if msg.Step.Done() {
		var warning string
		if msg.Err != nil {
			warning = "Could not save this session: " + msg.Err.Error()
		}
		next := summary.New(msg.Step.Summary, summary.Options{
			Warning: warning,
			Repeat:  func() screen.Screen { return NewRepeat(s.ctrl) },
			History: func() screen.Screen { return history.New(s.ctrl, s.cfg.Username) },
		})
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	}
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}

	s.view = msg.Step.Question
	s.feedback = nil
	s.notice = ""
	s.imageMode = false
	s.input = newAnswerInput()
	return s, s.input.Init()
}

func (s *PracticeScreen) toggleImageMode() (screen.Screen, tea.Cmd) {
	if s.imageMode {
		s.imageMode = false
		s.input = newAnswerInput()
		s.notice = ""
		return s, s.input.Init()
	}
	if !s.canRecognize() {
		s.notice = "Handwriting recognition is not available. Type your answer."
		return s, nil
	}
	s.imageMode = true
	s.input = newPathInput()
	s.notice = ""
	return s, s.input.Init()
}

func (s *PracticeScreen) readImage() (screen.Screen, tea.Cmd) {
	path := strings.TrimSpace(s.input.Value())
	if path == "" {
		s.notice = "Enter the path of an image file."
		return s, nil
	}
	s.recognizing = true
	s.notice = "Reading your answer..."
	ctrl := s.ctrl
	return s, func() tea.Msg {
		img, err := recognize.LoadImage(path)
		if err != nil {
			return recognizedMsg{Err: err}
		}
		text, ok := ctrl.Recognize(context.Background(), img)
		return recognizedMsg{Text: text, OK: ok}
	}
}

func (s *PracticeScreen) handleRecognized(msg recognizedMsg) (screen.Screen, tea.Cmd) {
	s.recognizing = false
	s.imageMode = false
	s.input = newAnswerInput()

	switch {
	case msg.Err != nil:
		slog.Warn("could not load answer image", "error", msg.Err)
		s.notice = "Could not open that image: " + msg.Err.Error()
	case !msg.OK:
		s.notice = "No number found in the image. Type your answer."
	default:
		s.input.SetValue(msg.Text)
		s.notice = fmt.Sprintf("Read %s from the image. Press Enter to submit.", msg.Text)
	}
	return s, s.input.Init()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}
