package practice

import (
	"time"

	"github.com/abhisek/mathdrill/internal/controller"
)

// startedMsg carries the first question of a new session.
type startedMsg struct {
	View controller.QuestionView
	Err  error
}

// timerTickMsg is sent every second to refresh the elapsed time.
type timerTickMsg time.Time

// nextMsg carries the result of advancing past a graded question.
type nextMsg struct {
	Step controller.Step
	Err  error
}

// recognizedMsg carries the answer read from an image.
type recognizedMsg struct {
	Text string
	OK   bool
	Err  error
}
