package session

import (
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// Phase is the engine's lifecycle state.
type Phase int

const (
	PhaseIdle     Phase = iota // No session; only the last config is remembered
	PhaseActive                // Questions loaded, answers accumulating
	PhaseComplete              // Active, cursor past the last question; only Finish is valid
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// run is the state of one active session. The engine holds a non-nil run
// exactly when it is not idle.
type run struct {
	// Config the session was started with.
	Config problemgen.Config

	// Questions is the generated question list, fixed at start.
	Questions []problemgen.Question

	// Cursor indexes Questions; 0 <= Cursor <= len(Questions).
	Cursor int

	// Submitted is set once the question at Cursor has been graded.
	Submitted bool

	// Records holds one entry per graded submission, in order.
	Records []AnswerRecord

	// Progress tallies Records.
	Progress Progress

	// StartTime is when the session began.
	StartTime time.Time
}

func (r *run) phase() Phase {
	if r.Cursor >= len(r.Questions) {
		return PhaseComplete
	}
	return PhaseActive
}
