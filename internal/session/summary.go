package session

import (
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// TimestampLayout is how summary timestamps are rendered in exports.
const TimestampLayout = "2006-01-02 15:04:05"

// AnswerRecord is one graded attempt.
type AnswerRecord struct {
	Question string `json:"question"`

	// UserAnswer is nil only for records decoded from incomplete history.
	UserAnswer *int `json:"user_answer"`

	CorrectAnswer int  `json:"correct_answer"`
	IsCorrect     bool `json:"is_correct"`
}

// SubmitResult reports one grading call with running totals after it.
type SubmitResult struct {
	IsCorrect     bool
	CorrectAnswer int
	AnsweredCount int
	CorrectCount  int
}

// SessionSummary is the immutable result of a finished session.
type SessionSummary struct {
	ID             string
	Timestamp      time.Time
	Username       string
	Score          int
	Total          int
	Accuracy       float64 // percentage, 0-100
	ElapsedSeconds int
	Details        []AnswerRecord

	// Settings the session was played with, kept for history display.
	Operations []problemgen.Operation
	NumberMin  int
	NumberMax  int
}

// Incorrect returns the records the learner got wrong.
func (s *SessionSummary) Incorrect() []AnswerRecord {
	var out []AnswerRecord
	for _, d := range s.Details {
		if !d.IsCorrect {
			out = append(out, d)
		}
	}
	return out
}

// Elapsed returns ElapsedSeconds as a Duration.
func (s *SessionSummary) Elapsed() time.Duration {
	return time.Duration(s.ElapsedSeconds) * time.Second
}
