package session

// Progress tracks running totals for the active session.
type Progress struct {
	Answered int
	Correct  int
}

// Record adds one graded answer.
func (p *Progress) Record(correct bool) {
	p.Answered++
	if correct {
		p.Correct++
	}
}

// Accuracy returns correct/total as a percentage, or 0 when total is 0.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
