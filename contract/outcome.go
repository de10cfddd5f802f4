package contract

import (
	"math"
	"time"
)

// Outcome is the result of one contract attempt. It is created once and never
// mutated.
type Outcome struct {
	ID       ID
	Status   Status
	Duration time.Duration
	FilePath string // empty when nothing was downloaded
}

// NewOutcome builds an outcome, clamping negative durations to zero.
func NewOutcome(id ID, status Status, d time.Duration, path string) Outcome {
	if d < 0 {
		d = 0
	}
	return Outcome{ID: id, Status: status, Duration: d, FilePath: path}
}

// Seconds is the duration in seconds rounded to two decimals.
func (o Outcome) Seconds() float64 {
	return math.Round(o.Duration.Seconds()*100) / 100
}

// Log is the append-only record of a batch. The runner owns it; it is not
// safe for concurrent use.
type Log struct {
	outcomes []Outcome
}

// NewLog returns an empty log.
func NewLog() *Log { return &Log{} }

// Append adds o at the end.
func (l *Log) Append(o Outcome) {
	l.outcomes = append(l.outcomes, o)
}

// Len returns the number of recorded outcomes.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.outcomes)
}

// Outcomes returns a copy of the recorded outcomes in insertion order.
func (l *Log) Outcomes() []Outcome {
	if l == nil {
		return nil
	}
	out := make([]Outcome, len(l.outcomes))
	copy(out, l.outcomes)
	return out
}
