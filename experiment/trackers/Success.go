package trackers

import (
	ts "github.com/samuelfneumann/stackrl/timestep"
)

// Success tracks whether each finished episode ended by reaching the
// goal of the task. Each finished episode is recorded as 1.0 if it
// ended in a terminal state and 0.0 if it was cut off.
type Success struct {
	outcomes []float64
	filename string
}

// NewSuccess returns a new Success tracker which saves its data to
// filename
func NewSuccess(filename string) *Success {
	return &Success{filename: filename}
}

// Track records the outcome of each episode which ends on step
func (s *Success) Track(step ts.TimeStep) {
	for i := 0; i < step.NumEnvs(); i++ {
		if !step.Last(i) {
			continue
		}
		if step.EndType[i] == ts.TerminalStateReached {
			s.outcomes = append(s.outcomes, 1.0)
		} else {
			s.outcomes = append(s.outcomes, 0.0)
		}
	}
}

// Episodes returns the number of finished episodes
func (s *Success) Episodes() int {
	return len(s.outcomes)
}

// Rate returns the fraction of finished episodes which reached the
// goal, or 0 if no episode has finished
func (s *Success) Rate() float64 {
	if len(s.outcomes) == 0 {
		return 0.0
	}

	total := 0.0
	for _, o := range s.outcomes {
		total += o
	}
	return total / float64(len(s.outcomes))
}

// Save saves the outcome of each finished episode to disk
func (s *Success) Save() error {
	return save(s.filename, s.outcomes)
}
