package environment

import "github.com/samuelfneumann/stackrl/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) *StepLimit {
	return &StepLimit{episodeSteps}
}

// End determines whether or not the current episode of each environment
// should be ended. Environments at or past the step limit have their
// StepType set to timestep.Last and their EndType set to
// timestep.Timeout. End returns whether any episode was ended.
func (s *StepLimit) End(t *timestep.TimeStep) bool {
	ended := false
	for i, n := range t.Number {
		if n >= s.episodeSteps && !t.Last(i) {
			t.End(i, timestep.Timeout)
			ended = true
		}
	}
	return ended
}
