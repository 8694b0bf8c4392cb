package environment

import "github.com/samuelfneumann/stackrl/timestep"

// FunctionEnder ends the episode of each environment for which a
// function of the timestep returns true.
type FunctionEnder struct {
	end     func(*timestep.TimeStep) []bool
	endType timestep.EndType
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes with
// end type endType wherever f returns true. The function f must return
// one boolean per environment.
func NewFunctionEnder(f func(*timestep.TimeStep) []bool,
	endType timestep.EndType) *FunctionEnder {
	return &FunctionEnder{f, endType}
}

// End determines whether or not the current episode of each environment
// should be ended, returning whether any episode was ended.
func (f *FunctionEnder) End(t *timestep.TimeStep) bool {
	ended := false
	for i, end := range f.end(t) {
		if end && !t.Last(i) {
			t.End(i, f.endType)
			ended = true
		}
	}
	return ended
}
