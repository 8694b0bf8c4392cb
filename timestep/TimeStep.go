// Package timestep implements timesteps of the agent-environment
// interaction for a batch of parallel environments
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes how an episode ended
type EndType int

const (
	// Running indicates the episode has not ended
	Running EndType = iota

	// TerminalStateReached indicates the episode ended in a terminal
	// state of the task
	TerminalStateReached

	// Timeout indicates the episode was cut off by a step limit
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Running"
	}
}

// TimeStep packages together a single timestep of a batch of parallel
// environments. Row or element i of every field refers to environment
// i. Environments reset independently, so each has its own step number.
type TimeStep struct {
	StepType    []StepType
	EndType     []EndType
	Reward      *mat.VecDense
	Discount    float64
	Observation *mat.Dense
	Number      []int
}

// New returns a new TimeStep for a batch of environments, all of which
// have step type t and step number number.
func New(t StepType, r *mat.VecDense, d float64, o *mat.Dense,
	number int) TimeStep {
	n := r.Len()
	if rows, _ := o.Dims(); rows != n {
		panic(fmt.Sprintf("new: observation batch size %v does not match "+
			"reward batch size %v", rows, n))
	}

	stepTypes := make([]StepType, n)
	numbers := make([]int, n)
	for i := range stepTypes {
		stepTypes[i] = t
		numbers[i] = number
	}

	return TimeStep{
		StepType:    stepTypes,
		EndType:     make([]EndType, n),
		Reward:      r,
		Discount:    d,
		Observation: o,
		Number:      numbers,
	}
}

// NumEnvs returns the number of environments in the batch
func (t *TimeStep) NumEnvs() int {
	return len(t.StepType)
}

// First returns whether environment i is on its first step
func (t *TimeStep) First(i int) bool {
	return t.StepType[i] == First
}

// Mid returns whether environment i is on a middle step
func (t *TimeStep) Mid(i int) bool {
	return t.StepType[i] == Mid
}

// Last returns whether environment i is on the last step of its
// episode
func (t *TimeStep) Last(i int) bool {
	return t.StepType[i] == Last
}

// End marks environment i as ending its episode with end type e
func (t *TimeStep) End(i int, e EndType) {
	t.StepType[i] = Last
	t.EndType[i] = e
}

// AnyLast returns whether any environment is on its last step
func (t *TimeStep) AnyLast() bool {
	for i := range t.StepType {
		if t.Last(i) {
			return true
		}
	}
	return false
}

func (t TimeStep) String() string {
	str := "TimeStep | Envs: %v  |  Mean Reward:  %.2f  |  " +
		"Discount: %.2f  |  Ended: %v"

	ended := 0
	for i := range t.StepType {
		if t.Last(i) {
			ended++
		}
	}

	mean := 0.0
	if t.Reward != nil && t.Reward.Len() > 0 {
		mean = mat.Sum(t.Reward) / float64(t.Reward.Len())
	}
	return fmt.Sprintf(str, t.NumEnvs(), mean, t.Discount, ended)
}
