// Package environment outlines the interfaces and structs needed to
// implement batched environments, in which many copies of a task are
// simulated in parallel.
package environment

import (
	"github.com/samuelfneumann/stackrl/environment/scene"
	"github.com/samuelfneumann/stackrl/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments. Start returns one starting state
// per row.
type Starter interface {
	Start(n int) *mat.Dense
}

// Ender determines when episodes end. End marks each environment whose
// episode should end as timestep.Last and returns whether any episode
// ended.
type Ender interface {
	End(t *timestep.TimeStep) bool
}

// Task implements the reward scheme for acting in some environment.
// Rewards and goals are computed from the scene snapshot of the current
// step, one value per parallel environment.
type Task interface {
	Ender
	GetReward(s *scene.Snapshot) (*mat.VecDense, error)
	AtGoal(s *scene.Snapshot) ([]bool, error)
}

// Environment implements a batch of simulated environments, which
// includes a Task to complete
type Environment interface {
	Task
	NumEnvs() int
	Scene() *scene.Snapshot
	Reset() (timestep.TimeStep, error)
	Step(action *mat.Dense) (timestep.TimeStep, bool, error)
	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
