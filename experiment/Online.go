package experiment

import (
	"fmt"

	env "github.com/samuelfneumann/stackrl/environment"
	"github.com/samuelfneumann/stackrl/experiment/trackers"
	ts "github.com/samuelfneumann/stackrl/timestep"
	"github.com/samuelfneumann/stackrl/utils/progressbar"
	"github.com/samuelfneumann/stackrl/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Online is an Experiment that runs a policy online on a batch of
// environments. Each call to the environment's Step method counts as a
// single experiment step, regardless of the number of environments.
type Online struct {
	env.Environment
	policy       Policy
	step         ts.TimeStep
	maxSteps     int
	currentSteps int
	trackers     []trackers.Tracker

	bar     *progressbar.ManualProgressBar
	rewards []*mat.VecDense
	record  bool
}

// NewOnline creates and returns a new online experiment on a given
// environment, which is currently on step, with a given policy. The
// steps parameter determines how many steps the experiment is run for,
// and the t parameter is a slice of trackers.Tracker which determine
// what data is saved.
func NewOnline(e env.Environment, step ts.TimeStep, p Policy, steps int,
	t ...trackers.Tracker) *Online {
	return &Online{
		Environment: e,
		policy:      p,
		step:        step,
		maxSteps:    steps,
		trackers:    t,
	}
}

// Register registers a trackers.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// SetProgressBar sets a progress bar which is advanced and redrawn on
// every step
func (o *Online) SetProgressBar(bar *progressbar.ManualProgressBar) {
	o.bar = bar
}

// RecordRewards sets whether the reward batch of every step is kept so
// that it can be retrieved with Rewards
func (o *Online) RecordRewards(record bool) {
	o.record = record
}

// RunStep runs a single step of the experiment and returns whether the
// maximum number of steps has been reached
func (o *Online) RunStep() (bool, error) {
	if o.currentSteps >= o.maxSteps {
		return true, nil
	}

	action := o.policy.SelectAction(o.step.Observation)
	step, _, err := o.Environment.Step(action)
	if err != nil {
		return true, fmt.Errorf("runStep: %w", err)
	}
	o.step = step
	o.currentSteps++

	o.track(step)
	if o.record {
		o.rewards = append(o.rewards, mat.VecDenseCopyOf(step.Reward))
	}
	if o.bar != nil {
		o.bar.Increment(1)
		o.bar.Display()
	}

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all steps
func (o *Online) Run() error {
	for {
		ended, err := o.RunStep()
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if ended {
			return nil
		}
	}
}

// CurrentTimeStep returns the most recent timestep of the environment
func (o *Online) CurrentTimeStep() ts.TimeStep {
	return o.step
}

// Steps returns the number of steps run so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// Rewards returns the recorded reward batches as a
// (steps x environments) tensor
func (o *Online) Rewards() (*tensor.Dense, error) {
	if !o.record {
		return nil, fmt.Errorf("rewards: rewards were not recorded")
	}
	return tensorutils.Stack(o.rewards)
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}
