// Package experiment implements functionality for running an experiment
// on a batch of environments
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/stackrl/environment/envconfig"
	"github.com/samuelfneumann/stackrl/experiment/trackers"
	"gonum.org/v1/gonum/mat"
)

// Policy selects a batch of actions, one row per environment, given a
// batch of observations
type Policy interface {
	SelectAction(obs *mat.Dense) *mat.Dense
}

// Interface Experiment outlines structs that can run experiments.
// Experiments send every TimeStep of the environment to Trackers using
// the Tracker's Track() method. The Save() method then has every
// Tracker save its data to disk. Run() runs the experiment until the
// maximum number of steps is reached.
type Experiment interface {
	Run() error

	// Save all tracked data to disk
	Save() error

	// Adds a new trackers.Tracker to the (possibly already running)
	// experiment
	Register(t trackers.Tracker)
}

// Config represents a configuration of an experiment
type Config struct {
	MaxSteps int
	EnvConf  envconfig.Config
}

// CreateExp creates an online experiment on the configured environment
// with policy p
func (c Config) CreateExp(p Policy, t ...trackers.Tracker) (*Online,
	error) {
	env, step, err := c.EnvConf.Create()
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %w",
			err)
	}

	return NewOnline(env, step, p, c.MaxSteps, t...), nil
}
