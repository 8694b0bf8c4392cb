// Package envconfig provides configuration structs for configuring
// registered environments. Environment configurations in this package
// are JSON serializable.
package envconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/stackrl/environment/manipulation/stack"
	"github.com/samuelfneumann/stackrl/environment/registry"
	ts "github.com/samuelfneumann/stackrl/timestep"
)

// Config implements a configuration of a registered task. Zero values of
// NumEnvs and EpisodeCutoff keep the values of the registered
// environment configuration.
type Config struct {
	TaskID        string
	NumEnvs       int
	EpisodeCutoff int
	Seed          uint64
	Discount      float64
}

// NewConfig returns a new environment Config
func NewConfig(taskID string, numEnvs, episodeCutoff int, seed uint64,
	discount float64) Config {
	return Config{
		TaskID:        taskID,
		NumEnvs:       numEnvs,
		EpisodeCutoff: episodeCutoff,
		Seed:          seed,
		Discount:      discount,
	}
}

// Load reads a Config from the JSON file at path
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	var c Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("load: %v: %w", path, err)
	}
	return c, nil
}

// Save writes the Config as JSON to path
func (c Config) Save(path string) error {
	raw, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// EnvCfg resolves the registered environment configuration of the task
// and applies the overrides of the Config
func (c Config) EnvCfg() (stack.EnvCfg, error) {
	if c.NumEnvs < 0 || c.EpisodeCutoff < 0 {
		return stack.EnvCfg{}, fmt.Errorf("envCfg: negative overrides "+
			"\n\tnumEnvs(%v) \n\tepisodeCutoff(%v)", c.NumEnvs,
			c.EpisodeCutoff)
	}

	cfg, err := stack.ResolveEnvCfg(c.TaskID)
	if err != nil {
		return stack.EnvCfg{}, fmt.Errorf("envCfg: %w", err)
	}
	if c.NumEnvs > 0 {
		cfg.NumEnvs = c.NumEnvs
	}
	if c.EpisodeCutoff > 0 {
		cfg.EpisodeLength = c.EpisodeCutoff
	}
	return cfg, nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create() (*stack.Kinematic, ts.TimeStep, error) {
	spec, err := registry.Spec(c.TaskID)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	if spec.EntryPoint != stack.EntryPoint {
		return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
			"environment %v with entry point %q", c.TaskID, spec.EntryPoint)
	}

	cfg, err := c.EnvCfg()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	env, step, err := stack.NewKinematic(cfg, c.Seed, c.Discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return env, step, nil
}
