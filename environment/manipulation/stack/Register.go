package stack

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/stackrl/agent/ppo"
	"github.com/samuelfneumann/stackrl/environment/registry"
)

// Registered task identifiers
const (
	StackID     = "Template-Stack-v0"
	StackPlayID = "Template-Stack-Play-v0"
)

// EntryPoint is the entry point of environments registered by this
// package
const EntryPoint = "stack:Kinematic"

// SKRLCfgEntryPoint refers to the PPO configuration used to train on
// the registered tasks
const SKRLCfgEntryPoint = ppo.EntryPointPrefix + "skrl_ppo_cfg.yaml"

func init() {
	registry.MustRegister(registry.EnvSpec{
		ID:                StackID,
		EntryPoint:        EntryPoint,
		DisableEnvChecker: true,
		Kwargs: map[string]string{
			registry.EnvCfgEntryPoint:  "stack:FrankaCubeStackEnvCfg",
			registry.SKRLCfgEntryPoint: SKRLCfgEntryPoint,
		},
	})

	registry.MustRegister(registry.EnvSpec{
		ID:                StackPlayID,
		EntryPoint:        EntryPoint,
		DisableEnvChecker: true,
		Kwargs: map[string]string{
			registry.EnvCfgEntryPoint:  "stack:FrankaCubeStackEnvCfg_PLAY",
			registry.SKRLCfgEntryPoint: SKRLCfgEntryPoint,
		},
	})
}

// ResolveEnvCfg returns the environment configuration that a registered
// task identifier points at. Entry points which are not configuration
// constructors of this package are treated as JSON file paths.
func ResolveEnvCfg(id string) (EnvCfg, error) {
	spec, err := registry.Spec(id)
	if err != nil {
		return EnvCfg{}, fmt.Errorf("resolveEnvCfg: %w", err)
	}
	entryPoint, err := spec.Kwarg(registry.EnvCfgEntryPoint)
	if err != nil {
		return EnvCfg{}, fmt.Errorf("resolveEnvCfg: %w", err)
	}

	if create, ok := EnvCfgs[entryPoint]; ok {
		return create(), nil
	}
	if strings.HasPrefix(entryPoint, "stack:") {
		return EnvCfg{}, fmt.Errorf("resolveEnvCfg: %v: unknown "+
			"configuration %q", id, entryPoint)
	}

	cfg, err := LoadEnvCfg(entryPoint)
	if err != nil {
		return EnvCfg{}, fmt.Errorf("resolveEnvCfg: %w", err)
	}
	return cfg, nil
}

// ResolveAgentCfg returns the PPO configuration that a registered task
// identifier points at
func ResolveAgentCfg(id string) (ppo.Config, error) {
	spec, err := registry.Spec(id)
	if err != nil {
		return ppo.Config{}, fmt.Errorf("resolveAgentCfg: %w", err)
	}
	entryPoint, err := spec.Kwarg(registry.SKRLCfgEntryPoint)
	if err != nil {
		return ppo.Config{}, fmt.Errorf("resolveAgentCfg: %w", err)
	}

	cfg, err := ppo.Load(entryPoint)
	if err != nil {
		return ppo.Config{}, fmt.Errorf("resolveAgentCfg: %w", err)
	}
	return cfg, nil
}
