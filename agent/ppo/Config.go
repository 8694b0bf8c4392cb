// Package ppo implements the training algorithm configuration of
// Proximal Policy Optimization agents, in the YAML layout used by the
// skrl library. Task registrations refer to these configurations by
// entry point.
package ppo

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EntryPointPrefix prefixes entry points which refer to the
// configurations bundled with this package
const EntryPointPrefix = "agents:"

//go:embed *.yaml
var bundled embed.FS

// Config is a PPO training configuration
type Config struct {
	Seed    int           `yaml:"seed"`
	Models  ModelsConfig  `yaml:"models"`
	Memory  MemoryConfig  `yaml:"memory"`
	Agent   AgentConfig   `yaml:"agent"`
	Trainer TrainerConfig `yaml:"trainer"`
}

// ModelsConfig configures the policy and value models
type ModelsConfig struct {
	Separate bool        `yaml:"separate"`
	Policy   ModelConfig `yaml:"policy"`
	Value    ModelConfig `yaml:"value"`
}

// ModelConfig configures a single model
type ModelConfig struct {
	Class         string          `yaml:"class"`
	ClipActions   bool            `yaml:"clip_actions"`
	ClipLogStd    bool            `yaml:"clip_log_std,omitempty"`
	MinLogStd     float64         `yaml:"min_log_std,omitempty"`
	MaxLogStd     float64         `yaml:"max_log_std,omitempty"`
	InitialLogStd float64         `yaml:"initial_log_std,omitempty"`
	Network       []NetworkConfig `yaml:"network"`
	Output        string          `yaml:"output"`
}

// NetworkConfig configures a network of a model
type NetworkConfig struct {
	Name        string `yaml:"name"`
	Input       string `yaml:"input"`
	Layers      []int  `yaml:"layers"`
	Activations string `yaml:"activations"`
}

// MemoryConfig configures the rollout memory
type MemoryConfig struct {
	Class      string `yaml:"class"`
	MemorySize int    `yaml:"memory_size"`
}

// AgentConfig holds the PPO hyperparameters
type AgentConfig struct {
	Class                       string             `yaml:"class"`
	Rollouts                    int                `yaml:"rollouts"`
	LearningEpochs              int                `yaml:"learning_epochs"`
	MiniBatches                 int                `yaml:"mini_batches"`
	DiscountFactor              float64            `yaml:"discount_factor"`
	Lambda                      float64            `yaml:"lambda"`
	LearningRate                float64            `yaml:"learning_rate"`
	LearningRateScheduler       string             `yaml:"learning_rate_scheduler"`
	LearningRateSchedulerKwargs map[string]float64 `yaml:"learning_rate_scheduler_kwargs"`
	StatePreprocessor           string             `yaml:"state_preprocessor"`
	ValuePreprocessor           string             `yaml:"value_preprocessor"`
	RandomTimesteps             int                `yaml:"random_timesteps"`
	LearningStarts              int                `yaml:"learning_starts"`
	GradNormClip                float64            `yaml:"grad_norm_clip"`
	RatioClip                   float64            `yaml:"ratio_clip"`
	ValueClip                   float64            `yaml:"value_clip"`
	ClipPredictedValues         bool               `yaml:"clip_predicted_values"`
	EntropyLossScale            float64            `yaml:"entropy_loss_scale"`
	ValueLossScale              float64            `yaml:"value_loss_scale"`
	KLThreshold                 float64            `yaml:"kl_threshold"`
	RewardsShaperScale          float64            `yaml:"rewards_shaper_scale"`
	TimeLimitBootstrap          bool               `yaml:"time_limit_bootstrap"`
	Experiment                  ExperimentConfig   `yaml:"experiment"`
}

// ExperimentConfig configures experiment logging and checkpointing
type ExperimentConfig struct {
	Directory          string `yaml:"directory"`
	ExperimentName     string `yaml:"experiment_name"`
	WriteInterval      string `yaml:"write_interval"`
	CheckpointInterval string `yaml:"checkpoint_interval"`
}

// TrainerConfig configures the training loop
type TrainerConfig struct {
	Class           string `yaml:"class"`
	Timesteps       int    `yaml:"timesteps"`
	EnvironmentInfo string `yaml:"environment_info"`
}

// Validate returns an error describing whether or not the
// configuration is valid or not.
func (c Config) Validate() error {
	a := c.Agent
	if a.Rollouts <= 0 {
		return fmt.Errorf("rollouts must be positive, have(%v)", a.Rollouts)
	}
	if a.LearningEpochs <= 0 {
		return fmt.Errorf("learning epochs must be positive, have(%v)",
			a.LearningEpochs)
	}
	if a.MiniBatches <= 0 {
		return fmt.Errorf("mini batches must be positive, have(%v)",
			a.MiniBatches)
	}
	if a.DiscountFactor < 0 || a.DiscountFactor > 1 {
		return fmt.Errorf("discount factor must be in [0, 1], have(%v)",
			a.DiscountFactor)
	}
	if a.Lambda < 0 || a.Lambda > 1 {
		return fmt.Errorf("lambda must be in [0, 1], have(%v)", a.Lambda)
	}
	if a.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, have(%v)",
			a.LearningRate)
	}
	if c.Trainer.Timesteps <= 0 {
		return fmt.Errorf("trainer timesteps must be positive, have(%v)",
			c.Trainer.Timesteps)
	}
	return nil
}

// Parse parses a YAML configuration and validates it
func Parse(raw []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	return c, nil
}

// Load loads the configuration referred to by an entry point. Entry
// points starting with EntryPointPrefix refer to the configurations
// bundled with this package; any other entry point is a file path.
func Load(entryPoint string) (Config, error) {
	var raw []byte
	var err error
	if name := strings.TrimPrefix(entryPoint, EntryPointPrefix); name !=
		entryPoint {
		raw, err = bundled.ReadFile(name)
	} else {
		raw, err = os.ReadFile(entryPoint)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	c, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v: %w", entryPoint, err)
	}
	return c, nil
}

// Marshal serializes a configuration to YAML
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
