package stack

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/samuelfneumann/stackrl/environment/scene"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Default entity names in a cube stacking scene
const (
	Cube1   = "cube_1"
	Cube2   = "cube_2"
	EEFrame = "ee_frame"
	Robot   = "robot"
)

// Franka Panda gripper defaults
const (
	FrankaGripperOpenVal   = 0.04
	FrankaGripperThreshold = 0.005
)

// CubeSize is the edge length of a stacking cube, which is also the
// expected height offset between the centres of two stacked cubes.
const CubeSize = 0.0468

// GripperCfg configures the two-finger gripper used to detect grasping
// and releasing.
type GripperCfg struct {
	// JointNames are expressions resolved against the robot's joint
	// names. They must resolve to at least two finger joints.
	JointNames []string `json:"joint_names"`

	// OpenVal is the finger joint position of an open gripper
	OpenVal float64 `json:"open_val"`

	// Threshold is the displacement from OpenVal beyond which a finger
	// is considered closed
	Threshold float64 `json:"threshold"`
}

// FrankaGripper returns the gripper configuration of the Franka Panda
func FrankaGripper() *GripperCfg {
	return &GripperCfg{
		JointNames: []string{"panda_finger_.*"},
		OpenVal:    FrankaGripperOpenVal,
		Threshold:  FrankaGripperThreshold,
	}
}

// EnvCfg configures a cube stacking environment. Configurations are
// JSON serializable.
type EnvCfg struct {
	NumEnvs       int     `json:"num_envs"`
	EpisodeLength int     `json:"episode_length"`
	Dt            float64 `json:"dt"`

	// Gripper is nil when the scene has no gripper to reason about, in
	// which case grasp rewards are disabled and success is decided by
	// cube placement alone.
	Gripper *GripperCfg `json:"gripper,omitempty"`

	Rewards []RewardTermCfg `json:"rewards"`
}

// FrankaCubeStackEnvCfg returns the training configuration of the
// Franka cube stacking environment
func FrankaCubeStackEnvCfg() EnvCfg {
	return EnvCfg{
		NumEnvs:       4096,
		EpisodeLength: 250,
		Dt:            0.01 * 2,
		Gripper:       FrankaGripper(),
		Rewards:       DefaultRewardTerms(),
	}
}

// FrankaCubeStackEnvCfgPlay returns the evaluation configuration of the
// Franka cube stacking environment, which uses fewer environments
func FrankaCubeStackEnvCfgPlay() EnvCfg {
	cfg := FrankaCubeStackEnvCfg()
	cfg.NumEnvs = 50
	cfg.EpisodeLength = 500
	return cfg
}

// EnvCfgs maps configuration entry points to configuration
// constructors
var EnvCfgs = map[string]func() EnvCfg{
	"stack:FrankaCubeStackEnvCfg":      FrankaCubeStackEnvCfg,
	"stack:FrankaCubeStackEnvCfg_PLAY": FrankaCubeStackEnvCfgPlay,
}

//go:embed envcfg.schema.json
var envCfgSchemaJSON string

var (
	envCfgSchemaOnce sync.Once
	envCfgSchema     *jsonschema.Schema
	envCfgSchemaErr  error
)

// ValidateEnvCfgJSON validates a JSON serialized EnvCfg against the
// environment configuration schema
func ValidateEnvCfgJSON(raw []byte) error {
	envCfgSchemaOnce.Do(func() {
		envCfgSchema, envCfgSchemaErr = jsonschema.CompileString(
			"envcfg.schema.json", envCfgSchemaJSON)
	})
	if envCfgSchemaErr != nil {
		return fmt.Errorf("validateEnvCfgJSON: %w", envCfgSchemaErr)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("validateEnvCfgJSON: %w", err)
	}
	if err := envCfgSchema.Validate(v); err != nil {
		return fmt.Errorf("validateEnvCfgJSON: %w", err)
	}
	return nil
}

// LoadEnvCfg reads a JSON serialized EnvCfg from a file. The file is
// validated against the environment configuration schema before it is
// decoded.
func LoadEnvCfg(path string) (EnvCfg, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EnvCfg{}, fmt.Errorf("loadEnvCfg: %w", err)
	}
	if err := ValidateEnvCfgJSON(raw); err != nil {
		return EnvCfg{}, fmt.Errorf("loadEnvCfg: %v: %w", path, err)
	}

	var cfg EnvCfg
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return EnvCfg{}, fmt.Errorf("loadEnvCfg: %v: %w", path, err)
	}
	return cfg, nil
}

// Env bundles the scene snapshot of a step with the environment
// configuration. Reward functions read from it and never modify it.
type Env struct {
	Scene *scene.Snapshot
	Cfg   EnvCfg
}

// NewEnv returns a new Env
func NewEnv(s *scene.Snapshot, cfg EnvCfg) *Env {
	return &Env{Scene: s, Cfg: cfg}
}

// NumEnvs returns the number of parallel environments
func (e *Env) NumEnvs() int {
	return e.Scene.NumEnvs()
}
