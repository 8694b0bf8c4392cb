package stack

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestLoadEnvCfg(t *testing.T) {
	want := FrankaCubeStackEnvCfgPlay()
	cfg, err := LoadEnvCfg(writeJSON(t, want))
	require.NoError(t, err)
	assert.Equal(t, want, cfg)

	// The gripper is optional
	want.Gripper = nil
	cfg, err = LoadEnvCfg(writeJSON(t, want))
	require.NoError(t, err)
	assert.Nil(t, cfg.Gripper)
}

func TestLoadEnvCfgInvalid(t *testing.T) {
	invalid := []interface{}{
		map[string]interface{}{"num_envs": 0, "episode_length": 10,
			"rewards": DefaultRewardTerms()},
		map[string]interface{}{"num_envs": 2, "episode_length": 10,
			"rewards": []interface{}{}},
		map[string]interface{}{"num_envs": 2, "episode_length": 10,
			"rewards": []RewardTermCfg{{Name: "a", Func: "unknown"}}},
		map[string]interface{}{"num_envs": 2, "episode_length": 10,
			"rewards": DefaultRewardTerms(),
			"gripper": map[string]interface{}{"joint_names": []string{}}},
	}
	for i, v := range invalid {
		_, err := LoadEnvCfg(writeJSON(t, v))
		assert.Error(t, err, "case %v", i)
	}

	_, err := LoadEnvCfg(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidateEnvCfgJSON(t *testing.T) {
	assert.NoError(t, ValidateEnvCfgJSON([]byte(`{
		"num_envs": 8,
		"episode_length": 100,
		"rewards": [{"func": "stacking_success", "weight": 1}]
	}`)))
	assert.Error(t, ValidateEnvCfgJSON([]byte(`{"num_envs": 8`)))
}

func TestValidateEnvCfgJSONTermParams(t *testing.T) {
	invalid := map[string]string{
		"misspelled parameter": `{"num_envs": 1, "episode_length": 10,
			"rewards": [{"func": "object_is_lifted", "weight": 5,
				"params": {"minimal_heigth": 0.04}}]}`,
		"missing lift height": `{"num_envs": 1, "episode_length": 10,
			"rewards": [{"func": "object_is_lifted", "weight": 5}]}`,
		"missing std": `{"num_envs": 1, "episode_length": 10,
			"rewards": [{"func": "object_ee_distance", "weight": 1,
				"params": {}}]}`,
		"negative std": `{"num_envs": 1, "episode_length": 10,
			"rewards": [{"func": "cube_height_alignment", "weight": 4,
				"params": {"std": -0.03}}]}`,
		"unknown term field": `{"num_envs": 1, "episode_length": 10,
			"rewards": [{"func": "cube_grasped", "weight": 2,
				"wieght": 3}]}`,
	}
	for name, raw := range invalid {
		assert.Error(t, ValidateEnvCfgJSON([]byte(raw)), name)
	}

	// Explicit zeros are valid and survive decoding
	path := filepath.Join(t.TempDir(), "zero.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"num_envs": 1, "episode_length": 10,
		"rewards": [
			{"func": "object_is_lifted", "weight": 5,
				"params": {"minimal_height": 0}},
			{"func": "stacking_success", "weight": 20,
				"params": {"xy_threshold": 0}}
		]}`), 0644))
	cfg, err := LoadEnvCfg(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Rewards[0].Params.MinimalHeight)
	assert.Equal(t, 0.0, *cfg.Rewards[0].Params.MinimalHeight)
	require.NotNil(t, cfg.Rewards[1].Params.XYThreshold)
	assert.Nil(t, cfg.Rewards[1].Params.HeightDiff)
}

func TestLoadEnvCfgRejectsMisspelledLiftHeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"num_envs": 1, "episode_length": 10,
		"rewards": [{"name": "lift", "func": "object_is_lifted",
			"weight": 5, "params": {"minimal_heigth": 0.04}}]}`), 0644))

	_, err := LoadEnvCfg(path)
	assert.Error(t, err)
}
