package experiment

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/stackrl/environment/envconfig"
	"github.com/samuelfneumann/stackrl/environment/manipulation/stack"
	"github.com/samuelfneumann/stackrl/experiment/trackers"
	"github.com/samuelfneumann/stackrl/utils/progressbar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestOnlineScripted(t *testing.T) {
	dir := t.TempDir()
	success := trackers.NewSuccess(filepath.Join(dir, "success.bin"))
	returns := trackers.NewReturn(filepath.Join(dir, "return.bin"))

	c := Config{
		MaxSteps: 150,
		EnvConf:  envconfig.NewConfig(stack.StackID, 4, 0, 11, 0.99),
	}
	exp, err := c.CreateExp(stack.ScriptedPolicy{}, success)
	require.NoError(t, err)
	exp.Register(returns)
	exp.RecordRewards(true)

	var out bytes.Buffer
	exp.SetProgressBar(progressbar.NewManualProgressBar(&out, 20, 150))

	require.NoError(t, exp.Run())
	assert.Equal(t, 150, exp.Steps())
	assert.Contains(t, out.String(), "100.00%")

	assert.GreaterOrEqual(t, success.Episodes(), 4)
	assert.Equal(t, 1.0, success.Rate())
	assert.Len(t, returns.EpisodeReturns(), success.Episodes())

	rewards, err := exp.Rewards()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{150, 4}, rewards.Shape())

	require.NoError(t, exp.Save())
	data, err := trackers.LoadData(filepath.Join(dir, "success.bin"))
	require.NoError(t, err)
	assert.Len(t, data, success.Episodes())

	// Running past the maximum is a no-op
	ended, err := exp.RunStep()
	require.NoError(t, err)
	assert.True(t, ended)
	assert.Equal(t, 150, exp.Steps())
}

func TestOnlineRewardsNotRecorded(t *testing.T) {
	c := Config{
		MaxSteps: 1,
		EnvConf:  envconfig.NewConfig(stack.StackID, 1, 0, 0, 0.99),
	}
	exp, err := c.CreateExp(stack.ScriptedPolicy{})
	require.NoError(t, err)
	require.NoError(t, exp.Run())

	_, err = exp.Rewards()
	assert.Error(t, err)
}

func TestCreateExpUnknownTask(t *testing.T) {
	c := Config{MaxSteps: 1, EnvConf: envconfig.NewConfig("Unknown-v0", 1,
		0, 0, 0.99)}
	_, err := c.CreateExp(stack.ScriptedPolicy{})
	assert.Error(t, err)
}
