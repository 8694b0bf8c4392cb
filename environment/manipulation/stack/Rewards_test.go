package stack

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/stackrl/environment/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// state describes a single environment of a test scene
type state struct {
	cube1, cube2, ee [3]float64
	fingers          [2]float64
}

// newTestEnv builds an Env with one parallel environment per state
func newTestEnv(t *testing.T, gripper *GripperCfg, states ...state) *Env {
	t.Helper()
	n := len(states)
	cube1 := mat.NewDense(n, 3, nil)
	cube2 := mat.NewDense(n, 3, nil)
	ee := mat.NewDense(n, 3, nil)
	joints := mat.NewDense(n, len(FrankaJointNames), nil)

	for i, s := range states {
		cube1.SetRow(i, s.cube1[:])
		cube2.SetRow(i, s.cube2[:])
		ee.SetRow(i, s.ee[:])
		joints.Set(i, finger1Col, s.fingers[0])
		joints.Set(i, finger2Col, s.fingers[1])
	}

	snap := scene.New(n)
	require.NoError(t, snap.Add(Cube1, scene.NewRigidObject(cube1)))
	require.NoError(t, snap.Add(Cube2, scene.NewRigidObject(cube2)))
	require.NoError(t, snap.Add(EEFrame, scene.NewFrameTransformer(
		[]string{"end_effector"}, []*mat.Dense{ee})))
	require.NoError(t, snap.Add(Robot, scene.NewArticulation(
		FrankaJointNames, joints)))

	cfg := FrankaCubeStackEnvCfg()
	cfg.NumEnvs = n
	cfg.Gripper = gripper
	return NewEnv(snap, cfg)
}

func fingersOpen() [2]float64 {
	return [2]float64{FrankaGripperOpenVal, FrankaGripperOpenVal}
}

func fingersClosed() [2]float64 {
	return [2]float64{0.02, 0.02}
}

func TestObjectEEDistance(t *testing.T) {
	distances := []float64{0, 0.01, 0.05, 0.1, 0.5, 2.0, 3.0}
	states := make([]state, len(distances))
	for i, d := range distances {
		states[i] = state{cube1: [3]float64{0.5, 0, 0.02},
			ee: [3]float64{0.5, d, 0.02}}
	}
	env := newTestEnv(t, nil, states...)

	reward, err := ObjectEEDistance(env, 0.1, scene.NewEntityCfg(Cube1),
		scene.NewEntityCfg(EEFrame))
	require.NoError(t, err)
	require.Equal(t, len(distances), reward.Len())

	assert.InDelta(t, 1.0, reward.AtVec(0), 1e-12)
	for i := 1; i < reward.Len(); i++ {
		assert.Less(t, reward.AtVec(i), reward.AtVec(i-1),
			"reward should decrease with distance")
		assert.Greater(t, reward.AtVec(i), 0.0)
		assert.Less(t, reward.AtVec(i), 1.0)
	}
	assert.InDelta(t, 1-math.Tanh(1), reward.AtVec(3), 1e-12)
}

func TestObjectEEDistanceMissingEntity(t *testing.T) {
	env := newTestEnv(t, nil, state{})

	_, err := ObjectEEDistance(env, 0.1, scene.NewEntityCfg("cube_3"),
		scene.NewEntityCfg(EEFrame))
	assert.True(t, errors.Is(err, scene.ErrNoEntity))

	_, err = ObjectEEDistance(env, 0.1, scene.NewEntityCfg(Cube1),
		scene.NewEntityCfg(Cube2))
	assert.True(t, errors.Is(err, scene.ErrEntityKind))
}

func TestCubeGrasped(t *testing.T) {
	at := [3]float64{0.5, 0.1, 0.02}
	near := [3]float64{0.5, 0.1, 0.05}
	far := [3]float64{0.5, 0.2, 0.02}
	states := []state{
		{cube1: at, ee: near, fingers: fingersClosed()},
		{cube1: at, ee: near, fingers: fingersOpen()},
		{cube1: at, ee: near, fingers: [2]float64{0.02, 0.04}},
		{cube1: at, ee: near, fingers: [2]float64{0.04, 0.02}},
		{cube1: at, ee: far, fingers: fingersClosed()},
		{cube1: at, ee: near, fingers: [2]float64{0.036, 0.036}},
	}
	want := []float64{1, 0, 0, 0, 0, 0}

	env := newTestEnv(t, FrankaGripper(), states...)
	reward, err := CubeGrasped(env, DefaultCubeGraspedParams())
	require.NoError(t, err)
	assert.Equal(t, want, reward.RawVector().Data)
}

func TestCubeGraspedWithoutGripper(t *testing.T) {
	at := [3]float64{0.5, 0.1, 0.02}
	env := newTestEnv(t, nil,
		state{cube1: at, ee: at, fingers: fingersClosed()},
		state{cube1: at, ee: at, fingers: fingersOpen()},
	)

	reward, err := CubeGrasped(env, DefaultCubeGraspedParams())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, reward.RawVector().Data)
}

func TestCubeGraspedSingleFingerJoint(t *testing.T) {
	at := [3]float64{0.5, 0.1, 0.02}
	gripper := FrankaGripper()
	gripper.JointNames = []string{"panda_finger_joint1"}
	env := newTestEnv(t, gripper, state{cube1: at, ee: at})

	_, err := CubeGrasped(env, DefaultCubeGraspedParams())
	assert.Error(t, err)
}

func TestObjectIsLifted(t *testing.T) {
	heights := []float64{0.0, 0.039, 0.04, 0.0401, 0.3}
	states := make([]state, len(heights))
	for i, h := range heights {
		states[i] = state{cube1: [3]float64{0.4, 0.0, h}}
	}
	env := newTestEnv(t, nil, states...)

	reward, err := ObjectIsLifted(env, 0.04, scene.NewEntityCfg(Cube1))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 1}, reward.RawVector().Data)
}

func TestCubesStackingReward(t *testing.T) {
	base := [3]float64{0.6, 0.1, 0.0234}
	states := []state{
		// Aligned, not lifted
		{cube1: [3]float64{0.6, 0.1, 0.05}, cube2: base},
		// Aligned at the stacking height
		{cube1: [3]float64{0.6, 0.1, 0.0234 + CubeSize}, cube2: base},
		// Lifted, offset in XY
		{cube1: [3]float64{0.6, 0.2, 0.0234 + CubeSize}, cube2: base},
		// Aligned but far above the stacking height
		{cube1: [3]float64{0.6, 0.1, 0.3}, cube2: base},
		// Far away, on the table
		{cube1: [3]float64{0.2, -0.2, 0.0234}, cube2: base},
	}
	env := newTestEnv(t, nil, states...)

	reward, err := CubesStackingReward(env, 0.1, scene.NewEntityCfg(Cube1),
		scene.NewEntityCfg(Cube2))
	require.NoError(t, err)

	assert.Equal(t, 0.0, reward.AtVec(0))
	assert.InDelta(t, 2.0, reward.AtVec(1), 1e-9)
	assert.InDelta(t, 2.0*(1-math.Tanh(1)), reward.AtVec(2), 1e-9)

	heightProximity := 1 - math.Tanh(math.Abs(0.3-0.0234-CubeSize)/0.05)
	assert.InDelta(t, 1.0+heightProximity, reward.AtVec(3), 1e-9)
	assert.Equal(t, 0.0, reward.AtVec(4))
}

func TestCubeHeightAlignment(t *testing.T) {
	base := [3]float64{0.6, 0.1, 0.0234}
	states := []state{
		{cube1: [3]float64{0.6, 0.1, 0.0234 + CubeSize}, cube2: base},
		{cube1: [3]float64{0.6, 0.1, 0.0234 + CubeSize + 0.03}, cube2: base},
		{cube1: [3]float64{0.6, 0.19, 0.0234 + CubeSize}, cube2: base},
		{cube1: [3]float64{0.6, 0.179, 0.0234 + CubeSize}, cube2: base},
	}
	env := newTestEnv(t, nil, states...)

	reward, err := CubeHeightAlignment(env, DefaultCubeHeightAlignmentParams())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, reward.AtVec(0), 1e-9)
	assert.InDelta(t, 1-math.Tanh(1), reward.AtVec(1), 1e-9)
	assert.Equal(t, 0.0, reward.AtVec(2), "outside the XY gate")
	assert.InDelta(t, 1.0, reward.AtVec(3), 1e-9)
}

func TestStackingSuccessScenarios(t *testing.T) {
	high := state{
		cube1: [3]float64{0, 0, 0.10},
		cube2: [3]float64{0, 0, 0.0332},
	}
	stacked := state{
		cube1: [3]float64{0, 0, 0.08},
		cube2: [3]float64{0, 0, 0.0332},
	}

	tests := []struct {
		name    string
		gripper *GripperCfg
		fingers [2]float64
		want    []float64
	}{
		{"noGripper", nil, fingersClosed(), []float64{0, 1}},
		{"gripperOpen", FrankaGripper(), fingersOpen(), []float64{0, 1}},
		{"gripperClosed", FrankaGripper(), fingersClosed(), []float64{0, 0}},
		{"gripperNearlyOpen", FrankaGripper(),
			[2]float64{0.0395, 0.0395}, []float64{0, 1}},
	}

	for _, test := range tests {
		high.fingers = test.fingers
		stacked.fingers = test.fingers
		env := newTestEnv(t, test.gripper, high, stacked)

		reward, err := StackingSuccess(env, DefaultStackingSuccessParams())
		require.NoError(t, err, test.name)
		assert.Equal(t, test.want, reward.RawVector().Data, test.name)
	}
}

func TestStackingSuccessRequiresBothConditions(t *testing.T) {
	base := [3]float64{0.5, 0.0, 0.0234}
	states := []state{
		{cube1: [3]float64{0.5, 0.0, 0.0234 + CubeSize}, cube2: base},
		// XY condition violated
		{cube1: [3]float64{0.5, 0.05, 0.0234 + CubeSize}, cube2: base},
		// Height condition violated
		{cube1: [3]float64{0.5, 0.0, 0.0234 + CubeSize + 0.006}, cube2: base},
		// Both violated
		{cube1: [3]float64{0.5, 0.05, 0.0234 + CubeSize + 0.006}, cube2: base},
	}
	env := newTestEnv(t, nil, states...)

	reward, err := StackingSuccess(env, DefaultStackingSuccessParams())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0}, reward.RawVector().Data)
}

func TestRewardsIdempotent(t *testing.T) {
	env := newTestEnv(t, FrankaGripper(),
		state{
			cube1:   [3]float64{0.51, 0.02, 0.09},
			cube2:   [3]float64{0.5, 0.0, 0.0234},
			ee:      [3]float64{0.51, 0.02, 0.1},
			fingers: fingersClosed(),
		},
		state{
			cube1:   [3]float64{0.3, -0.1, 0.0234},
			cube2:   [3]float64{0.5, 0.2, 0.0234},
			ee:      [3]float64{0.4, 0.0, 0.3},
			fingers: fingersOpen(),
		},
	)

	terms := []func() (*mat.VecDense, error){
		func() (*mat.VecDense, error) {
			return ObjectEEDistance(env, 0.1, scene.NewEntityCfg(Cube1),
				scene.NewEntityCfg(EEFrame))
		},
		func() (*mat.VecDense, error) {
			return CubeGrasped(env, DefaultCubeGraspedParams())
		},
		func() (*mat.VecDense, error) {
			return ObjectIsLifted(env, 0.04, scene.NewEntityCfg(Cube1))
		},
		func() (*mat.VecDense, error) {
			return CubesStackingReward(env, 0.1, scene.NewEntityCfg(Cube1),
				scene.NewEntityCfg(Cube2))
		},
		func() (*mat.VecDense, error) {
			return CubeHeightAlignment(env, DefaultCubeHeightAlignmentParams())
		},
		func() (*mat.VecDense, error) {
			return StackingSuccess(env, DefaultStackingSuccessParams())
		},
	}

	cube1 := mat.DenseCopyOf(cube1Positions(t, env))
	for i, term := range terms {
		first, err := term()
		require.NoError(t, err)
		second, err := term()
		require.NoError(t, err)
		assert.True(t, mat.Equal(first, second), "term %v", i)
	}
	assert.True(t, mat.Equal(cube1, cube1Positions(t, env)),
		"rewards must not modify the scene")
}

func cube1Positions(t *testing.T, env *Env) *mat.Dense {
	t.Helper()
	cube, err := env.Scene.RigidObject(scene.NewEntityCfg(Cube1))
	require.NoError(t, err)
	return cube.RootPosW
}
