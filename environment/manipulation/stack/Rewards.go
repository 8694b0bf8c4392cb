// Package stack implements the reward terms, configuration, and
// registration of a two cube stacking task for a Franka Panda arm. The
// task is staged as reaching cube_1, grasping and lifting it, aligning
// it above cube_2, and finally releasing it on top of cube_2. Staging is
// only a naming convention: every reward term is evaluated from the
// current scene snapshot on every step.
//
// Reward functions return one reward per parallel environment.
package stack

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/stackrl/environment/scene"
	"github.com/samuelfneumann/stackrl/utils/floatutils"
	"github.com/samuelfneumann/stackrl/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// Constants used by CubesStackingReward. These are not parameters of
// the reward.
const (
	StackingLiftHeight   = 0.05
	StackingTargetHeight = CubeSize
	StackingHeightStd    = 0.05
)

// Default parameters of the reward functions
const (
	DefaultGraspDiffThreshold     = 0.04
	DefaultHeightAlignmentStd     = 0.03
	DefaultHeightAlignmentXYGate  = 0.08
	DefaultSuccessXYThreshold     = 0.04
	DefaultSuccessHeightThreshold = 0.005
	DefaultSuccessHeightDiff      = CubeSize

	// Tolerances used to decide whether the gripper is open
	GripperOpenAtol = 1e-3
	GripperOpenRtol = 1e-5
)

//
// Stage 1: Reaching cube_1
//

// ObjectEEDistance rewards moving the end-effector close to an object
// with 1 - tanh(d / std), where d is the distance between the object
// and the end-effector.
func ObjectEEDistance(env *Env, std float64, objectCfg,
	eeFrameCfg scene.EntityCfg) (*mat.VecDense, error) {
	distance, err := objectEEDistance(env, objectCfg, eeFrameCfg)
	if err != nil {
		return nil, fmt.Errorf("objectEEDistance: %w", err)
	}

	matutils.Apply(distance, func(d float64) float64 {
		return floatutils.TanhKernel(d, std)
	})
	return distance, nil
}

//
// Stage 2: Grasping and lifting cube_1
//

// CubeGraspedParams are the parameters of CubeGrasped
type CubeGraspedParams struct {
	CubeCfg       scene.EntityCfg
	EEFrameCfg    scene.EntityCfg
	RobotCfg      scene.EntityCfg
	DiffThreshold float64
}

// DefaultCubeGraspedParams returns the default CubeGrasped parameters
func DefaultCubeGraspedParams() CubeGraspedParams {
	return CubeGraspedParams{
		CubeCfg:       scene.NewEntityCfg(Cube1),
		EEFrameCfg:    scene.NewEntityCfg(EEFrame),
		RobotCfg:      scene.NewEntityCfg(Robot),
		DiffThreshold: DefaultGraspDiffThreshold,
	}
}

// CubeGrasped returns 1 for environments where the cube is within
// p.DiffThreshold of the end-effector and both gripper fingers are
// displaced from the open position by more than the configured
// threshold, and 0 elsewhere. If the environment has no gripper
// configured, CubeGrasped returns all zeros.
func CubeGrasped(env *Env, p CubeGraspedParams) (*mat.VecDense, error) {
	if env.Cfg.Gripper == nil {
		return mat.NewVecDense(env.NumEnvs(), nil), nil
	}
	gripper := env.Cfg.Gripper

	distance, err := objectEEDistance(env, p.CubeCfg, p.EEFrameCfg)
	if err != nil {
		return nil, fmt.Errorf("cubeGrasped: %w", err)
	}
	finger1, finger2, err := fingerPositions(env, p.RobotCfg, 2)
	if err != nil {
		return nil, fmt.Errorf("cubeGrasped: %w", err)
	}

	grasped := mat.NewVecDense(distance.Len(), nil)
	for i := 0; i < distance.Len(); i++ {
		closed1 := math.Abs(finger1[i]-gripper.OpenVal) > gripper.Threshold
		closed2 := math.Abs(finger2[i]-gripper.OpenVal) > gripper.Threshold
		grasped.SetVec(i, floatutils.Indicator(
			distance.AtVec(i) < p.DiffThreshold && closed1 && closed2))
	}
	return grasped, nil
}

// ObjectIsLifted returns 1 for environments where the object's height
// is above minimalHeight and 0 elsewhere.
func ObjectIsLifted(env *Env, minimalHeight float64,
	objectCfg scene.EntityCfg) (*mat.VecDense, error) {
	object, err := env.Scene.RigidObject(objectCfg)
	if err != nil {
		return nil, fmt.Errorf("objectIsLifted: %w", err)
	}

	height := matutils.Col(object.RootPosW, 2)
	return matutils.Where(height, func(z float64) bool {
		return z > minimalHeight
	}), nil
}

//
// Stage 3: Aligning the cubes for stacking
//

// CubesStackingReward rewards aligning cube_1 above cube_2 in the XY
// plane while cube_1 is lifted, with an additional bonus as the height
// offset between the cubes approaches the stacking height:
//
//	(1 - tanh(xy / std)) * lifted * (1 + (1 - tanh(|dz - h| / 0.05)))
//
// where xy is the XY distance between the cubes, dz is the height of
// cube_1 above cube_2, h is StackingTargetHeight, and lifted is 1 when
// cube_1 is higher than StackingLiftHeight.
func CubesStackingReward(env *Env, std float64, cube1Cfg,
	cube2Cfg scene.EntityCfg) (*mat.VecDense, error) {
	cube1, cube2, err := cubes(env, cube1Cfg, cube2Cfg)
	if err != nil {
		return nil, fmt.Errorf("cubesStackingReward: %w", err)
	}

	xyDist := matutils.RowDistance(cube1.RootPosW, cube2.RootPosW, 2)
	heightDiff := matutils.ColDiff(cube1.RootPosW, cube2.RootPosW, 2)

	reward := mat.NewVecDense(xyDist.Len(), nil)
	for i := 0; i < reward.Len(); i++ {
		lifted := floatutils.Indicator(
			cube1.RootPosW.At(i, 2) > StackingLiftHeight)
		heightProximity := floatutils.TanhKernel(
			math.Abs(heightDiff.AtVec(i)-StackingTargetHeight),
			StackingHeightStd,
		)
		alignment := floatutils.TanhKernel(xyDist.AtVec(i), std)

		reward.SetVec(i, alignment*lifted*(1.0+heightProximity))
	}
	return reward, nil
}

// CubeHeightAlignmentParams are the parameters of CubeHeightAlignment
type CubeHeightAlignmentParams struct {
	Std          float64
	TargetHeight float64
	Cube1Cfg     scene.EntityCfg
	Cube2Cfg     scene.EntityCfg
}

// DefaultCubeHeightAlignmentParams returns the default
// CubeHeightAlignment parameters
func DefaultCubeHeightAlignmentParams() CubeHeightAlignmentParams {
	return CubeHeightAlignmentParams{
		Std:          DefaultHeightAlignmentStd,
		TargetHeight: CubeSize,
		Cube1Cfg:     scene.NewEntityCfg(Cube1),
		Cube2Cfg:     scene.NewEntityCfg(Cube2),
	}
}

// CubeHeightAlignment rewards placing cube_1 at p.TargetHeight above
// cube_2 with 1 - tanh(|dz - p.TargetHeight| / p.Std). The reward is
// only given where the cubes are within DefaultHeightAlignmentXYGate of
// each other in the XY plane.
func CubeHeightAlignment(env *Env,
	p CubeHeightAlignmentParams) (*mat.VecDense, error) {
	cube1, cube2, err := cubes(env, p.Cube1Cfg, p.Cube2Cfg)
	if err != nil {
		return nil, fmt.Errorf("cubeHeightAlignment: %w", err)
	}

	xyDist := matutils.RowDistance(cube1.RootPosW, cube2.RootPosW, 2)
	reward := matutils.ColDiff(cube1.RootPosW, cube2.RootPosW, 2)
	for i := 0; i < reward.Len(); i++ {
		heightError := math.Abs(reward.AtVec(i) - p.TargetHeight)
		aligned := floatutils.Indicator(
			xyDist.AtVec(i) < DefaultHeightAlignmentXYGate)

		reward.SetVec(i, floatutils.TanhKernel(heightError, p.Std)*aligned)
	}
	return reward, nil
}

//
// Stage 4: Success
//

// StackingSuccessParams are the parameters of StackingSuccess
type StackingSuccessParams struct {
	Cube1Cfg        scene.EntityCfg
	Cube2Cfg        scene.EntityCfg
	RobotCfg        scene.EntityCfg
	XYThreshold     float64
	HeightThreshold float64
	HeightDiff      float64
}

// DefaultStackingSuccessParams returns the default StackingSuccess
// parameters
func DefaultStackingSuccessParams() StackingSuccessParams {
	return StackingSuccessParams{
		Cube1Cfg:        scene.NewEntityCfg(Cube1),
		Cube2Cfg:        scene.NewEntityCfg(Cube2),
		RobotCfg:        scene.NewEntityCfg(Robot),
		XYThreshold:     DefaultSuccessXYThreshold,
		HeightThreshold: DefaultSuccessHeightThreshold,
		HeightDiff:      DefaultSuccessHeightDiff,
	}
}

// StackingSuccess returns 1 for environments where cube_1 rests on
// cube_2 and 0 elsewhere. The cubes are stacked when their XY distance
// is below p.XYThreshold and the height of cube_1 above cube_2 is within
// p.HeightThreshold of p.HeightDiff. If the environment has a gripper
// configured, the first finger must also be at the open position so
// that the cube has been released.
func StackingSuccess(env *Env, p StackingSuccessParams) (*mat.VecDense,
	error) {
	cube1, cube2, err := cubes(env, p.Cube1Cfg, p.Cube2Cfg)
	if err != nil {
		return nil, fmt.Errorf("stackingSuccess: %w", err)
	}

	xyDist := matutils.RowDistance(cube1.RootPosW, cube2.RootPosW, 2)
	heightDiff := matutils.ColDiff(cube1.RootPosW, cube2.RootPosW, 2)

	stacked := mat.NewVecDense(xyDist.Len(), nil)
	for i := 0; i < stacked.Len(); i++ {
		hDist := math.Abs(heightDiff.AtVec(i) - p.HeightDiff)
		stacked.SetVec(i, floatutils.Indicator(
			xyDist.AtVec(i) < p.XYThreshold && hDist < p.HeightThreshold))
	}

	if env.Cfg.Gripper == nil {
		return stacked, nil
	}

	finger, _, err := fingerPositions(env, p.RobotCfg, 1)
	if err != nil {
		return nil, fmt.Errorf("stackingSuccess: %w", err)
	}
	open := env.Cfg.Gripper.OpenVal
	for i := 0; i < stacked.Len(); i++ {
		if !floatutils.IsClose(finger[i], open, GripperOpenAtol,
			GripperOpenRtol) {
			stacked.SetVec(i, 0.0)
		}
	}
	return stacked, nil
}

// objectEEDistance returns the distance between an object and the
// first target frame of an end-effector frame transformer
func objectEEDistance(env *Env, objectCfg,
	eeFrameCfg scene.EntityCfg) (*mat.VecDense, error) {
	object, err := env.Scene.RigidObject(objectCfg)
	if err != nil {
		return nil, err
	}
	eeFrame, err := env.Scene.FrameTransformer(eeFrameCfg)
	if err != nil {
		return nil, err
	}

	return matutils.RowDistance(object.RootPosW, eeFrame.TargetPosW[0], 3),
		nil
}

// cubes looks up the two cubes of a stacking scene
func cubes(env *Env, cube1Cfg, cube2Cfg scene.EntityCfg) (*scene.RigidObject,
	*scene.RigidObject, error) {
	cube1, err := env.Scene.RigidObject(cube1Cfg)
	if err != nil {
		return nil, nil, err
	}
	cube2, err := env.Scene.RigidObject(cube2Cfg)
	if err != nil {
		return nil, nil, err
	}
	return cube1, cube2, nil
}

// fingerPositions resolves the configured gripper joints of the robot
// and returns the positions of the first two finger joints. At least
// need finger joints must resolve. If need is 1, the second returned
// slice may be nil.
func fingerPositions(env *Env, robotCfg scene.EntityCfg,
	need int) ([]float64, []float64, error) {
	robot, err := env.Scene.Articulation(robotCfg)
	if err != nil {
		return nil, nil, err
	}

	ids, _, err := robot.FindJoints(env.Cfg.Gripper.JointNames)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) < need {
		return nil, nil, fmt.Errorf("gripper joints %v resolved to %v "+
			"joints, need %v", env.Cfg.Gripper.JointNames, len(ids), need)
	}

	var finger2 []float64
	if len(ids) > 1 {
		finger2 = robot.JointColumn(ids[1])
	}
	return robot.JointColumn(ids[0]), finger2, nil
}
