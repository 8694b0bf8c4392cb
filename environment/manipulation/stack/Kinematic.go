package stack

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/stackrl/environment"
	"github.com/samuelfneumann/stackrl/environment/scene"
	ts "github.com/samuelfneumann/stackrl/timestep"
	"github.com/samuelfneumann/stackrl/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Kinematic parameters
const (
	// ActionScale is the end-effector displacement, in metres, of a
	// unit action
	ActionScale = 0.02

	// FingerSpeed is the distance a finger moves per step
	FingerSpeed = 0.01

	// GraspDistance is the largest end-effector to cube distance at
	// which closing fingers hold the cube
	GraspDistance = 0.02

	// MinCubeSeparation is the smallest XY distance between the cubes
	// at the start of an episode
	MinCubeSeparation = 0.1

	startResampleTries = 50
)

// EEStart is the end-effector position at the start of an episode
var EEStart = [3]float64{0.5, 0.0, 0.35}

// Bounds of the end-effector workspace and of cube start positions
var (
	WorkspaceX = r1.Interval{Min: 0.2, Max: 0.8}
	WorkspaceY = r1.Interval{Min: -0.3, Max: 0.3}
	WorkspaceZ = r1.Interval{Min: 0.0, Max: 0.6}

	CubeStartX = r1.Interval{Min: 0.4, Max: 0.6}
	CubeStartY = r1.Interval{Min: -0.1, Max: 0.1}
)

// FrankaJointNames are the joints of the Franka Panda articulation
var FrankaJointNames = []string{
	"panda_joint1", "panda_joint2", "panda_joint3", "panda_joint4",
	"panda_joint5", "panda_joint6", "panda_joint7",
	"panda_finger_joint1", "panda_finger_joint2",
}

const (
	finger1Col  = 7
	finger2Col  = 8
	notAttached = -1
	obsLen      = 17
	actionLen   = 4
)

// Kinematic is a kinematic stand-in for a physics simulation of the
// cube stacking scene, used to exercise the Stack task end to end. Each
// parallel environment holds a Franka end-effector, which moves by
// position deltas, a two finger gripper, and two cubes.
//
// A cube inside a closed gripper follows the end-effector. A released
// cube settles on top of the other cube if it overlaps it in the XY
// plane and on the table otherwise. There are no dynamics, contacts, or
// collisions beyond this.
//
// Actions are N x 4 matrices. Each row holds the (x, y, z)
// end-effector displacement in units of ActionScale, clipped to
// [-1, 1], and a gripper command which opens the gripper when positive
// and closes it otherwise.
//
// Observations are N x 17 matrices. Each row holds the end-effector
// position, the two finger positions, the positions of cube_1 and
// cube_2, the vector from the end-effector to cube_1, and the vector
// from cube_1 to cube_2.
//
// Environments whose episode ends are reset on the following step.
// Only the timestep returned by Reset has step type timestep.First. The
// step taken right after an automatic reset is the first transition of
// the new episode: it carries a reward, has step type timestep.Mid, and
// is numbered 1. Consumers tracking per-episode data should therefore
// close an episode on timestep.Last and start the next one on the
// following step.
type Kinematic struct {
	*Stack
	cfg      EnvCfg
	starter  *environment.UniformStarter
	discount float64

	ee       *mat.Dense
	joints   *mat.Dense
	cubes    [2]*mat.Dense
	attached []int

	snapshot        *scene.Snapshot
	currentTimeStep ts.TimeStep
	episodeInfo     map[string]float64
}

// NewKinematic returns a new Kinematic environment and its first
// timestep
func NewKinematic(cfg EnvCfg, seed uint64,
	discount float64) (*Kinematic, ts.TimeStep, error) {
	task, err := NewStack(cfg)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newKinematic: %w", err)
	}

	n := cfg.NumEnvs
	k := &Kinematic{
		Stack: task,
		cfg:   cfg,
		starter: environment.NewUniformStarter([]r1.Interval{
			CubeStartX, CubeStartY, CubeStartX, CubeStartY,
		}, seed),
		discount: discount,
		ee:       mat.NewDense(n, 3, nil),
		joints:   mat.NewDense(n, len(FrankaJointNames), nil),
		cubes:    [2]*mat.Dense{mat.NewDense(n, 3, nil), mat.NewDense(n, 3, nil)},
		attached: make([]int, n),
	}

	step, err := k.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newKinematic: %w", err)
	}
	return k, step, nil
}

// NumEnvs returns the number of parallel environments
func (k *Kinematic) NumEnvs() int {
	return k.cfg.NumEnvs
}

// Scene returns the scene snapshot of the current step
func (k *Kinematic) Scene() *scene.Snapshot {
	return k.snapshot
}

// Reset resets all environments to begin new episodes
func (k *Kinematic) Reset() (ts.TimeStep, error) {
	all := make([]int, k.NumEnvs())
	for i := range all {
		all[i] = i
	}
	k.resetEnvs(all)

	if err := k.buildSnapshot(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	reward := mat.NewVecDense(k.NumEnvs(), nil)
	k.currentTimeStep = ts.New(ts.First, reward, k.discount, k.observe(), 0)
	return k.currentTimeStep, nil
}

// resetEnvs places the end-effector and cubes of the given environments
// at their start positions
func (k *Kinematic) resetEnvs(ids []int) {
	for _, i := range ids {
		start := k.starter.StartOne()
		for try := 1; try < startResampleTries && !separated(start); try++ {
			start = k.starter.StartOne()
		}
		if !separated(start) {
			spreadCubes(start)
		}

		k.ee.SetRow(i, EEStart[:])
		k.cubes[0].SetRow(i, []float64{start[0], start[1], CubeSize / 2})
		k.cubes[1].SetRow(i, []float64{start[2], start[3], CubeSize / 2})

		for j := range FrankaJointNames {
			k.joints.Set(i, j, 0.0)
		}
		k.joints.Set(i, finger1Col, FrankaGripperOpenVal)
		k.joints.Set(i, finger2Col, FrankaGripperOpenVal)
		k.attached[i] = notAttached
	}
	k.episodeInfo = k.Stack.Reset(ids)
}

// separated returns whether the cubes of a start state are at least
// MinCubeSeparation apart in the XY plane
func separated(start []float64) bool {
	return math.Hypot(start[0]-start[2], start[1]-start[3]) >=
		MinCubeSeparation
}

// spreadCubes moves cube_2 of a start state to MinCubeSeparation from
// cube_1 along y, towards whichever side of CubeStartY has room
func spreadCubes(start []float64) {
	start[2] = start[0]
	if start[1]+MinCubeSeparation <= CubeStartY.Max {
		start[3] = start[1] + MinCubeSeparation
	} else {
		start[3] = start[1] - MinCubeSeparation
	}
}

// Step takes one environmental step in every environment given a batch
// of actions. Step returns whether any episode ended on this step.
func (k *Kinematic) Step(action *mat.Dense) (ts.TimeStep, bool, error) {
	if r, c := action.Dims(); r != k.NumEnvs() || c != actionLen {
		return ts.TimeStep{}, true, fmt.Errorf("step: invalid action "+
			"dimensions \n\thave(%v x %v) \n\twant(%v x %v)", r, c,
			k.NumEnvs(), actionLen)
	}

	// Environments which ended on the last step start new episodes
	var ended []int
	numbers := make([]int, k.NumEnvs())
	for i := range numbers {
		if k.currentTimeStep.Last(i) {
			ended = append(ended, i)
		} else {
			numbers[i] = k.currentTimeStep.Number[i]
		}
	}
	if len(ended) > 0 {
		k.resetEnvs(ended)
	}

	clipped := k.ActionSpec().ClipRows(action)
	for i := 0; i < k.NumEnvs(); i++ {
		k.moveEE(i, clipped.RawRowView(i))
		k.moveFingers(i, clipped.At(i, 3) > 0)
		k.updateCubes(i)
	}

	if err := k.buildSnapshot(); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}
	reward, err := k.GetReward(k.snapshot)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}

	t := ts.New(ts.Mid, reward, k.discount, k.observe(), 0)
	for i := range numbers {
		t.Number[i] = numbers[i] + 1
	}
	k.currentTimeStep = t
	done := k.End(&k.currentTimeStep)

	return k.currentTimeStep, done, nil
}

// moveEE displaces the end-effector of environment i
func (k *Kinematic) moveEE(i int, action []float64) {
	bounds := [3]r1.Interval{WorkspaceX, WorkspaceY, WorkspaceZ}
	for j := 0; j < 3; j++ {
		pos := k.ee.At(i, j) + action[j]*ActionScale
		k.ee.Set(i, j, floatutils.ClipInterval(pos, bounds[j]))
	}
}

// moveFingers moves both fingers of environment i towards the open or
// closed position. Closing fingers stop at the faces of a cube held
// between them.
func (k *Kinematic) moveFingers(i int, open bool) {
	closedAt := 0.0
	if k.attached[i] != notAttached || k.nearestCube(i) != notAttached {
		closedAt = CubeSize / 2
	}

	for _, col := range []int{finger1Col, finger2Col} {
		pos := k.joints.At(i, col)
		if open {
			pos += FingerSpeed
		} else {
			pos -= FingerSpeed
		}
		k.joints.Set(i, col, floatutils.Clip(pos, closedAt,
			FrankaGripperOpenVal))
	}
}

// updateCubes attaches, carries, and releases the cubes of environment
// i
func (k *Kinematic) updateCubes(i int) {
	closed := FrankaGripperOpenVal-k.joints.At(i, finger1Col) >
		FrankaGripperThreshold &&
		FrankaGripperOpenVal-k.joints.At(i, finger2Col) >
			FrankaGripperThreshold

	held := k.attached[i]
	switch {
	case held == notAttached && closed:
		k.attached[i] = k.nearestCube(i)

	case held != notAttached && !closed:
		k.attached[i] = notAttached
		k.settle(i, held)
	}

	if held := k.attached[i]; held != notAttached {
		pos := k.ee.RawRowView(i)
		k.cubes[held].SetRow(i, []float64{pos[0], pos[1],
			math.Max(pos[2], k.restHeight(i, held))})
	}
}

// nearestCube returns the index of a cube within GraspDistance of the
// end-effector of environment i, or notAttached if there is none
func (k *Kinematic) nearestCube(i int) int {
	ee := k.ee.RawRowView(i)
	best, bestDist := notAttached, GraspDistance
	for c, cube := range k.cubes {
		pos := cube.RawRowView(i)
		d := math.Sqrt(sq(pos[0]-ee[0]) + sq(pos[1]-ee[1]) + sq(pos[2]-ee[2]))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// restHeight returns the height at which cube c of environment i comes
// to rest at its current XY position
func (k *Kinematic) restHeight(i, c int) float64 {
	pos := k.cubes[c].RawRowView(i)
	other := k.cubes[1-c].RawRowView(i)
	if math.Abs(pos[0]-other[0]) < CubeSize &&
		math.Abs(pos[1]-other[1]) < CubeSize {
		return other[2] + CubeSize
	}
	return CubeSize / 2
}

// settle drops cube c of environment i onto whatever is below it
func (k *Kinematic) settle(i, c int) {
	k.cubes[c].Set(i, 2, k.restHeight(i, c))
}

// buildSnapshot creates the scene snapshot of the current step. The
// snapshot holds copies of the environment state.
func (k *Kinematic) buildSnapshot() error {
	s := scene.New(k.NumEnvs())
	entities := map[string]scene.Entity{
		Cube1: scene.NewRigidObject(mat.DenseCopyOf(k.cubes[0])),
		Cube2: scene.NewRigidObject(mat.DenseCopyOf(k.cubes[1])),
		EEFrame: scene.NewFrameTransformer([]string{"end_effector"},
			[]*mat.Dense{mat.DenseCopyOf(k.ee)}),
		Robot: scene.NewArticulation(FrankaJointNames,
			mat.DenseCopyOf(k.joints)),
	}
	for name, e := range entities {
		if err := s.Add(name, e); err != nil {
			return fmt.Errorf("buildSnapshot: %w", err)
		}
	}
	k.snapshot = s
	return nil
}

// observe returns the observation of every environment
func (k *Kinematic) observe() *mat.Dense {
	obs := mat.NewDense(k.NumEnvs(), obsLen, nil)
	for i := 0; i < k.NumEnvs(); i++ {
		ee := k.ee.RawRowView(i)
		c1 := k.cubes[0].RawRowView(i)
		c2 := k.cubes[1].RawRowView(i)

		row := make([]float64, 0, obsLen)
		row = append(row, ee...)
		row = append(row, k.joints.At(i, finger1Col),
			k.joints.At(i, finger2Col))
		row = append(row, c1...)
		row = append(row, c2...)
		row = append(row, c1[0]-ee[0], c1[1]-ee[1], c1[2]-ee[2])
		row = append(row, c2[0]-c1[0], c2[1]-c1[1], c2[2]-c1[2])
		obs.SetRow(i, row)
	}
	return obs
}

// CurrentTimeStep returns the current time step
func (k *Kinematic) CurrentTimeStep() ts.TimeStep {
	return k.currentTimeStep
}

// EpisodeInfo returns the mean episode sum of each reward term over the
// environments most recently reset
func (k *Kinematic) EpisodeInfo() map[string]float64 {
	return k.episodeInfo
}

// ObservationSpec returns the observation specification of the
// environment
func (k *Kinematic) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(obsLen, nil)
	low := mat.NewVecDense(obsLen, nil)
	high := mat.NewVecDense(obsLen, nil)
	for i := 0; i < obsLen; i++ {
		low.SetVec(i, math.Inf(-1))
		high.SetVec(i, math.Inf(1))
	}

	return environment.NewSpec(shape, environment.Observation, low, high,
		environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (k *Kinematic) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(actionLen, nil)
	low := mat.NewVecDense(actionLen, []float64{-1, -1, -1, -1})
	high := mat.NewVecDense(actionLen, []float64{1, 1, 1, 1})

	return environment.NewSpec(shape, environment.Action, low, high,
		environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (k *Kinematic) DiscountSpec() environment.Spec {
	bounds := mat.NewVecDense(1, []float64{k.discount})

	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Discount,
		bounds, bounds, environment.Continuous)
}

// RewardSpec returns the reward specification of the environment.
// Every reward term is non-negative, so rewards are bounded below by
// the sum of the negative term weights.
func (k *Kinematic) RewardSpec() environment.Spec {
	low := 0.0
	for _, term := range k.terms {
		if term.Weight < 0 {
			low += term.Weight * term.Max
		}
	}
	if k.cfg.Dt > 0 {
		low *= k.cfg.Dt
	}

	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Reward,
		mat.NewVecDense(1, []float64{low}),
		mat.NewVecDense(1, []float64{math.Inf(1)}), environment.Continuous)
}

func sq(x float64) float64 {
	return x * x
}
