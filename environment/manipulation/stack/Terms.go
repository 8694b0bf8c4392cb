package stack

import (
	"fmt"

	"github.com/samuelfneumann/stackrl/environment/scene"
	"gonum.org/v1/gonum/mat"
)

// RewardFunc names one of the reward functions of this package so that
// reward terms can be configured from JSON
type RewardFunc string

// Available reward functions
const (
	ObjectEEDistanceFunc    RewardFunc = "object_ee_distance"
	CubeGraspedFunc         RewardFunc = "cube_grasped"
	ObjectIsLiftedFunc      RewardFunc = "object_is_lifted"
	CubesStackingRewardFunc RewardFunc = "cubes_stacking_reward"
	CubeHeightAlignmentFunc RewardFunc = "cube_height_alignment"
	StackingSuccessFunc     RewardFunc = "stacking_success"
)

// TermParams holds the parameters of every reward function. Each
// function reads only the fields it needs. Numeric parameters are nil
// when unset and are then replaced by the function's default where it
// has one; entity names default to the names of the stacking scene.
type TermParams struct {
	Std             *float64 `json:"std,omitempty"`
	MinimalHeight   *float64 `json:"minimal_height,omitempty"`
	DiffThreshold   *float64 `json:"diff_threshold,omitempty"`
	TargetHeight    *float64 `json:"target_height,omitempty"`
	XYThreshold     *float64 `json:"xy_threshold,omitempty"`
	HeightThreshold *float64 `json:"height_threshold,omitempty"`
	HeightDiff      *float64 `json:"height_diff,omitempty"`

	Object  string `json:"object,omitempty"`
	Cube1   string `json:"cube_1,omitempty"`
	Cube2   string `json:"cube_2,omitempty"`
	EEFrame string `json:"ee_frame,omitempty"`
	Robot   string `json:"robot,omitempty"`
}

// Float returns a pointer to v, for setting TermParams fields
func Float(v float64) *float64 {
	return &v
}

// RewardTermCfg configures a single weighted reward term
type RewardTermCfg struct {
	Name   string     `json:"name"`
	Func   RewardFunc `json:"func"`
	Weight float64    `json:"weight"`
	Params TermParams `json:"params"`
}

// RewardTerm is a named, weighted reward function ready to evaluate
type RewardTerm struct {
	Name   string
	Weight float64
	Eval   func(env *Env) (*mat.VecDense, error)

	// Max bounds the unweighted value of the term from above
	Max float64
}

// DefaultRewardTerms returns the reward terms of the Franka cube
// stacking task, one per stage
func DefaultRewardTerms() []RewardTermCfg {
	return []RewardTermCfg{
		{
			Name:   "reaching_object",
			Func:   ObjectEEDistanceFunc,
			Weight: 1.0,
			Params: TermParams{Std: Float(0.1)},
		},
		{
			Name:   "grasping_object",
			Func:   CubeGraspedFunc,
			Weight: 2.0,
		},
		{
			Name:   "lifting_object",
			Func:   ObjectIsLiftedFunc,
			Weight: 5.0,
			Params: TermParams{MinimalHeight: Float(0.04)},
		},
		{
			Name:   "stacking_alignment",
			Func:   CubesStackingRewardFunc,
			Weight: 8.0,
			Params: TermParams{Std: Float(0.1)},
		},
		{
			Name:   "height_alignment",
			Func:   CubeHeightAlignmentFunc,
			Weight: 4.0,
		},
		{
			Name:   "stacking_success",
			Func:   StackingSuccessFunc,
			Weight: 20.0,
		},
	}
}

// Build resolves the configured function and parameters into a
// RewardTerm
func (c RewardTermCfg) Build() (RewardTerm, error) {
	p := c.Params
	name := func(given, fallback string) scene.EntityCfg {
		if given == "" {
			return scene.NewEntityCfg(fallback)
		}
		return scene.NewEntityCfg(given)
	}
	orDefault := func(given *float64, fallback float64) float64 {
		if given == nil {
			return fallback
		}
		return *given
	}
	term := RewardTerm{Name: c.Name, Weight: c.Weight, Max: 1.0}
	if term.Name == "" {
		term.Name = string(c.Func)
	}
	positiveStd := func(std *float64) (float64, error) {
		if std == nil || *std <= 0 {
			return 0, fmt.Errorf("build: term %v: std must be set and "+
				"positive", term.Name)
		}
		return *std, nil
	}

	switch c.Func {
	case ObjectEEDistanceFunc:
		std, err := positiveStd(p.Std)
		if err != nil {
			return RewardTerm{}, err
		}
		object, ee := name(p.Object, Cube1), name(p.EEFrame, EEFrame)
		term.Eval = func(env *Env) (*mat.VecDense, error) {
			return ObjectEEDistance(env, std, object, ee)
		}

	case CubeGraspedFunc:
		params := DefaultCubeGraspedParams()
		params.CubeCfg = name(p.Object, Cube1)
		params.EEFrameCfg = name(p.EEFrame, EEFrame)
		params.RobotCfg = name(p.Robot, Robot)
		params.DiffThreshold = orDefault(p.DiffThreshold,
			DefaultGraspDiffThreshold)
		term.Eval = func(env *Env) (*mat.VecDense, error) {
			return CubeGrasped(env, params)
		}

	case ObjectIsLiftedFunc:
		if p.MinimalHeight == nil {
			return RewardTerm{}, fmt.Errorf("build: term %v: "+
				"minimal_height must be set", term.Name)
		}
		height := *p.MinimalHeight
		object := name(p.Object, Cube1)
		term.Eval = func(env *Env) (*mat.VecDense, error) {
			return ObjectIsLifted(env, height, object)
		}

	case CubesStackingRewardFunc:
		std, err := positiveStd(p.Std)
		if err != nil {
			return RewardTerm{}, err
		}
		cube1, cube2 := name(p.Cube1, Cube1), name(p.Cube2, Cube2)
		term.Eval = func(env *Env) (*mat.VecDense, error) {
			return CubesStackingReward(env, std, cube1, cube2)
		}
		term.Max = 2.0

	case CubeHeightAlignmentFunc:
		params := CubeHeightAlignmentParams{
			Std:          orDefault(p.Std, DefaultHeightAlignmentStd),
			TargetHeight: orDefault(p.TargetHeight, CubeSize),
			Cube1Cfg:     name(p.Cube1, Cube1),
			Cube2Cfg:     name(p.Cube2, Cube2),
		}
		if params.Std <= 0 {
			return RewardTerm{}, fmt.Errorf("build: term %v: std must be "+
				"positive, have(%v)", term.Name, params.Std)
		}
		term.Eval = func(env *Env) (*mat.VecDense, error) {
			return CubeHeightAlignment(env, params)
		}

	case StackingSuccessFunc:
		params := stackingSuccessParams(p)
		term.Eval = func(env *Env) (*mat.VecDense, error) {
			return StackingSuccess(env, params)
		}

	default:
		return RewardTerm{}, fmt.Errorf("build: term %v: unknown reward "+
			"function %q", term.Name, c.Func)
	}

	return term, nil
}

// stackingSuccessParams fills in StackingSuccessParams from term
// parameters
func stackingSuccessParams(p TermParams) StackingSuccessParams {
	params := DefaultStackingSuccessParams()
	if p.Cube1 != "" {
		params.Cube1Cfg = scene.NewEntityCfg(p.Cube1)
	}
	if p.Cube2 != "" {
		params.Cube2Cfg = scene.NewEntityCfg(p.Cube2)
	}
	if p.Robot != "" {
		params.RobotCfg = scene.NewEntityCfg(p.Robot)
	}
	if p.XYThreshold != nil {
		params.XYThreshold = *p.XYThreshold
	}
	if p.HeightThreshold != nil {
		params.HeightThreshold = *p.HeightThreshold
	}
	if p.HeightDiff != nil {
		params.HeightDiff = *p.HeightDiff
	}
	return params
}
