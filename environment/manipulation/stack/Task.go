package stack

import (
	"fmt"

	"github.com/samuelfneumann/stackrl/environment"
	"github.com/samuelfneumann/stackrl/environment/scene"
	ts "github.com/samuelfneumann/stackrl/timestep"
	"github.com/samuelfneumann/stackrl/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// Stack implements the cube stacking Task. The reward on each step is
// the weighted sum of the configured reward terms, each scaled by the
// step duration when the configuration sets one. Every term is
// evaluated on every step; which stage an environment is in only shows
// up through the values the terms produce.
//
// Episodes end when cube_1 is stacked on cube_2 and released, or after
// a step limit.
type Stack struct {
	cfg   EnvCfg
	terms []RewardTerm

	success   StackingSuccessParams
	lastGoal  []bool
	lastTerms []*mat.VecDense

	// Sum of each weighted term over the current episode of each
	// environment, one row per term
	episodeSums *mat.Dense

	stepLimit *environment.StepLimit
	goalEnder *environment.FunctionEnder
}

// NewStack returns a new Stack task for the environment configuration
func NewStack(cfg EnvCfg) (*Stack, error) {
	if cfg.NumEnvs <= 0 {
		return nil, fmt.Errorf("newStack: number of environments must be "+
			"positive, have(%v)", cfg.NumEnvs)
	}
	if cfg.EpisodeLength <= 0 {
		return nil, fmt.Errorf("newStack: episode length must be "+
			"positive, have(%v)", cfg.EpisodeLength)
	}
	if len(cfg.Rewards) == 0 {
		return nil, fmt.Errorf("newStack: no reward terms configured")
	}

	terms := make([]RewardTerm, len(cfg.Rewards))
	seen := make(map[string]bool)
	success := DefaultStackingSuccessParams()
	for i, termCfg := range cfg.Rewards {
		term, err := termCfg.Build()
		if err != nil {
			return nil, fmt.Errorf("newStack: %w", err)
		}
		if seen[term.Name] {
			return nil, fmt.Errorf("newStack: duplicate reward term %q",
				term.Name)
		}
		seen[term.Name] = true
		terms[i] = term

		// The success term, if configured, also decides episode ends
		if termCfg.Func == StackingSuccessFunc {
			success = stackingSuccessParams(termCfg.Params)
		}
	}

	s := &Stack{
		cfg:         cfg,
		terms:       terms,
		success:     success,
		lastGoal:    make([]bool, cfg.NumEnvs),
		episodeSums: mat.NewDense(len(terms), cfg.NumEnvs, nil),
		stepLimit:   environment.NewStepLimit(cfg.EpisodeLength),
	}
	s.goalEnder = environment.NewFunctionEnder(
		func(*ts.TimeStep) []bool { return s.lastGoal },
		ts.TerminalStateReached,
	)
	return s, nil
}

// Terms returns the names of the reward terms in evaluation order
func (s *Stack) Terms() []string {
	names := make([]string, len(s.terms))
	for i, term := range s.terms {
		names[i] = term.Name
	}
	return names
}

// GetReward returns the total reward of each environment for the scene
// snapshot of the current step
func (s *Stack) GetReward(snapshot *scene.Snapshot) (*mat.VecDense, error) {
	if snapshot.NumEnvs() != s.cfg.NumEnvs {
		return nil, fmt.Errorf("getReward: %w \n\thave(%v) \n\twant(%v)",
			scene.ErrBatchSize, snapshot.NumEnvs(), s.cfg.NumEnvs)
	}
	env := NewEnv(snapshot, s.cfg)

	scale := 1.0
	if s.cfg.Dt > 0 {
		scale = s.cfg.Dt
	}

	total := mat.NewVecDense(s.cfg.NumEnvs, nil)
	values := make([]*mat.VecDense, len(s.terms))
	for i, term := range s.terms {
		value, err := term.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("getReward: term %v: %w", term.Name, err)
		}
		values[i] = value

		weighted := mat.NewVecDense(value.Len(), nil)
		weighted.ScaleVec(term.Weight*scale, value)
		total.AddVec(total, weighted)

		sums := s.episodeSums.RowView(i).(*mat.VecDense)
		sums.AddVec(sums, weighted)
	}
	s.lastTerms = values

	goal, err := s.AtGoal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("getReward: %w", err)
	}
	s.lastGoal = goal

	return total, nil
}

// LastTermValues returns the unweighted value of each reward term
// computed by the last call to GetReward, keyed by term name
func (s *Stack) LastTermValues() map[string]*mat.VecDense {
	values := make(map[string]*mat.VecDense, len(s.lastTerms))
	for i, v := range s.lastTerms {
		values[s.terms[i].Name] = v
	}
	return values
}

// AtGoal returns, for each environment, whether cube_1 has been
// stacked on cube_2 and released
func (s *Stack) AtGoal(snapshot *scene.Snapshot) ([]bool, error) {
	success, err := StackingSuccess(NewEnv(snapshot, s.cfg), s.success)
	if err != nil {
		return nil, fmt.Errorf("atGoal: %w", err)
	}

	goal := make([]bool, success.Len())
	for i := range goal {
		goal[i] = success.AtVec(i) > 0
	}
	return goal, nil
}

// End checks whether the episode of each environment has ended, either
// by reaching the goal on the last call to GetReward or by reaching the
// step limit. Ended environments are marked as timestep.Last.
func (s *Stack) End(t *ts.TimeStep) bool {
	goal := s.goalEnder.End(t)
	limit := s.stepLimit.End(t)
	return goal || limit
}

// Reset clears the episode reward sums of the given environments and
// returns the mean episode sum of each term over those environments.
func (s *Stack) Reset(envIDs []int) map[string]float64 {
	means := make(map[string]float64, len(s.terms))
	if len(envIDs) == 0 {
		return means
	}

	sums := mat.NewVecDense(len(envIDs), nil)
	for i, term := range s.terms {
		for j, id := range envIDs {
			sums.SetVec(j, s.episodeSums.At(i, id))
			s.episodeSums.Set(i, id, 0.0)
		}
		means[term.Name] = matutils.VecMean(sums)
	}
	for _, id := range envIDs {
		s.lastGoal[id] = false
	}
	return means
}
