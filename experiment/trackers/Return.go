package trackers

import (
	ts "github.com/samuelfneumann/stackrl/timestep"
)

// Return tracks and saves the episodic returns of a batch of
// environments. Each environment accumulates its own return, and the
// return of an episode is recorded when the environment reports the
// last step of that episode. The next episode of that environment
// accumulates from the following step, whether or not that step is
// marked timestep.First. Episodic returns are saved in the order in
// which episodes finish.
//
// Note: An episode must finish for this Tracker to save its data.
// Episodes still running when the experiment ends are not saved.
type Return struct {
	currentReturns []float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track tracks the rewards seen on a timestep. Track panics if the
// number of environments changes between calls.
func (r *Return) Track(step ts.TimeStep) {
	if r.currentReturns == nil {
		r.currentReturns = make([]float64, step.NumEnvs())
	} else if len(r.currentReturns) != step.NumEnvs() {
		panic("track: number of environments changed between timesteps")
	}

	// Rewards on the first step are not part of the return
	for i := range r.currentReturns {
		if step.First(i) {
			r.currentReturns[i] = 0.0
			continue
		}

		r.currentReturns[i] += step.Reward.AtVec(i)
		if step.Last(i) {
			r.episodeReturns = append(r.episodeReturns, r.currentReturns[i])
			r.currentReturns[i] = 0.0
		}
	}
}

// EpisodeReturns returns the returns of the episodes finished so far
func (r *Return) EpisodeReturns() []float64 {
	return r.episodeReturns
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() error {
	return save(r.filename, r.episodeReturns)
}
