package trackers

import (
	"github.com/samuelfneumann/stackrl/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment.
// Note that an episode must finish for this Tracker to save its data.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the step number of every environment on the last step of
// its episode
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	for i := 0; i < t.NumEnvs(); i++ {
		if t.Last(i) {
			e.episodeLengths = append(e.episodeLengths, float64(t.Number[i]))
		}
	}
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() error {
	return save(e.filename, e.episodeLengths)
}
