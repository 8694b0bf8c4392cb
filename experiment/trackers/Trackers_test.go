package trackers

import (
	"path/filepath"
	"testing"

	ts "github.com/samuelfneumann/stackrl/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// steps returns a sequence of timesteps for two environments. The
// first environment finishes an episode in a terminal state on step 2,
// the second is cut off on step 3.
func steps() []ts.TimeStep {
	obs := func() *mat.Dense { return mat.NewDense(2, 1, nil) }

	first := ts.New(ts.First, mat.NewVecDense(2, []float64{5, 5}), 0.99,
		obs(), 0)
	second := ts.New(ts.Mid, mat.NewVecDense(2, []float64{1, 2}), 0.99,
		obs(), 1)
	third := ts.New(ts.Mid, mat.NewVecDense(2, []float64{3, 2}), 0.99,
		obs(), 2)
	third.End(0, ts.TerminalStateReached)
	fourth := ts.New(ts.Mid, mat.NewVecDense(2, []float64{1, 2}), 0.99,
		obs(), 3)
	fourth.Number[0] = 1
	fourth.End(1, ts.Timeout)

	return []ts.TimeStep{first, second, third, fourth}
}

func TestReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(path)
	for _, step := range steps() {
		r.Track(step)
	}
	assert.Equal(t, []float64{4, 6}, r.EpisodeReturns())

	require.NoError(t, r.Save())
	data, err := LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 6}, data)

	assert.Panics(t, func() {
		r.Track(ts.New(ts.Mid, mat.NewVecDense(3, nil), 0.99,
			mat.NewDense(3, 1, nil), 1))
	})
}

func TestSuccess(t *testing.T) {
	s := NewSuccess(filepath.Join(t.TempDir(), "success.bin"))
	assert.Equal(t, 0.0, s.Rate())

	for _, step := range steps() {
		s.Track(step)
	}
	assert.Equal(t, 2, s.Episodes())
	assert.Equal(t, 0.5, s.Rate())
	require.NoError(t, s.Save())
}

func TestEpisodeLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "length.bin")
	e := NewEpisodeLength(path)
	for _, step := range steps() {
		e.Track(step)
	}
	require.NoError(t, e.Save())

	data, err := LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, data)
}

func TestLoadDataMissing(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestImplementsTracker(t *testing.T) {
	var _ Tracker = NewReturn("")
	var _ Tracker = NewSuccess("")
	var _ Tracker = NewEpisodeLength("")
}
