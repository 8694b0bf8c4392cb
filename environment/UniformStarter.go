package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a box
type UniformStarter struct {
	features int
	seed     uint64
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling feature i
// uniformly from bounds[i]
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return &UniformStarter{len(bounds), seed, rand}
}

// Start returns n starting states, one per row
func (u *UniformStarter) Start(n int) *mat.Dense {
	start := mat.NewDense(n, u.features, nil)
	for i := 0; i < n; i++ {
		start.SetRow(i, u.rand.Rand(nil))
	}
	return start
}

// StartOne returns a single starting state
func (u *UniformStarter) StartOne() []float64 {
	return u.rand.Rand(nil)
}
