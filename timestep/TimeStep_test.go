package timestep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	reward := mat.NewVecDense(3, []float64{1, 2, 3})
	step := New(First, reward, 0.99, mat.NewDense(3, 2, nil), 0)

	assert.Equal(t, 3, step.NumEnvs())
	for i := 0; i < 3; i++ {
		assert.True(t, step.First(i))
		assert.False(t, step.Last(i))
		assert.Equal(t, Running, step.EndType[i])
	}
	assert.False(t, step.AnyLast())
	assert.Contains(t, step.String(), "Mean Reward:  2.00")

	assert.Panics(t, func() {
		New(Mid, reward, 0.99, mat.NewDense(2, 2, nil), 0)
	})
}

func TestEnd(t *testing.T) {
	step := New(Mid, mat.NewVecDense(2, nil), 0.99, mat.NewDense(2, 1, nil), 4)
	assert.True(t, step.Mid(1))

	step.End(1, Timeout)
	assert.True(t, step.AnyLast())
	assert.True(t, step.Mid(0))
	assert.True(t, step.Last(1))
	assert.Equal(t, Timeout, step.EndType[1])
	assert.Equal(t, "Timeout", step.EndType[1].String())
	assert.Equal(t, "Last", step.StepType[1].String())
}
