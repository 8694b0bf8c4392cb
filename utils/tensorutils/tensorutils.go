// Package tensorutils converts batches of gonum vectors and matrices to
// tensors
package tensorutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// FromVec returns a 1-dimensional tensor holding a copy of the elements
// of v
func FromVec(v mat.Vector) *tensor.Dense {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}

	return tensor.NewDense(tensor.Float64, tensor.Shape{v.Len()},
		tensor.WithBacking(data))
}

// FromDense returns a 2-dimensional tensor holding a copy of the
// elements of m
func FromDense(m mat.Matrix) *tensor.Dense {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}

	return tensor.NewDense(tensor.Float64, tensor.Shape{r, c},
		tensor.WithBacking(data))
}

// Stack stacks vectors of equal length as the rows of a 2-dimensional
// tensor. Stacking the per-step reward batches of a run gives a
// (steps x environments) tensor.
func Stack(vecs []*mat.VecDense) (*tensor.Dense, error) {
	if len(vecs) == 0 {
		return nil, fmt.Errorf("stack: no vectors to stack")
	}

	n := vecs[0].Len()
	data := make([]float64, 0, len(vecs)*n)
	for i, v := range vecs {
		if v.Len() != n {
			return nil, fmt.Errorf("stack: vector %v has length %v, "+
				"want(%v)", i, v.Len(), n)
		}
		for j := 0; j < n; j++ {
			data = append(data, v.AtVec(j))
		}
	}

	return tensor.NewDense(tensor.Float64, tensor.Shape{len(vecs), n},
		tensor.WithBacking(data)), nil
}
