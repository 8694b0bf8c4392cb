// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RowDistance returns the Euclidean distance between corresponding rows
// of a and b, using only the first cols columns. For (x, y, z) position
// batches, cols == 3 gives the full distance and cols == 2 gives the
// distance in the XY plane.
func RowDistance(a, b mat.Matrix, cols int) *mat.VecDense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb {
		panic(fmt.Sprintf("rowDistance: row mismatch \n\thave(%v) "+
			"\n\twant(%v)", rb, ra))
	}
	if cols > ca || cols > cb {
		panic(fmt.Sprintf("rowDistance: cannot use %v columns of %v and "+
			"%v column matrices", cols, ca, cb))
	}

	dist := mat.NewVecDense(ra, nil)
	for i := 0; i < ra; i++ {
		sq := 0.0
		for j := 0; j < cols; j++ {
			d := a.At(i, j) - b.At(i, j)
			sq += d * d
		}
		dist.SetVec(i, math.Sqrt(sq))
	}
	return dist
}

// ColDiff returns a[:, col] - b[:, col]
func ColDiff(a, b mat.Matrix, col int) *mat.VecDense {
	ra, _ := a.Dims()
	diff := mat.NewVecDense(ra, mat.Col(nil, col, a))
	diff.SubVec(diff, mat.NewVecDense(ra, mat.Col(nil, col, b)))
	return diff
}

// Col returns a copy of column col of a as a vector
func Col(a mat.Matrix, col int) *mat.VecDense {
	r, _ := a.Dims()
	return mat.NewVecDense(r, mat.Col(nil, col, a))
}

// Apply applies f element-wise to a in place
func Apply(a *mat.VecDense, f func(float64) float64) {
	for i := 0; i < a.Len(); i++ {
		a.SetVec(i, f(a.AtVec(i)))
	}
}

// Where returns a vector which is 1.0 where cond holds for an element of
// a and 0.0 elsewhere
func Where(a mat.Vector, cond func(float64) bool) *mat.VecDense {
	out := mat.NewVecDense(a.Len(), nil)
	for i := 0; i < a.Len(); i++ {
		if cond(a.AtVec(i)) {
			out.SetVec(i, 1.0)
		}
	}
	return out
}

// VecMean returns the mean of the elements of a vector
func VecMean(a *mat.VecDense) float64 {
	return stat.Mean(a.RawVector().Data, nil)
}
