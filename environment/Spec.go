package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion, an observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of a single environment's action, observation,
// discount, or reward. Batched values have one such element per row.
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// ClipRows clips each row of a batch element-wise to lie within the
// bounds of the Spec, returning the clipped copy.
func (s Spec) ClipRows(batch mat.Matrix) *mat.Dense {
	rows, cols := batch.Dims()
	if cols != s.Shape.Len() {
		panic(fmt.Sprintf("clipRows: batch should have %v columns, have(%v)",
			s.Shape.Len(), cols))
	}

	clipped := mat.DenseCopyOf(batch)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := clipped.At(i, j)
			if low := s.LowerBound.AtVec(j); v < low {
				clipped.Set(i, j, low)
			} else if high := s.UpperBound.AtVec(j); v > high {
				clipped.Set(i, j, high)
			}
		}
	}
	return clipped
}
