package stack

import (
	"math"

	"github.com/samuelfneumann/stackrl/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// Heights above the target at which the scripted policy travels
const (
	approachClearance = 0.08
	carryClearance    = 0.06
	alignTolerance    = 0.003
	heightTolerance   = 1e-3
)

// ScriptedPolicy is a hand-written pick-and-place policy for Kinematic
// environments. It reaches above cube_1, descends and grasps it, lifts
// it, carries it above cube_2, lowers it onto cube_2, and releases it.
// The policy only reads the current observation, so it may be used on
// environments that reset independently.
type ScriptedPolicy struct{}

// SelectAction returns the batch of actions for a batch of
// observations
func (ScriptedPolicy) SelectAction(obs *mat.Dense) *mat.Dense {
	rows, _ := obs.Dims()
	action := mat.NewDense(rows, actionLen, nil)
	for i := 0; i < rows; i++ {
		action.SetRow(i, scriptedAction(obs.RawRowView(i)))
	}
	return action
}

// scriptedAction returns the action for a single observation
func scriptedAction(obs []float64) []float64 {
	ee, c1, c2 := obs[0:3], obs[5:8], obs[8:11]
	fingersClosed := FrankaGripperOpenVal-obs[3] > FrankaGripperThreshold &&
		FrankaGripperOpenVal-obs[4] > FrankaGripperThreshold
	grasped := fingersClosed && dist3(ee, c1) < GraspDistance

	placeZ := c2[2] + CubeSize
	stacked := distXY(c1, c2) < alignTolerance &&
		math.Abs(c1[2]-placeZ) < 3*alignTolerance

	target := []float64{ee[0], ee[1], ee[2]}
	grip := 1.0
	switch {
	case stacked && !grasped:
		target[2] = ee[2] + carryClearance

	case grasped:
		grip = -1.0
		carryZ := placeZ + carryClearance
		if distXY(ee, c2) > alignTolerance {
			if ee[2] < carryZ-heightTolerance {
				target[2] = carryZ
			} else {
				target = []float64{c2[0], c2[1], carryZ}
			}
		} else {
			target = []float64{c2[0], c2[1], placeZ}
			if math.Abs(ee[2]-placeZ) < heightTolerance {
				grip = 1.0
			}
		}

	default:
		approachZ := c1[2] + approachClearance
		if distXY(ee, c1) > alignTolerance {
			if ee[2] < approachZ-heightTolerance {
				target[2] = approachZ
			} else {
				target = []float64{c1[0], c1[1], approachZ}
			}
		} else {
			target = []float64{c1[0], c1[1], c1[2]}
			if dist3(ee, c1) < alignTolerance {
				grip = -1.0
			}
		}
	}

	action := make([]float64, actionLen)
	for j := 0; j < 3; j++ {
		action[j] = floatutils.Clip((target[j]-ee[j])/ActionScale, -1, 1)
	}
	action[3] = grip
	return action
}

func distXY(a, b []float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

func dist3(a, b []float64) float64 {
	return math.Sqrt(sq(a[0]-b[0]) + sq(a[1]-b[1]) + sq(a[2]-b[2]))
}
