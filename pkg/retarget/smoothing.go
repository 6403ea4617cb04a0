package retarget

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-coach/pkg/skeleton"
)

// Smooth moves current toward target by factor. Factors in (0, 1) converge
// monotonically and never overshoot.
func Smooth(current, target, factor float64) float64 {
	return current + (target-current)*factor
}

// SmoothVec applies Smooth per component.
func SmoothVec(current, target r3.Vec, factor float64) r3.Vec {
	return r3.Add(current, r3.Scale(factor, r3.Sub(target, current)))
}

// Factors are the per-frame smoothing weights.
type Factors struct {
	Core           float64 // hips, spine, chest
	Head           float64 // neck, head
	Arm            float64
	Leg            float64
	Root           float64 // whole-avatar rotation and position
	HipTranslation float64
	Override       float64 // drill-specific leg drive
}

// DefaultFactors returns the tuned smoothing weights.
func DefaultFactors() Factors {
	return Factors{
		Core:           0.3,
		Head:           0.3,
		Arm:            0.35,
		Leg:            0.35,
		Root:           0.3,
		HipTranslation: 0.2,
		Override:       0.4,
	}
}

// For returns the weight for a joint's class.
func (f Factors) For(j skeleton.Joint) float64 {
	switch j {
	case skeleton.Hips, skeleton.Spine, skeleton.Chest:
		return f.Core
	case skeleton.Neck, skeleton.Head:
		return f.Head
	case skeleton.LeftUpperArm, skeleton.LeftLowerArm, skeleton.RightUpperArm, skeleton.RightLowerArm:
		return f.Arm
	default:
		return f.Leg
	}
}

// YawGain scales the body-yaw signal in every mode.
const YawGain = 0.8

// dampeners scale solved rotations per joint before smoothing. Joints not
// listed pass through unchanged.
var dampeners = map[skeleton.Joint]skeleton.Euler{
	skeleton.Hips:  {X: 1, Y: YawGain, Z: 1},
	skeleton.Chest: {X: 0.25, Y: 0.25, Z: 0.25},
	skeleton.Neck:  {X: 0.5, Y: 0.5, Z: 0.5},
}

func dampen(j skeleton.Joint, e skeleton.Euler) skeleton.Euler {
	d, ok := dampeners[j]
	if !ok {
		return e
	}
	return skeleton.Euler{X: e.X * d.X, Y: e.Y * d.Y, Z: e.Z * d.Z}
}
