package retarget

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/posture"
	"github.com/teslashibe/go-coach/pkg/skeleton"
)

// SquatDrill is the drill id the squat override is registered under.
const SquatDrill = "squat"

// MaxLegRotation is the thigh rotation at full knee flexion.
const MaxLegRotation = math.Pi / 3

// SideViewSquat holds the avatar square to a side camera and drives the
// thighs from the knee angle.
type SideViewSquat struct{}

// Apply cancels general orientation and bends the legs.
func (SideViewSquat) Apply(t Target, f landmark.Frame) {
	knee := posture.Compute(f, posture.KneeAngle)
	if !knee.Known {
		t.Root.SetRotation(skeleton.Slerp(t.Root.Rotation(), skeleton.Identity, t.Factors.Root))
		return
	}

	bend := math.Max(0, (180-knee.Value)/180)
	legRotation := bend * MaxLegRotation
	legTarget := skeleton.Euler{X: legRotation}.Quat()

	driven := 0
	for _, j := range []skeleton.Joint{skeleton.LeftUpperLeg, skeleton.RightUpperLeg} {
		res := t.Resolver.ResolveWith(j, skeleton.Options{Positional: true})
		if !res.Found() {
			continue
		}
		res.Node.SetRotation(skeleton.Slerp(res.Node.Rotation(), legTarget, t.Factors.Override))
		driven++
	}

	rootTarget := skeleton.Identity
	if driven == 0 {
		rootTarget = skeleton.Euler{X: legRotation * 0.5}.Quat()
	}
	t.Root.SetRotation(skeleton.Slerp(t.Root.Rotation(), rootTarget, t.Factors.Root))

	if depth := posture.Compute(f, posture.HipDepth); depth.Known {
		target := r3.Vec{Y: -depth.Value * 0.5}
		t.Root.SetPosition(SmoothVec(t.Root.Position(), target, t.Factors.Root))
	}
}
