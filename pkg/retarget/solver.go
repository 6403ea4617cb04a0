package retarget

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/posture"
	"github.com/teslashibe/go-coach/pkg/skeleton"
)

// Segment is one solved body part.
type Segment struct {
	Rotation skeleton.Euler `json:"rotation"`
	Position *r3.Vec        `json:"position,omitempty"`
}

// SolvedPose is a full-body solve keyed by canonical joint, in the shape
// external solvers produce.
type SolvedPose map[skeleton.Joint]Segment

// Solver turns a landmark frame into per-joint target rotations.
type Solver interface {
	Solve(f landmark.Frame) SolvedPose
}

// BodyYaw is the torso yaw signal: the angle of the hip-to-shoulder line
// away from vertical in the image plane. Upright is zero.
func BodyYaw(f landmark.Frame) (float64, bool) {
	sc, ok1 := f.ShoulderCenter()
	hc, ok2 := f.HipCenter()
	if !ok1 || !ok2 {
		return 0, false
	}
	return math.Atan2(sc.X-hc.X, hc.Y-sc.Y), true
}

// TorsoPitch is the forward lean of the torso from the depth offset of
// shoulders against hips.
func TorsoPitch(f landmark.Frame) (float64, bool) {
	sc, ok1 := f.ShoulderCenter()
	hc, ok2 := f.HipCenter()
	if !ok1 || !ok2 {
		return 0, false
	}
	return math.Atan2(hc.Z-sc.Z, hc.Y-sc.Y), true
}

// ShoulderRoll is the scaled height difference between the shoulders.
func ShoulderRoll(f landmark.Frame) (float64, bool) {
	if !f.Has(landmark.LeftShoulder, landmark.RightShoulder) {
		return 0, false
	}
	return (f.Points[landmark.RightShoulder].Y - f.Points[landmark.LeftShoulder].Y) * 1.5, true
}

// LandmarkSolver derives approximate joint rotations straight from the
// landmarks. It is used when a frame arrives without an external solve.
type LandmarkSolver struct{}

// Solve returns a segment for every joint whose landmarks are present.
func (LandmarkSolver) Solve(f landmark.Frame) SolvedPose {
	pose := make(SolvedPose)

	yaw, okYaw := BodyYaw(f)
	pitch, okPitch := TorsoPitch(f)
	roll, okRoll := ShoulderRoll(f)
	if okYaw && okPitch && okRoll {
		hips := Segment{Rotation: skeleton.Euler{X: pitch, Y: yaw, Z: roll}}
		if hc, ok := f.HipCenter(); ok {
			p := r3.Vec{X: hc.X - 0.5, Y: hc.Y - 0.5, Z: hc.Z}
			hips.Position = &p
		}
		pose[skeleton.Hips] = hips
		pose[skeleton.Spine] = Segment{Rotation: skeleton.Euler{X: pitch * 0.5}}
		pose[skeleton.Chest] = Segment{Rotation: skeleton.Euler{Z: roll}}
	}

	if nose, ok := f.Point(landmark.Nose); ok {
		if ears, ok := f.Midpoint(landmark.LeftEar, landmark.RightEar); ok {
			l, r := f.Points[landmark.LeftEar], f.Points[landmark.RightEar]
			head := skeleton.Euler{
				X: clamp((nose.Y-ears.Y)*5, -0.6, 0.6),
				Z: math.Atan2(r.Y-l.Y, math.Abs(r.X-l.X)),
			}
			pose[skeleton.Neck] = Segment{Rotation: head}
			pose[skeleton.Head] = Segment{Rotation: head}
		}
	}

	limb := func(upper, lower skeleton.Joint, root, mid, end landmark.Index, sign float64) {
		if !f.Has(root, mid, end) {
			return
		}
		a, b, c := f.Points[root].Vec(), f.Points[mid].Vec(), f.Points[end].Vec()
		drop := math.Atan2(b.Y-a.Y, math.Abs(b.X-a.X))
		bend := (180 - posture.AngleBetween(a, b, c)) * math.Pi / 180
		pose[upper] = Segment{Rotation: skeleton.Euler{Z: -sign * drop}}
		pose[lower] = Segment{Rotation: skeleton.Euler{Y: sign * bend}}
	}
	limb(skeleton.LeftUpperArm, skeleton.LeftLowerArm, landmark.LeftShoulder, landmark.LeftElbow, landmark.LeftWrist, 1)
	limb(skeleton.RightUpperArm, skeleton.RightLowerArm, landmark.RightShoulder, landmark.RightElbow, landmark.RightWrist, -1)

	leg := func(upper, lower skeleton.Joint, shoulder, hip, knee, ankle landmark.Index) {
		if !f.Has(shoulder, hip, knee, ankle) {
			return
		}
		s, h, k, a := f.Points[shoulder].Vec(), f.Points[hip].Vec(), f.Points[knee].Vec(), f.Points[ankle].Vec()
		hipFlex := (180 - posture.AngleBetween(s, h, k)) * math.Pi / 180
		kneeBend := (180 - posture.AngleBetween(h, k, a)) * math.Pi / 180
		pose[upper] = Segment{Rotation: skeleton.Euler{X: -hipFlex}}
		pose[lower] = Segment{Rotation: skeleton.Euler{X: kneeBend}}
	}
	leg(skeleton.LeftUpperLeg, skeleton.LeftLowerLeg, landmark.LeftShoulder, landmark.LeftHip, landmark.LeftKnee, landmark.LeftAnkle)
	leg(skeleton.RightUpperLeg, skeleton.RightLowerLeg, landmark.RightShoulder, landmark.RightHip, landmark.RightKnee, landmark.RightAnkle)

	return pose
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
