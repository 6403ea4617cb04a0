package posture

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-coach/pkg/landmark"
)

// Name identifies a metric.
type Name string

// General golf-stance metrics.
const (
	SpineTilt     Name = "spine_tilt"
	KneeBend      Name = "knee_bend"
	ShoulderLevel Name = "shoulder_level"
	HipRotation   Name = "hip_rotation"
	HeadTilt      Name = "head_tilt"
)

// Exercise metrics.
const (
	KneeAngle      Name = "knee_angle"
	HipDepth       Name = "hip_depth"
	SpineAlignment Name = "spine_alignment"
	ElbowAngle     Name = "elbow_angle"
	BodyLine       Name = "body_line"
	ArmSymmetry    Name = "arm_symmetry"
	CurlRange      Name = "curl_range"
	KneeFlex       Name = "knee_flex"
	StanceRatio    Name = "stance_ratio"
	Stability      Name = "stability"
)

// Value is a computed metric. Unknown values carry no number.
type Value struct {
	Name  Name    `json:"name"`
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// Unknown returns an unknown value for name.
func Unknown(name Name) Value {
	return Value{Name: name}
}

func known(name Name, v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unknown(name)
	}
	return Value{Name: name, Value: v, Known: true}
}

func (v Value) String() string {
	if !v.Known {
		return fmt.Sprintf("%s=unknown", v.Name)
	}
	return fmt.Sprintf("%s=%.3f", v.Name, v.Value)
}

// Func computes one metric from a frame.
type Func func(landmark.Frame) Value

var funcs = map[Name]Func{
	SpineTilt:      computeSpineTilt,
	KneeBend:       computeKneeBend,
	ShoulderLevel:  computeShoulderLevel,
	HipRotation:    computeHipRotation,
	HeadTilt:       computeHeadTilt,
	KneeAngle:      computeKneeAngle,
	HipDepth:       computeHipDepth,
	SpineAlignment: computeSpineAlignment,
	ElbowAngle:     computeElbowAngle,
	BodyLine:       computeBodyLine,
	ArmSymmetry:    computeArmSymmetry,
	CurlRange:      computeCurlRange,
	KneeFlex:       computeKneeFlex,
	StanceRatio:    computeStanceRatio,
	Stability:      computeStability,
}

// Compute evaluates a single metric. Unregistered names are unknown.
func Compute(f landmark.Frame, name Name) Value {
	fn, ok := funcs[name]
	if !ok {
		return Unknown(name)
	}
	return fn(f)
}

// Snapshot is an ordered set of metric values from one frame.
type Snapshot []Value

// ComputeAll evaluates the named metrics in order.
func ComputeAll(f landmark.Frame, names ...Name) Snapshot {
	s := make(Snapshot, 0, len(names))
	for _, n := range names {
		s = append(s, Compute(f, n))
	}
	return s
}

// Get returns the value for name, unknown when absent.
func (s Snapshot) Get(name Name) Value {
	for _, v := range s {
		if v.Name == name {
			return v
		}
	}
	return Unknown(name)
}

// Unknowns lists the metrics that could not be computed.
func (s Snapshot) Unknowns() []Name {
	var out []Name
	for _, v := range s {
		if !v.Known {
			out = append(out, v.Name)
		}
	}
	return out
}

// Complete reports whether every value is known.
func (s Snapshot) Complete() bool {
	return len(s.Unknowns()) == 0
}

// ============================================================
// Golf stance
// ============================================================

// Golf stance metrics are whole numbers, rounded half up, so ranges compare
// against what the metrics panel shows. Stability sums the rounded parts.

func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

func computeSpineTilt(f landmark.Frame) Value {
	sh, ok1 := f.Point(landmark.LeftShoulder)
	hip, ok2 := f.Point(landmark.LeftHip)
	if !ok1 || !ok2 {
		return Unknown(SpineTilt)
	}
	angle := math.Abs(degrees(math.Atan2(sh.Y-hip.Y, sh.X-hip.X)))
	return known(SpineTilt, round(math.Abs(90-angle)))
}

func computeKneeBend(f landmark.Frame) Value {
	a, ok := leftLegAngle(f)
	if !ok {
		return Unknown(KneeBend)
	}
	return known(KneeBend, round(180-a))
}

func computeShoulderLevel(f landmark.Frame) Value {
	if !f.Has(landmark.LeftShoulder, landmark.RightShoulder) {
		return Unknown(ShoulderLevel)
	}
	return known(ShoulderLevel, round((f.Points[landmark.RightShoulder].Y-f.Points[landmark.LeftShoulder].Y)*100))
}

func computeHipRotation(f landmark.Frame) Value {
	l, ok1 := f.Point(landmark.LeftHip)
	r, ok2 := f.Point(landmark.RightHip)
	if !ok1 || !ok2 {
		return Unknown(HipRotation)
	}
	return known(HipRotation, round(math.Abs(degrees(math.Atan2(r.Z-l.Z, r.X-l.X)))))
}

func computeHeadTilt(f landmark.Frame) Value {
	nose, ok1 := f.Point(landmark.Nose)
	ears, ok2 := f.Midpoint(landmark.LeftEar, landmark.RightEar)
	if !ok1 || !ok2 {
		return Unknown(HeadTilt)
	}
	return known(HeadTilt, round((nose.Y-ears.Y)*100))
}

func computeStability(f landmark.Frame) Value {
	head := computeHeadTilt(f)
	shoulder := computeShoulderLevel(f)
	if !head.Known || !shoulder.Known {
		return Unknown(Stability)
	}
	return known(Stability, math.Abs(head.Value)+math.Abs(shoulder.Value))
}

// ============================================================
// Exercises
// ============================================================

func leftLegAngle(f landmark.Frame) (float64, bool) {
	return jointAngle(f, landmark.LeftHip, landmark.LeftKnee, landmark.LeftAnkle)
}

func jointAngle(f landmark.Frame, a, b, c landmark.Index) (float64, bool) {
	if !f.Has(a, b, c) {
		return 0, false
	}
	return AngleBetween(f.Points[a].Vec(), f.Points[b].Vec(), f.Points[c].Vec()), true
}

// pairedAngle averages the left and right joint angles.
func pairedAngle(f landmark.Frame, name Name, la, lb, lc, ra, rb, rc landmark.Index) Value {
	left, ok1 := jointAngle(f, la, lb, lc)
	right, ok2 := jointAngle(f, ra, rb, rc)
	if !ok1 || !ok2 {
		return Unknown(name)
	}
	return known(name, (left+right)/2)
}

func computeKneeAngle(f landmark.Frame) Value {
	return pairedAngle(f, KneeAngle,
		landmark.LeftHip, landmark.LeftKnee, landmark.LeftAnkle,
		landmark.RightHip, landmark.RightKnee, landmark.RightAnkle)
}

func computeKneeFlex(f landmark.Frame) Value {
	v := computeKneeAngle(f)
	v.Name = KneeFlex
	return v
}

func computeElbowAngle(f landmark.Frame) Value {
	return pairedAngle(f, ElbowAngle,
		landmark.LeftShoulder, landmark.LeftElbow, landmark.LeftWrist,
		landmark.RightShoulder, landmark.RightElbow, landmark.RightWrist)
}

func computeHipDepth(f landmark.Frame) Value {
	hips, ok1 := f.Midpoint(landmark.LeftHip, landmark.RightHip)
	knees, ok2 := f.Midpoint(landmark.LeftKnee, landmark.RightKnee)
	if !ok1 || !ok2 {
		return Unknown(HipDepth)
	}
	return known(HipDepth, math.Abs(hips.Y-knees.Y))
}

func computeSpineAlignment(f landmark.Frame) Value {
	sh, ok1 := f.ShoulderCenter()
	hip, ok2 := f.HipCenter()
	if !ok1 || !ok2 {
		return Unknown(SpineAlignment)
	}
	return known(SpineAlignment, math.Abs(sh.X-hip.X))
}

func computeBodyLine(f landmark.Frame) Value {
	sh, ok1 := f.ShoulderCenter()
	hip, ok2 := f.HipCenter()
	ankle, ok3 := f.Midpoint(landmark.LeftAnkle, landmark.RightAnkle)
	if !ok1 || !ok2 || !ok3 {
		return Unknown(BodyLine)
	}
	return known(BodyLine, math.Abs((sh.Y+ankle.Y)/2-hip.Y))
}

func computeArmSymmetry(f landmark.Frame) Value {
	if !f.Has(landmark.LeftWrist, landmark.RightWrist) {
		return Unknown(ArmSymmetry)
	}
	return known(ArmSymmetry, math.Abs(f.Points[landmark.LeftWrist].Y-f.Points[landmark.RightWrist].Y))
}

func computeCurlRange(f landmark.Frame) Value {
	wrists, ok1 := f.Midpoint(landmark.LeftWrist, landmark.RightWrist)
	sh, ok2 := f.ShoulderCenter()
	if !ok1 || !ok2 {
		return Unknown(CurlRange)
	}
	return known(CurlRange, math.Abs(wrists.Y-sh.Y))
}

func computeStanceRatio(f landmark.Frame) Value {
	if !f.Has(landmark.LeftShoulder, landmark.RightShoulder, landmark.LeftHip, landmark.RightHip) {
		return Unknown(StanceRatio)
	}
	p := f.Points
	shoulders := math.Abs(p[landmark.LeftShoulder].X - p[landmark.RightShoulder].X)
	hips := math.Abs(p[landmark.LeftHip].X - p[landmark.RightHip].X)
	if hips == 0 {
		return Unknown(StanceRatio)
	}
	return known(StanceRatio, shoulders/hips)
}
