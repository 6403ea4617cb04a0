// Package landmark defines the 33-point body landmark frame produced by
// BlazePose-style pose estimators.
//
// Coordinates are normalized image space: X grows right, Y grows down, Z is
// depth relative to the hips. A landmark below the visibility threshold is
// treated as absent; callers never see a stale value in its place.
package landmark

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Count is the number of landmarks in a frame.
const Count = 33

// DefaultMinVisibility is the visibility below which a landmark is absent.
const DefaultMinVisibility = 0.5

// ErrLandmarkCount is returned when a frame does not carry exactly Count points.
var ErrLandmarkCount = errors.New("landmark: frame must have 33 landmarks")

// Index identifies a landmark position within a frame.
type Index int

const (
	Nose Index = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

var indexNames = [Count]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

func (i Index) String() string {
	if i < 0 || int(i) >= Count {
		return fmt.Sprintf("landmark(%d)", int(i))
	}
	return indexNames[i]
}

// Landmark is a single normalized point.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Vec returns the landmark position as a vector.
func (l Landmark) Vec() r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

func (l Landmark) finite() bool {
	return !math.IsNaN(l.X) && !math.IsNaN(l.Y) && !math.IsNaN(l.Z) &&
		!math.IsInf(l.X, 0) && !math.IsInf(l.Y, 0) && !math.IsInf(l.Z, 0)
}

// Frame is one pose-estimator output. It is treated as immutable once built.
type Frame struct {
	Points        [Count]Landmark
	Timestamp     time.Time
	MinVisibility float64
}

// NewFrame builds a frame from a slice of exactly Count landmarks.
func NewFrame(points []Landmark, ts time.Time) (Frame, error) {
	var f Frame
	if len(points) != Count {
		return f, fmt.Errorf("%w: got %d", ErrLandmarkCount, len(points))
	}
	copy(f.Points[:], points)
	f.Timestamp = ts
	f.MinVisibility = DefaultMinVisibility
	return f, nil
}

func (f Frame) threshold() float64 {
	if f.MinVisibility <= 0 {
		return DefaultMinVisibility
	}
	return f.MinVisibility
}

// Has reports whether every index is visible and finite.
func (f Frame) Has(idx ...Index) bool {
	min := f.threshold()
	for _, i := range idx {
		if i < 0 || int(i) >= Count {
			return false
		}
		p := f.Points[i]
		if p.Visibility < min || !p.finite() {
			return false
		}
	}
	return true
}

// Point returns the landmark position and whether it is present.
func (f Frame) Point(i Index) (r3.Vec, bool) {
	if !f.Has(i) {
		return r3.Vec{}, false
	}
	return f.Points[i].Vec(), true
}

// Midpoint returns the mean of two landmarks, present only when both are.
func (f Frame) Midpoint(a, b Index) (r3.Vec, bool) {
	if !f.Has(a, b) {
		return r3.Vec{}, false
	}
	return r3.Scale(0.5, r3.Add(f.Points[a].Vec(), f.Points[b].Vec())), true
}

// Empty reports whether the frame carries no visible landmark at all.
func (f Frame) Empty() bool {
	min := f.threshold()
	for _, p := range f.Points {
		if p.Visibility >= min && p.finite() {
			return false
		}
	}
	return true
}

// ShoulderCenter and HipCenter are the torso anchors used by most metrics.
func (f Frame) ShoulderCenter() (r3.Vec, bool) { return f.Midpoint(LeftShoulder, RightShoulder) }
func (f Frame) HipCenter() (r3.Vec, bool)      { return f.Midpoint(LeftHip, RightHip) }
