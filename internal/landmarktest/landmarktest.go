// Package landmarktest builds synthetic pose frames for tests and demo feeds.
package landmarktest

import (
	"math"
	"time"

	"github.com/teslashibe/go-coach/pkg/landmark"
)

// Builder assembles frames point by point. Unset landmarks stay invisible.
type Builder struct {
	f landmark.Frame
}

// NewBuilder returns a builder for an empty frame.
func NewBuilder() *Builder {
	return &Builder{f: landmark.Frame{MinVisibility: landmark.DefaultMinVisibility}}
}

// Set places a fully visible landmark.
func (b *Builder) Set(i landmark.Index, x, y, z float64) *Builder {
	b.f.Points[i] = landmark.Landmark{X: x, Y: y, Z: z, Visibility: 1}
	return b
}

// Hide drops the visibility of the given landmarks to zero.
func (b *Builder) Hide(idx ...landmark.Index) *Builder {
	for _, i := range idx {
		b.f.Points[i].Visibility = 0
	}
	return b
}

// At stamps the frame.
func (b *Builder) At(ts time.Time) *Builder {
	b.f.Timestamp = ts
	return b
}

// Frame returns a copy of the built frame.
func (b *Builder) Frame() landmark.Frame {
	return b.f
}

// Squat builds a front-facing body whose knees are bent to kneeAngle degrees
// (180 is straight). Shoulders sit directly above the hips.
func Squat(kneeAngle float64) landmark.Frame {
	b := NewBuilder()
	b.Set(landmark.Nose, 0.5, 0.10, 0)
	b.Set(landmark.LeftEar, 0.47, 0.12, 0)
	b.Set(landmark.RightEar, 0.53, 0.12, 0)
	b.Set(landmark.LeftShoulder, 0.44, 0.25, 0)
	b.Set(landmark.RightShoulder, 0.56, 0.25, 0)
	b.Set(landmark.LeftElbow, 0.42, 0.38, 0)
	b.Set(landmark.RightElbow, 0.58, 0.38, 0)
	b.Set(landmark.LeftWrist, 0.42, 0.50, 0)
	b.Set(landmark.RightWrist, 0.58, 0.50, 0)
	b.Set(landmark.LeftHip, 0.45, 0.50, 0)
	b.Set(landmark.RightHip, 0.55, 0.50, 0)
	b.Set(landmark.LeftKnee, 0.45, 0.70, 0)
	b.Set(landmark.RightKnee, 0.55, 0.70, 0)

	// Ankle direction is "up" rotated by the knee angle, so 180 points straight down.
	rad := kneeAngle * math.Pi / 180
	dx, dy := 0.2*math.Sin(rad), -0.2*math.Cos(rad)
	b.Set(landmark.LeftAnkle, 0.45-dx, 0.70+dy, 0)
	b.Set(landmark.RightAnkle, 0.55+dx, 0.70+dy, 0)
	return b.Frame()
}
