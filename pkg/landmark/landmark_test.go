package landmark

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewFrameCount(t *testing.T) {
	if _, err := NewFrame(make([]Landmark, 12), time.Now()); !errors.Is(err, ErrLandmarkCount) {
		t.Fatalf("NewFrame(12) error = %v, want ErrLandmarkCount", err)
	}
	f, err := NewFrame(make([]Landmark, Count), time.Unix(10, 0))
	if err != nil {
		t.Fatalf("NewFrame(33) error = %v", err)
	}
	if f.MinVisibility != DefaultMinVisibility {
		t.Errorf("MinVisibility = %v, want %v", f.MinVisibility, DefaultMinVisibility)
	}
	if !f.Empty() {
		t.Error("zero-visibility frame should be empty")
	}
}

func TestHasRespectsVisibility(t *testing.T) {
	f := Frame{MinVisibility: DefaultMinVisibility}
	f.Points[Nose] = Landmark{X: 0.5, Y: 0.1, Visibility: 1}
	f.Points[LeftEar] = Landmark{X: 0.4, Y: 0.1, Visibility: 0.3}
	f.Points[RightEar] = Landmark{X: math.NaN(), Y: 0.1, Visibility: 1}

	tests := []struct {
		name string
		idx  []Index
		want bool
	}{
		{"visible", []Index{Nose}, true},
		{"low visibility", []Index{LeftEar}, false},
		{"not finite", []Index{RightEar}, false},
		{"mixed", []Index{Nose, LeftEar}, false},
		{"out of range", []Index{Index(40)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Has(tt.idx...); got != tt.want {
				t.Errorf("Has(%v) = %v, want %v", tt.idx, got, tt.want)
			}
		})
	}
}

func TestMidpoint(t *testing.T) {
	f := Frame{MinVisibility: DefaultMinVisibility}
	f.Points[LeftHip] = Landmark{X: 0.45, Y: 0.5, Visibility: 1}
	f.Points[RightHip] = Landmark{X: 0.55, Y: 0.5, Visibility: 1}
	c, ok := f.HipCenter()
	if !ok {
		t.Fatal("HipCenter missing")
	}
	if math.Abs(c.X-0.5) > 1e-9 || math.Abs(c.Y-0.5) > 1e-9 {
		t.Errorf("HipCenter = %v, want (0.5, 0.5)", c)
	}

	f.Points[RightHip].Visibility = 0
	if _, ok := f.HipCenter(); ok {
		t.Error("HipCenter should be absent when one hip is hidden")
	}
}

func TestIndexString(t *testing.T) {
	if LeftKnee.String() != "left_knee" {
		t.Errorf("LeftKnee.String() = %q", LeftKnee.String())
	}
	if RightFootIndex != 32 {
		t.Errorf("RightFootIndex = %d, want 32", RightFootIndex)
	}
	if Index(99).String() != "landmark(99)" {
		t.Errorf("Index(99).String() = %q", Index(99).String())
	}
}
