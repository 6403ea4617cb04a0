// Package posture computes scalar body metrics from landmark frames and
// classifies them against inclusive ranges.
package posture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const degPerRad = 180 / math.Pi

// AngleBetween returns the unsigned angle at b between the rays b->a and b->c,
// in degrees within [0, 180]. Only the image-plane components are used.
// Non-finite input yields NaN.
func AngleBetween(a, b, c r3.Vec) float64 {
	for _, v := range [...]float64{a.X, a.Y, b.X, b.Y, c.X, c.Y} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return math.NaN()
		}
	}
	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(rad * degPerRad)
	if angle > 180 {
		angle = 360 - angle
	}
	return angle
}

// degrees converts radians to degrees.
func degrees(rad float64) float64 {
	return rad * degPerRad
}
