package skeleton

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Identity is the zero rotation.
var Identity = quat.Number{Real: 1}

// Euler is an XYZ-order rotation in radians.
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Scale multiplies every axis by f.
func (e Euler) Scale(f float64) Euler {
	return Euler{X: e.X * f, Y: e.Y * f, Z: e.Z * f}
}

// Quat converts the rotation to a unit quaternion.
func (e Euler) Quat() quat.Number {
	c1, s1 := math.Cos(e.X/2), math.Sin(e.X/2)
	c2, s2 := math.Cos(e.Y/2), math.Sin(e.Y/2)
	c3, s3 := math.Cos(e.Z/2), math.Sin(e.Z/2)
	return quat.Number{
		Real: c1*c2*c3 - s1*s2*s3,
		Imag: s1*c2*c3 + c1*s2*s3,
		Jmag: c1*s2*c3 - s1*c2*s3,
		Kmag: c1*c2*s3 + s1*s2*c3,
	}
}

// EulerOf converts a unit quaternion back to XYZ Euler angles.
func EulerOf(q quat.Number) Euler {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	m11 := 1 - 2*(y*y+z*z)
	m12 := 2 * (x*y - w*z)
	m13 := 2 * (x*z + w*y)
	m22 := 1 - 2*(x*x+z*z)
	m23 := 2 * (y*z - w*x)
	m32 := 2 * (y*z + w*x)
	m33 := 1 - 2*(x*x+y*y)

	var e Euler
	e.Y = math.Asin(clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		e.X = math.Atan2(m32, m22)
	}
	return e
}

// Normalize scales q to unit length. The zero quaternion becomes Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp interpolates from a toward b along the shortest arc. t=0 yields a,
// t=1 yields b (or its antipode, which is the same rotation).
func Slerp(a, b quat.Number, t float64) quat.Number {
	cos := dot(a, b)
	if cos < 0 {
		b = quat.Scale(-1, b)
		cos = -cos
	}
	if cos > 0.9995 {
		return Normalize(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// Angle returns the rotation angle in radians between two unit quaternions.
func Angle(a, b quat.Number) float64 {
	d := math.Abs(dot(a, b))
	return 2 * math.Acos(clamp(d, -1, 1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
