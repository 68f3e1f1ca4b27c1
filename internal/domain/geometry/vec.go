// Package geometry provides the vector math, steering and collision helpers
// shared by every drill. All functions are pure and deterministic; any
// randomness belongs to the call sites.
package geometry

import "math"

// normEpsilon is the length below which a vector is treated as zero.
const normEpsilon = 1e-9

// Vec is a 2-D vector in pitch meters.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec{X: x, Y: y}.
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec       { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{X: v.X * k, Y: v.Y * k} }
func (v Vec) Dot(o Vec) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec) LenSq() float64      { return v.X*v.X + v.Y*v.Y }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64  { return math.Hypot(v.X-o.X, v.Y-o.Y) }
func (v Vec) Angle() float64      { return math.Atan2(v.Y, v.X) }
func (v Vec) IsZero() bool        { return v.X == 0 && v.Y == 0 }

// Normalize returns the unit vector, or the zero vector for tiny inputs.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l < normEpsilon {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Limit caps the length of v at max.
func (v Vec) Limit(max float64) Vec {
	if max <= 0 {
		return Vec{}
	}
	l := v.Len()
	if l <= max {
		return v
	}
	return v.Scale(max / l)
}

// FromAngle returns a vector of the given length pointing at angle radians.
func FromAngle(angle, length float64) Vec {
	return Vec{X: math.Cos(angle) * length, Y: math.Sin(angle) * length}
}

// Distance is the Euclidean distance between a and b in meters.
func Distance(a, b Vec) float64 { return a.Dist(b) }

// AngleBetween returns the unsigned angle in [0, π] between a and b.
// Zero-length inputs yield 0.
func AngleBetween(a, b Vec) float64 {
	la, lb := a.Len(), b.Len()
	if la < normEpsilon || lb < normEpsilon {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}
