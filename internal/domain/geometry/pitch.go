package geometry

import "math"

// Standard pitch dimensions in meters.
const (
	StandardLength = 105.0
	StandardWidth  = 68.0
)

// Pitch is the playing rectangle [0,Length]×[0,Width].
type Pitch struct {
	Length float64 `json:"length_m"`
	Width  float64 `json:"width_m"`
}

// StandardPitch is the 105×68 m pitch every drill runs on unless configured otherwise.
var StandardPitch = Pitch{Length: StandardLength, Width: StandardWidth}

// Clamp returns p moved inside the pitch bounds.
func (pt Pitch) Clamp(p Vec) Vec {
	return Vec{
		X: math.Max(0, math.Min(pt.Length, p.X)),
		Y: math.Max(0, math.Min(pt.Width, p.Y)),
	}
}

// Contains reports whether p lies inside the pitch, borders included.
func (pt Pitch) Contains(p Vec) bool {
	return p.X >= 0 && p.X <= pt.Length && p.Y >= 0 && p.Y <= pt.Width
}

// Center returns the centre spot.
func (pt Pitch) Center() Vec { return Vec{X: pt.Length / 2, Y: pt.Width / 2} }

// ToPercent projects p into percentages of the pitch size for display layers.
func (pt Pitch) ToPercent(p Vec) Vec {
	if pt.Length <= 0 || pt.Width <= 0 {
		return Vec{}
	}
	return Vec{X: p.X / pt.Length * 100, Y: p.Y / pt.Width * 100}
}

// ClampToPitch clamps p into the standard pitch.
func ClampToPitch(p Vec) Vec { return StandardPitch.Clamp(p) }
