package geometry

// Soft buffer added around obstacles and the gain applied to the push.
const (
	repulsionBuffer = 0.3
	repulsionGain   = 0.8
)

// Circle is an obstacle or body footprint.
type Circle struct {
	Center Vec
	Radius float64
}

// MoveToward advances cur toward target by at most maxSpeedMps*dt meters.
// When the target is within reach the result is exactly target.
func MoveToward(cur, target Vec, maxSpeedMps, dt float64) Vec {
	if maxSpeedMps <= 0 || dt <= 0 {
		return cur
	}
	delta := target.Sub(cur)
	d := delta.Len()
	if d == 0 {
		return cur
	}
	step := maxSpeedMps * dt
	if step >= d {
		return target
	}
	return cur.Add(delta.Scale(step / d))
}

// SeekWithRepulsion biases desired away from obstacles overlapping the soft
// buffer around pos. The push grows linearly with overlap depth.
func SeekWithRepulsion(pos, desired Vec, obstacles []Circle, personalRadius float64, pitch Pitch) Vec {
	t := desired
	for _, o := range obstacles {
		away := pos.Sub(o.Center)
		d := away.Len()
		minD := personalRadius + o.Radius + repulsionBuffer
		if d > 0 && d < minD {
			w := (minD - d) / minD
			t = t.Add(away.Scale(w * repulsionGain / d))
		}
	}
	return pitch.Clamp(t)
}
