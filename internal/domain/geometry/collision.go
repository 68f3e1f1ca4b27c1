package geometry

// Collision constants.
const (
	// SeparationMargin is kept between two bodies after separation.
	SeparationMargin = 0.04
	// coincidentNudge splits bodies that share a centre.
	coincidentNudge = 1e-3
)

// SeparateCircles resolves the overlap between circle A (radius rA) and
// circle B (radius rB) with a minimal translation along the centre line.
// A moves by biasA of the overlap and B by the remainder. The returned
// normal points from A to B. hit is false when the circles do not overlap,
// in which case a and b are returned unchanged.
func SeparateCircles(a Vec, rA float64, b Vec, rB float64, biasA float64) (na, nb, normal Vec, hit bool) {
	if biasA < 0 {
		biasA = 0
	} else if biasA > 1 {
		biasA = 1
	}
	delta := b.Sub(a)
	minD := rA + rB + SeparationMargin
	if delta.LenSq() >= minD*minD {
		return a, b, Vec{}, false
	}
	d := delta.Len()
	if d == 0 {
		delta = Vec{X: coincidentNudge}
		d = coincidentNudge
	}
	n := delta.Scale(1 / d)
	overlap := minD - d
	na = a.Sub(n.Scale(overlap * biasA))
	nb = b.Add(n.Scale(overlap * (1 - biasA)))
	return na, nb, n, true
}

// ReflectVelocity mirrors v about the surface with unit normal n when v is
// closing (v·n < 0), scaling the result by restitution.
func ReflectVelocity(v, n Vec, restitution float64) Vec {
	vn := v.Dot(n)
	if vn >= 0 {
		return v
	}
	return v.Sub(n.Scale(2 * vn)).Scale(restitution)
}
