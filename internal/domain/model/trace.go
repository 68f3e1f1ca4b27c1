package model

import "github.com/okian/pitchlab/internal/domain/geometry"

// PositionTrace is an append-only series of timestamped positions.
// Timestamps are simulated seconds and strictly increase.
type PositionTrace struct {
	T []float64 `json:"t"`
	X []float64 `json:"x"`
	Y []float64 `json:"y"`

	frozen bool
}

// NewPositionTrace returns an empty trace with room for n samples.
func NewPositionTrace(n int) *PositionTrace {
	if n < 0 {
		n = 0
	}
	return &PositionTrace{
		T: make([]float64, 0, n),
		X: make([]float64, 0, n),
		Y: make([]float64, 0, n),
	}
}

// Append records a sample. It returns false when the trace is frozen or t
// does not advance past the previous sample.
func (tr *PositionTrace) Append(t float64, p geometry.Vec) bool {
	if tr.frozen {
		return false
	}
	if n := len(tr.T); n > 0 && t <= tr.T[n-1] {
		return false
	}
	tr.T = append(tr.T, t)
	tr.X = append(tr.X, p.X)
	tr.Y = append(tr.Y, p.Y)
	return true
}

// Len returns the number of samples.
func (tr *PositionTrace) Len() int { return len(tr.T) }

// Freeze stops further appends.
func (tr *PositionTrace) Freeze() { tr.frozen = true }
