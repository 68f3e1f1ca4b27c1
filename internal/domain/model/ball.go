package model

import "github.com/okian/pitchlab/internal/domain/geometry"

// Ball is the shared ball state. Possession and LastKicker hold participant
// ids, never pointers; "" means none.
type Ball struct {
	Pos        geometry.Vec
	Vel        geometry.Vec
	Possession string
	LastKicker string
}

// Loose reports whether no participant controls the ball.
func (b *Ball) Loose() bool { return b.Possession == "" }
