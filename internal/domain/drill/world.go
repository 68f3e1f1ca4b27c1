package drill

import (
	"math"

	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
)

// Collision tuning.
const (
	playerBias    = 0.5
	ballBias      = 0.7
	antiPenetrate = 0.01
)

// IntegrateBall moves the ball by dt with wall bounces, friction decay and
// a stop threshold.
func IntegrateBall(b *model.Ball, cfg Config, dt float64) {
	if dt <= 0 {
		return
	}
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))

	eps, e := cfg.WallEpsilon, cfg.Restitution
	if b.Pos.X <= 0 {
		b.Pos.X = eps
		b.Vel.X = math.Abs(b.Vel.X) * e
	}
	if b.Pos.X >= cfg.Pitch.Length {
		b.Pos.X = cfg.Pitch.Length - eps
		b.Vel.X = -math.Abs(b.Vel.X) * e
	}
	if b.Pos.Y <= 0 {
		b.Pos.Y = eps
		b.Vel.Y = math.Abs(b.Vel.Y) * e
	}
	if b.Pos.Y >= cfg.Pitch.Width {
		b.Pos.Y = cfg.Pitch.Width - eps
		b.Vel.Y = -math.Abs(b.Vel.Y) * e
	}

	b.Vel = b.Vel.Scale(math.Pow(cfg.FrictionPerSec, dt))
	if b.Vel.Len() < cfg.StopSpeedMps {
		b.Vel = geometry.Vec{}
	}
}

// resolveCollisions separates overlapping bodies for up to
// cfg.CollisionIterations passes. Players are never moved outside the pitch.
func resolveCollisions(st *State, cfg Config) {
	r := cfg.PlayerRadius
	for it := 0; it < cfg.CollisionIterations; it++ {
		moved := false
		ps := st.Participants
		for i := 0; i < len(ps); i++ {
			for j := i + 1; j < len(ps); j++ {
				na, nb, _, hit := geometry.SeparateCircles(ps[i].Pos, r, ps[j].Pos, r, playerBias)
				if !hit {
					continue
				}
				ps[i].Pos = st.Pitch.Clamp(na)
				ps[j].Pos = st.Pitch.Clamp(nb)
				moved = true
			}
		}
		if b := st.Ball; b != nil {
			for _, p := range ps {
				nb, np, n, hit := geometry.SeparateCircles(b.Pos, cfg.BallRadius, p.Pos, r, ballBias)
				if !hit {
					continue
				}
				// n points ball -> player; the ball must leave along -n.
				b.Vel = geometry.ReflectVelocity(b.Vel, n.Scale(-1), cfg.Restitution)
				b.Pos = st.Pitch.Clamp(nb.Sub(n.Scale(antiPenetrate)))
				p.Pos = st.Pitch.Clamp(np)
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}

// dropDangling clears ball references to participants no longer present.
func dropDangling(st *State) {
	b := st.Ball
	if b == nil {
		return
	}
	if !b.Loose() && st.Participant(b.Possession) == nil {
		b.Possession = ""
	}
	if b.LastKicker != "" && st.Participant(b.LastKicker) == nil {
		b.LastKicker = ""
	}
}

func bodies(st *State, except *model.Participant, radius float64) []geometry.Circle {
	out := make([]geometry.Circle, 0, len(st.Participants))
	for _, p := range st.Participants {
		if p != except {
			out = append(out, p.Body(radius))
		}
	}
	return out
}
