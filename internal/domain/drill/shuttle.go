package drill

import (
	"math/rand"

	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
)

const shuttleLaneOffset = 6.0

// shuttle runs 1–2 participants back and forth between two cones.
type shuttle struct {
	cfg Config
	rng *rand.Rand
}

func (s *shuttle) Kind() Kind { return KindShuttle }

func (s *shuttle) Setup(players []model.Player) (*State, error) {
	if err := validate(KindShuttle, players, 1, 2); err != nil {
		return nil, err
	}
	st := newState(s.cfg, players, s.rng)
	l, w := st.Pitch.Length, st.Pitch.Width
	lanes := []float64{w / 2}
	if len(players) == 2 {
		lanes = []float64{w/2 - shuttleLaneOffset, w/2 + shuttleLaneOffset}
	}
	for i, p := range st.Participants {
		left, right := geometry.V(0.2*l, lanes[i]), geometry.V(0.8*l, lanes[i])
		p.Route = []geometry.Vec{left, right}
		p.RouteIdx = 1
		p.Place(left)
	}
	return st, nil
}

func (s *shuttle) Step(st *State, dt float64) {
	if dt <= 0 {
		return
	}
	for _, p := range st.Participants {
		target, ok := p.NextWaypoint()
		if !ok {
			p.Hold(dt)
			continue
		}
		p.MoveTo(st.Pitch.Clamp(geometry.MoveToward(p.Pos, target, p.CurrentSpeed(), dt)), dt)
		if p.Pos.Dist(target) < s.cfg.TurnThreshold {
			p.Progress.Reps++
			p.RouteIdx = 1 - p.RouteIdx
		}
	}
}
