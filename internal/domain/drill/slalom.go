package drill

import (
	"math/rand"

	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
)

const (
	slalomGateOffset = 6.0
	slalomRunUp      = 5.0
	minMoveM         = 0.01
)

// slalom weaves 1–2 participants through a line of gates.
type slalom struct {
	cfg Config
	rng *rand.Rand
}

func (s *slalom) Kind() Kind { return KindSlalom }

func (s *slalom) Setup(players []model.Player) (*State, error) {
	if err := validate(KindSlalom, players, 1, 2); err != nil {
		return nil, err
	}
	st := newState(s.cfg, players, s.rng)
	w := st.Pitch.Width
	lanes := []float64{w / 2}
	if len(players) == 2 {
		lanes = []float64{0.4 * w, 0.6 * w}
	}
	for i, p := range st.Participants {
		gates := GatePositions(st.Pitch, lanes[i], s.cfg.Gates)
		p.Route = gates
		p.RouteIdx = 0
		p.Place(st.Pitch.Clamp(geometry.V(0.15*st.Pitch.Length-slalomRunUp, lanes[i])))
		st.Gates = append(st.Gates, gates...)
	}
	return st, nil
}

// GatePositions lays n gates evenly from 15% to 85% of the pitch length,
// alternating below and above lane.
func GatePositions(pitch geometry.Pitch, lane float64, n int) []geometry.Vec {
	if n <= 0 {
		return nil
	}
	start, end := 0.15*pitch.Length, 0.85*pitch.Length
	gap := 0.0
	if n > 1 {
		gap = (end - start) / float64(n-1)
	}
	out := make([]geometry.Vec, n)
	for i := range out {
		y := lane - slalomGateOffset
		if i%2 == 1 {
			y = lane + slalomGateOffset
		}
		out[i] = pitch.Clamp(geometry.V(start+float64(i)*gap, y))
	}
	return out
}

func (s *slalom) Step(st *State, dt float64) {
	if dt <= 0 {
		return
	}
	for _, p := range st.Participants {
		target, ok := p.NextWaypoint()
		if p.Progress.Done || !ok {
			p.Hold(dt)
			continue
		}
		before := p.Pos.Sub(p.Prev)
		p.MoveTo(st.Pitch.Clamp(geometry.MoveToward(p.Pos, target, p.CurrentSpeed(), dt)), dt)
		after := p.Pos.Sub(p.Prev)

		if s.isError(before, after, dt) {
			p.Progress.Errors++
		}
		if p.Pos.Dist(target) < s.cfg.ReachRadius {
			p.Progress.Gates++
			p.RouteIdx++
			if p.RouteIdx >= len(p.Route) {
				p.Progress.Done = true
				p.Progress.CompletionSec = st.Elapsed + dt
			}
		}
	}
}

// isError flags a sharp reversal at speed between consecutive moves.
func (s *slalom) isError(before, after geometry.Vec, dt float64) bool {
	if before.Len() <= minMoveM || after.Len() <= minMoveM {
		return false
	}
	if after.Len()/dt <= s.cfg.ErrorSpeedMps {
		return false
	}
	return geometry.AngleBetween(before, after) > s.cfg.ErrorAngle
}
