package drill

import (
	"math"
	"math/rand"

	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
)

// chase has two participants pursuing and kicking one ball.
type chase struct {
	cfg Config
	rng *rand.Rand
}

func (c *chase) Kind() Kind { return KindChase }

func (c *chase) Setup(players []model.Player) (*State, error) {
	if err := validate(KindChase, players, 2, 2); err != nil {
		return nil, err
	}
	st := newState(c.cfg, players, c.rng)
	l, w := st.Pitch.Length, st.Pitch.Width
	st.Participants[0].Place(geometry.V(0.25*l, w/2))
	st.Participants[1].Place(geometry.V(0.75*l, w/2))
	st.Ball = &model.Ball{Pos: st.Pitch.Center()}
	return st, nil
}

func (c *chase) Step(st *State, dt float64) {
	if dt <= 0 || st.Ball == nil {
		return
	}
	dropDangling(st)
	b := st.Ball
	r := c.cfg.PlayerRadius

	for _, p := range st.Participants {
		target := geometry.SeekWithRepulsion(p.Pos, b.Pos, bodies(st, p, r), r, st.Pitch)
		p.MoveTo(st.Pitch.Clamp(geometry.MoveToward(p.Pos, target, p.CurrentSpeed(), dt)), dt)
	}

	c.kick(st)
	IntegrateBall(b, c.cfg, dt)
	resolveCollisions(st, c.cfg)
	c.updatePossession(st)
}

// kick sends the ball away from the closest eligible participant in contact.
// The previous kicker is not eligible until someone else has touched it.
func (c *chase) kick(st *State) {
	b := st.Ball
	var kicker *model.Participant
	best := c.cfg.ContactRadius
	for _, p := range st.Participants {
		if p.ID == b.LastKicker {
			continue
		}
		if d := p.Pos.Dist(b.Pos); d < best {
			best, kicker = d, p
		}
	}
	if kicker == nil {
		return
	}

	dir := b.Pos.Sub(kicker.Pos).Normalize()
	if dir.IsZero() {
		dir = geometry.V(1, 0)
	}
	if mate := c.teammate(st, kicker); mate != nil && c.cfg.TeammateBias > 0 {
		toMate := mate.Pos.Sub(b.Pos).Normalize()
		if blended := dir.Scale(1 - c.cfg.TeammateBias).Add(toMate.Scale(c.cfg.TeammateBias)).Normalize(); !blended.IsZero() {
			dir = blended
		}
	}
	angle := dir.Angle() + (c.rng.Float64()-0.5)*math.Pi*0.5
	b.Vel = geometry.FromAngle(angle, c.cfg.KickSpeedMps)
	b.LastKicker = kicker.ID
	b.Possession = kicker.ID
}

func (c *chase) teammate(st *State, kicker *model.Participant) *model.Participant {
	for _, p := range st.Participants {
		if p != kicker {
			return p
		}
	}
	return nil
}

// updatePossession gives the ball to the closest participant in contact,
// or leaves it loose.
func (c *chase) updatePossession(st *State) {
	b := st.Ball
	b.Possession = ""
	best := c.cfg.ContactRadius
	for _, p := range st.Participants {
		if d := p.Pos.Dist(b.Pos); d < best {
			best, b.Possession = d, p.ID
		}
	}
}
