package model

import (
	"math"
	"math/rand"

	"github.com/okian/pitchlab/internal/domain/geometry"
)

// Fatigue model constants.
const (
	minStaminaSpeedFactor = 0.4
	staminaFloor          = 30.0
	runningPaceMps        = 1.0
	idleDepletionPerSec   = 0.1
	olderPlayerAge        = 28
)

var roleDepletion = map[Role]float64{
	RoleMidfielder: 0.8,
	RoleDefender:   0.9,
	RoleForward:    1.1,
	RoleGoalkeeper: 0.7,
}

// Progress holds the drill-specific counters of a participant.
type Progress struct {
	Reps          int     `json:"reps"`
	Gates         int     `json:"gates"`
	Errors        int     `json:"errors"`
	CompletionSec float64 `json:"completion_s"`
	Done          bool    `json:"done"`
}

// Participant is the per-session kinematic state of one player.
type Participant struct {
	ID       string
	Name     string
	Position string
	Role     Role
	Age      int

	SpeedAttr   int
	StaminaAttr int
	Capacity    Capacity

	// Stamina is the live 0..100 reserve; only used when Fatigue is set.
	Stamina float64
	Fatigue bool

	Pos  geometry.Vec
	Prev geometry.Vec
	Vel  geometry.Vec

	// Route is the ordered list of waypoints for route-based drills.
	Route    []geometry.Vec
	RouteIdx int

	Progress Progress
}

// NewParticipant builds the runtime state for p, drawing its capacity from rng.
func NewParticipant(p Player, rng *rand.Rand, fatigue bool) *Participant {
	return &Participant{
		ID:          p.ID,
		Name:        p.Name,
		Position:    p.Position,
		Role:        p.Role(),
		Age:         p.Physical.Age,
		SpeedAttr:   p.Ratings.Speed,
		StaminaAttr: p.Ratings.Stamina,
		Capacity:    NewCapacity(p, rng),
		Stamina:     float64(p.Ratings.Stamina),
		Fatigue:     fatigue,
	}
}

// Place puts the participant at pos with no motion history.
func (p *Participant) Place(pos geometry.Vec) {
	p.Pos, p.Prev, p.Vel = pos, pos, geometry.Vec{}
}

// CurrentSpeed is the instantaneous speed cap in m/s.
func (p *Participant) CurrentSpeed() float64 {
	if !p.Fatigue {
		return p.Capacity.BaseMps
	}
	return p.Capacity.BaseMps * math.Max(minStaminaSpeedFactor, p.Stamina/100)
}

// Body returns the participant footprint for collision and steering.
func (p *Participant) Body(radius float64) geometry.Circle {
	return geometry.Circle{Center: p.Pos, Radius: radius}
}

// MoveTo commits a step to next over dt, recording velocity and spending
// stamina. next is expected to be already clamped.
func (p *Participant) MoveTo(next geometry.Vec, dt float64) {
	p.Prev = p.Pos
	if dt > 0 {
		p.Vel = next.Sub(p.Pos).Scale(1 / dt)
	} else {
		p.Vel = geometry.Vec{}
	}
	p.Pos = next
	p.spend(p.Vel.Len(), dt)
}

// Hold keeps the participant still for dt.
func (p *Participant) Hold(dt float64) {
	p.Prev = p.Pos
	p.Vel = geometry.Vec{}
	p.spend(0, dt)
}

// NextWaypoint returns the current route waypoint, if any.
func (p *Participant) NextWaypoint() (geometry.Vec, bool) {
	if p.RouteIdx < 0 || p.RouteIdx >= len(p.Route) {
		return geometry.Vec{}, false
	}
	return p.Route[p.RouteIdx], true
}

func (p *Participant) spend(pace, dt float64) {
	if !p.Fatigue || dt <= 0 {
		return
	}
	rate := idleDepletionPerSec
	if pace >= runningPaceMps {
		rate = 0.8 + pace/4*1.2
		if m, ok := roleDepletion[p.Role]; ok {
			rate *= m
		}
		if IsStriker(p.Position) {
			rate *= 1.2 / roleDepletion[RoleForward]
		}
		if p.Age > olderPlayerAge {
			rate *= 1 + float64(p.Age-olderPlayerAge)*0.05
		}
	}
	p.Stamina = math.Max(staminaFloor, p.Stamina-rate*dt)
}
