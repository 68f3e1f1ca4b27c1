// Package drill implements the training drills as step functions over a
// shared State. Every drill owns its random source; nothing here reads the
// wall clock.
package drill

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
)

// Kind identifies a drill variant.
type Kind string

// Drill kinds.
const (
	KindChase   Kind = "chase"
	KindShuttle Kind = "shuttle"
	KindSlalom  Kind = "slalom"
)

// Kinds lists every supported drill.
var Kinds = []Kind{KindChase, KindShuttle, KindSlalom}

func (k Kind) String() string { return string(k) }

// ParseKind resolves a drill name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindChase, KindShuttle, KindSlalom:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDrillType, s)
}

// Rejection errors returned before any session state is created.
var (
	ErrNotEnoughParticipants = errors.New("not enough participants")
	ErrUnknownDrillType      = errors.New("unknown drill type")
	ErrDuplicateParticipant  = errors.New("duplicate participant")
)

// Reason codes reported to callers for rejected sessions.
const (
	ReasonNotEnoughParticipants = "NotEnoughParticipants"
	ReasonUnknownDrillType      = "UnknownDrillType"
	ReasonDuplicateParticipant  = "DuplicateParticipant"
)

// ReasonCode maps a rejection error to its reason code, or "" when err is
// not a rejection.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrNotEnoughParticipants):
		return ReasonNotEnoughParticipants
	case errors.Is(err, ErrUnknownDrillType):
		return ReasonUnknownDrillType
	case errors.Is(err, ErrDuplicateParticipant):
		return ReasonDuplicateParticipant
	}
	return ""
}

// Config holds the tunable drill parameters. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Pitch        geometry.Pitch
	PlayerRadius float64
	BallRadius   float64
	Fatigue      bool

	// chase
	ContactRadius       float64
	KickSpeedMps        float64
	TeammateBias        float64
	Restitution         float64
	WallEpsilon         float64
	FrictionPerSec      float64
	StopSpeedMps        float64
	CollisionIterations int

	// shuttle
	TurnThreshold float64

	// slalom
	Gates         int
	ReachRadius   float64
	ErrorAngle    float64
	ErrorSpeedMps float64
}

// DefaultConfig returns the standard drill parameters.
func DefaultConfig() Config {
	return Config{
		Pitch:               geometry.StandardPitch,
		PlayerRadius:        0.4,
		BallRadius:          0.11,
		ContactRadius:       1.5,
		KickSpeedMps:        10,
		TeammateBias:        0.3,
		Restitution:         0.30,
		WallEpsilon:         0.02,
		FrictionPerSec:      0.98,
		StopSpeedMps:        0.2,
		CollisionIterations: 8,
		TurnThreshold:       0.6,
		Gates:               8,
		ReachRadius:         1.0,
		ErrorAngle:          math.Pi / 2,
		ErrorSpeedMps:       4.5,
	}
}

// State is the mutable world of one session.
type State struct {
	Pitch        geometry.Pitch
	Participants []*model.Participant
	// Ball is nil for drills without a ball.
	Ball *model.Ball
	// Gates holds the slalom gate positions, shared by every lane owner.
	Gates []geometry.Vec
	// Elapsed is simulated time in seconds; the driver advances it.
	Elapsed float64
}

// Participant looks up a participant by id; nil when absent.
func (s *State) Participant(id string) *model.Participant {
	if id == "" {
		return nil
	}
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Done reports whether every participant has finished a bounded drill.
func (s *State) Done() bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if !p.Progress.Done {
			return false
		}
	}
	return true
}

// Drill is one drill variant.
type Drill interface {
	Kind() Kind
	// Setup validates players and builds the initial state.
	Setup(players []model.Player) (*State, error)
	// Step advances st by dt seconds. dt <= 0 is a no-op.
	Step(st *State, dt float64)
}

// New builds an independent drill instance of the given kind.
func New(kind Kind, cfg Config, rng *rand.Rand) (Drill, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	switch kind {
	case KindChase:
		return &chase{cfg: cfg, rng: rng}, nil
	case KindShuttle:
		return &shuttle{cfg: cfg, rng: rng}, nil
	case KindSlalom:
		return &slalom{cfg: cfg, rng: rng}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDrillType, string(kind))
}

// validate checks count bounds and id uniqueness.
func validate(kind Kind, players []model.Player, min, max int) error {
	if len(players) < min {
		return fmt.Errorf("%w: %s needs at least %d, got %d", ErrNotEnoughParticipants, kind, min, len(players))
	}
	if len(players) > max {
		return fmt.Errorf("%w: %s takes at most %d, got %d", ErrNotEnoughParticipants, kind, max, len(players))
	}
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateParticipant, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func newState(cfg Config, players []model.Player, rng *rand.Rand) *State {
	st := &State{Pitch: cfg.Pitch, Participants: make([]*model.Participant, 0, len(players))}
	for _, p := range players {
		st.Participants = append(st.Participants, model.NewParticipant(p, rng, cfg.Fatigue))
	}
	return st
}
