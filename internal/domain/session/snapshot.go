package session

import (
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
)

// Observer receives a snapshot after every step. Publish must not block.
type Observer interface {
	Publish(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// Publish calls f(s).
func (f ObserverFunc) Publish(s Snapshot) { f(s) }

// ParticipantState is the render view of one participant. PosPct is the
// position in percent of the pitch length and width.
type ParticipantState struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Pos      geometry.Vec   `json:"pos"`
	PosPct   geometry.Vec   `json:"pos_pct"`
	Vel      geometry.Vec   `json:"vel"`
	SpeedMps float64        `json:"speed_mps"`
	Stamina  float64        `json:"stamina"`
	Progress model.Progress `json:"progress"`
}

// BallState is the render view of the ball.
type BallState struct {
	Pos        geometry.Vec `json:"pos"`
	PosPct     geometry.Vec `json:"pos_pct"`
	Vel        geometry.Vec `json:"vel"`
	Possession string       `json:"possession,omitempty"`
}

// Snapshot is an immutable copy of the session world.
type Snapshot struct {
	SessionID    string             `json:"session_id"`
	Drill        drill.Kind         `json:"drill"`
	Status       Status             `json:"status"`
	ElapsedSec   float64            `json:"elapsed_s"`
	Pitch        geometry.Pitch     `json:"pitch"`
	Participants []ParticipantState `json:"participants"`
	Ball         *BallState         `json:"ball,omitempty"`
	Gates        []geometry.Vec     `json:"gates,omitempty"`
	Done         bool               `json:"done"`
}

func (s *Session) snapshotLocked() Snapshot {
	st := s.state
	snap := Snapshot{
		SessionID:    s.id,
		Drill:        s.kind,
		Status:       s.status,
		ElapsedSec:   st.Elapsed,
		Pitch:        st.Pitch,
		Participants: make([]ParticipantState, 0, len(st.Participants)),
		Done:         st.Done(),
	}
	for _, p := range st.Participants {
		snap.Participants = append(snap.Participants, ParticipantState{
			ID:       p.ID,
			Name:     p.Name,
			Pos:      p.Pos,
			PosPct:   st.Pitch.ToPercent(p.Pos),
			Vel:      p.Vel,
			SpeedMps: p.Vel.Len(),
			Stamina:  p.Stamina,
			Progress: p.Progress,
		})
	}
	if b := st.Ball; b != nil {
		snap.Ball = &BallState{Pos: b.Pos, PosPct: st.Pitch.ToPercent(b.Pos), Vel: b.Vel, Possession: b.Possession}
	}
	if len(st.Gates) > 0 {
		snap.Gates = append([]geometry.Vec(nil), st.Gates...)
	}
	return snap
}
