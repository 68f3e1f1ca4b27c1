// Package report assembles analysed sessions into one report value that the
// CSV and JSON exports both render from.
package report

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pitchlab/internal/domain/model"
)

// Meta describes the session a report covers.
type Meta struct {
	ID          string
	DateTime    time.Time
	Drill       string
	DurationSec float64
	// GatesTotal is the number of gates of a slalom course, 0 otherwise.
	GatesTotal int
}

// Entry is the raw per-participant input of Build.
type Entry struct {
	Player   model.Player
	Metrics  model.SessionMetrics
	Progress model.Progress
	// Rating is nil when the session produced no usable speed.
	Rating *model.RatingUpdate
}

// SessionInfo is the session header of a report.
type SessionInfo struct {
	ID          string    `json:"session_id"`
	DateTime    time.Time `json:"date_time"`
	Drill       string    `json:"drill"`
	DurationSec float64   `json:"duration_s"`
}

// ParticipantReport is one participant row. Drill counters that do not apply
// to the drill are nil.
type ParticipantReport struct {
	PlayerID    string     `json:"player_id"`
	PlayerName  string     `json:"player_name"`
	Position    string     `json:"position"`
	Role        model.Role `json:"role"`
	SpeedAttr   int        `json:"speed_attr"`
	StaminaAttr int        `json:"stamina_attr"`

	DistanceM     float64  `json:"distance_m"`
	AvgSpeedMps   float64  `json:"avg_speed_mps"`
	P95SpeedMps   float64  `json:"p95_speed_mps"`
	MaxSpeedMps   float64  `json:"max_speed_mps"`
	HighSpeedSec  float64  `json:"high_speed_time_s"`
	SprintCount   int      `json:"sprint_count"`
	Shuttles      *int     `json:"shuttles,omitempty"`
	Gates         *int     `json:"gates,omitempty"`
	Errors        *int     `json:"errors,omitempty"`
	SlalomTimeSec *float64 `json:"slalom_time_s,omitempty"`

	Feedback     string              `json:"feedback"`
	RatingUpdate *model.RatingUpdate `json:"rating_update,omitempty"`
}

// SessionReport is the exportable result of one session.
type SessionReport struct {
	Session      SessionInfo         `json:"session"`
	Participants []ParticipantReport `json:"participants"`
}

// NewID returns a fresh session id.
func NewID() string { return "S-" + uuid.NewString() }

// Build quantises every value once and derives feedback text. Both exports
// read the returned report and never recompute.
func Build(meta Meta, entries []Entry) *SessionReport {
	if meta.ID == "" {
		meta.ID = NewID()
	}
	rep := &SessionReport{
		Session: SessionInfo{
			ID:          meta.ID,
			DateTime:    meta.DateTime.UTC().Truncate(time.Second),
			Drill:       meta.Drill,
			DurationSec: Quantize(meta.DurationSec),
		},
		Participants: make([]ParticipantReport, 0, len(entries)),
	}
	for _, e := range entries {
		m := e.Metrics
		pr := ParticipantReport{
			PlayerID:     e.Player.ID,
			PlayerName:   e.Player.Name,
			Position:     e.Player.Position,
			Role:         e.Player.Role(),
			SpeedAttr:    e.Player.Ratings.Speed,
			StaminaAttr:  e.Player.Ratings.Stamina,
			DistanceM:    Quantize(m.DistanceM),
			AvgSpeedMps:  Quantize(m.AvgSpeedMps),
			P95SpeedMps:  Quantize(m.P95SpeedMps),
			MaxSpeedMps:  Quantize(m.MaxSpeedMps),
			HighSpeedSec: Quantize(m.HighSpeedSec),
			SprintCount:  m.SprintCount,
			RatingUpdate: e.Rating,
		}
		switch meta.Drill {
		case "shuttle":
			pr.Shuttles = intPtr(e.Progress.Reps)
		case "slalom":
			pr.Gates = intPtr(e.Progress.Gates)
			pr.Errors = intPtr(e.Progress.Errors)
			if e.Progress.Done {
				t := Quantize(e.Progress.CompletionSec)
				pr.SlalomTimeSec = &t
			}
		}
		pr.Feedback = Feedback(meta, pr)
		rep.Participants = append(rep.Participants, pr)
	}
	return rep
}

// RatingUpdates returns the rating suggestions carried by the report.
func (r *SessionReport) RatingUpdates() []model.RatingUpdate {
	out := make([]model.RatingUpdate, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.RatingUpdate != nil {
			out = append(out, *p.RatingUpdate)
		}
	}
	return out
}

// Speeds returns the per-player average speeds to commit.
func (r *SessionReport) Speeds() []model.PlayerSpeed {
	out := make([]model.PlayerSpeed, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.RatingUpdate != nil {
			out = append(out, model.PlayerSpeed{PlayerID: p.PlayerID, AvgSpeedMps: p.AvgSpeedMps})
		}
	}
	return out
}

// Quantize rounds v to two decimals; NaN and infinities become 0.
func Quantize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func intPtr(v int) *int { return &v }
