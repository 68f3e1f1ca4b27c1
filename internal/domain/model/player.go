// Package model contains the domain records shared by the drill engine,
// analytics, rating and reporting layers.
package model

import (
	"math"
	"strings"
	"time"
)

// Attribute scores are 0..100; missing values default to the midpoint.
const (
	MinScore     = 0
	MaxScore     = 100
	DefaultScore = 50
)

// Ratings holds the 0..100 attribute ratings of a player. A zero Speed
// means the player has never been rated.
type Ratings struct {
	Speed   int `json:"speed" koanf:"speed"`
	Stamina int `json:"stamina" koanf:"stamina"`
}

// Physical holds optional body measurements; zero means unknown.
type Physical struct {
	HeightCm float64 `json:"height_cm,omitempty" koanf:"height_cm"`
	WeightKg float64 `json:"weight_kg,omitempty" koanf:"weight_kg"`
	Age      int     `json:"age,omitempty" koanf:"age"`
}

// Known reports whether any measurement is present.
func (p Physical) Known() bool { return p.HeightCm > 0 || p.WeightKg > 0 || p.Age > 0 }

// MatchEntry is one past session's average speed.
type MatchEntry struct {
	Date        time.Time `json:"date" koanf:"date"`
	AvgSpeedMps float64   `json:"avg_speed_mps" koanf:"avg_speed_mps"`
}

// Player is the roster record supplied by the persistence collaborator.
type Player struct {
	ID           string       `json:"id" koanf:"id"`
	Name         string       `json:"name" koanf:"name"`
	Position     string       `json:"position" koanf:"position"`
	Ratings      Ratings      `json:"ratings" koanf:"ratings"`
	Physical     Physical     `json:"physical" koanf:"physical"`
	MatchHistory []MatchEntry `json:"match_history,omitempty" koanf:"match_history"`
}

// Role derives the player's role from the position text.
func (p Player) Role() Role { return RoleFromPosition(p.Position) }

// Clone returns a deep copy so callers can update history without aliasing.
func (p Player) Clone() Player {
	c := p
	if p.MatchHistory != nil {
		c.MatchHistory = append([]MatchEntry(nil), p.MatchHistory...)
	}
	return c
}

// ToScore clamps v into 0..100, mapping NaN to DefaultScore.
func ToScore(v float64) int {
	if math.IsNaN(v) {
		return DefaultScore
	}
	return int(math.Max(MinScore, math.Min(MaxScore, math.Round(v))))
}

// NormalizeRoster drops players without an id, keeps the first record of each
// duplicated id, trims names and clamps attribute ratings. A missing stamina
// rating defaults to DefaultScore; speed keeps 0 as the unrated marker.
func NormalizeRoster(players []Player) []Player {
	seen := make(map[string]struct{}, len(players))
	out := make([]Player, 0, len(players))
	for _, p := range players {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		p = p.Clone()
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			p.Name = p.ID
		}
		p.Ratings.Speed = ToScore(float64(p.Ratings.Speed))
		if p.Ratings.Stamina <= 0 {
			p.Ratings.Stamina = DefaultScore
		}
		p.Ratings.Stamina = ToScore(float64(p.Ratings.Stamina))
		out = append(out, p)
	}
	return out
}
