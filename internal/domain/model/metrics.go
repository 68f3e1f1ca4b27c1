package model

// SessionMetrics are the kinematic results derived from one trace.
type SessionMetrics struct {
	DistanceM    float64 `json:"distance_m"`
	DurationSec  float64 `json:"duration_s"`
	AvgSpeedMps  float64 `json:"avg_speed_mps"`
	MaxSpeedMps  float64 `json:"max_speed_mps"`
	P95SpeedMps  float64 `json:"p95_speed_mps"`
	HighSpeedSec float64 `json:"high_speed_time_s"`
	SprintCount  int     `json:"sprint_count"`
}

// RatingUpdate describes how one session moves a player's speed rating.
type RatingUpdate struct {
	PlayerID         string       `json:"player_id"`
	PreviousRating   int          `json:"previous_rating"`
	NewRating        int          `json:"new_rating"`
	Change           int          `json:"change"`
	MatchesPlayed    int          `json:"matches_played"`
	SessionsAveraged int          `json:"sessions_averaged"`
	Bootstrap        bool         `json:"bootstrap"`
	WasUnrated       bool         `json:"was_unrated"`
	SessionSpeedMps  float64      `json:"session_speed_mps"`
	WindowMeanMps    float64      `json:"window_mean_mps"`
	History          []MatchEntry `json:"history"`
}
