// Package types contains read models shared by the API and service layers.
package types

// Entry is one row of the speed leaderboard.
type Entry struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	Position    string  `json:"position"`
	SpeedRating int     `json:"speed_rating"`
	LastAvgMps  float64 `json:"last_avg_speed_mps"`
}
