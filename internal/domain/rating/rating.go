// Package rating converts session average speeds into 0..100 speed ratings
// using a bootstrap rule for new players and a rolling window afterwards.
//
// The protocol does not deduplicate: applying the same session twice appends
// it twice. Callers must commit each session at most once.
package rating

import (
	"math"
	"time"

	"github.com/okian/pitchlab/internal/domain/model"
)

// Default protocol parameters.
const (
	DefaultMaxSpeedMps       = 9.0
	DefaultWindow            = 6
	DefaultBootstrapSessions = 2
)

// Option applies a configuration option to the Protocol.
type Option func(*Protocol)

// WithMaxSpeed sets the speed that maps to a rating of 100.
func WithMaxSpeed(mps float64) Option {
	return func(p *Protocol) {
		if mps > 0 {
			p.maxSpeed = mps
		}
	}
}

// WithWindow sets how many recent sessions the rolling mean keeps.
func WithWindow(n int) Option {
	return func(p *Protocol) {
		if n > 0 {
			p.window = n
		}
	}
}

// WithBootstrapSessions sets the history length up to which the rating is
// taken directly from the latest session.
func WithBootstrapSessions(n int) Option {
	return func(p *Protocol) {
		if n >= 0 {
			p.bootstrap = n
		}
	}
}

// Protocol applies the rating update rule.
type Protocol struct {
	maxSpeed  float64
	window    int
	bootstrap int
}

// New creates a Protocol with defaults overridden by opts.
func New(opts ...Option) *Protocol {
	p := &Protocol{
		maxSpeed:  DefaultMaxSpeedMps,
		window:    DefaultWindow,
		bootstrap: DefaultBootstrapSessions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Window returns the rolling window length.
func (p *Protocol) Window() int { return p.window }

// Convert maps a speed in m/s onto 0..100.
func (p *Protocol) Convert(mps float64) int {
	if math.IsNaN(mps) {
		return 0
	}
	return model.ToScore(mps / p.maxSpeed * 100)
}

// Apply folds one session into player and returns the updated copy with
// the description of the change. player itself is not modified.
func (p *Protocol) Apply(player model.Player, date time.Time, sessionAvgMps float64) (model.Player, model.RatingUpdate) {
	out := player.Clone()
	prev := player.Ratings.Speed
	unrated := prev <= 0

	if math.IsNaN(sessionAvgMps) || sessionAvgMps < 0 {
		sessionAvgMps = 0
	}
	history := append(out.MatchHistory, model.MatchEntry{Date: date, AvgSpeedMps: sessionAvgMps})
	if len(history) > p.window {
		history = history[len(history)-p.window:]
	}
	history = append([]model.MatchEntry(nil), history...)

	upd := model.RatingUpdate{
		PlayerID:        player.ID,
		PreviousRating:  prev,
		MatchesPlayed:   len(history),
		WasUnrated:      unrated,
		SessionSpeedMps: sessionAvgMps,
		History:         history,
	}

	if unrated || len(history) <= p.bootstrap {
		upd.Bootstrap = true
		upd.SessionsAveraged = 1
		upd.WindowMeanMps = sessionAvgMps
		upd.NewRating = p.Convert(sessionAvgMps)
	} else {
		var sum float64
		for _, h := range history {
			sum += h.AvgSpeedMps
		}
		mean := sum / float64(len(history))
		upd.SessionsAveraged = len(history)
		upd.WindowMeanMps = mean
		upd.NewRating = p.Convert(mean)
	}
	upd.Change = upd.NewRating - prev

	out.Ratings.Speed = upd.NewRating
	out.MatchHistory = history
	return out, upd
}

// ApplyUpdates writes precomputed updates onto the matching players and
// returns the updated copies in input order. Players without an update are
// returned unchanged.
func ApplyUpdates(players []model.Player, updates []model.RatingUpdate) []model.Player {
	byID := make(map[string]model.RatingUpdate, len(updates))
	for _, u := range updates {
		byID[u.PlayerID] = u
	}
	out := make([]model.Player, 0, len(players))
	for _, pl := range players {
		c := pl.Clone()
		if u, ok := byID[pl.ID]; ok {
			c.Ratings.Speed = u.NewRating
			c.MatchHistory = append([]model.MatchEntry(nil), u.History...)
		}
		out = append(out, c)
	}
	return out
}
