// Package repository holds the roster stores (in-memory and Redis) and the
// speed leaderboard.
package repository

import (
	"context"

	"github.com/okian/pitchlab/internal/domain/model"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank        int
	PlayerID    string
	Name        string
	Position    string
	SpeedRating int
	LastAvgMps  float64
}

// Store provides read/write access to the roster.
type Store interface {
	// Upsert inserts or replaces a player record.
	Upsert(ctx context.Context, p model.Player) error

	// Get returns a copy of the player. Returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (model.Player, error)

	// List returns every player ordered by id.
	List(ctx context.Context) []model.Player

	// Update applies fn to the stored player atomically and stores the result.
	Update(ctx context.Context, id string, fn func(model.Player) (model.Player, error)) (model.Player, error)

	// Rank returns the leaderboard row of a player.
	Rank(ctx context.Context, id string) (Entry, error)

	// TopN returns the top-N players ordered by speed rating desc, id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players.
	Count(ctx context.Context) int
}
