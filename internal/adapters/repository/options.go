package repository

import "github.com/okian/pitchlab/internal/domain/model"

// Option applies a configuration option to the RosterStore.
type Option func(*RosterStore)

// WithPlayers seeds the store with an initial roster.
func WithPlayers(players []model.Player) Option {
	return func(s *RosterStore) {
		s.seed = append(s.seed, players...)
	}
}
