package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/pitchlab/internal/adapters/repository"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/types"
)

// UpsertPlayers inserts or replaces roster records. It stops at the first
// invalid record; earlier records stay stored.
func (s *Service) UpsertPlayers(ctx context.Context, players []model.Player) error {
	const op = "service.UpsertPlayers"
	for _, p := range players {
		if err := s.roster.Upsert(ctx, p); err != nil {
			if errors.Is(err, repository.ErrInvalidPlayer) {
				return fmt.Errorf("%s: %w: %w", op, ErrInvalidPlayer, err)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// Player returns one roster record.
func (s *Service) Player(ctx context.Context, id string) (model.Player, error) {
	p, err := s.roster.Get(ctx, id)
	if err != nil {
		return model.Player{}, mapRosterErr("service.Player", err)
	}
	return p, nil
}

// Players returns the roster ordered by id.
func (s *Service) Players(ctx context.Context) []model.Player {
	return s.roster.List(ctx)
}

// TopN returns the top N players by speed rating.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.roster.TopN(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("service.TopN: %w", err)
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Rank returns the leaderboard row of a player.
func (s *Service) Rank(ctx context.Context, id string) (types.Entry, error) {
	e, err := s.roster.Rank(ctx, id)
	if err != nil {
		return types.Entry{}, mapRosterErr("service.Rank", err)
	}
	return toEntry(e), nil
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:        e.Rank,
		PlayerID:    e.PlayerID,
		Name:        e.Name,
		Position:    e.Position,
		SpeedRating: e.SpeedRating,
		LastAvgMps:  e.LastAvgMps,
	}
}

func mapRosterErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", op, ErrPlayerNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
