package headless

import (
	"context"
	"fmt"

	"github.com/okian/pitchlab/internal/config"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/model"
)

// SampleRoster is used when no roster file is given.
func SampleRoster() []model.Player {
	return model.NormalizeRoster([]model.Player{
		{ID: "P1", Name: "Ada Forde", Position: "ST", Ratings: model.Ratings{Speed: 78, Stamina: 70},
			Physical: model.Physical{HeightCm: 178, WeightKg: 72, Age: 24}},
		{ID: "P2", Name: "Bo Castell", Position: "CB", Ratings: model.Ratings{Speed: 61, Stamina: 82},
			Physical: model.Physical{HeightCm: 188, WeightKg: 84, Age: 29}},
		{ID: "P3", Name: "Cy Mendes", Position: "CM", Ratings: model.Ratings{Speed: 66, Stamina: 88}},
		{ID: "P4", Name: "Dana Okoro", Position: "GK", Ratings: model.Ratings{Stamina: 60}},
	})
}

// loadRoster returns the configured roster or the sample one.
func loadRoster(ctx context.Context, cfg *Config) ([]model.Player, error) {
	if cfg.RosterFile == "" {
		return SampleRoster(), nil
	}
	players, err := config.LoadRoster(ctx, cfg.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("headless.loadRoster: %w", err)
	}
	return players, nil
}

// defaultParticipants picks the players a drill needs from the roster head.
func defaultParticipants(kind drill.Kind, players []model.Player) []string {
	n := 2
	if kind == drill.KindShuttle {
		n = 1
	}
	ids := make([]string, 0, n)
	for i := 0; i < n && i < len(players); i++ {
		ids = append(ids, players[i].ID)
	}
	return ids
}
