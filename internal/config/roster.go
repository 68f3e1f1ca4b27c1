package config

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/pitchlab/internal/domain/model"
)

// rosterFile is the YAML layout of a roster:
//
//	players:
//	  - id: P1
//	    name: Ada
//	    position: ST
//	    ratings: {speed: 60, stamina: 70}
type rosterFile struct {
	Players []model.Player `koanf:"players"`
}

// LoadRoster reads a YAML roster and normalises it.
func LoadRoster(_ context.Context, path string) ([]model.Player, error) {
	const op = "config.LoadRoster"
	if path == "" {
		return nil, fmt.Errorf("%s: %w: empty path", op, ErrLoadRoster)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLoadRoster, err)
	}

	var rf rosterFile
	if err := unmarshal(k, "", &rf); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLoadRoster, err)
	}
	return model.NormalizeRoster(rf.Players), nil
}
