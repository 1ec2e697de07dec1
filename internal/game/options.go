package game

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tickarena.ai/internal/lobby"
)

// GameInit selects how the initial state is obtained: either created from
// options, or loaded ready-made from a snapshot file.
type GameInit[O any] struct {
	Create   *O     `yaml:"create,omitempty" json:"create,omitempty"`
	LoadFrom string `yaml:"load_from,omitempty" json:"load_from,omitempty"`
}

// FullOptions is everything needed to start a run.
type FullOptions[O any] struct {
	Seed    *uint64         `yaml:"seed,omitempty" json:"seed,omitempty"`
	Game    GameInit[O]     `yaml:"game" json:"game"`
	Players []lobby.Options `yaml:"players" json:"players"`
}

func (o FullOptions[O]) Validate() error {
	if len(o.Players) == 0 {
		return fmt.Errorf("no players configured")
	}
	if o.Game.Create != nil && strings.TrimSpace(o.Game.LoadFrom) != "" {
		return fmt.Errorf("game: create and load_from are mutually exclusive")
	}
	for i, p := range o.Players {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("players[%d]: %w", i, err)
		}
	}
	return nil
}

// LoadOptions reads a YAML (or JSON) options file.
func LoadOptions[O any](path string) (FullOptions[O], error) {
	var o FullOptions[O]
	b, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := yaml.Unmarshal(b, &o); err != nil {
		return o, fmt.Errorf("%s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return o, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

func SaveOptions[O any](path string, o FullOptions[O]) error {
	b, err := yaml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
