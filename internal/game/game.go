// Package game holds the contract between the engine and a concrete game,
// plus the option/result envelopes that surround a run.
package game

import (
	"math/rand/v2"

	"tickarena.ai/internal/diff"
)

// Game is the rule set of one match. S is the concrete state type (normally a
// pointer), D its delta, A a player's action, E an event and V the per-player
// view of the state.
//
// ProcessTurn receives only the actions of players that are still alive; a
// missing key means the player produced no action this tick. Every random
// decision must come from rng so that a seeded run is reproducible.
type Game[S any, D any, A any, E any, V any] interface {
	diff.Diffable[S, D]
	PlayerView(player int) V
	ProcessTurn(rng *rand.Rand, actions map[int]A) []E
	Finished() bool
	Results() any
}

// InitFunc creates the initial state of a fresh run.
type InitFunc[S any, O any] func(rng *rand.Rand, players int, opts O) S

type PlayerResult struct {
	Crashed bool   `json:"crashed" yaml:"crashed"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// FullResults is produced once, on the tick the game finishes.
// Seed is nil for replayed runs.
type FullResults struct {
	Players []PlayerResult `json:"players" yaml:"players"`
	Results any            `json:"results" yaml:"results"`
	Seed    *uint64        `json:"seed,omitempty" yaml:"seed,omitempty"`
}
