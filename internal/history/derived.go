package history

import "tickarena.ai/internal/diff"

// Derived is renderer data computed from the game state and the events of
// each tick. It is only ever read by consumers, never by the game.
type Derived[S any, E any, X any, XD any] interface {
	diff.Diffable[X, XD]
	Advance(events []E, game S)
}

// NoDelta is the delta of NoExtra.
type NoDelta struct{}

func (NoDelta) EncodedSize() int { return 0 }

// NoExtra is the renderer data of games that have none.
type NoExtra[S any, E any] struct{}

func NewNoExtra[S any, E any](S) *NoExtra[S, E] { return &NoExtra[S, E]{} }

func (*NoExtra[S, E]) Diff(*NoExtra[S, E]) NoDelta { return NoDelta{} }
func (*NoExtra[S, E]) Update(NoDelta)              {}
func (x *NoExtra[S, E]) Clone() *NoExtra[S, E]     { return x }
func (*NoExtra[S, E]) Advance([]E, S)              {}
func (*NoExtra[S, E]) EncodedSize() int            { return 0 }
