package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"tickarena.ai/internal/diff"
	"tickarena.ai/internal/game"
	"tickarena.ai/internal/persistence/replay"
)

var (
	// ErrCorruptLog is returned when a replay log cannot be decoded.
	ErrCorruptLog = errors.New("corrupt replay log")
	ErrFinished   = errors.New("game already finished")
)

// Strategy advances the game by one turn. The only implementations are
// *Standard and *RepeatStrategy.
type Strategy[S any, A any, E any] interface {
	ProcessTurn(actions map[int]A) ([]E, error)
	Game() S
	Finished() bool

	sealed()
}

// Standard runs the game rules with a seeded generator.
type Standard[S game.Game[S, D, A, E, V], D any, A any, E any, V any] struct {
	game S
	rng  *rand.Rand
}

func NewStandard[S game.Game[S, D, A, E, V], D any, A any, E any, V any](g S, rng *rand.Rand) *Standard[S, D, A, E, V] {
	return &Standard[S, D, A, E, V]{game: g, rng: rng}
}

func (s *Standard[S, D, A, E, V]) ProcessTurn(actions map[int]A) ([]E, error) {
	return s.game.ProcessTurn(s.rng, actions), nil
}

func (s *Standard[S, D, A, E, V]) Game() S        { return s.game }
func (s *Standard[S, D, A, E, V]) Finished() bool { return s.game.Finished() }
func (*Standard[S, D, A, E, V]) sealed()          {}

// RepeatStrategy replays recorded (events, delta) pairs. Actions are ignored and no
// randomness is involved.
type RepeatStrategy[S diff.Diffable[S, D], D any, A any, E any] struct {
	game     S
	r        *replay.Reader
	finished bool
}

// NewRepeat reads the initial state from r. The reader must be positioned
// right after the header.
func NewRepeat[S diff.Diffable[S, D], D any, A any, E any](r *replay.Reader) (*RepeatStrategy[S, D, A, E], error) {
	var g S
	if err := r.ReadInitial(&g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptLog, err)
	}
	return &RepeatStrategy[S, D, A, E]{game: g, r: r, finished: !r.More()}, nil
}

func (s *RepeatStrategy[S, D, A, E]) ProcessTurn(map[int]A) ([]E, error) {
	if s.finished {
		return nil, ErrFinished
	}
	rec, err := s.r.Next()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptLog, err)
	}
	var events []E
	if err := json.Unmarshal(rec.Events, &events); err != nil {
		return nil, fmt.Errorf("%w: tick %d events: %w", ErrCorruptLog, rec.Tick, err)
	}
	var delta D
	if err := json.Unmarshal(rec.Delta, &delta); err != nil {
		return nil, fmt.Errorf("%w: tick %d delta: %w", ErrCorruptLog, rec.Tick, err)
	}
	s.game.Update(delta)
	s.finished = !s.r.More()
	return events, nil
}

func (s *RepeatStrategy[S, D, A, E]) Game() S        { return s.game }
func (s *RepeatStrategy[S, D, A, E]) Finished() bool { return s.finished }
func (*RepeatStrategy[S, D, A, E]) sealed()          {}
