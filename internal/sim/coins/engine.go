package coins

import (
	"tickarena.ai/internal/game"
	"tickarena.ai/internal/history"
	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/player"
	"tickarena.ai/internal/processor"
	"tickarena.ai/internal/scheduler"
)

// Instantiations of the engine for this game.
type (
	Processor  = processor.GameProcessor[*State, Delta, Action, Event, View]
	Background = scheduler.Background[*State, Delta, Action, Event, View]
	History    = history.History[*State, Delta, Event, *Trails, TrailsDelta]
	Player     = player.Player[View, Action]
	RunOptions = game.FullOptions[Options]
)

var _ game.Game[*State, Delta, Action, Event, View] = (*State)(nil)
var _ history.Derived[*State, Event, *Trails, TrailsDelta] = (*Trails)(nil)

func NewHistory(initial *State) *History {
	return history.New[*State, Delta, Event, *Trails, TrailsDelta](initial, NewTrails)
}

// Load reads a coins replay log into a History.
func Load(r *replay.Reader) (*History, <-chan error, error) {
	return history.Load[*State, Delta, Event, *Trails, TrailsDelta](r, NewTrails)
}
