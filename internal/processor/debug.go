package processor

import (
	"encoding/json"

	"tickarena.ai/internal/player"
	"tickarena.ai/internal/protocol"
)

// DebugInterface routes the debug side channel of every player to the
// consumer, tagged with the player index. Either function may be nil.
type DebugInterface struct {
	Command func(player int, cmd protocol.DebugCommand)
	State   func(player int) json.RawMessage
}

// ForPlayer returns the sink handed to player i. A nil interface yields a
// nil sink.
func (d *DebugInterface) ForPlayer(i int) player.DebugSink {
	if d == nil {
		return nil
	}
	return playerSink{d: d, index: i}
}

type playerSink struct {
	d     *DebugInterface
	index int
}

func (s playerSink) Send(cmd protocol.DebugCommand) {
	if s.d.Command != nil {
		s.d.Command(s.index, cmd)
	}
}

func (s playerSink) State() json.RawMessage {
	if s.d.State == nil {
		return nil
	}
	return s.d.State(s.index)
}
