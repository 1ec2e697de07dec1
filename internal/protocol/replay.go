package protocol

import "encoding/json"

// ReplayVersion is bumped whenever the replay log layout changes.
const ReplayVersion = 1

// ReplayHeader is the first record of a replay log. It is followed by the
// full initial game state and then by one TickRecord per processed tick.
type ReplayHeader struct {
	Version int     `json:"version"`
	Game    string  `json:"game,omitempty"`
	Seed    *uint64 `json:"seed,omitempty"`
}

// TickRecord is the (events, state delta) pair of one tick.
type TickRecord struct {
	Tick   int             `json:"tick"`
	Events json.RawMessage `json:"events"`
	Delta  json.RawMessage `json:"delta"`
}
