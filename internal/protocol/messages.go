package protocol

import "encoding/json"

// GET_ACTION (server -> client): ask for the action of the next tick.
type GetActionMsg struct {
	Type       string          `json:"type"`
	PlayerView json.RawMessage `json:"player_view"`
}

// DEBUG_UPDATE (server -> client): refresh debug output without a tick.
type DebugUpdateMsg struct {
	Type       string          `json:"type"`
	PlayerView json.RawMessage `json:"player_view"`
}

// DEBUG_STATE (server -> client): reply to REQUEST_DEBUG_STATE.
type DebugStateMsg struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

// FINISH (server -> client): the game is over, no further requests follow.
type FinishMsg struct {
	Type string `json:"type"`
}

// ACTION (client -> server): terminates a GET_ACTION round trip.
type ActionMsg struct {
	Type   string          `json:"type"`
	Action json.RawMessage `json:"action"`
}

// DEBUG (client -> server): forwarded verbatim to the debug sink.
type DebugMsg struct {
	Type    string       `json:"type"`
	Command DebugCommand `json:"command"`
}

// DEBUG_UPDATE_DONE (client -> server): terminates a DEBUG_UPDATE round trip.
type DebugUpdateDoneMsg struct {
	Type string `json:"type"`
}

// REQUEST_DEBUG_STATE (client -> server).
type RequestDebugStateMsg struct {
	Type string `json:"type"`
}

// Debug command kinds.
const (
	DebugAdd   = "ADD"
	DebugClear = "CLEAR"
)

// DebugCommand is an annotation a player pushes to the visualizer.
// Data is game specific and never interpreted by the engine.
type DebugCommand struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewGetAction(view json.RawMessage) GetActionMsg {
	return GetActionMsg{Type: TypeGetAction, PlayerView: view}
}

func NewDebugUpdate(view json.RawMessage) DebugUpdateMsg {
	return DebugUpdateMsg{Type: TypeDebugUpdate, PlayerView: view}
}

func NewDebugState(state json.RawMessage) DebugStateMsg {
	if state == nil {
		state = json.RawMessage("null")
	}
	return DebugStateMsg{Type: TypeDebugState, State: state}
}

func NewFinish() FinishMsg { return FinishMsg{Type: TypeFinish} }

func NewAction(action json.RawMessage) ActionMsg {
	return ActionMsg{Type: TypeAction, Action: action}
}

func NewDebug(cmd DebugCommand) DebugMsg { return DebugMsg{Type: TypeDebug, Command: cmd} }
