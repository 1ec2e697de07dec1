package protocol

import "encoding/json"

const Version = "1.0"

// Message types, server -> client.
const (
	TypeGetAction   = "GET_ACTION"
	TypeDebugUpdate = "DEBUG_UPDATE"
	TypeDebugState  = "DEBUG_STATE"
	TypeFinish      = "FINISH"
)

// Message types, client -> server.
const (
	TypeAction            = "ACTION"
	TypeDebug             = "DEBUG"
	TypeDebugUpdateDone   = "DEBUG_UPDATE_DONE"
	TypeRequestDebugState = "REQUEST_DEBUG_STATE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
