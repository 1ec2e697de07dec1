// Package player implements the server side of the player protocol: the
// Player capability, trivial in-process players and stream-backed players
// reached over a network transport.
package player

import (
	"encoding/json"
	"errors"
	"fmt"

	"tickarena.ai/internal/protocol"
)

var (
	ErrTokenMismatch = errors.New("token mismatch")
	ErrAcceptTimeout = errors.New("timeout accepting player")
	ErrStreamBroken  = errors.New("stream already failed")
)

// Error is the only error a player interaction produces. It covers transport,
// protocol and handshake failures alike.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("IO error: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// DebugSink receives a player's out-of-band debug traffic.
type DebugSink interface {
	Send(cmd protocol.DebugCommand)
	State() json.RawMessage
}

// Player produces one action per tick from the view it is given.
// dbg may be nil.
type Player[V any, A any] interface {
	GetAction(view V, dbg DebugSink) (A, error)
}

// DebugUpdater is implemented by players that can refresh their debug output
// without consuming a tick.
type DebugUpdater[V any] interface {
	DebugUpdate(view V, dbg DebugSink) error
}

// EmptyPlayer always answers with the zero action.
type EmptyPlayer[V any, A any] struct{}

func (EmptyPlayer[V, A]) GetAction(V, DebugSink) (A, error) {
	var a A
	return a, nil
}

// ErroredPlayer stands in for a player that could not be connected.
type ErroredPlayer[V any, A any] struct {
	Reason string
}

func (p ErroredPlayer[V, A]) GetAction(V, DebugSink) (A, error) {
	var a A
	return a, &Error{Op: "connect", Err: errors.New(p.Reason)}
}
