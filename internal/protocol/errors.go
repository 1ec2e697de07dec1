package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrFrameTooLarge = errors.New("protocol: frame too large")
	ErrEmptyType     = errors.New("protocol: message without type")
)

// UnexpectedTypeError reports a well-formed message that is not valid at the
// current point of a round trip.
type UnexpectedTypeError struct {
	Got  string
	Want []string
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("protocol: unexpected message %q (want one of %v)", e.Got, e.Want)
}

var knownTypes = map[string]struct{}{
	TypeGetAction:         {},
	TypeDebugUpdate:       {},
	TypeDebugState:        {},
	TypeFinish:            {},
	TypeAction:            {},
	TypeDebug:             {},
	TypeDebugUpdateDone:   {},
	TypeRequestDebugState: {},
}

func IsKnownType(t string) bool {
	_, ok := knownTypes[t]
	return ok
}
