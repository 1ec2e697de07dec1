// Package diff defines the delta capability shared by every stateful value
// that is stored in a history or written to a replay log.
package diff

import "encoding/json"

// Diffable is implemented by pointer types that can describe the change to
// another instance of themselves and apply such a change in place.
//
// Diff(other) returns the delta that turns the receiver into other; the delta
// shares no mutable memory with either value. Update(delta) mutates the
// receiver and does not retain delta. Clone returns a deep copy that shares no
// mutable memory with the receiver.
type Diffable[T any, D any] interface {
	Diff(other T) D
	Update(delta D)
	Clone() T
}

// Sized lets a type report its encoded size without being marshaled.
type Sized interface {
	EncodedSize() int
}

// EncodedSize is the number of bytes v occupies on the wire.
// Values that fail to marshal count as zero.
func EncodedSize(v any) int {
	if s, ok := v.(Sized); ok {
		return s.EncodedSize()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}
