// Package history keeps the timeline of a run: every tick's game state and
// renderer data, diff-compressed, plus the per-tick events and debug output,
// with random-access seeking for consumers on other goroutines.
package history

import (
	"tickarena.ai/internal/diff"
)

// Entry is either a full value or the delta from the previous entry.
type Entry[T any, D any] struct {
	Full  bool
	Value T
	Delta D
}

// DiffHistory is an append-only sequence whose first entry is always full.
// A full entry is stored once the deltas accumulated since the previous one
// outweigh a full copy, so reaching any index replays a bounded number of
// deltas.
type DiffHistory[T diff.Diffable[T, D], D any] struct {
	entries    []Entry[T, D]
	last       T
	deltaBytes int
}

func NewDiffHistory[T diff.Diffable[T, D], D any](initial T) *DiffHistory[T, D] {
	return &DiffHistory[T, D]{
		entries: []Entry[T, D]{{Full: true, Value: initial.Clone()}},
		last:    initial.Clone(),
	}
}

// Push appends value and reports whether it was stored in full.
func (h *DiffHistory[T, D]) Push(value T) bool {
	delta := h.last.Diff(value)
	h.last.Update(delta)
	n := diff.EncodedSize(delta)
	h.deltaBytes += n
	if h.deltaBytes > diff.EncodedSize(value) {
		h.entries = append(h.entries, Entry[T, D]{Full: true, Value: value.Clone()})
		h.deltaBytes = 0
		fullSnapshots.Inc()
		return true
	}
	h.entries = append(h.entries, Entry[T, D]{Delta: delta})
	deltaBytes.Add(float64(n))
	return false
}

func (h *DiffHistory[T, D]) Len() int { return len(h.entries) }

func (h *DiffHistory[T, D]) Entry(i int) Entry[T, D] { return h.entries[i] }

// Entries returns a view of the first n entries. Entries are never modified
// after Push, so the view stays valid while the history grows.
func (h *DiffHistory[T, D]) Entries(n int) []Entry[T, D] {
	return h.entries[:n:n]
}

// Last is the most recently pushed value. It must not be modified.
func (h *DiffHistory[T, D]) Last() T { return h.last }

// lastFull is the index of the last full entry at or before tick.
func lastFull[T any, D any](entries []Entry[T, D], tick int) int {
	for i := tick; i > 0; i-- {
		if entries[i].Full {
			return i
		}
	}
	return 0
}
