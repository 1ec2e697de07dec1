package history

import "tickarena.ai/internal/diff"

// Snapshot is a materialized value of one tick, moved along a DiffHistory
// with GoTo.
type Snapshot[T diff.Diffable[T, D], D any] struct {
	tick  int
	value T
	valid bool
}

func (s *Snapshot[T, D]) Tick() int   { return s.tick }
func (s *Snapshot[T, D]) Value() T    { return s.value }
func (s *Snapshot[T, D]) Valid() bool { return s.valid }

// Replays is the number of entries GoTo(tick) would apply.
func (s *Snapshot[T, D]) Replays(tick int, entries []Entry[T, D]) int {
	full := lastFull(entries, tick)
	if !s.valid || tick < s.tick || s.tick < full {
		return tick - full
	}
	return tick - s.tick
}

// GoTo moves the snapshot to tick, replaying forward from the cached value
// when possible and from the nearest preceding full entry otherwise. tick
// must be below len(entries).
func (s *Snapshot[T, D]) GoTo(tick int, entries []Entry[T, D]) {
	full := lastFull(entries, tick)
	if !s.valid || tick < s.tick || s.tick < full {
		s.value = entries[full].Value.Clone()
		s.tick = full
		s.valid = true
	}
	for i := s.tick + 1; i <= tick; i++ {
		e := entries[i]
		if e.Full {
			s.value = e.Value.Clone()
		} else {
			s.value.Update(e.Delta)
		}
	}
	s.tick = tick
}

func (s *Snapshot[T, D]) clone() Snapshot[T, D] {
	if !s.valid {
		return Snapshot[T, D]{}
	}
	return Snapshot[T, D]{tick: s.tick, value: s.value.Clone(), valid: true}
}

// Window holds the snapshot of a tick and of the tick before it, for
// interpolating between the two.
type Window[T diff.Diffable[T, D], D any] struct {
	current  Snapshot[T, D]
	previous Snapshot[T, D]
}

func (w *Window[T, D]) GoTo(tick int, entries []Entry[T, D]) {
	if tick == 0 {
		w.previous = Snapshot[T, D]{}
		w.current.GoTo(0, entries)
		return
	}
	prev := tick - 1
	if !w.previous.valid || w.current.Replays(prev, entries) < w.previous.Replays(prev, entries) {
		w.previous = w.current.clone()
	}
	w.previous.GoTo(prev, entries)
	w.current.GoTo(tick, entries)
}

func (w *Window[T, D]) Tick() int    { return w.current.tick }
func (w *Window[T, D]) Current() T   { return w.current.value }

// Previous is the value one tick before Current; ok is false at tick 0.
func (w *Window[T, D]) Previous() (v T, ok bool) {
	return w.previous.value, w.previous.valid
}

// Interpolation returns the pair to blend at fraction t of the way from the
// previous tick to the current one. At tick 0 both values are the current one.
func (w *Window[T, D]) Interpolation(t float64) (prev, cur T, frac float64) {
	cur = w.current.value
	if !w.previous.valid {
		return cur, cur, 1
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return w.previous.value, cur, t
}
