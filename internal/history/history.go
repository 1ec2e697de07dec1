package history

import (
	"sync"
	"time"

	"tickarena.ai/internal/diff"
	"tickarena.ai/internal/protocol"
)

// DebugStaleAfter is how long a consumer that just moved to a tick without
// finished debug data keeps showing the previous tick's data.
const DebugStaleAfter = 500 * time.Millisecond

// DebugFrame is the debug output of every player gathered while they looked
// at one tick. Frames are shared between consumers and must not be modified.
type DebugFrame map[int][]protocol.DebugCommand

// shared is written by the simulation goroutine and read by consumers, always
// under mu.
type shared[S diff.Diffable[S, D], D any, E any, X Derived[S, E, X, XD], XD any] struct {
	mu      sync.Mutex
	states  *DiffHistory[S, D]
	extras  *DiffHistory[X, XD]
	head    X
	events  [][]E
	debug   []DebugFrame
	pending DebugFrame
}

func (s *shared[S, D, E, X, XD]) push(g S, events []E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states.Push(g)
	s.head.Advance(events, g)
	s.extras.Push(s.head)
	s.events = append(s.events, events)
	s.debug = append(s.debug, s.pending)
	s.pending = DebugFrame{}
	ticksPushed.Inc()
}

func (s *shared[S, D, E, X, XD]) pushDebug(player int, cmd protocol.DebugCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[player] = append(s.pending[player], cmd)
}

// State is what a consumer sees at one tick. Events are those that led to
// the tick; Debug is what players reported while looking at it.
type State[S any, E any, X any] struct {
	Tick   int
	Game   S
	Extra  X
	Events []E
	Debug  DebugFrame
}

// History is a consumer's cursor over a shared timeline. The handlers it
// returns may be used from another goroutine; the History itself belongs to
// one consumer.
type History[S diff.Diffable[S, D], D any, E any, X Derived[S, E, X, XD], XD any] struct {
	shared *shared[S, D, E, X, XD]

	states Window[S, D]
	extras Window[X, XD]

	tick      int
	tickSince time.Time
	events    []E
	debug     DebugFrame

	now func() time.Time
}

// New starts a timeline at initial. newExtra derives the renderer data of
// the initial state.
func New[S diff.Diffable[S, D], D any, E any, X Derived[S, E, X, XD], XD any](initial S, newExtra func(S) X) *History[S, D, E, X, XD] {
	extra := newExtra(initial)
	h := &History[S, D, E, X, XD]{
		shared: &shared[S, D, E, X, XD]{
			states:  NewDiffHistory[S, D](initial),
			extras:  NewDiffHistory[X, XD](extra),
			head:    extra.Clone(),
			pending: DebugFrame{},
		},
		now: time.Now,
	}
	h.tickSince = h.now()
	h.states.GoTo(0, h.shared.states.Entries(1))
	h.extras.GoTo(0, h.shared.extras.Entries(1))
	return h
}

// NewPlain starts a timeline without renderer data.
func NewPlain[S diff.Diffable[S, D], D any, E any](initial S) *History[S, D, E, *NoExtra[S, E], NoDelta] {
	return New[S, D, E, *NoExtra[S, E], NoDelta](initial, NewNoExtra[S, E])
}

// TickHandler appends each processed tick. Tick 0 is ignored since the
// timeline already starts at the initial state.
func (h *History[S, D, E, X, XD]) TickHandler() func(tick int, events []E, g S) {
	s := h.shared
	return func(tick int, events []E, g S) {
		if tick == 0 {
			return
		}
		s.push(g, events)
	}
}

// DebugHandler records debug commands for the tick currently being played.
func (h *History[S, D, E, X, XD]) DebugHandler() func(player int, cmd protocol.DebugCommand) {
	return h.shared.pushDebug
}

// Len is the number of ticks stored, including the initial state.
func (h *History[S, D, E, X, XD]) Len() int {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	return h.shared.states.Len()
}

// GoTo moves the cursor to tick, clamped to the last stored tick. With
// collectEvents set and a forward move, it returns the events of every tick
// passed over.
func (h *History[S, D, E, X, XD]) GoTo(tick int, collectEvents bool) []E {
	start := time.Now()
	defer func() { seekDuration.Observe(time.Since(start).Seconds()) }()

	s := h.shared
	s.mu.Lock()
	n := s.states.Len()
	if tick > n-1 {
		tick = n - 1
	}
	if tick < 0 {
		tick = 0
	}
	var collected []E
	if collectEvents && tick > h.tick {
		for t := h.tick; t < tick; t++ {
			collected = append(collected, s.events[t]...)
		}
	}
	states := s.states.Entries(tick + 1)
	extras := s.extras.Entries(tick + 1)
	if tick == 0 {
		h.events = nil
	} else {
		h.events = s.events[tick-1]
	}
	if tick != h.tick {
		h.tickSince = h.now()
	}
	switch {
	case tick < len(s.debug):
		h.debug = s.debug[tick]
	case tick > 0 && tick-1 < len(s.debug) && h.now().Sub(h.tickSince) < DebugStaleAfter:
		h.debug = s.debug[tick-1]
	default:
		h.debug = copyFrame(s.pending)
	}
	s.mu.Unlock()

	h.states.GoTo(tick, states)
	h.extras.GoTo(tick, extras)
	h.tick = tick
	return collected
}

func copyFrame(f DebugFrame) DebugFrame {
	out := make(DebugFrame, len(f))
	for k, v := range f {
		out[k] = append([]protocol.DebugCommand(nil), v...)
	}
	return out
}

// Current is the state at the cursor. The values are owned by the History
// and change on the next GoTo.
func (h *History[S, D, E, X, XD]) Current() State[S, E, X] {
	return State[S, E, X]{
		Tick:   h.tick,
		Game:   h.states.Current(),
		Extra:  h.extras.Current(),
		Events: h.events,
		Debug:  h.debug,
	}
}

// Window gives access to the state before the cursor for interpolation.
func (h *History[S, D, E, X, XD]) Window() *Window[S, D] { return &h.states }

// ExtraWindow is Window for the renderer data.
func (h *History[S, D, E, X, XD]) ExtraWindow() *Window[X, XD] { return &h.extras }
