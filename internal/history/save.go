package history

import (
	"tickarena.ai/internal/diff"
	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/processor"
	"tickarena.ai/internal/protocol"
)

// Save writes the game states and events stored so far as a replay log.
// Renderer data is not saved; Load derives it again.
func (h *History[S, D, E, X, XD]) Save(w *replay.Writer, header protocol.ReplayHeader) error {
	s := h.shared
	s.mu.Lock()
	entries := s.states.Entries(s.states.Len())
	events := s.events[:len(entries)-1]
	s.mu.Unlock()

	cur := entries[0].Value.Clone()
	if err := w.WriteHeader(header); err != nil {
		return err
	}
	if err := w.WriteInitial(cur); err != nil {
		return err
	}
	for i, e := range entries[1:] {
		delta := e.Delta
		if e.Full {
			delta = cur.Diff(e.Value)
		}
		evs := events[i]
		if evs == nil {
			evs = []E{}
		}
		if err := w.WriteTick(i+1, evs, delta); err != nil {
			return err
		}
		cur.Update(delta)
	}
	return nil
}

// Load reads the initial state from r and returns a History at once; the
// remaining ticks are appended on a separate goroutine. The channel yields
// the read error, if any, and is closed when loading ends. r is not closed.
func Load[S diff.Diffable[S, D], D any, E any, X Derived[S, E, X, XD], XD any](r *replay.Reader, newExtra func(S) X) (*History[S, D, E, X, XD], <-chan error, error) {
	st, err := processor.NewRepeat[S, D, struct{}, E](r)
	if err != nil {
		return nil, nil, err
	}
	h := New[S, D, E, X, XD](st.Game(), newExtra)
	handle := h.TickHandler()
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for tick := 1; !st.Finished(); tick++ {
			events, err := st.ProcessTurn(nil)
			if err != nil {
				errc <- err
				return
			}
			handle(tick, events, st.Game())
		}
	}()
	return h, errc, nil
}
