package processor

import (
	"tickarena.ai/internal/diff"
	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/protocol"
)

// ReplayRecorder is a tick handler that writes a replay log. The first write
// error is kept and every later tick is ignored.
type ReplayRecorder[S diff.Diffable[S, D], D any, E any] struct {
	w      *replay.Writer
	header protocol.ReplayHeader
	last   S
	ticks  int
	err    error
}

func NewReplayRecorder[S diff.Diffable[S, D], D any, E any](w *replay.Writer, header protocol.ReplayHeader) *ReplayRecorder[S, D, E] {
	return &ReplayRecorder[S, D, E]{w: w, header: header}
}

func (r *ReplayRecorder[S, D, E]) Handle(tick int, events []E, g S) {
	if r.err != nil {
		return
	}
	if tick == 0 {
		if r.err = r.w.WriteHeader(r.header); r.err != nil {
			return
		}
		r.err = r.w.WriteInitial(g)
		r.last = g.Clone()
		return
	}
	if events == nil {
		events = []E{}
	}
	delta := r.last.Diff(g)
	if r.err = r.w.WriteTick(tick, events, delta); r.err != nil {
		return
	}
	r.last.Update(delta)
	r.ticks = tick
}

// Ticks is the number of tick records written.
func (r *ReplayRecorder[S, D, E]) Ticks() int { return r.ticks }

func (r *ReplayRecorder[S, D, E]) Err() error { return r.err }
