package coins

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/player"
	"tickarena.ai/internal/processor"
	"tickarena.ai/internal/protocol"
)

type greedy struct{}

func (greedy) GetAction(v View, dbg player.DebugSink) (Action, error) {
	g, err := v.Grid()
	if err != nil {
		return Action{}, err
	}
	move := g.NextStep(v.Pos)
	if dbg != nil {
		data, _ := json.Marshal(v.Pos)
		dbg.Send(protocol.DebugCommand{Kind: protocol.DebugAdd, Data: data})
	}
	return Action{Move: move}, nil
}

type run struct {
	proc *Processor
	buf  bytes.Buffer
	w    *replay.Writer
	rec  *processor.ReplayRecorder[*State, Delta, Event]
}

func newRun(t *testing.T, seed uint64) *run {
	t.Helper()
	r := &run{}
	var err error
	r.w, err = replay.NewWriter(&r.buf)
	require.NoError(t, err)

	opts := Options{Width: 10, Height: 8, MaxTicks: 60, Coins: 8, SpawnEvery: 4}
	r.proc = processor.New[*State, Delta, Action, Event, View](
		processor.Config{Seed: &seed},
		func(rng *rand.Rand, n int) *State { return Init(rng, n, opts) },
		[]Player{greedy{}, greedy{}},
		nil,
	)
	r.rec = processor.NewReplayRecorder[*State, Delta, Event](r.w, protocol.ReplayHeader{Game: "coins", Seed: &seed})
	return r
}

func (r *run) reader(t *testing.T) *replay.Reader {
	t.Helper()
	require.NoError(t, r.w.Close())
	rd, err := replay.NewReader(bytes.NewReader(r.buf.Bytes()))
	require.NoError(t, err)
	return rd
}

func TestEngine_LiveReplayHistory(t *testing.T) {
	rn := newRun(t, 21)
	p, rec := rn.proc, rn.rec
	h := NewHistory(p.Game())
	onTick := h.TickHandler()
	p.SetTickHandler(func(tick int, events []Event, g *State) {
		rec.Handle(tick, events, g)
		onTick(tick, events, g)
	})
	dbg := &processor.DebugInterface{Command: h.DebugHandler()}
	for !p.Finished() {
		_, err := p.ProcessTick(dbg)
		require.NoError(t, err)
	}
	require.NoError(t, rec.Err())
	require.Equal(t, 60, rec.Ticks())

	res := p.Results()
	require.False(t, res.Players[0].Crashed)
	scores := res.Results.(Results).Scores
	require.Positive(t, scores[0]+scores[1], "greedy players should collect something")

	final := p.Game().Clone()

	loaded, errc, err := Load(rn.reader(t))
	require.NoError(t, err)
	require.NoError(t, <-errc)
	require.Equal(t, 61, loaded.Len())

	loaded.GoTo(60, false)
	require.Equal(t, final, loaded.Current().Game)

	for _, tick := range []int{30, 5, 59, 0} {
		h.GoTo(tick, false)
		loaded.GoTo(tick, false)
		require.Equal(t, h.Current().Game, loaded.Current().Game, "tick %d", tick)
		require.Equal(t, h.Current().Extra, loaded.Current().Extra, "tick %d", tick)
	}

	h.GoTo(10, false)
	require.Len(t, h.Current().Debug, 2, "both players reported at tick 10")
}

func TestEngine_RepeatMatchesLive(t *testing.T) {
	rn := newRun(t, 4)
	p, rec := rn.proc, rn.rec
	p.SetTickHandler(rec.Handle)
	require.NoError(t, p.Run(context.Background()))
	final := p.Game().Clone()

	rp, err := processor.Repeat[*State, Delta, Action, Event, View](rn.reader(t), []Player{player.EmptyPlayer[View, Action]{}}, nil)
	require.NoError(t, err)
	require.NoError(t, rp.Run(context.Background()))
	require.Equal(t, final, rp.Game())
	require.Nil(t, rp.Results().Seed)
}
