package main

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/player"
	"tickarena.ai/internal/processor"
	"tickarena.ai/internal/protocol"
	"tickarena.ai/internal/sim/coins"
)

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.jsonl.zst")
	w, err := replay.Create(path)
	require.NoError(t, err)

	seed := uint64(9)
	opts := coins.Options{Width: 6, Height: 4, MaxTicks: 12, Coins: 3}
	p := processor.New[*coins.State, coins.Delta, coins.Action, coins.Event, coins.View](
		processor.Config{Seed: &seed},
		func(rng *rand.Rand, n int) *coins.State { return coins.Init(rng, n, opts) },
		[]coins.Player{player.EmptyPlayer[coins.View, coins.Action]{}},
		nil,
	)
	rec := processor.NewReplayRecorder[*coins.State, coins.Delta, coins.Event](w, protocol.ReplayHeader{Game: "coins", Seed: &seed})
	p.SetTickHandler(rec.Handle)
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, rec.Err())
	require.NoError(t, w.Close())

	require.NoError(t, inspect(path, 5, true))
	require.NoError(t, inspect(path, -1, false))
	require.Error(t, inspect(filepath.Join(t.TempDir(), "missing.zst"), 0, false))
}
