package coins

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickarena.ai/internal/game"
)

func board(w, h int, rows ...string) *State {
	s := &State{Width: w, Height: h, MaxTicks: 10, Cells: make([]uint16, w*h)}
	for y, row := range rows {
		for x, c := range row {
			switch c {
			case '#':
				s.Cells[y*w+x] = CellWall
			case '$':
				s.Cells[y*w+x] = CellCoin
			case '0', '1', '2':
				i := int(c - '0')
				s.Players = resize(s.Players, i+1)
				s.Scores = resize(s.Scores, i+1)
				s.Players[i] = Pos{X: x, Y: y}
			}
		}
	}
	return s
}

func TestInit_Deterministic(t *testing.T) {
	a := Init(game.NewRNG(3), 2, DefaultOptions())
	b := Init(game.NewRNG(3), 2, DefaultOptions())
	require.Equal(t, a, b)
	require.Len(t, a.Players, 2)
	require.NotEqual(t, a.Players[0], a.Players[1])
	require.Equal(t, 20, a.coinsLeft())
}

func TestInit_ZeroOptionsUseDefaults(t *testing.T) {
	s := Init(game.NewRNG(1), 1, Options{})
	require.Equal(t, 16, s.Width)
	require.Equal(t, 12, s.Height)
	require.Equal(t, 200, s.MaxTicks)
}

func TestProcessTurn_MovesCollectsAndBlocks(t *testing.T) {
	s := board(4, 2,
		"0$#.",
		"1...",
	)
	ev := s.ProcessTurn(game.NewRNG(0), map[int]Action{
		0: {Move: East},
		1: {Move: North},
	})
	require.Equal(t, 1, s.Tick)
	require.Equal(t, Pos{X: 1, Y: 0}, s.Players[0])
	require.Equal(t, Pos{X: 0, Y: 0}, s.Players[1])
	require.Equal(t, []int{1, 0}, s.Scores)
	require.Equal(t, []Event{{Kind: EventCoin, Player: 0, Pos: Pos{X: 1, Y: 0}}}, ev)

	ev = s.ProcessTurn(game.NewRNG(0), map[int]Action{0: {Move: East}, 1: {Move: West}})
	require.Equal(t, []Event{
		{Kind: EventBlocked, Player: 0, Pos: Pos{X: 2, Y: 0}},
		{Kind: EventBlocked, Player: 1, Pos: Pos{X: -1, Y: 0}},
	}, ev)
}

func TestProcessTurn_LowerIndexMovesFirst(t *testing.T) {
	s := board(3, 1, "0.1")
	ev := s.ProcessTurn(game.NewRNG(0), map[int]Action{0: {Move: East}, 1: {Move: West}})
	require.Equal(t, Pos{X: 1, Y: 0}, s.Players[0])
	require.Equal(t, Pos{X: 2, Y: 0}, s.Players[1])
	require.Equal(t, []Event{{Kind: EventBlocked, Player: 1, Pos: Pos{X: 1, Y: 0}}}, ev)
}

func TestProcessTurn_Spawns(t *testing.T) {
	s := board(3, 1, "0..")
	s.SpawnEvery = 2
	require.Empty(t, s.ProcessTurn(game.NewRNG(5), nil))
	ev := s.ProcessTurn(game.NewRNG(5), nil)
	require.Len(t, ev, 1)
	require.Equal(t, EventSpawn, ev[0].Kind)
	require.Equal(t, CellCoin, s.Cells[s.index(ev[0].Pos)])
}

func TestFinishedAndResults(t *testing.T) {
	s := board(2, 1, "01")
	require.True(t, s.Finished(), "no coins and no spawning")

	s = board(3, 1, "0$1")
	s.MaxTicks = 1
	require.False(t, s.Finished())
	s.ProcessTurn(game.NewRNG(0), map[int]Action{1: {Move: West}})
	require.True(t, s.Finished())
	require.Equal(t, Results{Scores: []int{0, 1}, Winner: 1}, s.Results())

	s.Scores = []int{1, 1}
	require.Equal(t, -1, s.Results().(Results).Winner)
}

func TestDiffUpdate_RandomPlay(t *testing.T) {
	rng := game.NewRNG(11)
	s := Init(rng, 3, Options{Width: 8, Height: 6, MaxTicks: 50, Coins: 10, SpawnEvery: 3})
	prev := s.Clone()
	dirs := []Dir{Stay, North, South, East, West}
	for !s.Finished() {
		actions := map[int]Action{}
		for i := range s.Players {
			actions[i] = Action{Move: dirs[rand.IntN(len(dirs))]}
		}
		s.ProcessTurn(rng, actions)

		d := prev.Diff(s)
		prev.Update(d)
		require.Equal(t, s, prev, "tick %d", s.Tick)
	}
}

func TestDiff_ShapeChange(t *testing.T) {
	a := board(2, 1, "0.")
	b := board(3, 2, "$.0", "1..")
	d := a.Diff(b)
	require.NotNil(t, d.Board)
	a.Update(d)
	require.Equal(t, b, a)

	d.Board.Cells[0] = CellWall
	require.Equal(t, CellCoin, a.Cells[0], "delta must not alias the state")
}

func TestClone_NoAliasing(t *testing.T) {
	s := board(2, 1, "0$")
	c := s.Clone()
	s.ProcessTurn(game.NewRNG(0), map[int]Action{0: {Move: East}})
	assert.Equal(t, Pos{}, c.Players[0])
	assert.Equal(t, CellCoin, c.Cells[1])
	assert.Equal(t, 0, c.Scores[0])
}

func TestPlayerView(t *testing.T) {
	s := board(3, 2, "0.$", "#1.")
	v := s.PlayerView(1)
	require.Equal(t, 1, v.Me)
	require.Equal(t, Pos{X: 1, Y: 1}, v.Pos)

	g, err := v.Grid()
	require.NoError(t, err)
	require.Equal(t, CellPlayer, g.At(Pos{X: 0, Y: 0}))
	require.Equal(t, CellPlayer+1, g.At(Pos{X: 1, Y: 1}))
	require.Equal(t, CellWall, g.At(Pos{X: 0, Y: 1}))
	require.Equal(t, CellWall, g.At(Pos{X: 5, Y: 5}))
	require.Equal(t, CellEmpty, s.Cells[0], "players are only drawn into views")
}

func TestGrid_NextStep(t *testing.T) {
	s := board(4, 3,
		"0#$.",
		".#..",
		"....",
	)
	g, err := s.PlayerView(0).Grid()
	require.NoError(t, err)
	require.Equal(t, South, g.NextStep(Pos{}))

	s = board(3, 1, "0#$")
	g, err = s.PlayerView(0).Grid()
	require.NoError(t, err)
	require.Equal(t, Stay, g.NextStep(Pos{}))
}

func TestTrails(t *testing.T) {
	s := board(3, 1, "0$.")
	tr := NewTrails(s)
	start := tr.Clone()

	for i := 0; i < 2; i++ {
		ev := s.ProcessTurn(game.NewRNG(0), map[int]Action{0: {Move: East}})
		tr.Advance(ev, s)
	}
	require.Equal(t, [][]Pos{{{0, 0}, {1, 0}, {2, 0}}}, tr.Paths)
	require.Equal(t, []Pos{{1, 0}}, tr.Collected)

	d := start.Diff(tr)
	start.Update(d)
	require.Equal(t, tr, start)

	back := tr.Clone()
	back.Update(tr.Diff(NewTrails(board(3, 1, "0$."))))
	require.Empty(t, back.Collected)
	require.Equal(t, [][]Pos{{{0, 0}}}, back.Paths)
}

func TestTrails_Capped(t *testing.T) {
	s := board(TrailLength+5, 1, "0")
	tr := NewTrails(s)
	for i := 0; i < TrailLength+3; i++ {
		tr.Advance(s.ProcessTurn(game.NewRNG(0), map[int]Action{0: {Move: East}}), s)
	}
	require.Len(t, tr.Paths[0], TrailLength)
	require.Equal(t, s.Players[0], tr.Paths[0][TrailLength-1])
}
