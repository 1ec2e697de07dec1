// Package coins is a small grid game used to exercise the engine: players
// walk a walled board and pick up coins that appear over time.
package coins

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Cell values on the board. Players are drawn as CellPlayer+index in views.
const (
	CellEmpty  uint16 = 0
	CellWall   uint16 = 1
	CellCoin   uint16 = 2
	CellPlayer uint16 = 3
)

type Dir string

const (
	Stay  Dir = ""
	North Dir = "N"
	South Dir = "S"
	East  Dir = "E"
	West  Dir = "W"
)

func (d Dir) step() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Action struct {
	Move Dir `json:"move,omitempty"`
}

const (
	EventCoin    = "COIN"
	EventBlocked = "BLOCKED"
	EventSpawn   = "SPAWN"
)

type Event struct {
	Kind   string `json:"kind"`
	Player int    `json:"player"`
	Pos    Pos    `json:"pos"`
}

type Results struct {
	Scores []int `json:"scores"`
	// Winner is -1 on a tie.
	Winner int `json:"winner"`
}

// State is the full game state. The zero value is not usable; see Init.
type State struct {
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Tick       int      `json:"tick"`
	MaxTicks   int      `json:"max_ticks"`
	SpawnEvery int      `json:"spawn_every"`
	Cells      []uint16 `json:"cells"`
	Players    []Pos    `json:"players"`
	Scores     []int    `json:"scores"`
}

func (s *State) index(p Pos) int { return p.Y*s.Width + p.X }

func (s *State) inside(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.Width && p.Y < s.Height
}

func (s *State) occupied(p Pos) bool {
	for _, q := range s.Players {
		if q == p {
			return true
		}
	}
	return false
}

func (s *State) emptyCells() []Pos {
	var out []Pos
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			p := Pos{X: x, Y: y}
			if s.Cells[s.index(p)] == CellEmpty && !s.occupied(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (s *State) coinsLeft() int {
	n := 0
	for _, c := range s.Cells {
		if c == CellCoin {
			n++
		}
	}
	return n
}

// ProcessTurn moves players in index order. A move into a wall, the board
// edge or another player is blocked.
func (s *State) ProcessTurn(rng *rand.Rand, actions map[int]Action) []Event {
	s.Tick++
	var events []Event

	order := make([]int, 0, len(actions))
	for i := range actions {
		if i >= 0 && i < len(s.Players) {
			order = append(order, i)
		}
	}
	sort.Ints(order)

	for _, i := range order {
		dx, dy := actions[i].Move.step()
		if dx == 0 && dy == 0 {
			continue
		}
		to := Pos{X: s.Players[i].X + dx, Y: s.Players[i].Y + dy}
		if !s.inside(to) || s.Cells[s.index(to)] == CellWall || s.occupied(to) {
			events = append(events, Event{Kind: EventBlocked, Player: i, Pos: to})
			continue
		}
		s.Players[i] = to
		if s.Cells[s.index(to)] == CellCoin {
			s.Cells[s.index(to)] = CellEmpty
			s.Scores[i]++
			events = append(events, Event{Kind: EventCoin, Player: i, Pos: to})
		}
	}

	if s.SpawnEvery > 0 && s.Tick%s.SpawnEvery == 0 {
		if free := s.emptyCells(); len(free) > 0 {
			p := free[rng.IntN(len(free))]
			s.Cells[s.index(p)] = CellCoin
			events = append(events, Event{Kind: EventSpawn, Player: -1, Pos: p})
		}
	}
	return events
}

// Finished reports whether the tick budget is spent, or the board is empty
// and nothing will spawn.
func (s *State) Finished() bool {
	if s.Tick >= s.MaxTicks {
		return true
	}
	return s.SpawnEvery <= 0 && s.coinsLeft() == 0
}

func (s *State) Results() any {
	r := Results{Scores: append([]int(nil), s.Scores...), Winner: -1}
	best := -1
	for i, sc := range s.Scores {
		switch {
		case sc > best:
			best, r.Winner = sc, i
		case sc == best:
			r.Winner = -1
		}
	}
	return r
}

func (s *State) String() string {
	return fmt.Sprintf("coins %dx%d tick=%d/%d scores=%v", s.Width, s.Height, s.Tick, s.MaxTicks, s.Scores)
}
