package coins

import "tickarena.ai/internal/sim/encoding"

// View is what one player is sent each tick.
type View struct {
	Tick     int            `json:"tick"`
	MaxTicks int            `json:"max_ticks"`
	Me       int            `json:"me"`
	Pos      Pos            `json:"pos"`
	Board    encoding.Board `json:"board"`
	Scores   []int          `json:"scores"`
}

func (s *State) PlayerView(player int) View {
	cells := append([]uint16(nil), s.Cells...)
	for i, p := range s.Players {
		cells[s.index(p)] = CellPlayer + uint16(i)
	}
	v := View{
		Tick:     s.Tick,
		MaxTicks: s.MaxTicks,
		Me:       player,
		Board:    encoding.EncodeBoard(s.Width, s.Height, cells),
		Scores:   append([]int(nil), s.Scores...),
	}
	if player >= 0 && player < len(s.Players) {
		v.Pos = s.Players[player]
	}
	return v
}

// Grid decodes the board of v.
func (v View) Grid() (*Grid, error) {
	cells, err := v.Board.Decode()
	if err != nil {
		return nil, err
	}
	return &Grid{Width: v.Board.Width, Height: v.Board.Height, Cells: cells}, nil
}

type Grid struct {
	Width  int
	Height int
	Cells  []uint16
}

func (g *Grid) At(p Pos) uint16 {
	if p.X < 0 || p.Y < 0 || p.X >= g.Width || p.Y >= g.Height {
		return CellWall
	}
	return g.Cells[p.Y*g.Width+p.X]
}

// NextStep returns the first move of a shortest path from from to the
// nearest coin, or Stay if no coin is reachable.
func (g *Grid) NextStep(from Pos) Dir {
	type node struct {
		p     Pos
		first Dir
	}
	if from.X < 0 || from.Y < 0 || from.X >= g.Width || from.Y >= g.Height {
		return Stay
	}
	seen := make([]bool, len(g.Cells))
	seen[from.Y*g.Width+from.X] = true
	queue := []node{{p: from}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range []Dir{North, East, South, West} {
			dx, dy := d.step()
			q := Pos{X: n.p.X + dx, Y: n.p.Y + dy}
			c := g.At(q)
			if c == CellWall || c >= CellPlayer || seen[q.Y*g.Width+q.X] {
				continue
			}
			first := n.first
			if first == Stay {
				first = d
			}
			if c == CellCoin {
				return first
			}
			seen[q.Y*g.Width+q.X] = true
			queue = append(queue, node{p: q, first: first})
		}
	}
	return Stay
}
