package coins

// Delta turns one State into another. Board is set only when the shape of
// the board differs; otherwise Cells lists the changed cells by index.
type Delta struct {
	Tick    int            `json:"tick"`
	Board   *Board         `json:"board,omitempty"`
	Cells   map[int]uint16 `json:"cells,omitempty"`
	Count   int            `json:"count"`
	Players map[int]Pos    `json:"players,omitempty"`
	Scores  map[int]int    `json:"scores,omitempty"`
}

type Board struct {
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	MaxTicks   int      `json:"max_ticks"`
	SpawnEvery int      `json:"spawn_every"`
	Cells      []uint16 `json:"cells"`
}

func (s *State) Diff(other *State) Delta {
	d := Delta{Tick: other.Tick, Count: len(other.Players)}

	if s.Width != other.Width || s.Height != other.Height || s.MaxTicks != other.MaxTicks ||
		s.SpawnEvery != other.SpawnEvery || len(s.Cells) != len(other.Cells) {
		d.Board = &Board{
			Width:      other.Width,
			Height:     other.Height,
			MaxTicks:   other.MaxTicks,
			SpawnEvery: other.SpawnEvery,
			Cells:      append([]uint16(nil), other.Cells...),
		}
	} else {
		for i, c := range other.Cells {
			if s.Cells[i] != c {
				if d.Cells == nil {
					d.Cells = map[int]uint16{}
				}
				d.Cells[i] = c
			}
		}
	}

	for i, p := range other.Players {
		if i >= len(s.Players) || s.Players[i] != p {
			if d.Players == nil {
				d.Players = map[int]Pos{}
			}
			d.Players[i] = p
		}
	}
	for i, sc := range other.Scores {
		if i >= len(s.Scores) || s.Scores[i] != sc {
			if d.Scores == nil {
				d.Scores = map[int]int{}
			}
			d.Scores[i] = sc
		}
	}
	return d
}

func (s *State) Update(d Delta) {
	s.Tick = d.Tick
	if b := d.Board; b != nil {
		s.Width, s.Height = b.Width, b.Height
		s.MaxTicks, s.SpawnEvery = b.MaxTicks, b.SpawnEvery
		s.Cells = append(s.Cells[:0:0], b.Cells...)
	}
	for i, c := range d.Cells {
		s.Cells[i] = c
	}
	s.Players = resize(s.Players, d.Count)
	s.Scores = resize(s.Scores, d.Count)
	for i, p := range d.Players {
		s.Players[i] = p
	}
	for i, sc := range d.Scores {
		s.Scores[i] = sc
	}
}

func resize[T any](v []T, n int) []T {
	if len(v) >= n {
		return v[:n]
	}
	return append(v, make([]T, n-len(v))...)
}

func (s *State) Clone() *State {
	c := *s
	c.Cells = append([]uint16(nil), s.Cells...)
	c.Players = append([]Pos(nil), s.Players...)
	c.Scores = append([]int(nil), s.Scores...)
	return &c
}
