package coins

import "math/rand/v2"

type Options struct {
	Width      int     `yaml:"width" json:"width"`
	Height     int     `yaml:"height" json:"height"`
	MaxTicks   int     `yaml:"max_ticks" json:"max_ticks"`
	Coins      int     `yaml:"coins" json:"coins"`
	WallRatio  float64 `yaml:"wall_ratio" json:"wall_ratio"`
	SpawnEvery int     `yaml:"spawn_every" json:"spawn_every"`
}

func DefaultOptions() Options {
	return Options{Width: 16, Height: 12, MaxTicks: 200, Coins: 20, WallRatio: 0.1, SpawnEvery: 5}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = d.MaxTicks
	}
	if o.WallRatio < 0 || o.WallRatio >= 1 {
		o.WallRatio = 0
	}
	return o
}

// Init builds a board from opts. Walls, player starts and coins are all
// drawn from rng; zero-valued options take their defaults.
func Init(rng *rand.Rand, players int, opts Options) *State {
	o := opts.withDefaults()
	s := &State{
		Width:      o.Width,
		Height:     o.Height,
		MaxTicks:   o.MaxTicks,
		SpawnEvery: o.SpawnEvery,
		Cells:      make([]uint16, o.Width*o.Height),
		Players:    make([]Pos, 0, players),
		Scores:     make([]int, players),
	}
	walls := int(float64(len(s.Cells)) * o.WallRatio)
	for i := 0; i < walls; i++ {
		s.Cells[rng.IntN(len(s.Cells))] = CellWall
	}
	for i := 0; i < players; i++ {
		free := s.emptyCells()
		if len(free) == 0 {
			// Crowded board: clear a wall for the player.
			p := Pos{X: i % s.Width, Y: (i / s.Width) % s.Height}
			s.Cells[s.index(p)] = CellEmpty
			s.Players = append(s.Players, p)
			continue
		}
		s.Players = append(s.Players, free[rng.IntN(len(free))])
	}
	for i := 0; i < o.Coins; i++ {
		free := s.emptyCells()
		if len(free) == 0 {
			break
		}
		p := free[rng.IntN(len(free))]
		s.Cells[s.index(p)] = CellCoin
	}
	return s
}
