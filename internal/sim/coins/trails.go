package coins

// TrailLength is how many past positions a trail keeps per player.
const TrailLength = 16

// Trails is renderer data: recent positions of every player and the coins
// picked up so far.
type Trails struct {
	Paths     [][]Pos `json:"paths"`
	Collected []Pos   `json:"collected"`
}

// TrailsDelta replaces the listed paths and appends to Collected.
type TrailsDelta struct {
	Paths     map[int][]Pos `json:"paths,omitempty"`
	Count     int           `json:"count"`
	Collected []Pos         `json:"collected,omitempty"`
	Reset     bool          `json:"reset,omitempty"`
}

func NewTrails(s *State) *Trails {
	t := &Trails{Paths: make([][]Pos, len(s.Players))}
	for i, p := range s.Players {
		t.Paths[i] = []Pos{p}
	}
	return t
}

func (t *Trails) Advance(events []Event, s *State) {
	t.Paths = resize(t.Paths, len(s.Players))
	for i, p := range s.Players {
		path := t.Paths[i]
		if n := len(path); n > 0 && path[n-1] == p {
			continue
		}
		next := make([]Pos, 0, TrailLength)
		if len(path) >= TrailLength {
			path = path[len(path)-TrailLength+1:]
		}
		t.Paths[i] = append(append(next, path...), p)
	}
	for _, e := range events {
		if e.Kind == EventCoin {
			t.Collected = append(t.Collected, e.Pos)
		}
	}
}

func (t *Trails) Diff(other *Trails) TrailsDelta {
	d := TrailsDelta{Count: len(other.Paths)}
	for i, p := range other.Paths {
		if i < len(t.Paths) && equalPath(t.Paths[i], p) {
			continue
		}
		if d.Paths == nil {
			d.Paths = map[int][]Pos{}
		}
		d.Paths[i] = append([]Pos(nil), p...)
	}
	if len(other.Collected) >= len(t.Collected) && equalPath(t.Collected, other.Collected[:len(t.Collected)]) {
		d.Collected = append([]Pos(nil), other.Collected[len(t.Collected):]...)
	} else {
		d.Reset = true
		d.Collected = append([]Pos(nil), other.Collected...)
	}
	return d
}

func (t *Trails) Update(d TrailsDelta) {
	t.Paths = resize(t.Paths, d.Count)
	for i, p := range d.Paths {
		t.Paths[i] = append([]Pos(nil), p...)
	}
	if d.Reset {
		t.Collected = nil
	}
	t.Collected = append(t.Collected[:len(t.Collected):len(t.Collected)], d.Collected...)
}

func (t *Trails) Clone() *Trails {
	c := &Trails{
		Paths:     make([][]Pos, len(t.Paths)),
		Collected: append([]Pos(nil), t.Collected...),
	}
	for i, p := range t.Paths {
		c.Paths[i] = append([]Pos(nil), p...)
	}
	return c
}

func equalPath(a, b []Pos) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
