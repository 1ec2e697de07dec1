// Package processor owns the turn loop of a run. Ticks come either from the
// game rules (Standard) or from a recorded replay log (Repeat); players are
// asked for actions the same way in both cases.
package processor

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tickarena.ai/internal/game"
	"tickarena.ai/internal/lobby"
	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/persistence/snapshot"
	"tickarena.ai/internal/player"
)

// Config controls how a live run is seeded. Seeds is consulted only when
// Seed is nil; a nil Seeds falls back to game.CryptoSeeds.
type Config struct {
	Seed  *uint64
	Seeds game.SeedSource
}

func (c Config) seed() uint64 {
	if c.Seed != nil {
		return *c.Seed
	}
	if c.Seeds != nil {
		return c.Seeds.Seed()
	}
	return game.CryptoSeeds{}.Seed()
}

type GameProcessor[S game.Game[S, D, A, E, V], D any, A any, E any, V any] struct {
	seed     *uint64
	strategy Strategy[S, A, E]
	kind     string

	players  []player.Player[V, A]
	crashed  []bool
	comments []string

	ticks     int
	onTick    func(tick int, events []E, g S)
	onResults func(game.FullResults)
	closed    bool

	log *log.Logger
}

// New starts a live run. create receives the generator seeded from cfg and
// the number of players.
func New[S game.Game[S, D, A, E, V], D any, A any, E any, V any](
	cfg Config,
	create func(rng *rand.Rand, players int) S,
	players []player.Player[V, A],
	logger *log.Logger,
) *GameProcessor[S, D, A, E, V] {
	seed := cfg.seed()
	rng := game.NewRNG(seed)
	g := create(rng, len(players))
	p := newProcessor[S, D, A, E, V](NewStandard[S, D, A, E, V](g, rng), "standard", players, logger)
	p.seed = &seed
	p.log.Info("new game", "seed", seed, "players", len(players))
	return p
}

// NewFull connects every configured player and then starts a live run, either
// from a fresh state built by initGame or from the snapshot named by LoadFrom.
// Players that fail to connect take part as crashed players.
func NewFull[S game.Game[S, D, A, E, V], D any, A any, E any, V any, O any](
	ctx context.Context,
	opts game.FullOptions[O],
	initGame game.InitFunc[S, O],
	seeds game.SeedSource,
	logger *log.Logger,
) (*GameProcessor[S, D, A, E, V], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	create := func(rng *rand.Rand, n int) S {
		var o O
		if opts.Game.Create != nil {
			o = *opts.Game.Create
		}
		return initGame(rng, n, o)
	}
	if path := strings.TrimSpace(opts.Game.LoadFrom); path != "" {
		_, loaded, err := snapshot.Read[S](path)
		if err != nil {
			return nil, fmt.Errorf("load game: %w", err)
		}
		create = func(*rand.Rand, int) S { return loaded }
	}
	players, err := lobby.ConnectAll[V, A](ctx, opts.Players, logger)
	if err != nil {
		if ctx.Err() != nil {
			closePlayers(players)
			return nil, ctx.Err()
		}
		loggerOrDiscard(logger).Warn("starting with unconnected players", "err", err)
	}
	return New[S, D, A, E, V](Config{Seed: opts.Seed, Seeds: seeds}, create, players, logger), nil
}

// Repeat replays the log read by r. The players still receive views and
// debug requests but their actions have no effect.
func Repeat[S game.Game[S, D, A, E, V], D any, A any, E any, V any](
	r *replay.Reader,
	players []player.Player[V, A],
	logger *log.Logger,
) (*GameProcessor[S, D, A, E, V], error) {
	st, err := NewRepeat[S, D, A, E](r)
	if err != nil {
		return nil, err
	}
	return newProcessor[S, D, A, E, V](st, "repeat", players, logger), nil
}

// RepeatFull connects the configured players and replays r.
func RepeatFull[S game.Game[S, D, A, E, V], D any, A any, E any, V any, O any](
	ctx context.Context,
	r *replay.Reader,
	opts game.FullOptions[O],
	logger *log.Logger,
) (*GameProcessor[S, D, A, E, V], error) {
	players, err := lobby.ConnectAll[V, A](ctx, opts.Players, logger)
	if err != nil && ctx.Err() != nil {
		closePlayers(players)
		return nil, ctx.Err()
	}
	p, err := Repeat[S, D, A, E, V](r, players, logger)
	if err != nil {
		closePlayers(players)
		return nil, err
	}
	return p, nil
}

func newProcessor[S game.Game[S, D, A, E, V], D any, A any, E any, V any](
	st Strategy[S, A, E],
	kind string,
	players []player.Player[V, A],
	logger *log.Logger,
) *GameProcessor[S, D, A, E, V] {
	return &GameProcessor[S, D, A, E, V]{
		strategy: st,
		kind:     kind,
		players:  players,
		crashed:  make([]bool, len(players)),
		comments: make([]string, len(players)),
		log:      loggerOrDiscard(logger).WithPrefix("processor"),
	}
}

func loggerOrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

// SetTickHandler registers h and immediately calls it with tick 0, nil
// events and the initial state.
func (p *GameProcessor[S, D, A, E, V]) SetTickHandler(h func(tick int, events []E, g S)) {
	h(0, nil, p.strategy.Game())
	p.onTick = h
}

// SetResultsHandler registers h, called once on the tick the game finishes.
func (p *GameProcessor[S, D, A, E, V]) SetResultsHandler(h func(game.FullResults)) {
	p.onResults = h
}

// ProcessTick runs one tick: collect actions from alive players, advance the
// strategy, notify the handlers. A failing player is dropped for the rest of
// the run; only a broken replay log makes ProcessTick fail.
func (p *GameProcessor[S, D, A, E, V]) ProcessTick(dbg *DebugInterface) ([]E, error) {
	if p.Finished() {
		return nil, ErrFinished
	}
	start := time.Now()
	g := p.strategy.Game()
	actions := make(map[int]A, len(p.players))
	for i, pl := range p.players {
		if pl == nil || p.crashed[i] {
			continue
		}
		a, err := pl.GetAction(g.PlayerView(i), dbg.ForPlayer(i))
		if err != nil {
			p.crash(i, err)
			continue
		}
		actions[i] = a
	}

	events, err := p.strategy.ProcessTurn(actions)
	if err != nil {
		return nil, err
	}
	p.ticks++
	ticksProcessed.WithLabelValues(p.kind).Inc()
	tickDuration.Observe(time.Since(start).Seconds())

	if p.onTick != nil {
		p.onTick(p.ticks, events, p.strategy.Game())
	}
	if p.Finished() {
		p.finish()
	}
	p.log.Debug("processed ticks", "n", p.ticks)
	return events, nil
}

// DebugUpdate lets every alive player that supports it refresh its debug
// output against state without consuming a tick.
func (p *GameProcessor[S, D, A, E, V]) DebugUpdate(dbg *DebugInterface, state S) {
	if p.closed {
		return
	}
	for i, pl := range p.players {
		if pl == nil || p.crashed[i] {
			continue
		}
		du, ok := pl.(player.DebugUpdater[V])
		if !ok {
			continue
		}
		if err := du.DebugUpdate(state.PlayerView(i), dbg.ForPlayer(i)); err != nil {
			p.crash(i, err)
		}
	}
}

// Run processes ticks until the game finishes or ctx is cancelled.
func (p *GameProcessor[S, D, A, E, V]) Run(ctx context.Context) error {
	for !p.Finished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := p.ProcessTick(nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *GameProcessor[S, D, A, E, V]) crash(i int, err error) {
	p.log.Warn("player error", "player", i, "err", err)
	playerCrashes.Inc()
	p.crashed[i] = true
	p.comments[i] = fmt.Sprintf("Player crashed: %v", err)
	closePlayer(p.players[i])
}

func (p *GameProcessor[S, D, A, E, V]) finish() {
	results := p.Results()
	p.log.Info("game finished", "ticks", p.ticks)
	if h := p.onResults; h != nil {
		p.onResults = nil
		h(results)
	}
	p.Close()
}

// Results reports the per-player status so far and the game's own results.
func (p *GameProcessor[S, D, A, E, V]) Results() game.FullResults {
	players := make([]game.PlayerResult, len(p.players))
	for i := range players {
		players[i] = game.PlayerResult{Crashed: p.crashed[i], Comment: p.comments[i]}
	}
	return game.FullResults{
		Players: players,
		Results: p.strategy.Game().Results(),
		Seed:    p.seed,
	}
}

func (p *GameProcessor[S, D, A, E, V]) Game() S          { return p.strategy.Game() }
func (p *GameProcessor[S, D, A, E, V]) Finished() bool   { return p.strategy.Finished() }
func (p *GameProcessor[S, D, A, E, V]) PlayerCount() int { return len(p.players) }
func (p *GameProcessor[S, D, A, E, V]) Ticks() int       { return p.ticks }

// Alive is the number of players that have not crashed.
func (p *GameProcessor[S, D, A, E, V]) Alive() int {
	n := 0
	for _, c := range p.crashed {
		if !c {
			n++
		}
	}
	return n
}

// Seed is nil for replayed runs.
func (p *GameProcessor[S, D, A, E, V]) Seed() *uint64 { return p.seed }

// Close sends FINISH to every player still connected. It is safe to call
// more than once.
func (p *GameProcessor[S, D, A, E, V]) Close() {
	if p.closed {
		return
	}
	p.closed = true
	for i, pl := range p.players {
		if !p.crashed[i] {
			closePlayer(pl)
		}
	}
}

func closePlayer[V any, A any](pl player.Player[V, A]) {
	if c, ok := pl.(io.Closer); ok {
		_ = c.Close()
	}
}

func closePlayers[V any, A any](players []player.Player[V, A]) {
	for _, pl := range players {
		if pl != nil {
			closePlayer(pl)
		}
	}
}
