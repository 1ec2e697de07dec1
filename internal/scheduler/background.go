// Package scheduler drives a GameProcessor on its own goroutine. Callers
// grant a tick budget with Proceed and the goroutine processes ticks as fast
// as the players allow until the budget is spent.
package scheduler

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"tickarena.ai/internal/game"
	"tickarena.ai/internal/processor"
)

const stop = -1

type Background[S game.Game[S, D, A, E, V], D any, A any, E any, V any] struct {
	playerCount int
	budget      atomic.Int64
	wake        chan struct{}
	done        chan struct{}

	mu         sync.Mutex
	debugState S
	hasDebug   bool

	panicked  any
	err       error
	closeOnce sync.Once

	log *log.Logger
}

// New starts the simulation goroutine. onTick is called on that goroutine
// after every processed tick. dbg may be nil; when set, players get a debug
// update against the state given to SetDebugState each time the goroutine
// wakes up.
func New[S game.Game[S, D, A, E, V], D any, A any, E any, V any](
	proc *processor.GameProcessor[S, D, A, E, V],
	onTick func(tick int, events []E, g S),
	dbg *processor.DebugInterface,
	logger *log.Logger,
) *Background[S, D, A, E, V] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	b := &Background[S, D, A, E, V]{
		playerCount: proc.PlayerCount(),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		log:         logger.WithPrefix("scheduler"),
	}
	go b.loop(proc, onTick, dbg)
	return b
}

// Proceed sets the number of ticks the goroutine may still process. The
// value replaces any budget left from earlier calls.
func (b *Background[S, D, A, E, V]) Proceed(maxTicks int) {
	if maxTicks < 0 {
		maxTicks = 0
	}
	for {
		cur := b.budget.Load()
		if cur == stop {
			return
		}
		if b.budget.CompareAndSwap(cur, int64(maxTicks)) {
			break
		}
	}
	b.notify()
}

// SetDebugState sets the state debug updates are run against.
func (b *Background[S, D, A, E, V]) SetDebugState(s S) {
	c := s.Clone()
	b.mu.Lock()
	b.debugState, b.hasDebug = c, true
	b.mu.Unlock()
	b.notify()
}

func (b *Background[S, D, A, E, V]) PlayerCount() int { return b.playerCount }

// Done is closed once the goroutine has exited.
func (b *Background[S, D, A, E, V]) Done() <-chan struct{} { return b.done }

// Close stops the goroutine and waits for it. A panic raised on the goroutine
// is raised again here; a replay log failure is returned.
func (b *Background[S, D, A, E, V]) Close() error {
	b.closeOnce.Do(func() {
		b.budget.Store(stop)
		b.notify()
	})
	<-b.done
	if b.panicked != nil {
		panic(b.panicked)
	}
	return b.err
}

func (b *Background[S, D, A, E, V]) notify() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Background[S, D, A, E, V]) pendingDebug() (S, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debugState, b.hasDebug
}

func (b *Background[S, D, A, E, V]) loop(
	proc *processor.GameProcessor[S, D, A, E, V],
	onTick func(tick int, events []E, g S),
	dbg *processor.DebugInterface,
) {
	defer close(b.done)
	defer proc.Close()
	defer func() {
		if r := recover(); r != nil {
			b.panicked = r
		}
	}()
	for {
		ticks := b.budget.Load()
		if ticks < 0 {
			b.log.Debug("stopped", "ticks", proc.Ticks())
			return
		}
		if dbg != nil {
			if s, ok := b.pendingDebug(); ok {
				proc.DebugUpdate(dbg, s)
			}
		}
		if ticks > 0 && b.budget.CompareAndSwap(ticks, ticks-1) {
			if proc.Finished() {
				continue
			}
			events, err := proc.ProcessTick(dbg)
			if err != nil {
				b.log.Error("processing stopped", "err", err)
				b.err = err
				return
			}
			if onTick != nil {
				onTick(proc.Ticks(), events, proc.Game())
			}
			fetchMin(&b.budget, ticks-1)
			continue
		}
		<-b.wake
	}
}

// fetchMin lowers v to n unless it is already lower.
func fetchMin(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if cur <= n || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
