package player

import (
	"context"
	"net"
	"sync"
)

// Pending is the eventual outcome of an acceptor goroutine.
type Pending[P any] struct {
	addr net.Addr
	done chan struct{}
	once sync.Once
	val  P
	err  error
}

func NewPending[P any](addr net.Addr) *Pending[P] {
	return &Pending[P]{addr: addr, done: make(chan struct{})}
}

// Failed returns an already resolved Pending.
func Failed[P any](err error) *Pending[P] {
	p := NewPending[P](nil)
	var zero P
	p.Resolve(zero, err)
	return p
}

// Resolve records the outcome; only the first call has an effect.
func (p *Pending[P]) Resolve(v P, err error) {
	p.once.Do(func() {
		p.val, p.err = v, err
		close(p.done)
	})
}

// Addr is the bound listen address, nil if binding failed.
func (p *Pending[P]) Addr() net.Addr { return p.addr }

func (p *Pending[P]) Done() <-chan struct{} { return p.done }

// Wait blocks until the outcome is known or ctx ends.
func (p *Pending[P]) Wait(ctx context.Context) (P, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero P
		return zero, ctx.Err()
	}
}
