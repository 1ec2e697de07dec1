// Package lobby turns player slot options into connected players.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"tickarena.ai/internal/player"
	"tickarena.ai/internal/transport/ws"
)

// EmptyOptions selects a player that never does anything.
type EmptyOptions struct{}

// Options describes one player slot. Exactly one field must be set.
type Options struct {
	TCP   *player.TCPOptions `yaml:"tcp,omitempty" json:"tcp,omitempty"`
	WS    *ws.Options        `yaml:"ws,omitempty" json:"ws,omitempty"`
	Empty *EmptyOptions      `yaml:"empty,omitempty" json:"empty,omitempty"`
}

func (o Options) Validate() error {
	n := 0
	if o.TCP != nil {
		n++
	}
	if o.WS != nil {
		n++
	}
	if o.Empty != nil {
		n++
	}
	switch n {
	case 1:
		return nil
	case 0:
		return errors.New("no player kind set (want one of tcp, ws, empty)")
	default:
		return errors.New("more than one player kind set")
	}
}

func (o Options) String() string {
	switch {
	case o.TCP != nil:
		return fmt.Sprintf("tcp:%d", o.TCP.Port)
	case o.WS != nil:
		return fmt.Sprintf("ws:%d", o.WS.Port)
	case o.Empty != nil:
		return "empty"
	}
	return "invalid"
}

// Connect blocks until the slot has a player or connecting failed.
func Connect[V any, A any](ctx context.Context, o Options, logger *log.Logger) (player.Player[V, A], error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	switch {
	case o.TCP != nil:
		p, err := player.ListenTCP[V, A](ctx, *o.TCP, logger).Wait(ctx)
		if err != nil {
			return nil, err
		}
		return p, nil
	case o.WS != nil:
		p, err := ws.Listen[V, A](ctx, *o.WS, logger).Wait(ctx)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return player.EmptyPlayer[V, A]{}, nil
	}
}

// ConnectAll connects every slot concurrently. A slot that fails to connect
// is filled with an ErroredPlayer so the run can still start; the returned
// error joins the individual failures.
func ConnectAll[V any, A any](ctx context.Context, opts []Options, logger *log.Logger) ([]player.Player[V, A], error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	players := make([]player.Player[V, A], len(opts))
	errs := make([]error, len(opts))
	var g errgroup.Group
	for i, o := range opts {
		i, o := i, o
		g.Go(func() error {
			l := logger.WithPrefix(fmt.Sprintf("player %d", i))
			p, err := Connect[V, A](ctx, o, l)
			if err != nil {
				l.Warn("connect failed", "slot", o, "err", err)
				players[i] = player.ErroredPlayer[V, A]{Reason: err.Error()}
				errs[i] = fmt.Errorf("player %d: %w", i, err)
				return errs[i]
			}
			players[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return players, errors.Join(errs...)
	}
	return players, nil
}
