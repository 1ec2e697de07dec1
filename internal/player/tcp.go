package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"tickarena.ai/internal/protocol"
)

// acceptPoll bounds how long the acceptor blocks before it re-checks
// cancellation and the accept timeout.
const acceptPoll = 100 * time.Millisecond

// TCPOptions configures one TCP player slot. Timeouts are in seconds; zero
// means wait forever.
type TCPOptions struct {
	Host          string  `yaml:"host,omitempty" json:"host,omitempty"`
	Port          int     `yaml:"port" json:"port"`
	AcceptTimeout float64 `yaml:"accept_timeout,omitempty" json:"accept_timeout,omitempty"`
	Timeout       float64 `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Token         string  `yaml:"token,omitempty" json:"token,omitempty"`
}

func (o TCPOptions) addr() string {
	host := o.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(o.Port))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// TCPPlayer is a StreamPlayer connected through an accepted TCP socket.
type TCPPlayer[V any, A any] struct {
	*StreamPlayer[V, A]
	port int
	log  *log.Logger
}

func (p *TCPPlayer[V, A]) Close() error {
	p.log.Info("dropping tcp player", "port", p.port)
	return p.StreamPlayer.Close()
}

// ListenTCP binds the configured address and accepts exactly one player on a
// dedicated goroutine. The returned Pending resolves once a connection is
// accepted and its token validated, or once accepting fails, times out or
// ctx is cancelled.
func ListenTCP[V any, A any](ctx context.Context, opts TCPOptions, logger *log.Logger) *Pending[*TCPPlayer[V, A]] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ln, err := net.Listen("tcp", opts.addr())
	if err != nil {
		return Failed[*TCPPlayer[V, A]](&Error{Op: "listen", Err: err})
	}
	tl := ln.(*net.TCPListener)
	pending := NewPending[*TCPPlayer[V, A]](tl.Addr())
	go func() {
		defer tl.Close()
		p, err := acceptTCP[V, A](ctx, tl, opts, logger)
		pending.Resolve(p, err)
	}()
	return pending
}

func acceptTCP[V any, A any](ctx context.Context, ln *net.TCPListener, opts TCPOptions, logger *log.Logger) (*TCPPlayer[V, A], error) {
	port := ln.Addr().(*net.TCPAddr).Port
	logger.Info("waiting for connection", "port", port)
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			logger.Info("stop listening", "port", port)
			return nil, &Error{Op: "accept", Err: err}
		}
		if opts.AcceptTimeout > 0 && time.Since(start) > seconds(opts.AcceptTimeout) {
			logger.Info("timeout accepting player", "port", port)
			return nil, &Error{Op: "accept", Err: ErrAcceptTimeout}
		}
		_ = ln.SetDeadline(time.Now().Add(acceptPoll))
		conn, err := ln.AcceptTCP()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return nil, &Error{Op: "accept", Err: err}
		}
		logger.Info("got connection", "port", port, "remote", conn.RemoteAddr())
		var deadline time.Time
		if opts.AcceptTimeout > 0 {
			deadline = start.Add(seconds(opts.AcceptTimeout))
		}
		fc, err := handshakeTCP(ctx, conn, opts, deadline)
		if err != nil {
			_ = conn.Close()
			return nil, &Error{Op: "handshake", Err: err}
		}
		return &TCPPlayer[V, A]{
			StreamPlayer: NewStreamPlayer[V, A](fc, logger),
			port:         port,
			log:          logger,
		}, nil
	}
}

// handshakeTCP reads the token frame before deadline, the end of the accept
// window (zero for none). Cancelling ctx aborts the read.
func handshakeTCP(ctx context.Context, conn *net.TCPConn, opts TCPOptions, deadline time.Time) (*tcpConn, error) {
	if err := conn.SetNoDelay(true); err != nil {
		return nil, err
	}
	fc := &tcpConn{
		conn:    conn,
		r:       bufio.NewReader(conn),
		w:       bufio.NewWriter(conn),
		timeout: seconds(opts.Timeout),
	}
	limit := deadline
	if fc.timeout > 0 {
		if d := time.Now().Add(fc.timeout); limit.IsZero() || d.Before(limit) {
			limit = d
		}
	}
	_ = conn.SetReadDeadline(limit)
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	b, err := protocol.ReadFrame(fc.r)
	if !stop() {
		return nil, ctx.Err()
	}
	if err != nil {
		var ne net.Error
		if !deadline.IsZero() && errors.As(err, &ne) && ne.Timeout() && !time.Now().Before(deadline) {
			return nil, ErrAcceptTimeout
		}
		return nil, fmt.Errorf("read token: %w", err)
	}
	if opts.Token != "" && string(b) != opts.Token {
		return nil, ErrTokenMismatch
	}
	_ = conn.SetReadDeadline(time.Time{})
	return fc, nil
}

type tcpConn struct {
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	timeout time.Duration
}

func (c *tcpConn) ReadFrame() ([]byte, error) {
	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	return protocol.ReadFrame(c.r)
}

func (c *tcpConn) WriteFrame(b []byte) error {
	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	return protocol.WriteFrame(c.w, b)
}

func (c *tcpConn) Flush() error { return c.w.Flush() }
func (c *tcpConn) Close() error { return c.conn.Close() }
