// Package ws exposes a player slot over a WebSocket endpoint. Each protocol
// message travels as one text message; the first client message carries the
// token.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"tickarena.ai/internal/player"
)

const DefaultPath = "/v1/player"

// Options configures one WebSocket player slot. Timeouts are in seconds; zero
// means wait forever.
type Options struct {
	Host          string  `yaml:"host,omitempty" json:"host,omitempty"`
	Port          int     `yaml:"port" json:"port"`
	Path          string  `yaml:"path,omitempty" json:"path,omitempty"`
	AcceptTimeout float64 `yaml:"accept_timeout,omitempty" json:"accept_timeout,omitempty"`
	Timeout       float64 `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Token         string  `yaml:"token,omitempty" json:"token,omitempty"`
}

func (o Options) addr() string {
	host := o.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(o.Port))
}

func (o Options) path() string {
	if o.Path == "" {
		return DefaultPath
	}
	return o.Path
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Player is a stream player whose frames are WebSocket messages.
type Player[V any, A any] struct {
	*player.StreamPlayer[V, A]
	remote string
	log    *log.Logger
}

func (p *Player[V, A]) Close() error {
	p.log.Info("dropping ws player", "remote", p.remote)
	return p.StreamPlayer.Close()
}

type accepted struct {
	conn *websocket.Conn
	err  error
}

// Listen serves the upgrade endpoint until exactly one client has completed
// the token handshake, then stops serving. The returned Pending resolves with
// that player or with the reason accepting failed.
func Listen[V any, A any](ctx context.Context, opts Options, logger *log.Logger) *player.Pending[*Player[V, A]] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ln, err := net.Listen("tcp", opts.addr())
	if err != nil {
		return player.Failed[*Player[V, A]](&player.Error{Op: "listen", Err: err})
	}
	pending := player.NewPending[*Player[V, A]](ln.Addr())

	got := make(chan accepted, 1)
	// closed is set once the slot is resolved; handshakes finishing later
	// are turned away instead of queued.
	var (
		mu     sync.Mutex
		closed bool
	)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc(opts.path(), func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		err = handshake(conn, opts)
		mu.Lock()
		defer mu.Unlock()
		if closed {
			reject(conn, websocket.CloseTryAgainLater, "slot taken")
			return
		}
		select {
		case got <- accepted{conn: conn, err: err}:
			if err != nil {
				_ = conn.Close()
			}
		default:
			reject(conn, websocket.CloseTryAgainLater, "slot taken")
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("ws serve", "err", err)
		}
	}()

	go func() {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
			mu.Lock()
			closed = true
			select {
			case a := <-got:
				if a.err == nil {
					reject(a.conn, websocket.CloseGoingAway, "stopped")
				}
			default:
			}
			mu.Unlock()
		}()
		logger.Info("waiting for connection", "addr", ln.Addr(), "path", opts.path())

		var timeout <-chan time.Time
		if opts.AcceptTimeout > 0 {
			t := time.NewTimer(seconds(opts.AcceptTimeout))
			defer t.Stop()
			timeout = t.C
		}
		select {
		case <-ctx.Done():
			logger.Info("stop listening", "addr", ln.Addr())
			pending.Resolve(nil, &player.Error{Op: "accept", Err: ctx.Err()})
		case <-timeout:
			logger.Info("timeout accepting player", "addr", ln.Addr())
			pending.Resolve(nil, &player.Error{Op: "accept", Err: player.ErrAcceptTimeout})
		case a := <-got:
			if a.err != nil {
				pending.Resolve(nil, &player.Error{Op: "handshake", Err: a.err})
				return
			}
			remote := a.conn.RemoteAddr().String()
			logger.Info("got connection", "remote", remote)
			fc := &wsConn{conn: a.conn, timeout: seconds(opts.Timeout)}
			pending.Resolve(&Player[V, A]{
				StreamPlayer: player.NewStreamPlayer[V, A](fc, logger),
				remote:       remote,
				log:          logger,
			}, nil)
		}
	}()
	return pending
}

func handshake(conn *websocket.Conn, opts Options) error {
	if opts.Timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(seconds(opts.Timeout)))
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if opts.Token != "" && string(msg) != opts.Token {
		reject(conn, websocket.ClosePolicyViolation, "bad token")
		return player.ErrTokenMismatch
	}
	return nil
}

func reject(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	_ = conn.Close()
}

type wsConn struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	_, b, err := c.conn.ReadMessage()
	return b, err
}

func (c *wsConn) WriteFrame(b []byte) error {
	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *wsConn) Flush() error { return nil }

func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}
