package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"tickarena.ai/internal/protocol"
	"tickarena.ai/internal/sim/coins"
)

// conn carries whole protocol messages in either transport.
type conn interface {
	Read() ([]byte, error)
	Write(b []byte) error
	Close() error
}

func main() {
	var (
		addr  = flag.String("addr", "", "tcp address of the player slot (host:port)")
		url   = flag.String("url", "", "websocket url of the player slot, e.g. ws://127.0.0.1:31001/v1/player")
		token = flag.String("token", "", "slot token")
		debug = flag.Bool("debug", true, "send debug annotations")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "bot"})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c, err := dial(ctx, *addr, *url)
	if err != nil {
		logger.Fatal("dial", "err", err)
	}
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()
	if err := c.Write([]byte(*token)); err != nil {
		logger.Fatal("send token", "err", err)
	}
	if err := play(c, *debug, logger); err != nil && ctx.Err() == nil {
		logger.Fatal("play", "err", err)
	}
}

func dial(ctx context.Context, addr, url string) (conn, error) {
	switch {
	case addr != "" && url != "":
		return nil, errors.New("set only one of -addr and -url")
	case addr != "":
		var d net.Dialer
		nc, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return &tcpConn{c: nc, r: bufio.NewReader(nc)}, nil
	case url != "":
		wc, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return &wsConn{c: wc}, nil
	}
	return nil, errors.New("missing -addr or -url")
}

func play(c conn, debug bool, logger *log.Logger) error {
	ticks := 0
	for {
		msg, err := c.Read()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		switch base.Type {
		case protocol.TypeGetAction:
			var m protocol.GetActionMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				return err
			}
			var view coins.View
			if err := json.Unmarshal(m.PlayerView, &view); err != nil {
				return err
			}
			move, err := decide(view)
			if err != nil {
				return err
			}
			if debug {
				if err := annotate(c, view, move); err != nil {
					return err
				}
			}
			action, _ := json.Marshal(coins.Action{Move: move})
			if err := send(c, protocol.NewAction(action)); err != nil {
				return err
			}
			ticks++

		case protocol.TypeDebugUpdate:
			var m protocol.DebugUpdateMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				return err
			}
			var view coins.View
			if err := json.Unmarshal(m.PlayerView, &view); err != nil {
				return err
			}
			if debug {
				move, err := decide(view)
				if err != nil {
					return err
				}
				if err := annotate(c, view, move); err != nil {
					return err
				}
			}
			if err := send(c, protocol.DebugUpdateDoneMsg{Type: protocol.TypeDebugUpdateDone}); err != nil {
				return err
			}

		case protocol.TypeFinish:
			logger.Info("game finished", "ticks", ticks)
			return nil

		default:
			logger.Warn("ignoring message", "type", base.Type)
		}
	}
}

func decide(v coins.View) (coins.Dir, error) {
	g, err := v.Grid()
	if err != nil {
		return coins.Stay, err
	}
	return g.NextStep(v.Pos), nil
}

type plan struct {
	Tick int       `json:"tick"`
	From coins.Pos `json:"from"`
	Move coins.Dir `json:"move"`
}

func annotate(c conn, v coins.View, move coins.Dir) error {
	if err := send(c, protocol.NewDebug(protocol.DebugCommand{Kind: protocol.DebugClear})); err != nil {
		return err
	}
	data, _ := json.Marshal(plan{Tick: v.Tick, From: v.Pos, Move: move})
	return send(c, protocol.NewDebug(protocol.DebugCommand{Kind: protocol.DebugAdd, Data: data}))
}

func send(c conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Write(b)
}

type tcpConn struct {
	c net.Conn
	r *bufio.Reader
}

func (t *tcpConn) Read() ([]byte, error) { return protocol.ReadFrame(t.r) }

func (t *tcpConn) Write(b []byte) error {
	_ = t.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return protocol.WriteFrame(t.c, b)
}

func (t *tcpConn) Close() error { return t.c.Close() }

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) Read() ([]byte, error) {
	_, b, err := w.c.ReadMessage()
	return b, err
}

func (w *wsConn) Write(b []byte) error { return w.c.WriteMessage(websocket.TextMessage, b) }

func (w *wsConn) Close() error { return w.c.Close() }
