package player

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"tickarena.ai/internal/protocol"
)

// FrameConn carries whole protocol messages.
type FrameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(b []byte) error
	Flush() error
	Close() error
}

// StreamPlayer talks the request/reply protocol over a FrameConn. After the
// first failure the connection is dropped and every further call fails.
type StreamPlayer[V any, A any] struct {
	conn FrameConn
	log  *log.Logger
}

func NewStreamPlayer[V any, A any](conn FrameConn, logger *log.Logger) *StreamPlayer[V, A] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &StreamPlayer[V, A]{conn: conn, log: logger}
}

func (p *StreamPlayer[V, A]) GetAction(view V, dbg DebugSink) (A, error) {
	var zero A
	if p.conn == nil {
		return zero, &Error{Op: "get action", Err: ErrStreamBroken}
	}
	a, err := p.getAction(view, dbg)
	if err != nil {
		p.fail()
		return zero, &Error{Op: "get action", Err: err}
	}
	return a, nil
}

func (p *StreamPlayer[V, A]) DebugUpdate(view V, dbg DebugSink) error {
	if p.conn == nil {
		return &Error{Op: "debug update", Err: ErrStreamBroken}
	}
	if err := p.debugUpdate(view, dbg); err != nil {
		p.fail()
		return &Error{Op: "debug update", Err: err}
	}
	return nil
}

// Close sends FINISH on a best-effort basis and releases the connection.
func (p *StreamPlayer[V, A]) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.send(protocol.NewFinish()); err != nil {
		p.log.Warn("send finish", "err", err)
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// Broken reports whether the stream has failed.
func (p *StreamPlayer[V, A]) Broken() bool { return p.conn == nil }

func (p *StreamPlayer[V, A]) getAction(view V, dbg DebugSink) (A, error) {
	var a A
	vb, err := json.Marshal(view)
	if err != nil {
		return a, fmt.Errorf("encode view: %w", err)
	}
	if err := p.send(protocol.NewGetAction(vb)); err != nil {
		return a, err
	}
	b, typ, err := p.next(dbg)
	if err != nil {
		return a, err
	}
	if typ != protocol.TypeAction {
		return a, &protocol.UnexpectedTypeError{Got: typ, Want: []string{protocol.TypeAction, protocol.TypeDebug}}
	}
	var m protocol.ActionMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return a, fmt.Errorf("decode action: %w", err)
	}
	if err := json.Unmarshal(m.Action, &a); err != nil {
		return a, fmt.Errorf("decode action: %w", err)
	}
	return a, nil
}

func (p *StreamPlayer[V, A]) debugUpdate(view V, dbg DebugSink) error {
	vb, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	if err := p.send(protocol.NewDebugUpdate(vb)); err != nil {
		return err
	}
	_, typ, err := p.next(dbg)
	if err != nil {
		return err
	}
	if typ != protocol.TypeDebugUpdateDone {
		return &protocol.UnexpectedTypeError{Got: typ, Want: []string{protocol.TypeDebugUpdateDone, protocol.TypeDebug}}
	}
	return nil
}

// next reads messages, serving debug traffic inline, until one that ends the
// current round trip arrives.
func (p *StreamPlayer[V, A]) next(dbg DebugSink) ([]byte, string, error) {
	for {
		b, err := p.conn.ReadFrame()
		if err != nil {
			return nil, "", err
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			return nil, "", fmt.Errorf("decode message: %w", err)
		}
		switch base.Type {
		case protocol.TypeDebug:
			var m protocol.DebugMsg
			if err := json.Unmarshal(b, &m); err != nil {
				return nil, "", fmt.Errorf("decode debug: %w", err)
			}
			if dbg != nil {
				dbg.Send(m.Command)
			}
		case protocol.TypeRequestDebugState:
			var state json.RawMessage
			if dbg != nil {
				state = dbg.State()
			}
			if err := p.send(protocol.NewDebugState(state)); err != nil {
				return nil, "", err
			}
		case "":
			return nil, "", protocol.ErrEmptyType
		default:
			return b, base.Type, nil
		}
	}
}

func (p *StreamPlayer[V, A]) send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.conn.WriteFrame(b); err != nil {
		return err
	}
	return p.conn.Flush()
}

func (p *StreamPlayer[V, A]) fail() {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
