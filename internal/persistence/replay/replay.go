// Package replay reads and writes replay logs: a zstd-compressed JSONL
// stream holding a header, the initial game state and one record per tick.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"tickarena.ai/internal/protocol"
)

var ErrVersion = errors.New("replay: unsupported version")

type Writer struct {
	mu  sync.Mutex
	f   io.Closer
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter compresses records into out. Closing the Writer does not close
// out.
func NewWriter(out io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &Writer{enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Create truncates path and writes a new log into it.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

func (w *Writer) WriteHeader(h protocol.ReplayHeader) error {
	if h.Version == 0 {
		h.Version = protocol.ReplayVersion
	}
	return w.Write(h)
}

// WriteInitial records the full game state the log starts from.
func (w *Writer) WriteInitial(state any) error { return w.Write(state) }

func (w *Writer) WriteTick(tick int, events, delta any) error {
	eb, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	db, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("encode delta: %w", err)
	}
	return w.Write(protocol.TickRecord{Tick: tick, Events: eb, Delta: db})
}

// Write appends one JSON line.
func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err1 error
	if w.w != nil {
		err1 = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if err := w.enc.Close(); err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err1 == nil {
			err1 = err
		}
		w.f = nil
	}
	return err1
}

type Reader struct {
	Header protocol.ReplayHeader

	f   io.Closer
	dec *zstd.Decoder
	jd  *json.Decoder
}

// NewReader decompresses in and reads the header record.
func NewReader(in io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(in)
	if err != nil {
		return nil, err
	}
	r := &Reader{dec: dec, jd: json.NewDecoder(bufio.NewReaderSize(dec, 256*1024))}
	if err := r.jd.Decode(&r.Header); err != nil {
		dec.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	if r.Header.Version != protocol.ReplayVersion {
		dec.Close()
		return nil, fmt.Errorf("%w: %d", ErrVersion, r.Header.Version)
	}
	return r, nil
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.f = f
	return r, nil
}

// ReadInitial decodes the initial game state into v.
func (r *Reader) ReadInitial(v any) error {
	if err := r.jd.Decode(v); err != nil {
		return fmt.Errorf("read initial state: %w", err)
	}
	return nil
}

// More reports whether another tick record follows.
func (r *Reader) More() bool { return r.jd.More() }

func (r *Reader) Next() (protocol.TickRecord, error) {
	var rec protocol.TickRecord
	if err := r.jd.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return rec, fmt.Errorf("read tick: %w", err)
	}
	return rec, nil
}

func (r *Reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
	if r.f != nil {
		err := r.f.Close()
		r.f = nil
		return err
	}
	return nil
}
