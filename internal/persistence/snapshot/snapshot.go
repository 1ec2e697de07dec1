// Package snapshot stores ready-made game states that a run can start from
// instead of creating a fresh one.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	Game    string `json:"game"`
	Tick    int    `json:"tick"`
}

// Write stores state as zstd(header JSON line + gob body).
func Write[S any](path string, h Header, state S) error {
	if h.Version == 0 {
		h.Version = Version
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(state); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// Read loads a state written by Write.
func Read[S any](path string) (Header, S, error) {
	var (
		h     Header
		state S
	)
	f, err := os.Open(path)
	if err != nil {
		return h, state, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, state, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, state, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, state, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, state, fmt.Errorf("snapshot version %d not supported", h.Version)
	}
	if err := gob.NewDecoder(br).Decode(&state); err != nil {
		return h, state, fmt.Errorf("gob decode: %w", err)
	}
	return h, state, nil
}
