// Package encoding packs grid boards for player views.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// MaxCells bounds the size of a decoded board.
const MaxCells = 1 << 24

// EncodeRLE encodes cell values as base64 of (value, run length) uvarint
// pairs.
func EncodeRLE(cells []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	put := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}
	for i := 0; i < len(cells); {
		run := 1
		for i+run < len(cells) && cells[i+run] == cells[i] {
			run++
		}
		put(uint64(cells[i]))
		put(uint64(run))
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeRLE(b64 string) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("cell value too large: %d", v)
		}
		if run > MaxCells || len(out)+int(run) > MaxCells {
			return nil, fmt.Errorf("board larger than %d cells", MaxCells)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(v))
		}
	}
	return out, nil
}

// Board is a width x height grid in row-major order.
type Board struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  string `json:"cells"`
}

func EncodeBoard(width, height int, cells []uint16) Board {
	return Board{Width: width, Height: height, Cells: EncodeRLE(cells)}
}

// Decode returns the cells of b, checking they fill the grid exactly.
func (b Board) Decode() ([]uint16, error) {
	cells, err := DecodeRLE(b.Cells)
	if err != nil {
		return nil, err
	}
	if len(cells) != b.Width*b.Height {
		return nil, fmt.Errorf("board has %d cells, want %dx%d", len(cells), b.Width, b.Height)
	}
	return cells, nil
}
