package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTripSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("secret")))
	require.NoError(t, WriteJSON(&buf, NewAction([]byte(`{"dir":"N"}`))))
	require.NoError(t, WriteFrame(&buf, nil))

	b, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "secret", string(b))

	b, err = ReadFrame(&buf)
	require.NoError(t, err)
	base, err := DecodeBase(b)
	require.NoError(t, err)
	require.Equal(t, TypeAction, base.Type)

	b, err = ReadFrame(&buf)
	require.NoError(t, err)
	require.Empty(t, b)

	_, err = ReadFrame(&buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("abcdef")))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-2])
	_, err := ReadFrame(truncated)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrame_RejectsOversize(t *testing.T) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], MaxFrameSize+1)
	_, err := ReadFrame(bytes.NewReader(hdr[:]))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}
