package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("a handshake message frame")

	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteFrameRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	oversize := make([]byte, MaxFrameLen+1)

	err := WriteFrame(&buf, oversize)
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameRejectsOversizeLengthPrefix(t *testing.T) {
	r := strings.NewReader("\x00\x20\x00\x00")
	_, err := ReadFrame(r)
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameTruncated(t *testing.T) {
	r := strings.NewReader("\x00\x00\x00\x05ab")
	_, err := ReadFrame(r)
	require.Error(t, err)
}
