// Package wire implements the canonical binary encodings for the
// handshake messages (MessageA, MessageB, FINISHED) and the
// length-prefixed transport framing they travel in.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameLen is the maximum permitted frame payload length (spec §7:
// "Length framing at transport: len:u32be || bytes[len]. Max len 2^20").
const MaxFrameLen = 1 << 20

// ErrFrameTooLarge is returned when a decoded length prefix exceeds
// MaxFrameLen.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum length")

// ErrTruncated is returned when a buffer ends before a length-prefixed
// or fixed-width field can be fully read.
var ErrTruncated = errors.New("wire: truncated message")

// WriteFrame writes a single length-prefixed frame to w: a 4-byte
// big-endian length followed by payload. Traffic padding, if any, is
// applied by the caller before payload reaches this function.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameLen {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads a single length-prefixed frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("wire: read frame header: %w", err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}
	return payload, nil
}

// cursor is a small sequential-read helper shared by the message
// decoders; it avoids re-deriving offset arithmetic by hand at every
// call site.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor { return &cursor{buf: buf} }

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) readN(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, ErrTruncated
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// readLP32 reads a u32be-length-prefixed byte string.
func (c *cursor) readLP32() ([]byte, error) {
	n, err := c.readU32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return c.readN(int(n))
}

func putU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func putU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// putLP32 appends a u32be-length-prefixed byte string. A nil/empty v
// encodes as a zero length with no value bytes.
func putLP32(buf []byte, v []byte) []byte {
	buf = putU32(buf, uint32(len(v)))
	return append(buf, v...)
}
