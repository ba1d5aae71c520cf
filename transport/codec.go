package transport

import (
	"bytes"
	"io"

	"github.com/skybridge-project/skybridge/wire"
)

// EncodeFrame applies the spec's transport-level length framing
// (len:u32be || bytes[len]) to payload, for stream transports that do
// not preserve message boundaries on their own (a raw TCP or Bonjour
// socket, unlike WebSocket). wstransport does not use this: a
// WebSocket binary message already carries its own boundary, so
// layering this framing on top of it would be redundant length
// information with nothing to recover from a stream.
func EncodeFrame(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrame reads one length-framed payload from r, the inverse of
// EncodeFrame.
func DecodeFrame(r io.Reader) ([]byte, error) {
	return wire.ReadFrame(r)
}
