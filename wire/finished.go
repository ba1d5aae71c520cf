package wire

import (
	"errors"
	"fmt"
)

// FinishedMagic disambiguates a FINISHED frame from a handshake
// message on the wire (spec §6 "fixed magic 'FIN1' prefix").
var FinishedMagic = [4]byte{'F', 'I', 'N', '1'}

// Direction values for Finished.Direction.
const (
	DirectionInitiatorToResponder byte = 0x01
	DirectionResponderToInitiator byte = 0x02
)

// MACSize is the fixed width of the FINISHED MAC (HMAC-SHA256).
const MACSize = 32

// ErrNotFinished is returned by DecodeFinished when the buffer does
// not begin with FinishedMagic.
var ErrNotFinished = errors.New("wire: not a FINISHED frame")

// Finished is the directional key-confirmation message.
type Finished struct {
	Direction byte
	MAC       [MACSize]byte
}

// Encode produces "FIN1" || direction:u8 || mac:32B.
func (f Finished) Encode() []byte {
	buf := make([]byte, 0, 4+1+MACSize)
	buf = append(buf, FinishedMagic[:]...)
	buf = append(buf, f.Direction)
	buf = append(buf, f.MAC[:]...)
	return buf
}

// LooksLikeFinished reports whether b begins with the FINISHED magic,
// without fully decoding it — used by the driver to distinguish a
// FINISHED frame from a handshake message before dispatch.
func LooksLikeFinished(b []byte) bool {
	return len(b) >= 4 && b[0] == FinishedMagic[0] && b[1] == FinishedMagic[1] &&
		b[2] == FinishedMagic[2] && b[3] == FinishedMagic[3]
}

// DecodeFinished parses the wire encoding produced by Encode.
func DecodeFinished(b []byte) (Finished, error) {
	if !LooksLikeFinished(b) {
		return Finished{}, ErrNotFinished
	}
	if len(b) != 4+1+MACSize {
		return Finished{}, fmt.Errorf("wire: finished: expected %d bytes, got %d", 4+1+MACSize, len(b))
	}
	var f Finished
	f.Direction = b[4]
	copy(f.MAC[:], b[5:5+MACSize])
	return f, nil
}
