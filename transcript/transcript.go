// Package transcript builds the canonical, domain-separated encoding
// of everything authenticated in a handshake (spec §4.5) and derives
// the directional session keys from it (spec §4.2 "Key derivation").
package transcript

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/skybridge-project/skybridge/suite"
)

// Version selects between the two canonical encodings, which are not
// byte-compatible with each other. Both are protected by the same domain separator and the
// policy-in-transcript invariant; V2 is a drop-in replacement for V1,
// never coerced onto a peer that only announces V1 (see DESIGN.md
// Open Question decisions).
type Version uint32

const (
	V1 Version = 1
	V2 Version = 2
)

// DomainSeparator is the fixed first field of every transcript,
// binding the encoding to this protocol and ruling out cross-protocol
// transcript confusion.
var DomainSeparator = []byte("SkyBridge-Transcript-v1")

// Role identifies which side of the handshake is building the
// transcript.
type Role byte

const (
	RoleInitiator Role = 1
	RoleResponder Role = 2
)

// Fields holds every value that may appear in a transcript, in the
// canonical declaration order the spec fixes for both V1 and V2.
// Fields are populated incrementally as the handshake progresses;
// unset fields are omitted from the encoding rather than zero-filled,
// since the surrounding state machine knows which fields are required
// at each stage (spec §4.5, V1 "Omit any unset field").
//
// LocalCapabilities, PeerCapabilities and Policy carry their own
// already-deterministic encodings (policy.Capabilities.Encode and
// policy.Handshake.Encode) rather than the typed struct: the
// transcript only needs to bind their bytes, it never needs to
// re-derive the struct shape back out of a transcript.
type Fields struct {
	ProtocolVersion    uint32
	Role               Role
	SuiteWireID        suite.ID
	LocalCapabilities  []byte
	PeerCapabilities   []byte
	Policy             []byte
	SignatureAlgorithm suite.SignatureAlgorithm
	InitiatorPublicKey []byte
	ResponderPublicKey []byte
	InitiatorNonce     []byte
	ResponderNonce     []byte
	MessageABytes      []byte
	MessageBBytes      []byte
}

// ErrDuplicateTag is returned by DecodeV2 when the same TLV tag
// appears twice.
var ErrDuplicateTag = errors.New("transcript: duplicate TLV tag")

// ErrVersionMismatch is returned when the declared version does not
// match the canonical encoding actually used to build the bytes.
var ErrVersionMismatch = errors.New("transcript: declared version does not match canonical encoding")

// ErrTruncated is returned when a buffer ends before a length-prefixed
// or fixed-width field can be fully read.
var ErrTruncated = errors.New("transcript: truncated")

// sigAlgorithmWireCode maps a signature algorithm to its transcript
// wire code (spec §4.5 "signature_algorithm (wire code, u16)").
func sigAlgorithmWireCode(alg suite.SignatureAlgorithm) uint16 {
	switch alg {
	case suite.SigEd25519:
		return 1
	case suite.SigMLDSA65:
		return 2
	case suite.SigP256ECDSA:
		return 3
	default:
		return 0
	}
}

func sigAlgorithmFromWireCode(code uint16) suite.SignatureAlgorithm {
	switch code {
	case 1:
		return suite.SigEd25519
	case 2:
		return suite.SigMLDSA65
	case 3:
		return suite.SigP256ECDSA
	default:
		return ""
	}
}

// Encode builds the canonical byte encoding of f under the requested
// version.
func Encode(v Version, f Fields) ([]byte, error) {
	switch v {
	case V1:
		return encodeV1(f), nil
	case V2:
		return encodeV2(f), nil
	default:
		return nil, fmt.Errorf("transcript: unsupported version %d", v)
	}
}

// Hash computes transcript_hash = SHA256(encoded_bytes) (spec §4.5
// "Computed hash").
func Hash(encoded []byte) [32]byte {
	return sha256.Sum256(encoded)
}

func putU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putLP(buf []byte, v []byte) []byte {
	buf = putU32(buf, uint32(len(v)))
	return append(buf, v...)
}
