package wire

import (
	"fmt"

	"github.com/skybridge-project/skybridge/suite"
)

// SigBDomainTag is prepended to (transcriptA || messageB authenticated
// fields) before signing (spec §7 "Signature preimages").
var SigBDomainTag = []byte("SkyBridge-SigB")

// EncryptedPayloadNonceSize is the fixed AEAD nonce width used for the
// MessageB sealed payload.
const EncryptedPayloadNonceSize = 12

// EncryptedPayload is the HPKE-style sealed box carried in MessageB:
// either the PQC-path payload (sealed under the cached KEM shared
// secret) or the classical-path KEM-DEM-with-secret sealed box.
type EncryptedPayload struct {
	EncapsulatedKey []byte // classical path only; empty for PQC path
	Nonce           [EncryptedPayloadNonceSize]byte
	Ciphertext      []byte // AEAD ciphertext with the authentication tag appended
}

// Encode produces the length-prefixed canonical encoding of an
// EncryptedPayload.
func (p EncryptedPayload) Encode() []byte {
	var buf []byte
	buf = putLP32(buf, p.EncapsulatedKey)
	buf = append(buf, p.Nonce[:]...)
	buf = putLP32(buf, p.Ciphertext)
	return buf
}

func decodeEncryptedPayload(buf []byte) (EncryptedPayload, error) {
	c := newCursor(buf)
	var p EncryptedPayload
	ek, err := c.readLP32()
	if err != nil {
		return p, fmt.Errorf("encapsulated_key: %w", err)
	}
	p.EncapsulatedKey = ek
	n, err := c.readN(EncryptedPayloadNonceSize)
	if err != nil {
		return p, fmt.Errorf("nonce: %w", err)
	}
	copy(p.Nonce[:], n)
	ct, err := c.readLP32()
	if err != nil {
		return p, fmt.Errorf("ciphertext: %w", err)
	}
	p.Ciphertext = ct
	if c.remaining() != 0 {
		return p, fmt.Errorf("%d trailing bytes", c.remaining())
	}
	return p, nil
}

// MessageB is the responder's reply to MessageA.
type MessageB struct {
	Version           byte
	SelectedSuite     suite.ID
	ResponderShare    []byte // classical path KEM ciphertext; empty for PQC path
	ServerNonce       [NonceSize]byte
	EncryptedPayload  EncryptedPayload
	IdentityPublicKey IdentityPublicKey
	Signature         []byte
	SESignature       []byte
}

// AuthenticatedFields returns the deterministic encoding of every
// MessageB field covered by sigB, excluding the signature fields and
// the transcriptA prefix (the caller binds that separately — see
// SignaturePreimage).
func (m *MessageB) AuthenticatedFields() []byte {
	var buf []byte
	buf = append(buf, m.Version)
	buf = putU16(buf, uint16(m.SelectedSuite))
	buf = putLP32(buf, m.ResponderShare)
	buf = append(buf, m.ServerNonce[:]...)
	buf = putLP32(buf, m.EncryptedPayload.Encode())
	buf = putLP32(buf, m.IdentityPublicKey.Encode())
	return buf
}

// SignaturePreimage returns the exact bytes sigB is computed over:
// the domain tag, transcriptA, then AuthenticatedFields().
func (m *MessageB) SignaturePreimage(transcriptA []byte) []byte {
	out := append([]byte{}, SigBDomainTag...)
	out = append(out, transcriptA...)
	return append(out, m.AuthenticatedFields()...)
}

// Encode produces the full wire encoding of MessageB.
func (m *MessageB) Encode() []byte {
	buf := m.AuthenticatedFields()
	buf = putLP32(buf, m.Signature)
	buf = putLP32(buf, m.SESignature)
	return buf
}

// DecodeMessageB parses the wire encoding produced by Encode.
func DecodeMessageB(b []byte) (*MessageB, error) {
	c := newCursor(b)
	m := &MessageB{}

	v, err := c.readByte()
	if err != nil {
		return nil, fmt.Errorf("wire: messageB version: %w", err)
	}
	m.Version = v

	sid, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("wire: messageB selected suite: %w", err)
	}
	m.SelectedSuite = suite.ID(sid)

	share, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageB responder share: %w", err)
	}
	m.ResponderShare = share

	nonce, err := c.readN(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("wire: messageB server nonce: %w", err)
	}
	copy(m.ServerNonce[:], nonce)

	payloadBytes, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageB encrypted payload: %w", err)
	}
	payload, err := decodeEncryptedPayload(payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("wire: messageB encrypted payload: %w", err)
	}
	m.EncryptedPayload = payload

	idBytes, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageB identity public key: %w", err)
	}
	ipk, err := decodeIdentityPublicKey(idBytes)
	if err != nil {
		return nil, fmt.Errorf("wire: messageB identity public key: %w", err)
	}
	m.IdentityPublicKey = ipk

	sig, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageB signature: %w", err)
	}
	m.Signature = append([]byte{}, sig...)

	seSig, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageB se_signature: %w", err)
	}
	m.SESignature = append([]byte{}, seSig...)

	if c.remaining() != 0 {
		return nil, fmt.Errorf("wire: messageB: %d trailing bytes", c.remaining())
	}
	return m, nil
}
