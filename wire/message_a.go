package wire

import (
	"errors"
	"fmt"

	"github.com/skybridge-project/skybridge/policy"
	"github.com/skybridge-project/skybridge/suite"
)

// NonceSize is the fixed width of client_nonce/server_nonce (spec §4.1).
const NonceSize = 32

// SigADomainTag is prepended to MessageA's authenticated fields before
// signing (spec §7 "Signature preimages").
var SigADomainTag = []byte("SkyBridge-SigA")

// KeyShare binds one offered suite to its KEM ciphertext-or-ephemeral
// public key.
type KeyShare struct {
	Suite suite.ID
	Bytes []byte
}

// ErrDuplicateSuite is returned when MessageA.SupportedSuites contains
// the same wire id twice.
var ErrDuplicateSuite = errors.New("wire: duplicate suite in supported_suites")

// MessageA is the initiator's opening handshake message.
type MessageA struct {
	Version            byte
	SupportedSuites    []suite.ID
	KeyShares          []KeyShare
	ClientNonce        [NonceSize]byte
	Policy             policy.Handshake
	Capabilities       policy.Capabilities
	IdentityPublicKey  IdentityPublicKey
	Signature          []byte
	SESignature        []byte // empty if SE-PoP is not in use
}

// AuthenticatedFields returns the deterministic encoding of every
// field covered by sigA, in declared order, excluding the signature
// fields themselves.
func (m *MessageA) AuthenticatedFields() []byte {
	var buf []byte
	buf = append(buf, m.Version)
	buf = putU16(buf, uint16(len(m.SupportedSuites)))
	for _, s := range m.SupportedSuites {
		buf = putU16(buf, uint16(s))
	}
	buf = putU16(buf, uint16(len(m.KeyShares)))
	for _, ks := range m.KeyShares {
		buf = putU16(buf, uint16(ks.Suite))
		buf = putU32(buf, uint32(len(ks.Bytes)))
		buf = append(buf, ks.Bytes...)
	}
	buf = append(buf, m.ClientNonce[:]...)
	buf = append(buf, m.Policy.Encode()...)
	buf = putLP32(buf, m.Capabilities.Encode())
	buf = putLP32(buf, m.IdentityPublicKey.Encode())
	return buf
}

// SignaturePreimage returns the exact bytes sigA is computed over:
// the domain tag followed by AuthenticatedFields().
func (m *MessageA) SignaturePreimage() []byte {
	return append(append([]byte{}, SigADomainTag...), m.AuthenticatedFields()...)
}

// Encode produces the full wire encoding of MessageA, including the
// already-computed signature fields.
func (m *MessageA) Encode() []byte {
	buf := m.AuthenticatedFields()
	buf = putLP32(buf, m.Signature)
	buf = putLP32(buf, m.SESignature)
	return buf
}

// DecodeMessageA parses the wire encoding produced by Encode.
func DecodeMessageA(b []byte) (*MessageA, error) {
	c := newCursor(b)
	m := &MessageA{}

	v, err := c.readByte()
	if err != nil {
		return nil, fmt.Errorf("wire: messageA version: %w", err)
	}
	m.Version = v

	suiteCount, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("wire: messageA suite count: %w", err)
	}
	seen := make(map[suite.ID]bool, suiteCount)
	m.SupportedSuites = make([]suite.ID, 0, suiteCount)
	for i := 0; i < int(suiteCount); i++ {
		id, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("wire: messageA suite %d: %w", i, err)
		}
		sid := suite.ID(id)
		if seen[sid] {
			return nil, fmt.Errorf("%w: 0x%04x", ErrDuplicateSuite, id)
		}
		seen[sid] = true
		m.SupportedSuites = append(m.SupportedSuites, sid)
	}

	shareCount, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("wire: messageA key share count: %w", err)
	}
	m.KeyShares = make([]KeyShare, 0, shareCount)
	for i := 0; i < int(shareCount); i++ {
		sid, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("wire: messageA key share %d suite: %w", i, err)
		}
		n, err := c.readU32()
		if err != nil {
			return nil, fmt.Errorf("wire: messageA key share %d length: %w", i, err)
		}
		bts, err := c.readN(int(n))
		if err != nil {
			return nil, fmt.Errorf("wire: messageA key share %d bytes: %w", i, err)
		}
		m.KeyShares = append(m.KeyShares, KeyShare{Suite: suite.ID(sid), Bytes: append([]byte{}, bts...)})
	}

	nonce, err := c.readN(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("wire: messageA client nonce: %w", err)
	}
	copy(m.ClientNonce[:], nonce)

	policyBytes, err := c.readN(6)
	if err != nil {
		return nil, fmt.Errorf("wire: messageA policy: %w", err)
	}
	m.Policy = policy.Handshake{
		RequirePQC:              policyBytes[0] != 0,
		AllowClassicFallback:    policyBytes[1] != 0,
		MinimumTier:             suite.Tier(policyBytes[2]),
		RequireSecureEnclavePoP: policyBytes[3] != 0,
		PreferPQC:               policyBytes[4] != 0,
		RequireHybridIfAvailable: policyBytes[5] != 0,
	}

	capBytes, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageA capabilities: %w", err)
	}
	caps, err := decodeCapabilities(capBytes)
	if err != nil {
		return nil, fmt.Errorf("wire: messageA capabilities: %w", err)
	}
	m.Capabilities = caps

	idBytes, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageA identity public key: %w", err)
	}
	ipk, err := decodeIdentityPublicKey(idBytes)
	if err != nil {
		return nil, fmt.Errorf("wire: messageA identity public key: %w", err)
	}
	m.IdentityPublicKey = ipk

	sig, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageA signature: %w", err)
	}
	m.Signature = append([]byte{}, sig...)

	seSig, err := c.readLP32()
	if err != nil {
		return nil, fmt.Errorf("wire: messageA se_signature: %w", err)
	}
	m.SESignature = append([]byte{}, seSig...)

	if c.remaining() != 0 {
		return nil, fmt.Errorf("wire: messageA: %d trailing bytes", c.remaining())
	}
	return m, nil
}
