package wire

import (
	"fmt"

	"github.com/skybridge-project/skybridge/suite"
)

// IdentityPublicKey carries the protocol public key, the signature
// algorithm it was generated under, and an optional Secure-Enclave
// proof-of-possession public key (spec §4.1 "Identity key material").
type IdentityPublicKey struct {
	Algorithm   suite.SignatureAlgorithm
	PublicKey   []byte
	SEPublicKey []byte // empty if SE-PoP is not in use
}

// Encode produces the length-prefixed canonical encoding of an
// IdentityPublicKey, used both on the wire and as a transcript field.
func (k IdentityPublicKey) Encode() []byte {
	var inner []byte
	inner = putLP32(inner, []byte(k.Algorithm))
	inner = putLP32(inner, k.PublicKey)
	inner = putLP32(inner, k.SEPublicKey)
	return inner
}

// decodeIdentityPublicKey decodes the inner bytes of an
// IdentityPublicKey (already extracted from its own outer length
// prefix by the caller).
func decodeIdentityPublicKey(buf []byte) (IdentityPublicKey, error) {
	c := newCursor(buf)
	alg, err := c.readLP32()
	if err != nil {
		return IdentityPublicKey{}, fmt.Errorf("wire: identity algorithm: %w", err)
	}
	pub, err := c.readLP32()
	if err != nil {
		return IdentityPublicKey{}, fmt.Errorf("wire: identity public key: %w", err)
	}
	se, err := c.readLP32()
	if err != nil {
		return IdentityPublicKey{}, fmt.Errorf("wire: identity se public key: %w", err)
	}
	return IdentityPublicKey{
		Algorithm:   suite.SignatureAlgorithm(alg),
		PublicKey:   pub,
		SEPublicKey: se,
	}, nil
}
