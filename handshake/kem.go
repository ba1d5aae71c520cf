package handshake

import (
	"fmt"

	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/suite"
)

// encapsulateForSuite encapsulates against a peer's raw KEM public key
// for s, dispatching to the concrete scheme (spec §4.2 MessageA build:
// "for PQC suites the share is the KEM-encapsulated-key").
func encapsulateForSuite(s suite.Suite, peerPub []byte) (ciphertext, sharedSecret []byte, err error) {
	switch s.WireID {
	case suite.MLKEM768MLDSA65:
		return keys.EncapsulateMLKEM768(peerPub)
	case suite.XWingMLDSA:
		return keys.EncapsulateXWing(peerPub)
	case suite.X25519Ed25519, suite.P256ECDSA:
		return keys.EncapsulateX25519Raw(peerPub)
	default:
		return nil, nil, fmt.Errorf("handshake: no KEM encapsulation for suite %s", s.Name)
	}
}
