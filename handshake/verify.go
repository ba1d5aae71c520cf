package handshake

import (
	"crypto/ed25519"
	"fmt"

	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/suite"
	"github.com/skybridge-project/skybridge/wire"
)

// verifyProtocolSignature checks sigA/sigB against the signer's own
// advertised algorithm (spec §4.1: "the signature algorithm is taken
// from identity_public_key, never assumed"), dispatching to the
// concrete scheme's detached-verify helper.
func verifyProtocolSignature(id wire.IdentityPublicKey, message, signature []byte) error {
	return verifySignatureByAlgorithm(id.Algorithm, id.PublicKey, message, signature)
}

func verifySignatureByAlgorithm(alg suite.SignatureAlgorithm, pub, message, signature []byte) error {
	switch alg {
	case suite.SigEd25519:
		return keys.VerifyEd25519(ed25519.PublicKey(pub), message, signature)
	case suite.SigMLDSA65:
		return keys.VerifyMLDSA65(pub, message, signature)
	case suite.SigP256ECDSA:
		return keys.VerifyP256(pub, message, signature)
	default:
		return fmt.Errorf("handshake: unsupported signature algorithm %q", alg)
	}
}

// verifySEPoPSignature verifies a Secure-Enclave proof-of-possession
// signature. The SE-PoP key is always a P-256 key in this deployment
// (the only platform-backed signing primitive in the pack), so unlike
// the protocol signature there is no per-peer algorithm to dispatch on.
func verifySEPoPSignature(sePub, message, signature []byte) error {
	return keys.VerifyP256(sePub, message, signature)
}
