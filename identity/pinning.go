package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/skybridge-project/skybridge/suite"
)

// Fingerprint is the SHA-256 hex fingerprint of an identity public key
// (spec §4.6 TrustStore / identity pinning).
func Fingerprint(publicKey []byte) string {
	sum := sha256.Sum256(publicKey)
	return hex.EncodeToString(sum[:])
}

// VerificationPath names which key family authenticated a peer, used
// to tag a first-contact TrustRecordUpdate recommendation.
type VerificationPath string

const (
	VerificationLegacyP256 VerificationPath = "legacy_p256"
	VerificationModern     VerificationPath = "modern"
)

func verificationPathFor(alg suite.SignatureAlgorithm) VerificationPath {
	if alg == suite.SigP256ECDSA {
		return VerificationLegacyP256
	}
	return VerificationModern
}

// TrustRecordUpdate is the recommendation produced on first contact
// with a peer that has no trust record yet (spec §4.6: "First contact
// ... bypasses pinning but recommends a TrustRecordUpdate based on the
// verification path").
type TrustRecordUpdate struct {
	DeviceID           string
	Fingerprint        string
	ProtocolPublicKey  []byte
	SignatureAlgorithm suite.SignatureAlgorithm
	VerificationPath   VerificationPath
}

// VerifyPinning is the post-signature validation hook run inside
// process_messageA/process_messageB (spec §4.6). On a known device it
// enforces fingerprint equality, returning ErrIdentityMismatch on
// mismatch. On first contact it returns a non-nil *TrustRecordUpdate
// for the caller to apply (or not) and a nil error.
func VerifyPinning(store TrustStore, deviceID string, peerPublicKey []byte, alg suite.SignatureAlgorithm, sink EventSink) (*TrustRecordUpdate, error) {
	if sink == nil {
		sink = noopSink{}
	}
	fingerprint := Fingerprint(peerPublicKey)

	rec, known, err := store.Get(deviceID)
	if err != nil {
		return nil, fmt.Errorf("identity: trust store lookup: %w", err)
	}
	if !known {
		return &TrustRecordUpdate{
			DeviceID:           deviceID,
			Fingerprint:        fingerprint,
			ProtocolPublicKey:  append([]byte{}, peerPublicKey...),
			SignatureAlgorithm: alg,
			VerificationPath:   verificationPathFor(alg),
		}, nil
	}

	if rec.PubKeyFingerprint != fingerprint {
		sink.Emit("identity_mismatch", map[string]any{
			"device_id": deviceID,
			"expected":  rec.PubKeyFingerprint,
			"actual":    fingerprint,
		})
		return nil, fmt.Errorf("%w: device %s expected fingerprint %s, got %s",
			ErrIdentityMismatch, deviceID, rec.PubKeyFingerprint, fingerprint)
	}
	return nil, nil
}

// ApplyTrustRecordUpdate commits a first-contact recommendation as a
// new trust record. Callers typically gate this on local policy
// (trust-on-first-use vs. requiring an out-of-band confirmation).
func ApplyTrustRecordUpdate(store TrustStore, update TrustRecordUpdate, allowsLegacyFallback bool) error {
	rec := TrustRecord{
		DeviceID:             update.DeviceID,
		PubKeyFingerprint:    update.Fingerprint,
		ProtocolPublicKey:    update.ProtocolPublicKey,
		SignatureAlgorithm:   update.SignatureAlgorithm,
		AllowsLegacyFallback: allowsLegacyFallback,
		UpdatedAt:            time.Now(),
	}
	return store.Put(rec)
}
