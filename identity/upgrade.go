package identity

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/suite"
)

// UpgradeKey implements the dual-signature key-upgrade migration (spec
// §4.6 "Key upgrade (dual-signature binding)"): a peer pinned under a
// legacy P-256 public key proves ownership of both the old and the new
// (Ed25519) key by cross-signing each other's public key. Both
// signatures must verify; either failing rejects the upgrade and
// leaves the trust record untouched.
func UpgradeKey(store TrustStore, deviceID string, oldP256PublicKey, newEd25519PublicKey, sigOldOverNew, sigNewOverOld []byte, sink EventSink) error {
	if sink == nil {
		sink = noopSink{}
	}

	rec, known, err := store.Get(deviceID)
	if err != nil {
		return fmt.Errorf("identity: trust store lookup: %w", err)
	}
	if !known {
		return fmt.Errorf("%w: no existing trust record for device %s", ErrKeyUpgradeRejected, deviceID)
	}
	if len(rec.LegacyP256PublicKey) == 0 || Fingerprint(rec.LegacyP256PublicKey) != Fingerprint(oldP256PublicKey) {
		return fmt.Errorf("%w: device %s has no matching pinned legacy key", ErrKeyUpgradeRejected, deviceID)
	}

	// sig_old_over_new: the old P-256 key signs the new Ed25519 public key.
	if err := keys.VerifyP256(oldP256PublicKey, newEd25519PublicKey, sigOldOverNew); err != nil {
		return fmt.Errorf("%w: sig_old_over_new: %v", ErrKeyUpgradeRejected, err)
	}
	// sig_new_over_old: the new Ed25519 key signs the old P-256 public key.
	if !ed25519.Verify(ed25519.PublicKey(newEd25519PublicKey), oldP256PublicKey, sigNewOverOld) {
		return fmt.Errorf("%w: sig_new_over_old failed", ErrKeyUpgradeRejected)
	}

	updated := TrustRecord{
		DeviceID:             deviceID,
		PubKeyFingerprint:    Fingerprint(newEd25519PublicKey),
		ProtocolPublicKey:    append([]byte{}, newEd25519PublicKey...),
		SignatureAlgorithm:   suite.SigEd25519,
		LegacyP256PublicKey:  nil,
		AllowsLegacyFallback: rec.AllowsLegacyFallback,
		KEMPublicKeys:        rec.KEMPublicKeys,
		SecureEnclavePublicKey: rec.SecureEnclavePublicKey,
		UpdatedAt:            time.Now(),
	}
	if err := store.Put(updated); err != nil {
		return fmt.Errorf("identity: persist upgraded trust record: %w", err)
	}

	sink.Emit("key_migration_completed", map[string]any{
		"from_tag": "legacy_p256",
		"to_tag":   "ed25519",
		"key_type": "protocol_signing",
	})
	return nil
}
