package identity_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/suite"
)

func setupLegacyPinnedDevice(t *testing.T) (identity.TrustStore, *ecdsa.PrivateKey, []byte) {
	t.Helper()
	store := identity.NewMemoryTrustStore()

	p256Priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	p256Pub := elliptic.Marshal(elliptic.P256(), p256Priv.PublicKey.X, p256Priv.PublicKey.Y) //nolint:staticcheck

	require.NoError(t, store.Put(identity.TrustRecord{
		DeviceID:            "device-1",
		PubKeyFingerprint:   identity.Fingerprint(p256Pub),
		LegacyP256PublicKey: p256Pub,
		SignatureAlgorithm:  suite.SigP256ECDSA,
	}))
	return store, p256Priv, p256Pub
}

func TestUpgradeKeyAcceptsValidDualSignature(t *testing.T) {
	store, p256Priv, p256Pub := setupLegacyPinnedDevice(t)

	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256(edPub)
	sigOldOverNew, err := ecdsa.SignASN1(rand.Reader, p256Priv, digest[:])
	require.NoError(t, err)
	sigNewOverOld := ed25519.Sign(edPriv, p256Pub)

	sink := &recordingSink{}
	err = identity.UpgradeKey(store, "device-1", p256Pub, edPub, sigOldOverNew, sigNewOverOld, sink)
	require.NoError(t, err)
	assert.Contains(t, sink.events, "key_migration_completed")

	rec, ok, err := store.Get("device-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, identity.Fingerprint(edPub), rec.PubKeyFingerprint)
	assert.Empty(t, rec.LegacyP256PublicKey)
}

func TestUpgradeKeyRejectsFlippedOldSignatureByte(t *testing.T) {
	store, p256Priv, p256Pub := setupLegacyPinnedDevice(t)

	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256(edPub)
	sigOldOverNew, err := ecdsa.SignASN1(rand.Reader, p256Priv, digest[:])
	require.NoError(t, err)
	sigOldOverNew[0] ^= 0xFF
	sigNewOverOld := ed25519.Sign(edPriv, p256Pub)

	err = identity.UpgradeKey(store, "device-1", p256Pub, edPub, sigOldOverNew, sigNewOverOld, nil)
	require.ErrorIs(t, err, identity.ErrKeyUpgradeRejected)
}

func TestUpgradeKeyRejectsFlippedNewSignatureByte(t *testing.T) {
	store, p256Priv, p256Pub := setupLegacyPinnedDevice(t)

	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256(edPub)
	sigOldOverNew, err := ecdsa.SignASN1(rand.Reader, p256Priv, digest[:])
	require.NoError(t, err)
	sigNewOverOld := ed25519.Sign(edPriv, p256Pub)
	sigNewOverOld[0] ^= 0xFF

	err = identity.UpgradeKey(store, "device-1", p256Pub, edPub, sigOldOverNew, sigNewOverOld, nil)
	require.ErrorIs(t, err, identity.ErrKeyUpgradeRejected)
}
