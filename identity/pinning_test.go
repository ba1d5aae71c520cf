package identity_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/suite"
)

func TestVerifyPinningFirstContactRecommendsUpdate(t *testing.T) {
	store := identity.NewMemoryTrustStore()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	update, err := identity.VerifyPinning(store, "device-1", pub, suite.SigEd25519, nil)
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Equal(t, identity.VerificationModern, update.VerificationPath)
	assert.Equal(t, identity.Fingerprint(pub), update.Fingerprint)
}

func TestVerifyPinningAcceptsMatchingFingerprint(t *testing.T) {
	store := identity.NewMemoryTrustStore()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	update, err := identity.VerifyPinning(store, "device-1", pub, suite.SigEd25519, nil)
	require.NoError(t, err)
	require.NoError(t, identity.ApplyTrustRecordUpdate(store, *update, false))

	again, err := identity.VerifyPinning(store, "device-1", pub, suite.SigEd25519, nil)
	require.NoError(t, err)
	assert.Nil(t, again, "a known, matching fingerprint needs no update recommendation")
}

func TestVerifyPinningRejectsMismatch(t *testing.T) {
	store := identity.NewMemoryTrustStore()
	pub1, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	pub2, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	update, err := identity.VerifyPinning(store, "device-1", pub1, suite.SigEd25519, nil)
	require.NoError(t, err)
	require.NoError(t, identity.ApplyTrustRecordUpdate(store, *update, false))

	sink := &recordingSink{}
	_, err = identity.VerifyPinning(store, "device-1", pub2, suite.SigEd25519, sink)
	require.ErrorIs(t, err, identity.ErrIdentityMismatch)
	assert.Contains(t, sink.events, "identity_mismatch")
}

func TestVerifyPinningLegacyPathIsTagged(t *testing.T) {
	store := identity.NewMemoryTrustStore()
	pub := make([]byte, 65)

	update, err := identity.VerifyPinning(store, "device-legacy", pub, suite.SigP256ECDSA, nil)
	require.NoError(t, err)
	assert.Equal(t, identity.VerificationLegacyP256, update.VerificationPath)
}
