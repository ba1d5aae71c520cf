package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/policy"
	"github.com/skybridge-project/skybridge/suite"
)

func sampleMessageA() *MessageA {
	m := &MessageA{
		Version:         1,
		SupportedSuites: []suite.ID{suite.X25519Ed25519},
		KeyShares: []KeyShare{
			{Suite: suite.X25519Ed25519, Bytes: []byte("ephemeral-public-key-bytes")},
		},
		Policy: policy.Handshake{
			RequirePQC:           false,
			AllowClassicFallback: true,
			MinimumTier:          suite.TierClassic,
		},
		Capabilities: policy.Capabilities{
			SupportedKEMs:       []suite.ID{suite.X25519Ed25519, suite.MLKEM768MLDSA65},
			SupportedSignatures: []suite.SignatureAlgorithm{suite.SigEd25519, suite.SigMLDSA65},
			SupportedAEADs:      []string{"chacha20-poly1305", "aes-256-gcm"},
			PQCAvailable:        true,
		},
		IdentityPublicKey: IdentityPublicKey{
			Algorithm: suite.SigEd25519,
			PublicKey: []byte("identity-public-key-bytes-------"),
		},
		Signature: []byte("sigA-bytes"),
	}
	copy(m.ClientNonce[:], []byte("0123456789abcdef0123456789abcdef"))
	return m
}

func TestMessageARoundTrip(t *testing.T) {
	m := sampleMessageA()
	encoded := m.Encode()

	decoded, err := DecodeMessageA(encoded)
	require.NoError(t, err)

	assert.Equal(t, m.Version, decoded.Version)
	assert.Equal(t, m.SupportedSuites, decoded.SupportedSuites)
	assert.Equal(t, m.KeyShares, decoded.KeyShares)
	assert.Equal(t, m.ClientNonce, decoded.ClientNonce)
	assert.Equal(t, m.Policy, decoded.Policy)
	assert.Equal(t, m.Capabilities, decoded.Capabilities)
	assert.Equal(t, m.IdentityPublicKey, decoded.IdentityPublicKey)
	assert.Equal(t, m.Signature, decoded.Signature)
	assert.Empty(t, decoded.SESignature)
}

func TestMessageASignaturePreimageExcludesSignature(t *testing.T) {
	m := sampleMessageA()
	before := m.SignaturePreimage()
	m.Signature = []byte("a-different-signature-entirely")
	after := m.SignaturePreimage()
	assert.Equal(t, before, after, "the signature preimage must not depend on the signature itself")
}

func TestMessageARejectsDuplicateSuite(t *testing.T) {
	m := sampleMessageA()
	m.SupportedSuites = []suite.ID{suite.X25519Ed25519, suite.X25519Ed25519}
	encoded := m.Encode()

	_, err := DecodeMessageA(encoded)
	require.ErrorIs(t, err, ErrDuplicateSuite)
}

func TestMessageATruncatedFails(t *testing.T) {
	m := sampleMessageA()
	encoded := m.Encode()

	_, err := DecodeMessageA(encoded[:len(encoded)-4])
	require.Error(t, err)
}
