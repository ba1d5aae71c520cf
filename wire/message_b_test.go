package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/suite"
)

func sampleMessageB() *MessageB {
	m := &MessageB{
		Version:        1,
		SelectedSuite:  suite.X25519Ed25519,
		ResponderShare: []byte("responder-ephemeral-public-key"),
		EncryptedPayload: EncryptedPayload{
			Ciphertext: []byte("sealed-capabilities-ciphertext-and-tag"),
		},
		IdentityPublicKey: IdentityPublicKey{
			Algorithm: suite.SigEd25519,
			PublicKey: []byte("responder-identity-public-key--"),
		},
		Signature: []byte("sigB-bytes"),
	}
	copy(m.ServerNonce[:], []byte("fedcba9876543210fedcba9876543210"))
	copy(m.EncryptedPayload.Nonce[:], []byte("123456789012"))
	return m
}

func TestMessageBRoundTrip(t *testing.T) {
	m := sampleMessageB()
	encoded := m.Encode()

	decoded, err := DecodeMessageB(encoded)
	require.NoError(t, err)

	assert.Equal(t, m.Version, decoded.Version)
	assert.Equal(t, m.SelectedSuite, decoded.SelectedSuite)
	assert.Equal(t, m.ResponderShare, decoded.ResponderShare)
	assert.Equal(t, m.ServerNonce, decoded.ServerNonce)
	assert.Equal(t, m.EncryptedPayload, decoded.EncryptedPayload)
	assert.Equal(t, m.IdentityPublicKey, decoded.IdentityPublicKey)
	assert.Equal(t, m.Signature, decoded.Signature)
}

func TestMessageBSignaturePreimageBindsTranscriptA(t *testing.T) {
	m := sampleMessageB()
	transcriptA1 := []byte("transcript-a-value-one")
	transcriptA2 := []byte("transcript-a-value-two")

	assert.NotEqual(t, m.SignaturePreimage(transcriptA1), m.SignaturePreimage(transcriptA2))
}

func TestMessageBEmptyResponderShareForPQCPath(t *testing.T) {
	m := sampleMessageB()
	m.ResponderShare = nil

	decoded, err := DecodeMessageB(m.Encode())
	require.NoError(t, err)
	assert.Empty(t, decoded.ResponderShare)
}
