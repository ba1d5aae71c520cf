package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/suite"
)

func TestDeriveSessionKeysSymmetry(t *testing.T) {
	sharedSecret := []byte("a-32-byte-shared-secret-value!!")
	transcriptA := []byte("transcript-a")
	transcriptB := []byte("transcript-b")
	clientNonce := []byte("client-nonce-32-bytes-000000000")
	serverNonce := []byte("server-nonce-32-bytes-000000000")

	initiator, err := DeriveSessionKeys(true, sharedSecret, suite.X25519Ed25519, transcriptA, transcriptB, clientNonce, serverNonce)
	require.NoError(t, err)

	responder, err := DeriveSessionKeys(false, sharedSecret, suite.X25519Ed25519, transcriptA, transcriptB, clientNonce, serverNonce)
	require.NoError(t, err)

	assert.Equal(t, initiator.SendKey, responder.ReceiveKey, "initiator send_key must equal responder receive_key")
	assert.Equal(t, initiator.ReceiveKey, responder.SendKey, "initiator receive_key must equal responder send_key")
	assert.Equal(t, initiator.FinalTranscriptHash, responder.FinalTranscriptHash)
	assert.NotEqual(t, initiator.SendKey, initiator.ReceiveKey)
}

func TestDeriveSessionKeysBindsSuite(t *testing.T) {
	sharedSecret := []byte("a-32-byte-shared-secret-value!!")
	transcriptA := []byte("transcript-a")
	transcriptB := []byte("transcript-b")
	nonce := []byte("nonce-32-bytes-0000000000000000")

	classical, err := DeriveSessionKeys(true, sharedSecret, suite.X25519Ed25519, transcriptA, transcriptB, nonce, nonce)
	require.NoError(t, err)

	pqc, err := DeriveSessionKeys(true, sharedSecret, suite.MLKEM768MLDSA65, transcriptA, transcriptB, nonce, nonce)
	require.NoError(t, err)

	assert.NotEqual(t, classical.SendKey, pqc.SendKey, "the negotiated suite must be bound into the derived keys")
}

func TestDeriveFinishedMACKeyDeterministic(t *testing.T) {
	baseKey := []byte("a-32-byte-base-key-value-000000")
	transcriptHash := []byte("final-transcript-hash-digest")

	k1, err := DeriveFinishedMACKey(baseKey, FinishedI2R, transcriptHash)
	require.NoError(t, err)
	k2, err := DeriveFinishedMACKey(baseKey, FinishedI2R, transcriptHash)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := DeriveFinishedMACKey(baseKey, FinishedR2I, transcriptHash)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3, "I2R and R2I must derive distinct MAC keys")
}
