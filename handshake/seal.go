package handshake

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrBadPayload indicates the encrypted_payload failed to authenticate.
var ErrBadPayload = errors.New("handshake: encrypted payload authentication failed")

var payloadKDFInfo = []byte("handshake-payload")

// payloadSealKey derives the AES-256-GCM key for MessageB's
// encrypted_payload (spec §4.2 MessageB build: "AEAD AES-256-GCM with
// HKDF-SHA256(ikm=shared_secret, salt=transcriptA, info=
// \"handshake-payload\", 32) as key"). AES-256-GCM is the spec's own
// explicit algorithm choice for this step, not a design choice this
// module makes — see DESIGN.md.
func payloadSealKey(sharedSecret, transcriptA []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, sharedSecret, transcriptA, payloadKDFInfo)
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("handshake: derive payload seal key: %w", err)
	}
	return key, nil
}

// sealPayload seals plaintext under a fresh random 12-byte nonce,
// returning (nonce, ciphertext-with-tag).
func sealPayload(sharedSecret, transcriptA, plaintext []byte) ([12]byte, []byte, error) {
	var nonce [12]byte
	key, err := payloadSealKey(sharedSecret, transcriptA)
	if err != nil {
		return nonce, nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nonce, nil, fmt.Errorf("handshake: aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nonce, nil, fmt.Errorf("handshake: gcm: %w", err)
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, nil, fmt.Errorf("handshake: nonce: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce[:], plaintext, nil)
	return nonce, ciphertext, nil
}

// openPayload reverses sealPayload.
func openPayload(sharedSecret, transcriptA []byte, nonce [12]byte, ciphertext []byte) ([]byte, error) {
	key, err := payloadSealKey(sharedSecret, transcriptA)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("handshake: aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("handshake: gcm: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrBadPayload
	}
	return plaintext, nil
}
