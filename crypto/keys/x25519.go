// Copyright (C) 2025 skybridge-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later


package keys

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sync"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/hpke"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// classicalKEMInfo is the HPKE "info" domain separator for the
// classical X25519 path of the handshake; it is independent of (and
// in addition to) the transcript-bound info used in the key schedule
// (spec §4.2).
var classicalKEMInfo = []byte("SkyBridge-X25519-KEM-v1")

// X25519KeyPair is an ephemeral (or identity) X25519 key pair used as
// the classical-suite KEM in the handshake's "KEM-DEM-with-secret"
// construction (spec §4.2).
type X25519KeyPair struct {
	mu         sync.Mutex
	privateKey *ecdh.PrivateKey
	publicKey  *ecdh.PublicKey
	id         string
	zeroed     bool
}

// GenerateX25519KeyPair generates a new X25519 key pair.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	privateKey, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("x25519: generate key: %w", err)
	}
	return newX25519KeyPair(privateKey), nil
}

// NewX25519KeyPairFromPrivate reconstructs a key pair from a persisted
// 32-byte private scalar.
func NewX25519KeyPairFromPrivate(raw []byte) (*X25519KeyPair, error) {
	priv, err := ecdh.X25519().NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: x25519 private key: %v", skcrypto.ErrInvalidKeyFormat, err)
	}
	return newX25519KeyPair(priv), nil
}

func newX25519KeyPair(priv *ecdh.PrivateKey) *X25519KeyPair {
	pub := priv.PublicKey()
	hash := sha256.Sum256(pub.Bytes())
	return &X25519KeyPair{
		privateKey: priv, publicKey: pub,
		id: hex.EncodeToString(hash[:8]),
	}
}

func (kp *X25519KeyPair) PublicKey() []byte        { return kp.publicKey.Bytes() }
func (kp *X25519KeyPair) Type() skcrypto.KeyType   { return skcrypto.KeyTypeX25519 }
func (kp *X25519KeyPair) ID() string               { return kp.id }

// Encapsulate, for the X25519 classical path, means: generate a fresh
// ephemeral sender key against this key pair's public key and return
// (ephemeralPublicKeyBytes, sharedSecret). It is the inverse of
// Decapsulate on the holder of this key pair's private key.
func (kp *X25519KeyPair) Encapsulate() (ciphertext, sharedSecret []byte, err error) {
	return EncapsulateX25519(kp.publicKey)
}

// EncapsulateX25519 runs the HPKE-DHKEM encapsulation against a raw
// peer public key, returning the encapsulated ephemeral public key
// ("enc", used as the wire share) and a 32-byte exported shared secret.
func EncapsulateX25519(peerPub *ecdh.PublicKey) (enc, sharedSecret []byte, err error) {
	suite := hpke.NewSuite(hpke.KEM_X25519_HKDF_SHA256, hpke.KDF_HKDF_SHA256, hpke.AEAD_ChaCha20Poly1305)
	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	rp, err := kem.UnmarshalBinaryPublicKey(peerPub.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("x25519: unmarshal peer public key: %w", err)
	}
	sender, err := suite.NewSender(rp, classicalKEMInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("x25519: new sender: %w", err)
	}
	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("x25519: sender setup: %w", err)
	}
	secret := sealer.Export(classicalKEMInfo, 32)
	return enc, secret, nil
}

// EncapsulateX25519Raw is the []byte-public-key convenience form used
// by the handshake context, which only holds wire-encoded peer shares.
func EncapsulateX25519Raw(peerPubBytes []byte) (enc, sharedSecret []byte, err error) {
	peerPub, err := ecdh.X25519().NewPublicKey(peerPubBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: x25519 peer public key: %v", skcrypto.ErrInvalidKeyFormat, err)
	}
	return EncapsulateX25519(peerPub)
}

// Decapsulate recovers the 32-byte shared secret from the peer's
// encapsulated ephemeral public key, using this key pair's private key.
func (kp *X25519KeyPair) Decapsulate(ciphertext []byte) ([]byte, error) {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.zeroed {
		return nil, skcrypto.ErrKeyZeroized
	}
	suite := hpke.NewSuite(hpke.KEM_X25519_HKDF_SHA256, hpke.KDF_HKDF_SHA256, hpke.AEAD_ChaCha20Poly1305)
	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	skR, err := kem.UnmarshalBinaryPrivateKey(kp.privateKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("x25519: unmarshal private key: %w", err)
	}
	receiver, err := suite.NewReceiver(skR, classicalKEMInfo)
	if err != nil {
		return nil, fmt.Errorf("x25519: new receiver: %w", err)
	}
	opener, err := receiver.Setup(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("x25519: receiver setup: %w", err)
	}
	return opener.Export(classicalKEMInfo, 32), nil
}

// Zeroize drops this key pair's reference to the private key and marks
// it unusable. crypto/ecdh does not expose its internal scalar buffer
// (Bytes returns a copy), so only that copy is overwritten; the
// buffer inside the ecdh key is not. Idempotent.
func (kp *X25519KeyPair) Zeroize() {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.zeroed {
		return
	}
	raw := kp.privateKey.Bytes()
	zero(raw)
	kp.privateKey = nil
	kp.zeroed = true
}

// ConvertEd25519PublicToX25519 derives the Montgomery-form X25519
// public key from an Ed25519 protocol signing public key. Nothing in
// this module calls it; the identity manager's KEM identity keys are
// generated independently of the protocol signing key.
func ConvertEd25519PublicToX25519(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("x25519: bad ed25519 public key length: %d", len(pub))
	}
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return nil, fmt.Errorf("x25519: invalid ed25519 public key: %w", err)
	}
	return p.BytesMontgomery(), nil
}

// ConvertEd25519PrivateToX25519 derives the X25519 private scalar from
// an Ed25519 protocol signing private key, mirroring
// ConvertEd25519PublicToX25519 for the holder of the legacy identity.
func ConvertEd25519PrivateToX25519(priv ed25519.PrivateKey) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("x25519: bad ed25519 private key length: %d", len(priv))
	}
	seed := priv.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	out := make([]byte, 32)
	copy(out, h[:32])
	return out, nil
}

// ensure the crypto.PublicKey/PrivateKey surface used elsewhere in the
// module type-asserts cleanly against *ecdh.PublicKey/*ecdh.PrivateKey.
var (
	_ crypto.PublicKey  = (*ecdh.PublicKey)(nil)
	_ crypto.PrivateKey = (*ecdh.PrivateKey)(nil)
)
