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
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// ed25519KeyPair implements KeyPair for Ed25519 protocol signing keys.
type ed25519KeyPair struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	id         string
}

// GenerateEd25519KeyPair generates a new Ed25519 key pair.
func GenerateEd25519KeyPair() (skcrypto.KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newEd25519KeyPair(publicKey, privateKey), nil
}

// NewEd25519KeyPairFromSeed reconstructs a key pair from a persisted
// seed. Spec §4.3 allows 32-byte (seed) or 64-byte (seed||pub) encodings.
func NewEd25519KeyPairFromSeed(seed []byte) (skcrypto.KeyPair, error) {
	switch len(seed) {
	case ed25519.SeedSize:
		priv := ed25519.NewKeyFromSeed(seed)
		return newEd25519KeyPair(priv.Public().(ed25519.PublicKey), priv), nil
	case ed25519.PrivateKeySize:
		priv := ed25519.PrivateKey(seed)
		return newEd25519KeyPair(priv.Public().(ed25519.PublicKey), priv), nil
	default:
		return nil, fmt.Errorf("%w: ed25519 key material must be %d or %d bytes, got %d",
			skcrypto.ErrInvalidKeyFormat, ed25519.SeedSize, ed25519.PrivateKeySize, len(seed))
	}
}

func newEd25519KeyPair(pub ed25519.PublicKey, priv ed25519.PrivateKey) *ed25519KeyPair {
	hash := sha256.Sum256(pub)
	return &ed25519KeyPair{
		privateKey: priv,
		publicKey:  pub,
		id:         hex.EncodeToString(hash[:8]),
	}
}

func (kp *ed25519KeyPair) PublicKey() crypto.PublicKey   { return kp.publicKey }
func (kp *ed25519KeyPair) PrivateKey() crypto.PrivateKey { return kp.privateKey }
func (kp *ed25519KeyPair) Type() skcrypto.KeyType        { return skcrypto.KeyTypeEd25519 }
func (kp *ed25519KeyPair) ID() string                    { return kp.id }

func (kp *ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(kp.privateKey, message), nil
}

func (kp *ed25519KeyPair) Verify(message, signature []byte) error {
	if !ed25519.Verify(kp.publicKey, message, signature) {
		return skcrypto.ErrInvalidSignature
	}
	return nil
}

// VerifyEd25519 verifies a detached signature against a raw public key,
// used by the handshake driver to check sigA/sigB without holding a
// full KeyPair for the peer.
func VerifyEd25519(pub ed25519.PublicKey, message, signature []byte) error {
	if !ed25519.Verify(pub, message, signature) {
		return skcrypto.ErrInvalidSignature
	}
	return nil
}
