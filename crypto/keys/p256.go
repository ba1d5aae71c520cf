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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// p256KeyPair implements KeyPair for the P-256 legacy verifier /
// Secure-Enclave proof-of-possession primitive. Per spec §3, this
// algorithm is never valid for protocol signatures (sigA/sigB); it
// only backs seSigA/seSigB and the legacy-identity verification path.
type p256KeyPair struct {
	priv *ecdsa.PrivateKey
	id   string
}

// GenerateP256KeyPair generates a fresh P-256 key pair, modeling a
// hardware-backed Secure-Enclave key in software.
func GenerateP256KeyPair() (skcrypto.KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("p256: generate key: %w", err)
	}
	return newP256KeyPair(priv), nil
}

func newP256KeyPair(priv *ecdsa.PrivateKey) *p256KeyPair {
	pubBytes := elliptic.Marshal(elliptic.P256(), priv.PublicKey.X, priv.PublicKey.Y) //nolint:staticcheck
	hash := sha256.Sum256(pubBytes)
	return &p256KeyPair{priv: priv, id: hex.EncodeToString(hash[:8])}
}

func (kp *p256KeyPair) PublicKey() crypto.PublicKey   { return &kp.priv.PublicKey }
func (kp *p256KeyPair) PrivateKey() crypto.PrivateKey { return kp.priv }
func (kp *p256KeyPair) Type() skcrypto.KeyType        { return skcrypto.KeyTypeP256ECDSA }
func (kp *p256KeyPair) ID() string                    { return kp.id }

func (kp *p256KeyPair) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return ecdsa.SignASN1(rand.Reader, kp.priv, digest[:])
}

func (kp *p256KeyPair) Verify(message, signature []byte) error {
	digest := sha256.Sum256(message)
	if !ecdsa.VerifyASN1(&kp.priv.PublicKey, digest[:], signature) {
		return skcrypto.ErrInvalidSignature
	}
	return nil
}

// MarshalP256PublicKey returns the uncompressed SEC1 encoding of a
// P-256 public key, used in the wire identity_public_key structure.
func MarshalP256PublicKey(pub *ecdsa.PublicKey) []byte {
	return elliptic.Marshal(elliptic.P256(), pub.X, pub.Y) //nolint:staticcheck
}

// VerifyP256 verifies a detached ASN.1 signature against a raw
// uncompressed P-256 public key. Used for legacy verification and
// SE-PoP signature checks where only the public key bytes are known.
func VerifyP256(pubBytes, message, signature []byte) error {
	x, y := elliptic.Unmarshal(elliptic.P256(), pubBytes) //nolint:staticcheck
	if x == nil {
		return fmt.Errorf("%w: malformed p256 public key", skcrypto.ErrInvalidKeyFormat)
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	digest := sha256.Sum256(message)
	if !ecdsa.VerifyASN1(pub, digest[:], signature) {
		return skcrypto.ErrInvalidSignature
	}
	return nil
}
