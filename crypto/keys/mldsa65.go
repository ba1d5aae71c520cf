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
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// MLDSA65PublicKeySize and friends mirror the FIPS 204 ML-DSA-65 sizes,
// used to validate persisted key material per the identity manager's
// length table (spec §4.6).
const (
	MLDSA65PublicKeySize  = mldsa65.PublicKeySize
	MLDSA65PrivateKeySize = mldsa65.PrivateKeySize
	MLDSA65SeedSize       = 32
	MLDSA65SignatureSize  = mldsa65.SignatureSize
)

type mldsa65KeyPair struct {
	pub *mldsa65.PublicKey
	priv *mldsa65.PrivateKey
	id  string
}

// GenerateMLDSA65KeyPair generates a fresh ML-DSA-65 protocol signing
// key pair.
func GenerateMLDSA65KeyPair() (skcrypto.KeyPair, error) {
	pub, priv, err := mldsa65.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("mldsa65: generate key: %w", err)
	}
	return newMLDSA65KeyPair(pub, priv), nil
}

// NewMLDSA65KeyPairFromBytes reconstructs a key pair from a persisted
// private key encoding. Only the full packed private key
// (MLDSA65PrivateKeySize bytes) is accepted; seed-form material of any
// length is rejected with ErrInvalidKeyFormat.
func NewMLDSA65KeyPairFromBytes(material []byte) (skcrypto.KeyPair, error) {
	var priv mldsa65.PrivateKey
	switch len(material) {
	case MLDSA65PrivateKeySize:
		if err := priv.UnmarshalBinary(material); err != nil {
			return nil, fmt.Errorf("mldsa65: unmarshal private key: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: mldsa65 key material must be %d bytes, got %d",
			skcrypto.ErrInvalidKeyFormat, MLDSA65PrivateKeySize, len(material))
	}
	pub := priv.Public().(*mldsa65.PublicKey)
	return newMLDSA65KeyPair(pub, &priv), nil
}

func newMLDSA65KeyPair(pub *mldsa65.PublicKey, priv *mldsa65.PrivateKey) *mldsa65KeyPair {
	pubBytes, _ := pub.MarshalBinary()
	hash := sha256.Sum256(pubBytes)
	return &mldsa65KeyPair{pub: pub, priv: priv, id: hex.EncodeToString(hash[:8])}
}

func (kp *mldsa65KeyPair) PublicKey() crypto.PublicKey   { return kp.pub }
func (kp *mldsa65KeyPair) PrivateKey() crypto.PrivateKey { return kp.priv }
func (kp *mldsa65KeyPair) Type() skcrypto.KeyType        { return skcrypto.KeyTypeMLDSA65 }
func (kp *mldsa65KeyPair) ID() string                    { return kp.id }

func (kp *mldsa65KeyPair) Sign(message []byte) ([]byte, error) {
	sig := make([]byte, MLDSA65SignatureSize)
	if err := mldsa65.SignTo(kp.priv, message, nil, false, sig); err != nil {
		return nil, fmt.Errorf("mldsa65: sign: %w", err)
	}
	return sig, nil
}

func (kp *mldsa65KeyPair) Verify(message, signature []byte) error {
	if !mldsa65.Verify(kp.pub, message, nil, signature) {
		return skcrypto.ErrInvalidSignature
	}
	return nil
}

// VerifyMLDSA65 verifies a detached signature against a raw marshaled
// public key.
func VerifyMLDSA65(pubBytes, message, signature []byte) error {
	var pub mldsa65.PublicKey
	if err := pub.UnmarshalBinary(pubBytes); err != nil {
		return fmt.Errorf("%w: mldsa65 public key: %v", skcrypto.ErrInvalidKeyFormat, err)
	}
	if !mldsa65.Verify(&pub, message, nil, signature) {
		return skcrypto.ErrInvalidSignature
	}
	return nil
}
