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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// MLKEM768 key sizes, used by the identity manager's length-validation
// table (spec §4.6).
const (
	MLKEM768PublicKeySize  = mlkem768.PublicKeySize
	MLKEM768PrivateKeySize = mlkem768.PrivateKeySize
	MLKEM768CiphertextSize = mlkem768.CiphertextSize
	MLKEM768SharedKeySize  = mlkem768.SharedKeySize
)

// mlkem768KeyPair implements skcrypto.KEMKeyPair over circl's ML-KEM-768
// scheme.
type mlkem768KeyPair struct {
	mu      sync.Mutex
	scheme  kem.Scheme
	pub     kem.PublicKey
	priv    kem.PrivateKey
	pubRaw  []byte
	id      string
	zeroed  bool
	privRaw []byte
}

// GenerateMLKEM768KeyPair generates a fresh ML-KEM-768 identity key pair.
func GenerateMLKEM768KeyPair() (skcrypto.KEMKeyPair, error) {
	scheme := mlkem768.Scheme()
	pub, priv, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("mlkem768: generate key pair: %w", err)
	}
	return newMLKEM768KeyPair(scheme, pub, priv)
}

// NewMLKEM768KeyPairFromPrivate reconstructs a key pair from a
// persisted private key encoding.
func NewMLKEM768KeyPairFromPrivate(raw []byte) (skcrypto.KEMKeyPair, error) {
	scheme := mlkem768.Scheme()
	if len(raw) != scheme.PrivateKeySize() {
		return nil, fmt.Errorf("%w: mlkem768 private key must be %d bytes, got %d",
			skcrypto.ErrInvalidKeyFormat, scheme.PrivateKeySize(), len(raw))
	}
	priv, err := scheme.UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("mlkem768: unmarshal private key: %w", err)
	}
	pub := priv.Public()
	return newMLKEM768KeyPair(scheme, pub, priv)
}

func newMLKEM768KeyPair(scheme kem.Scheme, pub kem.PublicKey, priv kem.PrivateKey) (*mlkem768KeyPair, error) {
	pubRaw, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("mlkem768: marshal public key: %w", err)
	}
	privRaw, err := priv.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("mlkem768: marshal private key: %w", err)
	}
	hash := sha256.Sum256(pubRaw)
	return &mlkem768KeyPair{
		scheme: scheme, pub: pub, priv: priv,
		pubRaw: pubRaw, privRaw: privRaw,
		id: hex.EncodeToString(hash[:8]),
	}, nil
}

func (kp *mlkem768KeyPair) PublicKey() []byte    { return kp.pubRaw }
func (kp *mlkem768KeyPair) Type() skcrypto.KeyType { return skcrypto.KeyTypeMLKEM768 }
func (kp *mlkem768KeyPair) ID() string           { return kp.id }

// EncapsulateMLKEM768 encapsulates against a raw peer public key,
// for the initiator side which never holds the responder's private key.
func EncapsulateMLKEM768(peerPub []byte) (ciphertext, sharedSecret []byte, err error) {
	scheme := mlkem768.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(peerPub)
	if err != nil {
		return nil, nil, fmt.Errorf("mlkem768: unmarshal peer public key: %w", err)
	}
	ct, ss, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, nil, fmt.Errorf("mlkem768: encapsulate: %w", err)
	}
	return ct, ss, nil
}

func (kp *mlkem768KeyPair) Encapsulate() (ciphertext, sharedSecret []byte, err error) {
	return EncapsulateMLKEM768(kp.pubRaw)
}

func (kp *mlkem768KeyPair) Decapsulate(ciphertext []byte) ([]byte, error) {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.zeroed {
		return nil, skcrypto.ErrKeyZeroized
	}
	ss, err := kp.scheme.Decapsulate(kp.priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("mlkem768: decapsulate: %w", err)
	}
	return ss, nil
}

func (kp *mlkem768KeyPair) Zeroize() {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.zeroed {
		return
	}
	zero(kp.privRaw)
	kp.priv = nil
	kp.zeroed = true
}

// zero overwrites the given slice in place. Used by the key types in
// this package when they are zeroized.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
