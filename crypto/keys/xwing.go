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
	"github.com/cloudflare/circl/kem/xwing"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// X-Wing hybrid KEM sizes (classical X25519 (+) ML-KEM-768), used by
// the identity manager's length-validation table (spec §4.6).
var (
	XWingPublicKeySize  = xwing.Scheme().PublicKeySize()
	XWingPrivateKeySize = xwing.Scheme().PrivateKeySize()
)

type xwingKeyPair struct {
	mu      sync.Mutex
	pub     kem.PublicKey
	priv    kem.PrivateKey
	pubRaw  []byte
	privRaw []byte
	id      string
	zeroed  bool
}

// GenerateXWingKeyPair generates a fresh X-Wing hybrid identity key pair.
func GenerateXWingKeyPair() (skcrypto.KEMKeyPair, error) {
	scheme := xwing.Scheme()
	pub, priv, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("xwing: generate key pair: %w", err)
	}
	return newXWingKeyPair(pub, priv)
}

// NewXWingKeyPairFromPrivate reconstructs a key pair from a persisted
// private key (the X-Wing seed).
func NewXWingKeyPairFromPrivate(raw []byte) (skcrypto.KEMKeyPair, error) {
	scheme := xwing.Scheme()
	if len(raw) != scheme.PrivateKeySize() {
		return nil, fmt.Errorf("%w: xwing private key must be %d bytes, got %d",
			skcrypto.ErrInvalidKeyFormat, scheme.PrivateKeySize(), len(raw))
	}
	priv, err := scheme.UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("xwing: unmarshal private key: %w", err)
	}
	return newXWingKeyPair(priv.Public(), priv)
}

func newXWingKeyPair(pub kem.PublicKey, priv kem.PrivateKey) (*xwingKeyPair, error) {
	pubRaw, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("xwing: marshal public key: %w", err)
	}
	privRaw, err := priv.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("xwing: marshal private key: %w", err)
	}
	hash := sha256.Sum256(pubRaw)
	return &xwingKeyPair{
		pub: pub, priv: priv, pubRaw: pubRaw, privRaw: privRaw,
		id: hex.EncodeToString(hash[:8]),
	}, nil
}

func (kp *xwingKeyPair) PublicKey() []byte      { return kp.pubRaw }
func (kp *xwingKeyPair) Type() skcrypto.KeyType { return skcrypto.KeyTypeXWing }
func (kp *xwingKeyPair) ID() string             { return kp.id }

// EncapsulateXWing encapsulates against a raw peer public key.
func EncapsulateXWing(peerPub []byte) (ciphertext, sharedSecret []byte, err error) {
	scheme := xwing.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(peerPub)
	if err != nil {
		return nil, nil, fmt.Errorf("xwing: unmarshal peer public key: %w", err)
	}
	ct, ss, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, nil, fmt.Errorf("xwing: encapsulate: %w", err)
	}
	return ct, ss, nil
}

func (kp *xwingKeyPair) Encapsulate() (ciphertext, sharedSecret []byte, err error) {
	return EncapsulateXWing(kp.pubRaw)
}

func (kp *xwingKeyPair) Decapsulate(ciphertext []byte) ([]byte, error) {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.zeroed {
		return nil, skcrypto.ErrKeyZeroized
	}
	ss, err := xwing.Scheme().Decapsulate(kp.priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("xwing: decapsulate: %w", err)
	}
	return ss, nil
}

func (kp *xwingKeyPair) Zeroize() {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.zeroed {
		return
	}
	zero(kp.privRaw)
	kp.priv = nil
	kp.zeroed = true
}
