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

// Package identity manages the three long-term key purposes a device
// holds (protocol signing, Secure-Enclave proof-of-possession, and
// per-suite KEM identity keys) and the trust store used for peer
// identity pinning and key-upgrade migration.
package identity

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/suite"
)

// Sentinel errors, wrapped with %w at call sites.
var (
	ErrSecureEnclavePoPRequired     = errors.New("identity: secure_enclave_pop_required")
	ErrSecureEnclaveSignatureInvalid = errors.New("identity: secure_enclave_signature_invalid")
	ErrIdentityMismatch             = errors.New("identity: identity_mismatch")
	ErrInvalidKeyLength              = errors.New("identity: invalid key length for algorithm")
	ErrUnsupportedSignatureAlgorithm = errors.New("identity: unsupported signature algorithm")
	ErrKeyUpgradeRejected            = errors.New("identity: key upgrade rejected")
)

// PublicKeyBytes extracts the raw public key encoding from a
// skcrypto.KeyPair, independent of its concrete algorithm. Used for
// fingerprinting and for populating the wire identity_public_key
// structure.
func PublicKeyBytes(kp skcrypto.KeyPair) ([]byte, error) {
	switch pub := kp.PublicKey().(type) {
	case ed25519.PublicKey:
		return append([]byte{}, pub...), nil
	case *mldsa65.PublicKey:
		return pub.MarshalBinary()
	case *ecdsa.PublicKey:
		return keys.MarshalP256PublicKey(pub), nil
	default:
		return nil, fmt.Errorf("identity: unsupported public key type %T", pub)
	}
}

// SignatureAlgorithmFromKeyType maps a crypto.KeyType to the
// suite.SignatureAlgorithm it backs.
func SignatureAlgorithmFromKeyType(kt skcrypto.KeyType) (suite.SignatureAlgorithm, error) {
	switch kt {
	case skcrypto.KeyTypeEd25519:
		return suite.SigEd25519, nil
	case skcrypto.KeyTypeMLDSA65:
		return suite.SigMLDSA65, nil
	case skcrypto.KeyTypeP256ECDSA:
		return suite.SigP256ECDSA, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSignatureAlgorithm, kt)
	}
}

// keyTypeForSignatureAlgorithm is the inverse of
// SignatureAlgorithmFromKeyType, used by get_or_create_protocol_signing_key.
func keyTypeForSignatureAlgorithm(alg suite.SignatureAlgorithm) (skcrypto.KeyType, error) {
	switch alg {
	case suite.SigEd25519:
		return skcrypto.KeyTypeEd25519, nil
	case suite.SigMLDSA65:
		return skcrypto.KeyTypeMLDSA65, nil
	default:
		return "", fmt.Errorf("%w: %s is not valid for protocol signing", ErrUnsupportedSignatureAlgorithm, alg)
	}
}
