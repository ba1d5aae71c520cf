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
	"log"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// init registers every key algorithm this module supports. Unlike the
// teacher's registry, P-256 and Secp256k1 are no longer conflated
// behind a single ECDSA entry: P-256 gets its own KeyType so the
// driver can enforce that it is never valid for protocol signing.
func init() {
	if err := skcrypto.RegisterAlgorithm(skcrypto.AlgorithmInfo{
		KeyType:               skcrypto.KeyTypeEd25519,
		Name:                  "Ed25519",
		Description:           "Edwards-curve signature algorithm, protocol signing (sigA/sigB)",
		IsProtocolSigning:     true,
		SupportsSignature:     true,
		SupportsKeyGeneration: true,
	}); err != nil {
		log.Fatalf("keys: register ed25519: %v", err)
	}

	if err := skcrypto.RegisterAlgorithm(skcrypto.AlgorithmInfo{
		KeyType:               skcrypto.KeyTypeMLDSA65,
		Name:                  "ML-DSA-65",
		Description:           "FIPS 204 lattice-based signature algorithm, protocol signing (sigA/sigB)",
		IsProtocolSigning:     true,
		SupportsSignature:     true,
		SupportsKeyGeneration: true,
	}); err != nil {
		log.Fatalf("keys: register mldsa65: %v", err)
	}

	if err := skcrypto.RegisterAlgorithm(skcrypto.AlgorithmInfo{
		KeyType:               skcrypto.KeyTypeP256ECDSA,
		Name:                  "P-256 ECDSA",
		Description:           "Legacy verifier and Secure-Enclave proof-of-possession primitive. Never valid for sigA/sigB.",
		IsProtocolSigning:     false,
		SupportsSignature:     true,
		SupportsKeyGeneration: true,
	}); err != nil {
		log.Fatalf("keys: register p256: %v", err)
	}

	if err := skcrypto.RegisterAlgorithm(skcrypto.AlgorithmInfo{
		KeyType:               skcrypto.KeyTypeX25519,
		Name:                  "X25519",
		Description:           "Classical-suite KEM (Diffie-Hellman key exchange)",
		IsKEM:                 true,
		SupportsKEM:           true,
		SupportsKeyGeneration: true,
	}); err != nil {
		log.Fatalf("keys: register x25519: %v", err)
	}

	if err := skcrypto.RegisterAlgorithm(skcrypto.AlgorithmInfo{
		KeyType:               skcrypto.KeyTypeMLKEM768,
		Name:                  "ML-KEM-768",
		Description:           "FIPS 203 lattice-based KEM, PQC suite",
		IsKEM:                 true,
		SupportsKEM:           true,
		SupportsKeyGeneration: true,
	}); err != nil {
		log.Fatalf("keys: register mlkem768: %v", err)
	}

	if err := skcrypto.RegisterAlgorithm(skcrypto.AlgorithmInfo{
		KeyType:               skcrypto.KeyTypeXWing,
		Name:                  "X-Wing",
		Description:           "Hybrid classical (X25519) + PQC (ML-KEM-768) KEM",
		IsKEM:                 true,
		SupportsKEM:           true,
		SupportsKeyGeneration: true,
	}); err != nil {
		log.Fatalf("keys: register xwing: %v", err)
	}
}
