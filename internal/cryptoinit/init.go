// Package cryptoinit wires the concrete crypto/keys and crypto/storage
// implementations into the crypto package's generator maps. It exists
// purely to break the import cycle crypto/keys would otherwise have
// with crypto (crypto/keys imports crypto for its interfaces, so
// crypto cannot import crypto/keys back) — importing this package for
// its side effect is required before calling crypto.NewKeyPair,
// crypto.NewKEMKeyPair, or crypto.NewDefaultStorage.
package cryptoinit

import (
	skcrypto "github.com/skybridge-project/skybridge/crypto"
	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/crypto/storage"
)

func init() {
	skcrypto.SetKeyGenerators(map[skcrypto.KeyType]func() (skcrypto.KeyPair, error){
		skcrypto.KeyTypeEd25519:   func() (skcrypto.KeyPair, error) { return keys.GenerateEd25519KeyPair() },
		skcrypto.KeyTypeMLDSA65:   func() (skcrypto.KeyPair, error) { return keys.GenerateMLDSA65KeyPair() },
		skcrypto.KeyTypeP256ECDSA: func() (skcrypto.KeyPair, error) { return keys.GenerateP256KeyPair() },
	})

	skcrypto.SetKEMGenerators(map[skcrypto.KeyType]func() (skcrypto.KEMKeyPair, error){
		skcrypto.KeyTypeX25519:   func() (skcrypto.KEMKeyPair, error) { return keys.GenerateX25519KeyPair() },
		skcrypto.KeyTypeMLKEM768: func() (skcrypto.KEMKeyPair, error) { return keys.GenerateMLKEM768KeyPair() },
		skcrypto.KeyTypeXWing:    func() (skcrypto.KEMKeyPair, error) { return keys.GenerateXWingKeyPair() },
	})

	skcrypto.SetStorageConstructor(func() skcrypto.KeyStorage { return storage.NewMemoryKeyStorage() })
}
