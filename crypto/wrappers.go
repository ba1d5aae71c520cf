package crypto

import "fmt"

// This file provides wrapper indirection so that Manager (in this
// package) can construct concrete key types implemented in
// crypto/keys without crypto/keys importing this package back — the
// same import-cycle avoidance the teacher repo uses, generalized from
// two key types to a per-KeyType generator map.

var (
	keyGenerators map[KeyType]func() (KeyPair, error)
	kemGenerators map[KeyType]func() (KEMKeyPair, error)
	storageCtor   func() KeyStorage
)

// SetKeyGenerators registers signing-key constructors by KeyType.
// Called once from an init-wiring package (internal/cryptoinit).
func SetKeyGenerators(generators map[KeyType]func() (KeyPair, error)) {
	keyGenerators = generators
}

// SetKEMGenerators registers KEM-key constructors by KeyType.
func SetKEMGenerators(generators map[KeyType]func() (KEMKeyPair, error)) {
	kemGenerators = generators
}

// SetStorageConstructor registers the default KeyStorage constructor.
func SetStorageConstructor(ctor func() KeyStorage) {
	storageCtor = ctor
}

// NewKeyPair generates a signing key pair of the given type.
func NewKeyPair(kt KeyType) (KeyPair, error) {
	gen, ok := keyGenerators[kt]
	if !ok {
		return nil, fmt.Errorf("%w: no signing generator for %s", ErrInvalidKeyType, kt)
	}
	return gen()
}

// NewKEMKeyPair generates a KEM key pair of the given type.
func NewKEMKeyPair(kt KeyType) (KEMKeyPair, error) {
	gen, ok := kemGenerators[kt]
	if !ok {
		return nil, fmt.Errorf("%w: no KEM generator for %s", ErrInvalidKeyType, kt)
	}
	return gen()
}

// NewDefaultStorage constructs the default KeyStorage backend.
func NewDefaultStorage() KeyStorage {
	if storageCtor == nil {
		panic("crypto: storage constructor not initialized; import internal/cryptoinit")
	}
	return storageCtor()
}
