// Package crypto provides the cryptographic key-pair and key-storage
// abstractions used by the handshake core. Concrete algorithm
// implementations live in the crypto/keys subpackage; this file is
// intentionally minimal to avoid import cycles between crypto/keys,
// crypto/storage and crypto/rotation.
package crypto

import (
	"crypto"
	"errors"
	"time"
)

// KeyType identifies the concrete algorithm backing a KeyPair or
// KEMKeyPair.
type KeyType string

const (
	KeyTypeEd25519  KeyType = "Ed25519"
	KeyTypeMLDSA65  KeyType = "MLDSA65"
	KeyTypeP256ECDSA KeyType = "P256ECDSA"
	KeyTypeX25519   KeyType = "X25519"
	KeyTypeMLKEM768 KeyType = "MLKEM768"
	KeyTypeXWing    KeyType = "XWing"
)

// KeyPair is a signing key pair: the protocol signing keys (Ed25519,
// ML-DSA-65) and the legacy/Secure-Enclave verifier (P-256) all
// implement this.
type KeyPair interface {
	PublicKey() crypto.PublicKey
	PrivateKey() crypto.PrivateKey
	Type() KeyType
	Sign(message []byte) ([]byte, error)
	Verify(message, signature []byte) error
	ID() string
}

// KEMKeyPair is a key-encapsulation key pair: the classical X25519 DH
// key and the PQC/hybrid KEM identity keys.
type KEMKeyPair interface {
	PublicKey() []byte
	Type() KeyType
	ID() string
	// Encapsulate produces (ciphertext, sharedSecret) against this
	// key pair's public key.
	Encapsulate() (ciphertext, sharedSecret []byte, err error)
	// Decapsulate recovers the shared secret from a ciphertext
	// produced against this key pair's public key.
	Decapsulate(ciphertext []byte) (sharedSecret []byte, err error)
	// Zeroize destroys the private key material the key pair holds
	// and makes later Decapsulate calls fail. Idempotent.
	Zeroize()
}

// KeyStorage provides storage for signing KeyPairs, keyed by an
// opaque string ID (spec §6: "Persisted state ... opaque to this
// spec beyond lengths and tags").
type KeyStorage interface {
	Store(id string, keyPair KeyPair) error
	Load(id string) (KeyPair, error)
	Delete(id string) error
	List() ([]string, error)
	Exists(id string) bool
}

// KeyRotationConfig configures KeyRotator.Rotate.
type KeyRotationConfig struct {
	RotationInterval time.Duration
	MaxKeyAge        time.Duration
	KeepOldKeys      bool
}

// KeyRotator rotates long-term protocol signing keys (spec §3,
// "rotated only via an explicit rotate operation").
type KeyRotator interface {
	Rotate(id string) (KeyPair, error)
	SetRotationConfig(config KeyRotationConfig)
	GetRotationHistory(id string) ([]KeyRotationEvent, error)
}

// KeyRotationEvent records one rotation.
type KeyRotationEvent struct {
	Timestamp time.Time
	OldKeyID  string
	NewKeyID  string
	Reason    string
}

// Common sentinel errors, wrapped with %w at call sites.
var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrInvalidKeyType   = errors.New("invalid key type")
	ErrInvalidKeyFormat = errors.New("invalid key format")
	ErrKeyExists        = errors.New("key already exists")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrKeyZeroized      = errors.New("key material has been zeroized")
	ErrAlgorithmExists  = errors.New("algorithm already registered")
	ErrUnknownAlgorithm = errors.New("algorithm not registered")
)

// AlgorithmInfo describes one registered key algorithm: what it's for
// (protocol signing, KEM, or legacy verification) and its capabilities.
type AlgorithmInfo struct {
	KeyType            KeyType
	Name               string
	Description        string
	IsProtocolSigning  bool // valid for sigA/sigB per spec §3
	IsKEM              bool
	SupportsSignature  bool
	SupportsKEM        bool
	SupportsKeyGeneration bool
}

var algorithmRegistry = map[KeyType]AlgorithmInfo{}

// RegisterAlgorithm registers a key algorithm. Called from crypto/keys'
// package init(). Returns ErrAlgorithmExists on duplicate registration.
func RegisterAlgorithm(info AlgorithmInfo) error {
	if _, exists := algorithmRegistry[info.KeyType]; exists {
		return ErrAlgorithmExists
	}
	algorithmRegistry[info.KeyType] = info
	return nil
}

// LookupAlgorithm returns the registered AlgorithmInfo for a KeyType.
func LookupAlgorithm(kt KeyType) (AlgorithmInfo, error) {
	info, ok := algorithmRegistry[kt]
	if !ok {
		return AlgorithmInfo{}, ErrUnknownAlgorithm
	}
	return info, nil
}

// RegisteredAlgorithms returns every registered KeyType, for
// diagnostics.
func RegisteredAlgorithms() []KeyType {
	out := make([]KeyType, 0, len(algorithmRegistry))
	for kt := range algorithmRegistry {
		out = append(out, kt)
	}
	return out
}
