package identity

import (
	"errors"
	"fmt"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
)

// HandleKind tags the variant a KeyHandle carries (spec §4.6
// "Key-handle polymorphism").
type HandleKind int

const (
	// HandleSoftware wraps an in-process skcrypto.KeyPair; its public
	// key bytes are extracted at construction.
	HandleSoftware HandleKind = iota
	// HandleHardware is a platform-specific opaque reference (e.g. a
	// Secure-Enclave key tag) with no exportable private key.
	HandleHardware
	// HandleCallback defers signing to an external HSM or remote
	// signer reachable only through a function value.
	HandleCallback
)

// SignFunc is the callback shape for HandleCallback key handles.
type SignFunc func(message []byte) ([]byte, error)

// KeyHandle is a tagged variant over the three ways a signing key may
// be represented. Exactly one of the payload fields is populated,
// matching Kind.
type KeyHandle struct {
	Kind HandleKind

	software skcrypto.KeyPair
	hardware string
	callback SignFunc

	publicKey []byte
}

var ErrInvalidHandleKind = errors.New("identity: invalid key handle kind")

// NewSoftwareHandle wraps a software KeyPair. PublicKeyBytes is
// derived immediately so the handle never needs to re-enter the
// concrete key-pair type afterward.
func NewSoftwareHandle(kp skcrypto.KeyPair) (KeyHandle, error) {
	pub, err := PublicKeyBytes(kp)
	if err != nil {
		return KeyHandle{}, err
	}
	return KeyHandle{Kind: HandleSoftware, software: kp, publicKey: pub}, nil
}

// NewHardwareHandle wraps an opaque platform reference (e.g. a
// Secure-Enclave key tag) together with the public key the platform
// reports for it; the private key never leaves hardware.
func NewHardwareHandle(reference string, publicKey []byte) KeyHandle {
	return KeyHandle{Kind: HandleHardware, hardware: reference, publicKey: append([]byte{}, publicKey...)}
}

// NewCallbackHandle wraps a remote-sign callback (HSM, enclave RPC)
// together with the public key it corresponds to.
func NewCallbackHandle(sign SignFunc, publicKey []byte) KeyHandle {
	return KeyHandle{Kind: HandleCallback, callback: sign, publicKey: append([]byte{}, publicKey...)}
}

// PublicKey returns the raw public key bytes regardless of variant.
func (h KeyHandle) PublicKey() []byte { return h.publicKey }

// Sign dispatches to the appropriate backing implementation. Hardware
// handles have no sign path and always return ErrInvalidHandleKind; a
// hardware key that signs is represented by a HandleCallback handle.
func (h KeyHandle) Sign(message []byte) ([]byte, error) {
	switch h.Kind {
	case HandleSoftware:
		return h.software.Sign(message)
	case HandleCallback:
		return h.callback(message)
	case HandleHardware:
		return nil, fmt.Errorf("%w: hardware handle has no direct sign path, wrap in a callback", ErrInvalidHandleKind)
	default:
		return nil, ErrInvalidHandleKind
	}
}
