package identity

import (
	"fmt"
	"sync"
	"time"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
	"github.com/skybridge-project/skybridge/suite"
)

// EventSink receives the named security events a manager emits. It is
// kept as a minimal local interface (rather than importing
// internal/events) so this package has no dependency on the ambient
// logging stack; internal/events.Sink satisfies it.
type EventSink interface {
	Emit(name string, fields map[string]any)
}

type noopSink struct{}

func (noopSink) Emit(string, map[string]any) {}

// KEMIdentityRecord is the persisted shape of one per-suite KEM
// identity key pair (spec §6 "Persisted state": "KEM identity records
// as {suite_wire_id, public, private, created_at} JSON-encoded").
type KEMIdentityRecord struct {
	SuiteWireID uint16    `json:"suite_wire_id"`
	Public      []byte    `json:"public"`
	Private     []byte    `json:"private"`
	CreatedAt   time.Time `json:"created_at"`
}

// Manager is the single in-process identity key manager (spec §4.6 /
// §5 "Long-term identity keys: a single in-process identity manager,
// operations are serialized"). It owns the protocol signing key(s),
// the optional Secure-Enclave PoP key, and the per-suite KEM identity
// keys, and enforces the SE-PoP pair invariant.
type Manager struct {
	mu sync.Mutex

	storage skcrypto.KeyStorage
	events  EventSink

	protocolKeys map[suite.SignatureAlgorithm]skcrypto.KeyPair

	sePoPHandle    *KeyHandle
	sePoPPublicKey []byte

	kemKeys map[suite.ID]skcrypto.KEMKeyPair
}

// NewManager constructs an identity key manager over the given signing
// key storage backend. Pass a nil sink to discard events.
func NewManager(storage skcrypto.KeyStorage, sink EventSink) *Manager {
	if sink == nil {
		sink = noopSink{}
	}
	return &Manager{
		storage:      storage,
		events:       sink,
		protocolKeys: make(map[suite.SignatureAlgorithm]skcrypto.KeyPair),
		kemKeys:      make(map[suite.ID]skcrypto.KEMKeyPair),
	}
}

// protocolKeyStorageID names the persisted-storage slot for a
// protocol signing key of the given algorithm. Both variants may
// coexist (spec §4.6 point 1), so the algorithm is part of the id.
func protocolKeyStorageID(alg suite.SignatureAlgorithm) string {
	return "protocol-signing/" + string(alg)
}

// GetOrCreateProtocolSigningKey implements
// get_or_create_protocol_signing_key(algorithm) -> (public_key,
// key_handle) (spec §4.6 point 1). alg must be a valid protocol
// signing algorithm (ed25519 or mldsa65); p256_ecdsa is rejected.
func (m *Manager) GetOrCreateProtocolSigningKey(alg suite.SignatureAlgorithm) ([]byte, KeyHandle, error) {
	if !alg.IsProtocolSigning() {
		return nil, KeyHandle{}, fmt.Errorf("%w: %s is not valid for protocol signing", ErrUnsupportedSignatureAlgorithm, alg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if kp, ok := m.protocolKeys[alg]; ok {
		pub, err := PublicKeyBytes(kp)
		if err != nil {
			return nil, KeyHandle{}, err
		}
		handle, err := NewSoftwareHandle(kp)
		return pub, handle, err
	}

	id := protocolKeyStorageID(alg)
	if m.storage.Exists(id) {
		kp, err := m.storage.Load(id)
		if err != nil {
			return nil, KeyHandle{}, fmt.Errorf("identity: load protocol signing key: %w", err)
		}
		m.protocolKeys[alg] = kp
		pub, err := PublicKeyBytes(kp)
		if err != nil {
			return nil, KeyHandle{}, err
		}
		handle, err := NewSoftwareHandle(kp)
		return pub, handle, err
	}

	kt, err := keyTypeForSignatureAlgorithm(alg)
	if err != nil {
		return nil, KeyHandle{}, err
	}
	kp, err := skcrypto.NewKeyPair(kt)
	if err != nil {
		return nil, KeyHandle{}, fmt.Errorf("identity: generate protocol signing key: %w", err)
	}
	if err := m.storage.Store(id, kp); err != nil {
		return nil, KeyHandle{}, fmt.Errorf("identity: persist protocol signing key: %w", err)
	}
	m.protocolKeys[alg] = kp

	pub, err := PublicKeyBytes(kp)
	if err != nil {
		return nil, KeyHandle{}, err
	}
	handle, err := NewSoftwareHandle(kp)
	return pub, handle, err
}

// EnableSecureEnclavePoP registers the SE-PoP public key and signing
// handle as a pair. Both must be supplied together; there is no path
// that sets one without the other, which is what keeps the pair
// invariant intact going forward.
func (m *Manager) EnableSecureEnclavePoP(publicKey []byte, handle KeyHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sePoPPublicKey = append([]byte{}, publicKey...)
	h := handle
	m.sePoPHandle = &h
}

// DisableSecureEnclavePoP clears both halves of the SE-PoP pair at
// once (e.g. the platform entitlement was revoked).
func (m *Manager) DisableSecureEnclavePoP() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sePoPPublicKey = nil
	m.sePoPHandle = nil
}

// SecureEnclavePoP returns the SE-PoP handle and public key if, and
// only if, both halves of the pair invariant hold. requireSEPoP
// controls the error returned when SE-PoP is unavailable: a hard
// ErrSecureEnclavePoPRequired failure when the caller's policy demands
// it, a soft "disabled" (ok=false, err=nil) otherwise. An inconsistent
// half-present state always emits sePoP_inconsistent_state_detected.
func (m *Manager) SecureEnclavePoP(requireSEPoP bool) (handle KeyHandle, publicKey []byte, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hasHandle := m.sePoPHandle != nil
	hasPublicKey := len(m.sePoPPublicKey) > 0

	if hasHandle != hasPublicKey {
		state := "handle_without_public_key"
		if hasPublicKey {
			state = "public_key_without_handle"
		}
		m.events.Emit("sePoP_inconsistent_state_detected", map[string]any{"state": state})
		if requireSEPoP {
			return KeyHandle{}, nil, false, ErrSecureEnclavePoPRequired
		}
		return KeyHandle{}, nil, false, nil
	}

	if !hasHandle {
		if requireSEPoP {
			return KeyHandle{}, nil, false, ErrSecureEnclavePoPRequired
		}
		return KeyHandle{}, nil, false, nil
	}

	return *m.sePoPHandle, m.sePoPPublicKey, true, nil
}

// GetOrCreateKEMIdentityKey returns the per-suite KEM identity key
// pair for suiteID, generating and caching one on first use (spec
// §4.6 point 3: "One keypair per (suite_wire_id, provider_tier)").
func (m *Manager) GetOrCreateKEMIdentityKey(suiteID suite.ID) (skcrypto.KEMKeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if kp, ok := m.kemKeys[suiteID]; ok {
		return kp, nil
	}

	s, err := suite.Lookup(suiteID)
	if err != nil {
		return nil, err
	}
	kt, err := kemKeyTypeForSuite(s)
	if err != nil {
		return nil, err
	}
	kp, err := skcrypto.NewKEMKeyPair(kt)
	if err != nil {
		return nil, fmt.Errorf("identity: generate KEM identity key for suite 0x%04x: %w", uint16(suiteID), err)
	}
	m.kemKeys[suiteID] = kp
	return kp, nil
}

// ImportKEMIdentityRecord adopts a persisted KEMIdentityRecord as the
// cached key for its suite, provided its lengths pass
// ValidateKEMKeyLengths (the migration path for pre-tier-tagging
// records, spec §4.6 point 3).
func (m *Manager) ImportKEMIdentityRecord(rec KEMIdentityRecord, rebuild func(suiteID suite.ID, public, private []byte) (skcrypto.KEMKeyPair, error)) error {
	suiteID := suite.ID(rec.SuiteWireID)
	if err := ValidateKEMKeyLengths(suiteID, rec.Public, rec.Private); err != nil {
		return err
	}
	kp, err := rebuild(suiteID, rec.Public, rec.Private)
	if err != nil {
		return fmt.Errorf("identity: rebuild KEM identity key: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kemKeys[suiteID] = kp
	return nil
}

// kemKeyTypeForSuite maps a negotiable cipher suite to the KeyType its
// KEM identity key is generated under. Classical suites use X25519;
// PQC and hybrid suites use their respective KEM.
func kemKeyTypeForSuite(s suite.Suite) (skcrypto.KeyType, error) {
	switch s.WireID {
	case suite.X25519Ed25519:
		return skcrypto.KeyTypeX25519, nil
	case suite.MLKEM768MLDSA65:
		return skcrypto.KeyTypeMLKEM768, nil
	case suite.XWingMLDSA:
		return skcrypto.KeyTypeXWing, nil
	case suite.P256ECDSA:
		return skcrypto.KeyTypeX25519, nil
	default:
		return "", fmt.Errorf("identity: no KEM key type mapping for suite %s", s.Name)
	}
}
