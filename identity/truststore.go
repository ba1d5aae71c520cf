package identity

import (
	"sort"
	"sync"
	"time"

	"github.com/skybridge-project/skybridge/suite"
)

// TrustRecord is a pinned peer identity (spec §4.6 TrustRecord; §4.2
// field list). KEMPublicKeys and the SE-PoP public key are optional;
// LegacyP256PublicKey is set only for peers still pinned under the
// pre-upgrade legacy verifier.
type TrustRecord struct {
	DeviceID               string             `json:"device_id"`
	PubKeyFingerprint       string             `json:"pub_key_fingerprint"`
	ProtocolPublicKey       []byte             `json:"protocol_public_key"`
	SignatureAlgorithm      suite.SignatureAlgorithm `json:"signature_algorithm"`
	LegacyP256PublicKey     []byte             `json:"legacy_p256_public_key,omitempty"`
	AllowsLegacyFallback    bool               `json:"allows_legacy_fallback"`
	KEMPublicKeys           map[suite.ID][]byte `json:"kem_public_keys,omitempty"`
	SecureEnclavePublicKey  []byte             `json:"secure_enclave_public_key,omitempty"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// TrustStore provides, by device_id: trusted fingerprint, trusted
// per-suite KEM public keys, trusted SE-PoP public key (spec §4.6).
// It is read-mostly; writes go through Put (spec §5 shared-resource
// policy).
type TrustStore interface {
	Get(deviceID string) (TrustRecord, bool, error)
	Put(record TrustRecord) error
	Delete(deviceID string) error
	List() ([]string, error)
}

// MemoryTrustStore is an in-process TrustStore, guarded by a
// read-write mutex so readers see a consistent snapshot per spec §5.
type MemoryTrustStore struct {
	mu      sync.RWMutex
	records map[string]TrustRecord
}

// NewMemoryTrustStore constructs an empty in-memory trust store.
func NewMemoryTrustStore() *MemoryTrustStore {
	return &MemoryTrustStore{records: make(map[string]TrustRecord)}
}

func (s *MemoryTrustStore) Get(deviceID string) (TrustRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[deviceID]
	return rec, ok, nil
}

func (s *MemoryTrustStore) Put(record TrustRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DeviceID] = record
	return nil
}

func (s *MemoryTrustStore) Delete(deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, deviceID)
	return nil
}

func (s *MemoryTrustStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
