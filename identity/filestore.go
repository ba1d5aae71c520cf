package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileTrustStore is a JSON file-backed TrustStore (spec §6 "Persisted
// state ... trust records as JSON"). Unlike the teacher's config
// loader, which tries YAML before falling back to JSON, trust records
// have no human-edited-YAML use case, so this reads and writes JSON
// only — the rest of the load/save/default shape (read-whole-file,
// unmarshal into an in-memory map, overwrite-whole-file on write) is
// the same pattern.
type FileTrustStore struct {
	mu      sync.Mutex
	path    string
	records map[string]TrustRecord
}

// OpenFileTrustStore loads path if it exists, or starts empty if it
// does not (mirroring LoadFromFile's "missing file -> defaults"
// behavior, adapted to: missing file -> empty store).
func OpenFileTrustStore(path string) (*FileTrustStore, error) {
	s := &FileTrustStore{path: path, records: make(map[string]TrustRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("identity: read trust store file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("identity: parse trust store file: %w", err)
	}
	return s, nil
}

func (s *FileTrustStore) Get(deviceID string) (TrustRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[deviceID]
	return rec, ok, nil
}

func (s *FileTrustStore) Put(record TrustRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DeviceID] = record
	return s.saveLocked()
}

func (s *FileTrustStore) Delete(deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, deviceID)
	return s.saveLocked()
}

func (s *FileTrustStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out, nil
}

// saveLocked writes the whole trust-record map back to path. Callers
// must hold s.mu.
func (s *FileTrustStore) saveLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: marshal trust store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("identity: write trust store file: %w", err)
	}
	return nil
}
