package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skybridge-project/skybridge/transcript"
)

// NewID mints a session identifier for a freshly-established
// handshake. Callers that need both peers to agree on the same ID
// out of band should use keys.FinalTranscriptHash instead (both sides
// compute it identically); NewID is for the common case where the
// initiator assigns an ID and communicates it to the application
// layer that owns the transport.
func NewID() string {
	return GeneralPrefix + uuid.NewString()
}

// Manager owns the set of live sessions for a running process,
// indexed by session ID, with background expiry cleanup.
type Manager struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	defaultConfig Config
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopped       bool
}

// NewManager constructs a Manager with a 1-hour absolute expiration,
// 10-minute idle timeout, and a background sweep every 30 seconds.
func NewManager() *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		defaultConfig: Config{
			MaxAge:      time.Hour,
			IdleTimeout: 10 * time.Minute,
			MaxMessages: 100000,
		},
		stopCleanup: make(chan struct{}),
	}
	m.cleanupTicker = time.NewTicker(30 * time.Second)
	go m.runCleanup()
	return m
}

// CreateSession wraps keys in a new Session under the manager's
// default lifetime configuration and registers it under id.
func (m *Manager) CreateSession(id string, keys transcript.SessionKeys) (*Session, error) {
	return m.CreateSessionWithConfig(id, keys, m.defaultConfig)
}

// CreateSessionWithConfig is CreateSession with an explicit Config.
func (m *Manager) CreateSessionWithConfig(id string, keys transcript.SessionKeys, cfg Config) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session: id %q already registered", id)
	}

	sess, err := New(id, keys, cfg)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = sess
	return sess, nil
}

// GetSession retrieves a session by ID. An expired session is removed
// and reported as not found.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	sess, exists := m.sessions[id]
	m.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if sess.IsExpired() {
		m.RemoveSession(id)
		return nil, false
	}
	return sess, true
}

// RemoveSession closes and unregisters a session.
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, exists := m.sessions[id]; exists {
		sess.Close()
		delete(m.sessions, id)
	}
}

// ListSessions returns all registered session IDs.
func (m *Manager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// GetSessionCount returns the number of registered sessions.
func (m *Manager) GetSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GetSessionStats reports aggregate active/expired counts.
func (m *Manager) GetSessionStats() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Status{TotalSessions: len(m.sessions)}
	for _, sess := range m.sessions {
		if sess.IsExpired() {
			stats.ExpiredSessions++
		} else {
			stats.ActiveSessions++
		}
	}
	return stats
}

// SetDefaultConfig updates the configuration applied by CreateSession.
func (m *Manager) SetDefaultConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = withDefaults(cfg)
}

// Close stops background cleanup and closes every registered session.
// Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.mu.Unlock()

	close(m.stopCleanup)
	m.cleanupTicker.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		sess.Close()
	}
	m.sessions = make(map[string]*Session)
	return nil
}

func (m *Manager) runCleanup() {
	for {
		select {
		case <-m.cleanupTicker.C:
			m.cleanupExpiredSessions()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) cleanupExpiredSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sess := range m.sessions {
		if sess.IsExpired() {
			sess.Close()
			delete(m.sessions, id)
		}
	}
}
