package session

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/skybridge-project/skybridge/transcript"
)

// Session is an established post-handshake directional channel. Seal
// uses SendKey, Open uses ReceiveKey; the two are never the same key
// (spec §4: "a mutually authenticated... directional session-key
// pair"), so the send and receive AEADs are independent instances
// rather than one shared cipher.
type Session struct {
	mu sync.Mutex

	id         string
	createdAt  time.Time
	lastUsedAt time.Time
	config     Config
	closed     bool

	sendKey    []byte
	receiveKey []byte
	sendAEAD   cipher.AEAD
	recvAEAD   cipher.AEAD

	sendCounter     uint64
	highestReceived uint64
	sentCount       int
	receivedCount   int

	finalTranscriptHash [32]byte
}

// New constructs a Session from a handshake's derived key pair. id
// should be a value both peers can agree identifies this session
// (e.g. a caller-assigned uuid bound at the transport layer, or
// keys.FinalTranscriptHash itself) — Session does not mint one.
func New(id string, keys transcript.SessionKeys, cfg Config) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session: empty id")
	}
	if len(keys.SendKey) != chacha20poly1305.KeySize || len(keys.ReceiveKey) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session: session keys must be %d bytes", chacha20poly1305.KeySize)
	}

	sendKey := append([]byte(nil), keys.SendKey...)
	receiveKey := append([]byte(nil), keys.ReceiveKey...)

	sendAEAD, err := chacha20poly1305.New(sendKey)
	if err != nil {
		return nil, fmt.Errorf("session: init send AEAD: %w", err)
	}
	recvAEAD, err := chacha20poly1305.New(receiveKey)
	if err != nil {
		return nil, fmt.Errorf("session: init receive AEAD: %w", err)
	}

	now := time.Now()
	return &Session{
		id:                  id,
		createdAt:           now,
		lastUsedAt:          now,
		config:              withDefaults(cfg),
		sendKey:             sendKey,
		receiveKey:          receiveKey,
		sendAEAD:            sendAEAD,
		recvAEAD:            recvAEAD,
		finalTranscriptHash: keys.FinalTranscriptHash,
	}, nil
}

// nonceFromCounter maps a 64-bit monotonic counter onto a
// chacha20poly1305.NonceSize nonce, left-padded with zero bytes. A
// per-direction counter that only ever increases guarantees a given
// (key, nonce) pair is used at most once, without the birthday-bound
// collision risk of a 12-byte random nonce reused across many frames.
func nonceFromCounter(counter uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[chacha20poly1305.NonceSize-8:], counter)
	return nonce
}

// GetID returns the session identifier.
func (s *Session) GetID() string { return s.id }

// GetCreatedAt returns when the session was created.
func (s *Session) GetCreatedAt() time.Time { return s.createdAt }

// GetLastUsedAt returns the last activity timestamp.
func (s *Session) GetLastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// FinalTranscriptHash returns the handshake transcript hash this
// session is bound to, for out-of-band cross-checking.
func (s *Session) FinalTranscriptHash() [32]byte { return s.finalTranscriptHash }

// IsExpired reports whether the session has been closed or has
// crossed one of its configured lifetime limits.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isExpiredLocked()
}

func (s *Session) isExpiredLocked() bool {
	if s.closed {
		return true
	}
	now := time.Now()
	if s.config.MaxAge > 0 && now.After(s.createdAt.Add(s.config.MaxAge)) {
		return true
	}
	if s.config.IdleTimeout > 0 && now.After(s.lastUsedAt.Add(s.config.IdleTimeout)) {
		return true
	}
	if s.config.MaxMessages > 0 && s.sentCount+s.receivedCount >= s.config.MaxMessages {
		return true
	}
	return false
}

func (s *Session) touchLocked() {
	s.lastUsedAt = time.Now()
}

// Close zeroizes the directional keys and marks the session unusable.
// Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	zero(s.sendKey)
	zero(s.receiveKey)
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GetMessageCount returns the combined number of frames sealed and
// opened so far.
func (s *Session) GetMessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentCount + s.receivedCount
}

// GetConfig returns the session's configured lifetime limits.
func (s *Session) GetConfig() Config {
	return s.config
}

// Seal encrypts plaintext under SendKey and the next send-direction
// nonce counter. Output format: counter:u64be || ciphertext-with-tag.
func (s *Session) Seal(plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isExpiredLocked() {
		return nil, fmt.Errorf("session: sealed on expired or closed session")
	}

	s.sendCounter++
	nonce := nonceFromCounter(s.sendCounter)
	ciphertext := s.sendAEAD.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 8+len(ciphertext))
	binary.BigEndian.PutUint64(out[:8], s.sendCounter)
	copy(out[8:], ciphertext)

	s.sentCount++
	s.touchLocked()
	return out, nil
}

// Open decrypts a frame produced by the peer's Seal. It rejects any
// counter at or below the highest one already accepted, which refuses
// both exact replays and frames delivered out of order.
func (s *Session) Open(frame []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isExpiredLocked() {
		return nil, fmt.Errorf("session: opened on expired or closed session")
	}
	if len(frame) < 8+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("session: frame too short")
	}

	counter := binary.BigEndian.Uint64(frame[:8])
	if counter <= s.highestReceived {
		return nil, fmt.Errorf("session: replayed or out-of-order counter %d", counter)
	}

	nonce := nonceFromCounter(counter)
	plaintext, err := s.recvAEAD.Open(nil, nonce, frame[8:], nil)
	if err != nil {
		return nil, fmt.Errorf("session: open failed: %w", err)
	}

	s.highestReceived = counter
	s.receivedCount++
	s.touchLocked()
	return plaintext, nil
}
