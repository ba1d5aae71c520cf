package handshake

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/skybridge-project/skybridge/suite"
)

const (
	replayTagMessageA byte = 0xA1
	replayTagMessageB byte = 0xB1

	// replayCacheLimit bounds the process-wide replay cache by a
	// sliding count rather than a time window, since handshake ids
	// carry no wall-clock component to window on (spec §5: "entries
	// may be bounded by a sliding window").
	replayCacheLimit = 1 << 16
)

// replayCache is the process-wide, async-safe set of registered
// handshake ids (spec §4.1 "Replay detection").
type replayCache struct {
	mu      sync.Mutex
	seen    map[[32]byte]struct{}
	order   [][32]byte
}

func newReplayCache() *replayCache {
	return &replayCache{seen: make(map[[32]byte]struct{})}
}

var defaultReplayCache = newReplayCache()

// handshakeID computes SHA256(replay_tag || initiator_nonce ||
// responder_nonce || suite_wire_id_le) (spec §4.1).
func handshakeID(tag byte, initiatorNonce, responderNonce []byte, suiteID suite.ID) [32]byte {
	buf := make([]byte, 0, 1+len(initiatorNonce)+len(responderNonce)+2)
	buf = append(buf, tag)
	buf = append(buf, initiatorNonce...)
	buf = append(buf, responderNonce...)
	var wireID [2]byte
	binary.LittleEndian.PutUint16(wireID[:], uint16(suiteID))
	buf = append(buf, wireID[:]...)
	return sha256.Sum256(buf)
}

// registerOrReject registers id if unseen, returning
// ReasonReplayDetected if it was already present.
func (c *replayCache) registerOrReject(id [32]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[id]; dup {
		return Fail(ReasonReplayDetected, "")
	}
	c.seen[id] = struct{}{}
	c.order = append(c.order, id)
	if len(c.order) > replayCacheLimit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	return nil
}

// RegisterMessageAReplay registers the MessageA-reception replay id
// (tag 0xA1).
func RegisterMessageAReplay(initiatorNonce, responderNonce []byte, suiteID suite.ID) error {
	return defaultReplayCache.registerOrReject(handshakeID(replayTagMessageA, initiatorNonce, responderNonce, suiteID))
}

// RegisterMessageBReplay registers the MessageB-reception replay id
// (tag 0xB1).
func RegisterMessageBReplay(initiatorNonce, responderNonce []byte, suiteID suite.ID) error {
	return defaultReplayCache.registerOrReject(handshakeID(replayTagMessageB, initiatorNonce, responderNonce, suiteID))
}
