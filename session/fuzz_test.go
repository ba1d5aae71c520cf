package session

import (
	"testing"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/skybridge-project/skybridge/transcript"
)

func sessionKeysFor(send, receive []byte) transcript.SessionKeys {
	return transcript.SessionKeys{SendKey: send, ReceiveKey: receive}
}

// FuzzSessionSealOpenRoundTrip checks that anything Seal produces for
// a random plaintext either Opens back to the same bytes on the
// mirrored peer session, or fails closed — it must never panic and
// must never silently return different bytes than were sealed.
func FuzzSessionSealOpenRoundTrip(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("hello"))
	f.Add([]byte{0x00, 0x01, 0x02, 0x03})
	f.Add(make([]byte, 4096))

	sendKey := make([]byte, chacha20poly1305.KeySize)
	receiveKey := make([]byte, chacha20poly1305.KeySize)
	for i := range sendKey {
		sendKey[i] = byte(i)
	}
	for i := range receiveKey {
		receiveKey[i] = byte(255 - i)
	}

	f.Fuzz(func(t *testing.T, plaintext []byte) {
		keys := sessionKeysFor(sendKey, receiveKey)
		sess, err := New("sess-fuzz", keys, Config{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		peer, err := New("sess-fuzz", sessionKeysFor(receiveKey, sendKey), Config{})
		if err != nil {
			t.Fatalf("New (peer): %v", err)
		}

		frame, err := sess.Seal(plaintext)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}

		opened, err := peer.Open(frame)
		if err != nil {
			t.Fatalf("Open of our own frame must succeed: %v", err)
		}
		if string(opened) != string(plaintext) {
			t.Fatalf("round trip mismatch: got %q want %q", opened, plaintext)
		}
	})
}

// FuzzSessionOpenNeverPanicsOnGarbage feeds arbitrary bytes into Open
// and requires it to fail closed rather than panic.
func FuzzSessionOpenNeverPanicsOnGarbage(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0, 0, 0, 0, 0, 0, 0, 1})
	f.Add(make([]byte, 64))

	keys := sessionKeysFor(make([]byte, chacha20poly1305.KeySize), make([]byte, chacha20poly1305.KeySize))

	f.Fuzz(func(t *testing.T, garbage []byte) {
		sess, err := New("sess-fuzz", keys, Config{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		_, _ = sess.Open(garbage) // must not panic regardless of outcome
	})
}
