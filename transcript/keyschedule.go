package transcript

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/skybridge-project/skybridge/suite"
)

// kdfInfoLabel and saltLabel are the fixed domain-separation prefixes
// for the handshake key schedule (spec §4.2 "Key derivation").
var (
	kdfInfoLabel = []byte("SkyBridge-KDF")
	saltLabel    = []byte("SkyBridge-KDF-Salt-v1|")
)

// directional info suffixes.
var (
	i2rSuffix = []byte("handshake|initiator_to_responder")
	r2iSuffix = []byte("handshake|responder_to_initiator")
)

const sessionKeySize = 32

// SessionKeys is the output of the key schedule: directional traffic
// keys plus the negotiation context needed to build a session.
type SessionKeys struct {
	SendKey             [sessionKeySize]byte
	ReceiveKey          [sessionKeySize]byte
	FinalTranscriptHash [32]byte
}

// DeriveSessionKeys implements the key schedule shared between both
// sides (spec §4.2):
//
//	kdf_info = "SkyBridge-KDF" || suite_wire_id_le(2B) || transcriptA || transcriptB || client_nonce || server_nonce
//	salt = SHA256("SkyBridge-KDF-Salt-v1|" || kdf_info)
//	I2R_info = kdf_info || "handshake|initiator_to_responder"
//	R2I_info = kdf_info || "handshake|responder_to_initiator"
//	send_key = HKDF-SHA256(shared_secret, salt, role==initiator?I2R:R2I, 32)
//	receive_key = HKDF-SHA256(shared_secret, salt, role==initiator?R2I:I2R, 32)
//	final_transcript_hash = SHA256(transcriptA || transcriptB)
func DeriveSessionKeys(isInitiator bool, sharedSecret []byte, suiteID suite.ID, transcriptA, transcriptB, clientNonce, serverNonce []byte) (SessionKeys, error) {
	var wireIDLE [2]byte
	binary.LittleEndian.PutUint16(wireIDLE[:], uint16(suiteID))

	kdfInfo := make([]byte, 0, len(kdfInfoLabel)+2+len(transcriptA)+len(transcriptB)+len(clientNonce)+len(serverNonce))
	kdfInfo = append(kdfInfo, kdfInfoLabel...)
	kdfInfo = append(kdfInfo, wireIDLE[:]...)
	kdfInfo = append(kdfInfo, transcriptA...)
	kdfInfo = append(kdfInfo, transcriptB...)
	kdfInfo = append(kdfInfo, clientNonce...)
	kdfInfo = append(kdfInfo, serverNonce...)

	saltInput := make([]byte, 0, len(saltLabel)+len(kdfInfo))
	saltInput = append(saltInput, saltLabel...)
	saltInput = append(saltInput, kdfInfo...)
	salt := sha256.Sum256(saltInput)

	i2rInfo := append(append([]byte{}, kdfInfo...), i2rSuffix...)
	r2iInfo := append(append([]byte{}, kdfInfo...), r2iSuffix...)

	sendInfo, receiveInfo := r2iInfo, i2rInfo
	if isInitiator {
		sendInfo, receiveInfo = i2rInfo, r2iInfo
	}

	var out SessionKeys
	sendKey, err := hkdfExpand(sharedSecret, salt[:], sendInfo)
	if err != nil {
		return SessionKeys{}, fmt.Errorf("transcript: derive send_key: %w", err)
	}
	copy(out.SendKey[:], sendKey)

	receiveKey, err := hkdfExpand(sharedSecret, salt[:], receiveInfo)
	if err != nil {
		return SessionKeys{}, fmt.Errorf("transcript: derive receive_key: %w", err)
	}
	copy(out.ReceiveKey[:], receiveKey)

	out.FinalTranscriptHash = sha256.Sum256(append(append([]byte{}, transcriptA...), transcriptB...))
	return out, nil
}

func hkdfExpand(ikm, salt, info []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, sessionKeySize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FinishedDomainTag is the domain separator for the FINISHED MAC key
// derivation (spec §4.1 "FINISHED key confirmation").
var FinishedDomainTag = []byte("SkyBridge-FINISHED")

// FinishedDirection names the two FINISHED MAC directions used in the
// mac_key info string.
type FinishedDirection string

const (
	FinishedI2R FinishedDirection = "I2R"
	FinishedR2I FinishedDirection = "R2I"
)

// DeriveFinishedMACKey derives mac_key = HKDF-SHA256(base_key, salt=∅,
// info="SkyBridge-FINISHED|<I2R|R2I>|" || transcript_hash, 32), where
// base_key is the receive-side key from the verifier's perspective
// (spec §4.1).
func DeriveFinishedMACKey(baseKey []byte, direction FinishedDirection, transcriptHash []byte) ([]byte, error) {
	info := make([]byte, 0, len(FinishedDomainTag)+1+len(direction)+1+len(transcriptHash))
	info = append(info, FinishedDomainTag...)
	info = append(info, '|')
	info = append(info, []byte(direction)...)
	info = append(info, '|')
	info = append(info, transcriptHash...)
	return hkdfExpand(baseKey, nil, info)
}
