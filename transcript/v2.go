package transcript

import (
	"fmt"

	"github.com/skybridge-project/skybridge/suite"
)

// V2 TLV tags, in the canonical declaration order the spec fixes
// (spec §4.5 "Canonical ordering is declaration order of the fields
// above"). Tag ranges are reserved: 0x01-0x0F header, 0x10-0x1F
// negotiation, 0x20-0x2F messages, 0x30-0x3F identity, 0xF0-0xFF
// extensions.
const (
	tagDomainSeparator    byte = 0x01
	tagProtocolVersion    byte = 0x02
	tagRole               byte = 0x03
	tagSuiteWireID        byte = 0x10
	tagLocalCapabilities  byte = 0x11
	tagPeerCapabilities   byte = 0x12
	tagPolicy             byte = 0x13
	tagSignatureAlgorithm byte = 0x14
	tagMessageA           byte = 0x20
	tagMessageB           byte = 0x21
	tagInitiatorPublicKey byte = 0x30
	tagResponderPublicKey byte = 0x31
	tagInitiatorNonce     byte = 0x32
	tagResponderNonce     byte = 0x33
)

// extensionTagMin/Max bound the reserved "extensions" TLV range.
// Unknown tags in this range are accepted and ignored on decode
// rather than rejected (spec "Open Questions": left as a policy
// choice; see DESIGN.md).
const (
	extensionTagMin byte = 0xF0
	extensionTagMax byte = 0xFF
)

func putTLV(buf []byte, tag byte, value []byte) []byte {
	buf = append(buf, tag)
	buf = putU32(buf, uint32(len(value)))
	return append(buf, value...)
}

// encodeV2 produces the TLV canonical encoding, in declaration order,
// omitting unset optional fields entirely.
func encodeV2(f Fields) []byte {
	var buf []byte
	buf = putTLV(buf, tagDomainSeparator, DomainSeparator)

	var pv [4]byte
	pv[0], pv[1], pv[2], pv[3] = byte(f.ProtocolVersion>>24), byte(f.ProtocolVersion>>16), byte(f.ProtocolVersion>>8), byte(f.ProtocolVersion)
	buf = putTLV(buf, tagProtocolVersion, pv[:])

	buf = putTLV(buf, tagRole, []byte{byte(f.Role)})
	buf = putTLV(buf, tagSuiteWireID, []byte{byte(f.SuiteWireID >> 8), byte(f.SuiteWireID)})

	if len(f.LocalCapabilities) > 0 {
		buf = putTLV(buf, tagLocalCapabilities, f.LocalCapabilities)
	}
	if len(f.PeerCapabilities) > 0 {
		buf = putTLV(buf, tagPeerCapabilities, f.PeerCapabilities)
	}
	if len(f.Policy) > 0 {
		buf = putTLV(buf, tagPolicy, f.Policy)
	}

	code := sigAlgorithmWireCode(f.SignatureAlgorithm)
	buf = putTLV(buf, tagSignatureAlgorithm, []byte{byte(code >> 8), byte(code)})

	if len(f.InitiatorPublicKey) > 0 {
		buf = putTLV(buf, tagInitiatorPublicKey, f.InitiatorPublicKey)
	}
	if len(f.ResponderPublicKey) > 0 {
		buf = putTLV(buf, tagResponderPublicKey, f.ResponderPublicKey)
	}
	if len(f.InitiatorNonce) > 0 {
		buf = putTLV(buf, tagInitiatorNonce, f.InitiatorNonce)
	}
	if len(f.ResponderNonce) > 0 {
		buf = putTLV(buf, tagResponderNonce, f.ResponderNonce)
	}
	if len(f.MessageABytes) > 0 {
		buf = putTLV(buf, tagMessageA, f.MessageABytes)
	}
	if len(f.MessageBBytes) > 0 {
		buf = putTLV(buf, tagMessageB, f.MessageBBytes)
	}
	return buf
}

// rawTLV is one decoded (tag, value) pair, in encounter order.
type rawTLV struct {
	tag   byte
	value []byte
}

// decodeTLVs parses the flat TLV stream into an ordered list,
// rejecting duplicate tags outright (spec §4.5 "decoders must reject
// duplicate tags").
func decodeTLVs(buf []byte) ([]rawTLV, error) {
	var out []rawTLV
	seen := make(map[byte]bool)
	pos := 0
	for pos < len(buf) {
		if len(buf)-pos < 5 {
			return nil, fmt.Errorf("transcript: v2 tlv header: %w", ErrTruncated)
		}
		tag := buf[pos]
		length := be32(buf[pos+1 : pos+5])
		pos += 5
		if len(buf)-pos < int(length) {
			return nil, fmt.Errorf("transcript: v2 tlv value (tag 0x%02x): %w", tag, ErrTruncated)
		}
		value := buf[pos : pos+int(length)]
		pos += int(length)

		if seen[tag] {
			return nil, fmt.Errorf("%w: 0x%02x", ErrDuplicateTag, tag)
		}
		seen[tag] = true
		out = append(out, rawTLV{tag: tag, value: value})
	}
	return out, nil
}

// DecodeV2 parses a V2 TLV canonical encoding back into Fields.
// Unknown tags in the reserved extension range (0xF0-0xFF) are
// accepted and ignored rather than rejected.
func DecodeV2(buf []byte) (Fields, error) {
	tlvs, err := decodeTLVs(buf)
	if err != nil {
		return Fields{}, err
	}

	var f Fields
	for _, t := range tlvs {
		switch t.tag {
		case tagDomainSeparator:
			if string(t.value) != string(DomainSeparator) {
				return Fields{}, fmt.Errorf("transcript: v2: unexpected domain separator")
			}
		case tagProtocolVersion:
			if len(t.value) != 4 {
				return Fields{}, fmt.Errorf("transcript: v2: bad protocol_version length")
			}
			f.ProtocolVersion = be32(t.value)
		case tagRole:
			if len(t.value) != 1 {
				return Fields{}, fmt.Errorf("transcript: v2: bad role length")
			}
			f.Role = Role(t.value[0])
		case tagSuiteWireID:
			if len(t.value) != 2 {
				return Fields{}, fmt.Errorf("transcript: v2: bad suite_wire_id length")
			}
			f.SuiteWireID = suite.ID(uint16(t.value[0])<<8 | uint16(t.value[1]))
		case tagLocalCapabilities:
			f.LocalCapabilities = append([]byte{}, t.value...)
		case tagPeerCapabilities:
			f.PeerCapabilities = append([]byte{}, t.value...)
		case tagPolicy:
			f.Policy = append([]byte{}, t.value...)
		case tagSignatureAlgorithm:
			if len(t.value) != 2 {
				return Fields{}, fmt.Errorf("transcript: v2: bad signature_algorithm length")
			}
			f.SignatureAlgorithm = sigAlgorithmFromWireCode(uint16(t.value[0])<<8 | uint16(t.value[1]))
		case tagInitiatorPublicKey:
			f.InitiatorPublicKey = append([]byte{}, t.value...)
		case tagResponderPublicKey:
			f.ResponderPublicKey = append([]byte{}, t.value...)
		case tagInitiatorNonce:
			f.InitiatorNonce = append([]byte{}, t.value...)
		case tagResponderNonce:
			f.ResponderNonce = append([]byte{}, t.value...)
		case tagMessageA:
			f.MessageABytes = append([]byte{}, t.value...)
		case tagMessageB:
			f.MessageBBytes = append([]byte{}, t.value...)
		default:
			if t.tag < extensionTagMin || t.tag > extensionTagMax {
				return Fields{}, fmt.Errorf("transcript: v2: unrecognized tag 0x%02x outside extension range", t.tag)
			}
			// extension tag: accept and ignore.
		}
	}
	return f, nil
}
