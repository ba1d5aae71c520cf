package transcript

import "fmt"

// encodeV1 concatenates length-prefixed fields in the fixed
// declaration order (spec §4.5 "V1 deterministic encoding"). Unset
// optional fields are omitted entirely, not zero-length-encoded,
// since a zero-length encoding for an unset field would be
// indistinguishable from a present-but-empty one.
func encodeV1(f Fields) []byte {
	var buf []byte
	buf = putLP(buf, DomainSeparator)
	buf = putU32(buf, f.ProtocolVersion)
	buf = append(buf, byte(f.Role))
	buf = append(buf, byte(f.SuiteWireID>>8), byte(f.SuiteWireID))

	if len(f.LocalCapabilities) > 0 {
		buf = putLP(buf, f.LocalCapabilities)
	}
	if len(f.PeerCapabilities) > 0 {
		buf = putLP(buf, f.PeerCapabilities)
	}
	if len(f.Policy) > 0 {
		buf = putLP(buf, f.Policy)
	}

	code := sigAlgorithmWireCode(f.SignatureAlgorithm)
	buf = append(buf, byte(code>>8), byte(code))

	if len(f.InitiatorPublicKey) > 0 {
		buf = putLP(buf, f.InitiatorPublicKey)
	}
	if len(f.ResponderPublicKey) > 0 {
		buf = putLP(buf, f.ResponderPublicKey)
	}
	if len(f.InitiatorNonce) > 0 {
		buf = putLP(buf, f.InitiatorNonce)
	}
	if len(f.ResponderNonce) > 0 {
		buf = putLP(buf, f.ResponderNonce)
	}
	if len(f.MessageABytes) > 0 {
		buf = putLP(buf, f.MessageABytes)
	}
	if len(f.MessageBBytes) > 0 {
		buf = putLP(buf, f.MessageBBytes)
	}
	return buf
}

// V1 field-presence is ambiguous to decode in general (optional fields
// are omitted, not marked), so V1 is write-only: it is built fresh by
// each side from its own known fields and compared only by hash, never
// decoded back into a Fields value. DecodeV1Header exposes just enough
// of the fixed prefix to validate the domain separator and protocol
// version, which is what the driver needs when rejecting a mislabeled
// frame (spec "Open Questions": do not accept a V2 frame labeled V1,
// and vice versa).
func DecodeV1Header(buf []byte) (protocolVersion uint32, role Role, suiteWireID uint16, rest []byte, err error) {
	if len(buf) < 4 {
		return 0, 0, 0, nil, fmt.Errorf("transcript: v1 header: %w", ErrTruncated)
	}
	dsLen := be32(buf[0:4])
	if len(buf) < 4+int(dsLen) {
		return 0, 0, 0, nil, fmt.Errorf("transcript: v1 header domain separator: %w", ErrTruncated)
	}
	ds := buf[4 : 4+int(dsLen)]
	if string(ds) != string(DomainSeparator) {
		return 0, 0, 0, nil, fmt.Errorf("transcript: v1 header: unexpected domain separator")
	}
	cursor := buf[4+int(dsLen):]
	if len(cursor) < 4+1+2 {
		return 0, 0, 0, nil, fmt.Errorf("transcript: v1 header fixed fields: %w", ErrTruncated)
	}
	protocolVersion = be32(cursor[0:4])
	role = Role(cursor[4])
	suiteWireID = uint16(cursor[5])<<8 | uint16(cursor[6])
	return protocolVersion, role, suiteWireID, cursor[7:], nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
