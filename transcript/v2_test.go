package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/suite"
)

func sampleFields() Fields {
	return Fields{
		ProtocolVersion:    1,
		Role:               RoleInitiator,
		SuiteWireID:        suite.X25519Ed25519,
		LocalCapabilities:  []byte("local-caps-bytes"),
		PeerCapabilities:   []byte("peer-caps-bytes"),
		Policy:             []byte{0, 1, 0, 0, 0, 0},
		SignatureAlgorithm: suite.SigEd25519,
		InitiatorPublicKey: []byte("initiator-pubkey"),
		ResponderPublicKey: []byte("responder-pubkey"),
		InitiatorNonce:     []byte("initiator-nonce-32-bytes-000000"),
		MessageABytes:      []byte("messageA-bytes"),
	}
}

func TestEncodeV2RoundTrip(t *testing.T) {
	f := sampleFields()
	encoded := encodeV2(f)

	decoded, err := DecodeV2(encoded)
	require.NoError(t, err)
	assert.Equal(t, f, decoded)
}

func TestDecodeV2RejectsDuplicateTag(t *testing.T) {
	f := sampleFields()
	encoded := encodeV2(f)
	// Duplicate the first TLV (domain separator) by appending it again.
	encoded = append(encoded, encoded[:5+len(DomainSeparator)]...)

	_, err := DecodeV2(encoded)
	require.ErrorIs(t, err, ErrDuplicateTag)
}

func TestDecodeV2AcceptsAndIgnoresExtensionTag(t *testing.T) {
	f := sampleFields()
	encoded := encodeV2(f)
	encoded = putTLV(encoded, 0xF5, []byte("future-extension-payload"))

	decoded, err := DecodeV2(encoded)
	require.NoError(t, err)
	assert.Equal(t, f, decoded)
}

func TestDecodeV2RejectsUnknownTagOutsideExtensionRange(t *testing.T) {
	f := sampleFields()
	encoded := encodeV2(f)
	encoded = putTLV(encoded, 0x40, []byte("not-a-reserved-extension"))

	_, err := DecodeV2(encoded)
	require.Error(t, err)
}

func TestDecodeV2RejectsBadDomainSeparator(t *testing.T) {
	encoded := putTLV(nil, tagDomainSeparator, []byte("wrong-domain-separator"))

	_, err := DecodeV2(encoded)
	require.Error(t, err)
}

func TestEncodeV2OmitsUnsetOptionalFields(t *testing.T) {
	f := Fields{
		ProtocolVersion: 1,
		Role:            RoleResponder,
		SuiteWireID:     suite.MLKEM768MLDSA65,
	}
	encoded := encodeV2(f)

	decoded, err := DecodeV2(encoded)
	require.NoError(t, err)
	assert.Empty(t, decoded.LocalCapabilities)
	assert.Empty(t, decoded.MessageABytes)
	assert.Equal(t, suite.MLKEM768MLDSA65, decoded.SuiteWireID)
}
