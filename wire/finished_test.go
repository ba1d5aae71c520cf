package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishedRoundTrip(t *testing.T) {
	f := Finished{Direction: DirectionResponderToInitiator}
	copy(f.MAC[:], []byte("0123456789abcdef0123456789abcdef"))

	encoded := f.Encode()
	assert.True(t, LooksLikeFinished(encoded))

	decoded, err := DecodeFinished(encoded)
	require.NoError(t, err)
	assert.Equal(t, f, decoded)
}

func TestDecodeFinishedRejectsNonFinished(t *testing.T) {
	_, err := DecodeFinished([]byte{1, 2, 3, 4, 5})
	require.ErrorIs(t, err, ErrNotFinished)
}

func TestDecodeFinishedRejectsWrongLength(t *testing.T) {
	f := Finished{Direction: DirectionInitiatorToResponder}
	encoded := f.Encode()
	_, err := DecodeFinished(encoded[:len(encoded)-1])
	require.Error(t, err)
}
