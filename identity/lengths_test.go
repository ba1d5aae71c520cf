package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/suite"
)

func TestValidateKEMKeyLengthsMLKEM768(t *testing.T) {
	pub := make([]byte, keys.MLKEM768PublicKeySize)
	priv := make([]byte, keys.MLKEM768PrivateKeySize)
	require.NoError(t, identity.ValidateKEMKeyLengths(suite.MLKEM768MLDSA65, pub, priv))

	seed := make([]byte, 96)
	require.NoError(t, identity.ValidateKEMKeyLengths(suite.MLKEM768MLDSA65, pub, seed))
}

func TestValidateKEMKeyLengthsRejectsWrongSize(t *testing.T) {
	pub := make([]byte, keys.MLKEM768PublicKeySize+1)
	err := identity.ValidateKEMKeyLengths(suite.MLKEM768MLDSA65, pub, nil)
	require.ErrorIs(t, err, identity.ErrInvalidKeyLength)
}

func TestMigratableKEMRecord(t *testing.T) {
	pub := make([]byte, keys.XWingPublicKeySize)
	seed := make([]byte, 64)
	assert.True(t, identity.MigratableKEMRecord(suite.XWingMLDSA, pub, seed))
	assert.False(t, identity.MigratableKEMRecord(suite.XWingMLDSA, pub, make([]byte, 1)))
}
