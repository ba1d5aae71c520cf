package identity

import (
	"fmt"

	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/suite"
)

// kemKeyLengths is the known-length table for KEM identity keys (spec
// §4.6, point 3). A public or private key persisted under a suite is
// only accepted for migration if its length appears here; providers
// that accept a seed-form private key list the seed length too.
type kemKeyLengths struct {
	PublicKeySize       int
	PrivateKeySizes     []int // full private key, or seed-form alternatives
}

var kemLengthTable = map[suite.ID]kemKeyLengths{
	suite.MLKEM768MLDSA65: {
		PublicKeySize:   keys.MLKEM768PublicKeySize,
		PrivateKeySizes: []int{keys.MLKEM768PrivateKeySize, 96},
	},
	suite.XWingMLDSA: {
		PublicKeySize:   keys.XWingPublicKeySize,
		PrivateKeySizes: []int{keys.XWingPrivateKeySize, 64},
	},
}

// ValidateKEMKeyLengths checks a (public, private) byte pair against
// the known-length table for suiteID. An empty private slice (public
// key only, e.g. a peer's advertised identity key) skips the private
// check.
func ValidateKEMKeyLengths(suiteID suite.ID, public, private []byte) error {
	table, ok := kemLengthTable[suiteID]
	if !ok {
		return fmt.Errorf("identity: no KEM key length table for suite 0x%04x", uint16(suiteID))
	}
	if len(public) != table.PublicKeySize {
		return fmt.Errorf("%w: suite 0x%04x expects %d-byte public key, got %d",
			ErrInvalidKeyLength, uint16(suiteID), table.PublicKeySize, len(public))
	}
	if len(private) == 0 {
		return nil
	}
	for _, sz := range table.PrivateKeySizes {
		if len(private) == sz {
			return nil
		}
	}
	return fmt.Errorf("%w: suite 0x%04x private key length %d matches none of %v",
		ErrInvalidKeyLength, uint16(suiteID), len(private), table.PrivateKeySizes)
}

// MigratableKEMRecord reports whether a pre-tier-tagging persisted
// record's lengths match the current provider for suiteID, and is
// therefore safe to adopt without regenerating the key pair (spec
// §4.6: "Backwards-compatible records from before tier-tagging are
// migrated if their lengths match the current provider").
func MigratableKEMRecord(suiteID suite.ID, public, private []byte) bool {
	return ValidateKEMKeyLengths(suiteID, public, private) == nil
}
