// Package suite defines the negotiable cipher suites for the handshake
// core: their stable wire identifiers, PQC/hybrid membership, and the
// signature algorithm each suite is coupled to.
package suite

import "fmt"

// ID is the stable 16-bit wire identifier for a cipher suite.
type ID uint16

// Wire identifiers. Classical suites live in the 0x10xx range; PQC and
// hybrid suites live in 0x00xx/0x01xx.
const (
	X25519Ed25519   ID = 0x10A1
	P256ECDSA       ID = 0x10B1
	MLKEM768MLDSA65 ID = 0x0101
	XWingMLDSA      ID = 0x0001
)

// SignatureAlgorithm is the identity-signature algorithm used for sigA/sigB.
type SignatureAlgorithm string

const (
	SigEd25519  SignatureAlgorithm = "ed25519"
	SigMLDSA65  SignatureAlgorithm = "mldsa65"
	SigP256ECDSA SignatureAlgorithm = "p256_ecdsa"
)

// IsProtocolSigning reports whether alg is in the strict subset allowed
// as a protocol signature (sigA/sigB). p256_ecdsa is never valid here;
// it is a legacy verifier and Secure-Enclave proof-of-possession
// primitive only.
func (a SignatureAlgorithm) IsProtocolSigning() bool {
	return a == SigEd25519 || a == SigMLDSA65
}

// Suite describes one negotiable cipher suite.
type Suite struct {
	Name       string
	WireID     ID
	IsPQC      bool // pure post-quantum KEM
	IsHybrid   bool // classical (+) PQC KEM
	SigAlg     SignatureAlgorithm
}

// IsPQCGroup is true for suites whose KEM is PQC or hybrid PQC+classical.
func (s Suite) IsPQCGroup() bool { return s.IsPQC || s.IsHybrid }

// Tier is a coarse classification used by policy.minimum_tier.
type Tier int

const (
	TierClassic Tier = iota
	TierPQC
	TierHybrid
)

func (s Suite) Tier() Tier {
	switch {
	case s.IsHybrid:
		return TierHybrid
	case s.IsPQC:
		return TierPQC
	default:
		return TierClassic
	}
}

var registry = map[ID]Suite{
	X25519Ed25519: {
		Name: "x25519-ed25519", WireID: X25519Ed25519,
		IsPQC: false, IsHybrid: false, SigAlg: SigEd25519,
	},
	P256ECDSA: {
		Name: "p256-ecdsa", WireID: P256ECDSA,
		IsPQC: false, IsHybrid: false, SigAlg: SigP256ECDSA,
	},
	MLKEM768MLDSA65: {
		Name: "mlkem768-mldsa65", WireID: MLKEM768MLDSA65,
		IsPQC: true, IsHybrid: false, SigAlg: SigMLDSA65,
	},
	XWingMLDSA: {
		Name: "xwing-mldsa", WireID: XWingMLDSA,
		IsPQC: false, IsHybrid: true, SigAlg: SigMLDSA65,
	},
}

// ErrUnknownSuite is returned by Lookup for an unregistered wire ID.
var ErrUnknownSuite = fmt.Errorf("suite: unknown wire id")

// Lookup returns the Suite registered for a wire ID.
func Lookup(id ID) (Suite, error) {
	s, ok := registry[id]
	if !ok {
		return Suite{}, fmt.Errorf("%w: 0x%04x", ErrUnknownSuite, uint16(id))
	}
	return s, nil
}

// MustLookup panics if id is not registered; for use with the fixed
// built-in suite constants only.
func MustLookup(id ID) Suite {
	s, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return s
}

// All returns every registered suite, in a stable declaration order.
func All() []Suite {
	return []Suite{
		registry[X25519Ed25519],
		registry[P256ECDSA],
		registry[MLKEM768MLDSA65],
		registry[XWingMLDSA],
	}
}

// SignatureAlgorithmFor implements the pre-negotiation rule (spec §4.3):
// a non-empty, homogeneous set of offered suites determines sigA's
// algorithm — ml-dsa-65 if any offered suite is in the PQC group,
// ed25519 otherwise.
func SignatureAlgorithmFor(offered []Suite) (SignatureAlgorithm, error) {
	if len(offered) == 0 {
		return "", fmt.Errorf("suite: empty offered suites")
	}
	pqc := offered[0].IsPQCGroup()
	for _, s := range offered[1:] {
		if s.IsPQCGroup() != pqc {
			return "", fmt.Errorf("suite: offered suites are not homogeneous")
		}
	}
	if pqc {
		return SigMLDSA65, nil
	}
	return SigEd25519, nil
}

// Homogeneous reports whether offered is non-empty and every suite
// shares the same IsPQCGroup() value.
func Homogeneous(offered []Suite) bool {
	if len(offered) == 0 {
		return false
	}
	pqc := offered[0].IsPQCGroup()
	for _, s := range offered[1:] {
		if s.IsPQCGroup() != pqc {
			return false
		}
	}
	return true
}

// CompatibleWithSignature reports whether selecting s is legal given
// that sigA was computed with alg (spec §4.3 suite-signature
// compatibility check): s.IsPQCGroup() <=> alg == mldsa65.
func CompatibleWithSignature(s Suite, alg SignatureAlgorithm) bool {
	return s.IsPQCGroup() == (alg == SigMLDSA65)
}
