// Package policy defines the handshake policy and crypto-capability
// types that are canonically encoded into the transcript (the
// policy-in-transcript invariant) and consulted by suite selection and
// the two-attempt fallback manager.
package policy

import "github.com/skybridge-project/skybridge/suite"

// Handshake is the caller-supplied policy for a single handshake
// attempt. It is encoded into the transcript so a downgraded
// counterparty cannot later claim a different policy was in force.
type Handshake struct {
	RequirePQC              bool
	AllowClassicFallback    bool
	MinimumTier             suite.Tier
	RequireSecureEnclavePoP bool

	// PreferPQC is encoded into MessageA and the transcript. The
	// two-attempt fallback manager does not read it: Manager.Run always
	// runs the pqc_only attempt first.
	PreferPQC bool

	// RequireHybridIfAvailable enforces local downgrade detection on
	// MessageB receipt: if the initiator advertised a hybrid suite and
	// the peer had a KEM key for it, selecting a non-hybrid suite is
	// rejected (spec §4.2 "MessageB process (initiator)").
	RequireHybridIfAvailable bool
}

// Crypto is the local crypto-policy knobs that further constrain suite
// offering, independent of the per-attempt Handshake policy.
type Crypto struct {
	AllowExperimentalHybrid bool
	AdvertiseHybrid         bool
	MinimumSecurityTier     suite.Tier
}

// Capabilities is the locally/peer-advertised set of supported
// algorithms, deterministically encodable and carried in MessageA.
type Capabilities struct {
	SupportedKEMs       []suite.ID
	SupportedSignatures []suite.SignatureAlgorithm
	SupportedAEADs      []string
	PQCAvailable        bool
}

// Encode produces a deterministic byte encoding of the capabilities,
// used as an input to the transcript builder.
func (c Capabilities) Encode() []byte {
	buf := make([]byte, 0, 4+2*len(c.SupportedKEMs)+16*len(c.SupportedSignatures)+16*len(c.SupportedAEADs)+1)
	buf = appendU16(buf, uint16(len(c.SupportedKEMs)))
	for _, id := range c.SupportedKEMs {
		buf = appendU16(buf, uint16(id))
	}
	buf = appendU16(buf, uint16(len(c.SupportedSignatures)))
	for _, s := range c.SupportedSignatures {
		buf = appendLP(buf, []byte(s))
	}
	buf = appendU16(buf, uint16(len(c.SupportedAEADs)))
	for _, a := range c.SupportedAEADs {
		buf = appendLP(buf, []byte(a))
	}
	if c.PQCAvailable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// Encode produces a deterministic, fixed-width encoding of the
// handshake policy for transcript binding.
func (h Handshake) Encode() []byte {
	buf := make([]byte, 0, 8)
	buf = append(buf, boolByte(h.RequirePQC))
	buf = append(buf, boolByte(h.AllowClassicFallback))
	buf = append(buf, byte(h.MinimumTier))
	buf = append(buf, boolByte(h.RequireSecureEnclavePoP))
	buf = append(buf, boolByte(h.PreferPQC))
	buf = append(buf, boolByte(h.RequireHybridIfAvailable))
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendLP(buf []byte, v []byte) []byte {
	buf = append(buf, byte(len(v)>>8), byte(len(v)))
	return append(buf, v...)
}
