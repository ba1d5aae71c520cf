package wire

import (
	"fmt"

	"github.com/skybridge-project/skybridge/policy"
	"github.com/skybridge-project/skybridge/suite"
)

// decodeCapabilities decodes the encoding produced by
// policy.Capabilities.Encode. It lives in wire rather than policy to
// keep policy free of a decode-path dependency on wire's cursor helper.
func decodeCapabilities(buf []byte) (policy.Capabilities, error) {
	c := newCursor(buf)

	kemCount, err := c.readU16()
	if err != nil {
		return policy.Capabilities{}, fmt.Errorf("kem count: %w", err)
	}
	kems := make([]suite.ID, 0, kemCount)
	for i := 0; i < int(kemCount); i++ {
		id, err := c.readU16()
		if err != nil {
			return policy.Capabilities{}, fmt.Errorf("kem %d: %w", i, err)
		}
		kems = append(kems, suite.ID(id))
	}

	sigCount, err := c.readU16()
	if err != nil {
		return policy.Capabilities{}, fmt.Errorf("signature count: %w", err)
	}
	sigs := make([]suite.SignatureAlgorithm, 0, sigCount)
	for i := 0; i < int(sigCount); i++ {
		n, err := c.readU16()
		if err != nil {
			return policy.Capabilities{}, fmt.Errorf("signature %d length: %w", i, err)
		}
		b, err := c.readN(int(n))
		if err != nil {
			return policy.Capabilities{}, fmt.Errorf("signature %d bytes: %w", i, err)
		}
		sigs = append(sigs, suite.SignatureAlgorithm(b))
	}

	aeadCount, err := c.readU16()
	if err != nil {
		return policy.Capabilities{}, fmt.Errorf("aead count: %w", err)
	}
	aeads := make([]string, 0, aeadCount)
	for i := 0; i < int(aeadCount); i++ {
		n, err := c.readU16()
		if err != nil {
			return policy.Capabilities{}, fmt.Errorf("aead %d length: %w", i, err)
		}
		b, err := c.readN(int(n))
		if err != nil {
			return policy.Capabilities{}, fmt.Errorf("aead %d bytes: %w", i, err)
		}
		aeads = append(aeads, string(b))
	}

	pqcByte, err := c.readByte()
	if err != nil {
		return policy.Capabilities{}, fmt.Errorf("pqc_available: %w", err)
	}

	if c.remaining() != 0 {
		return policy.Capabilities{}, fmt.Errorf("%d trailing bytes", c.remaining())
	}

	return policy.Capabilities{
		SupportedKEMs:       kems,
		SupportedSignatures: sigs,
		SupportedAEADs:      aeads,
		PQCAvailable:        pqcByte != 0,
	}, nil
}
