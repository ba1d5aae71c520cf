package handshake

import (
	"crypto/rand"
	"sync"

	"github.com/skybridge-project/skybridge/crypto/keys"
	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/policy"
	"github.com/skybridge-project/skybridge/suite"
	"github.com/skybridge-project/skybridge/transcript"
	"github.com/skybridge-project/skybridge/wire"
)

// EventSink receives the named security events a Context or Driver
// emits. Structurally identical to identity.EventSink so the same
// concrete sink (internal/events) satisfies both without an import
// dependency between the packages.
type EventSink interface {
	Emit(name string, fields map[string]any)
}

type noopSink struct{}

func (noopSink) Emit(string, map[string]any) {}

// Config is shared construction input for both roles.
type Config struct {
	IdentityManager   *identity.Manager
	TrustStore        identity.TrustStore
	HandshakePolicy   policy.Handshake
	CryptoPolicy      policy.Crypto
	LocalCapabilities policy.Capabilities
	// PeerDeviceID keys the trust store and the KEM-public-key lookup
	// used while building MessageA and the pinning check on MessageB;
	// a responder receives the peer device id as ProcessMessageA's
	// argument instead.
	PeerDeviceID string
	Sink          EventSink
}

// Context is the per-session crypto core (spec §4.2
// "HandshakeContext"). It is single-use: every operation after
// Zeroize fails with ReasonContextZeroized.
type Context struct {
	mu sync.Mutex

	cfg Config

	isInitiator bool

	sigAlgorithm   suite.SignatureAlgorithm
	protocolPubKey []byte
	protocolHandle identity.KeyHandle

	sePoPEnabled bool
	sePoPPubKey  []byte
	sePoPHandle  identity.KeyHandle

	// offeredSuites is the exact, ordered set the initiator offered;
	// used to verify the responder's selection is a member and to
	// compute downgrade detection (selected != offeredSuites[0]).
	offeredSuites []suite.ID

	ephemeralClassical map[suite.ID]*keys.X25519KeyPair
	cachedSharedSecret map[suite.ID][]byte

	clientNonce [wire.NonceSize]byte
	serverNonce [wire.NonceSize]byte

	transcriptA     []byte
	transcriptAHash [32]byte
	transcriptB     []byte
	transcriptBHash [32]byte

	negotiatedSuite suite.ID
	sharedSecret    []byte

	peerKeyShares       map[suite.ID][]byte
	peerIdentityPub     wire.IdentityPublicKey
	peerDeviceID        string
	peerCapabilitiesRaw policy.Capabilities

	sessionKeys *transcript.SessionKeys

	zeroized bool
}

func newContext(cfg Config, isInitiator bool) *Context {
	if cfg.Sink == nil {
		cfg.Sink = noopSink{}
	}
	return &Context{
		cfg:                cfg,
		isInitiator:        isInitiator,
		ephemeralClassical: make(map[suite.ID]*keys.X25519KeyPair),
		cachedSharedSecret: make(map[suite.ID][]byte),
		peerKeyShares:      make(map[suite.ID][]byte),
	}
}

// NewInitiatorContext constructs a Context for the initiator role.
func NewInitiatorContext(cfg Config) (*Context, error) {
	return newContext(cfg, true), nil
}

// NewResponderContext constructs a Context for the responder role.
func NewResponderContext(cfg Config) (*Context, error) {
	return newContext(cfg, false), nil
}

func (c *Context) checkNotZeroized() error {
	if c.zeroized {
		return Fail(ReasonContextZeroized, "")
	}
	return nil
}

// Zeroize removes all private key material, shared secrets, nonces,
// transcripts, and key shares (spec §4.2 "Zeroization"). Idempotent.
func (c *Context) Zeroize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.zeroized {
		return
	}
	for _, kp := range c.ephemeralClassical {
		kp.Zeroize()
	}
	for id := range c.cachedSharedSecret {
		zero(c.cachedSharedSecret[id])
	}
	zero(c.sharedSecret)
	zero(c.clientNonce[:])
	zero(c.serverNonce[:])
	zero(c.transcriptA)
	zero(c.transcriptB)
	c.ephemeralClassical = nil
	c.cachedSharedSecret = nil
	c.sharedSecret = nil
	c.peerKeyShares = nil
	c.zeroized = true
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// resolveOfferedSuites implements the filtering in spec §4.2
// "MessageA build (initiator)" and re-validates the §4.3 homogeneity
// invariant the caller's strategy (pqc_only/classic_only) is supposed
// to already guarantee.
func resolveOfferedSuites(offered []suite.ID, hp policy.Handshake, cp policy.Crypto) ([]suite.Suite, error) {
	resolved := make([]suite.Suite, 0, len(offered))
	for _, id := range offered {
		s, err := suite.Lookup(id)
		if err != nil {
			continue
		}
		if s.Tier() < hp.MinimumTier {
			continue
		}
		if hp.RequirePQC && !s.IsPQCGroup() {
			continue
		}
		if s.IsHybrid && !cp.AdvertiseHybrid {
			continue
		}
		if s.IsHybrid && !cp.AllowExperimentalHybrid {
			continue
		}
		resolved = append(resolved, s)
	}
	if len(resolved) == 0 {
		return nil, Fail(ReasonEmptyOfferedSuites, "")
	}
	if !suite.Homogeneous(resolved) {
		return nil, Fail(ReasonHomogeneityViolation, "")
	}
	return resolved, nil
}

// BuildMessageA implements spec §4.2 "MessageA build (initiator)".
func (c *Context) BuildMessageA(offeredSuiteIDs []suite.ID) (*wire.MessageA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkNotZeroized(); err != nil {
		return nil, err
	}
	if !c.isInitiator {
		return nil, Fail(ReasonInvalidProviderType, "BuildMessageA called on a responder context")
	}

	resolved, err := resolveOfferedSuites(offeredSuiteIDs, c.cfg.HandshakePolicy, c.cfg.CryptoPolicy)
	if err != nil {
		return nil, err
	}

	sigAlg, err := suite.SignatureAlgorithmFor(resolved)
	if err != nil {
		return nil, Fail(ReasonHomogeneityViolation, err.Error())
	}
	c.sigAlgorithm = sigAlg

	pub, handle, err := c.cfg.IdentityManager.GetOrCreateProtocolSigningKey(sigAlg)
	if err != nil {
		return nil, Fail(ReasonCryptoError, err.Error())
	}
	c.protocolPubKey = pub
	c.protocolHandle = handle

	var trustedKEM map[suite.ID][]byte
	if c.cfg.TrustStore != nil && c.cfg.PeerDeviceID != "" {
		if rec, ok, _ := c.cfg.TrustStore.Get(c.cfg.PeerDeviceID); ok {
			trustedKEM = rec.KEMPublicKeys
		}
	}

	var keyShares []wire.KeyShare
	var suiteIDs []suite.ID
	for _, s := range resolved {
		if s.IsPQCGroup() {
			peerPub, ok := trustedKEM[s.WireID]
			if !ok {
				continue
			}
			ct, ss, err := encapsulateForSuite(s, peerPub)
			if err != nil {
				return nil, Fail(ReasonCryptoError, err.Error())
			}
			c.cachedSharedSecret[s.WireID] = ss
			keyShares = append(keyShares, wire.KeyShare{Suite: s.WireID, Bytes: ct})
		} else {
			kp, err := keys.GenerateX25519KeyPair()
			if err != nil {
				return nil, Fail(ReasonCryptoError, err.Error())
			}
			c.ephemeralClassical[s.WireID] = kp
			keyShares = append(keyShares, wire.KeyShare{Suite: s.WireID, Bytes: kp.PublicKey()})
		}
		suiteIDs = append(suiteIDs, s.WireID)
	}
	if len(keyShares) == 0 {
		return nil, Fail(ReasonSuiteNotSupported, "no offered suite has an available key share")
	}
	c.offeredSuites = suiteIDs

	if _, err := rand.Read(c.clientNonce[:]); err != nil {
		return nil, Fail(ReasonCryptoError, err.Error())
	}

	idPub := wire.IdentityPublicKey{Algorithm: sigAlg, PublicKey: pub}

	var seHandle identity.KeyHandle
	if seH, seP, ok, err := c.cfg.IdentityManager.SecureEnclavePoP(c.cfg.HandshakePolicy.RequireSecureEnclavePoP); err != nil {
		return nil, Fail(ReasonSecureEnclavePoPRequired, err.Error())
	} else if ok {
		seHandle = seH
		c.sePoPEnabled = true
		c.sePoPHandle = seH
		c.sePoPPubKey = seP
		idPub.SEPublicKey = seP
	}

	msg := &wire.MessageA{
		Version:           1,
		SupportedSuites:   suiteIDs,
		KeyShares:         keyShares,
		ClientNonce:       c.clientNonce,
		Policy:            c.cfg.HandshakePolicy,
		Capabilities:      c.cfg.LocalCapabilities,
		IdentityPublicKey: idPub,
	}

	sig, err := c.protocolHandle.Sign(msg.SignaturePreimage())
	if err != nil {
		return nil, Fail(ReasonCryptoError, err.Error())
	}
	msg.Signature = sig

	if c.sePoPEnabled {
		seSig, err := seHandle.Sign(seSigAPreimage(msg))
		if err != nil {
			if c.cfg.HandshakePolicy.RequireSecureEnclavePoP {
				return nil, Fail(ReasonSecureEnclavePoPRequired, err.Error())
			}
		} else {
			msg.SESignature = seSig
		}
	}

	c.transcriptA = transcriptABytes(c.cfg.HandshakePolicy, msg)
	c.transcriptAHash = transcript.Hash(c.transcriptA)

	return msg, nil
}

// seSigAPreimage is the SE-PoP-specific preimage for seSigA: the same
// domain-tagging scheme as sigA, under a distinct tag so a valid sigA
// can never be replayed as a valid seSigA.
var seSigADomainTag = []byte("SkyBridge-SeSigA")
var seSigBDomainTag = []byte("SkyBridge-SeSigB")

func seSigAPreimage(msg *wire.MessageA) []byte {
	return append(append([]byte{}, seSigADomainTag...), msg.AuthenticatedFields()...)
}

func seSigBPreimage(transcriptA []byte, msg *wire.MessageB) []byte {
	out := append([]byte{}, seSigBDomainTag...)
	out = append(out, transcriptA...)
	return append(out, msg.AuthenticatedFields()...)
}

// transcriptABytes builds the V2 canonical transcript bytes for the
// fields known after MessageA (spec §4.5); it is recomputed once more
// with MessageB fields to produce transcriptB.
func transcriptABytes(hp policy.Handshake, msg *wire.MessageA) []byte {
	f := transcript.Fields{
		ProtocolVersion:    1,
		SuiteWireID:        0,
		LocalCapabilities:  msg.Capabilities.Encode(),
		Policy:             hp.Encode(),
		SignatureAlgorithm: msg.IdentityPublicKey.Algorithm,
		InitiatorPublicKey: msg.IdentityPublicKey.PublicKey,
		InitiatorNonce:     msg.ClientNonce[:],
		MessageABytes:      msg.Encode(),
	}
	enc, _ := transcript.Encode(transcript.V2, f)
	return enc
}

// ProcessMessageA implements spec §4.2 "MessageA process (responder)".
// After the signature verifies, it runs identity.VerifyPinning for
// peerDeviceID as the identity-pinning post-signature validation.
func (c *Context) ProcessMessageA(msg *wire.MessageA, peerDeviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkNotZeroized(); err != nil {
		return err
	}
	if c.isInitiator {
		return Fail(ReasonInvalidProviderType, "ProcessMessageA called on an initiator context")
	}
	if msg.Version != 1 {
		return Fail(ReasonVersionMismatch, "")
	}

	if err := verifyProtocolSignature(msg.IdentityPublicKey, msg.SignaturePreimage(), msg.Signature); err != nil {
		return Fail(ReasonSignatureVerificationFailed, err.Error())
	}

	update, err := identity.VerifyPinning(c.cfg.TrustStore, peerDeviceID, msg.IdentityPublicKey.PublicKey, msg.IdentityPublicKey.Algorithm, identitySink(c.cfg.Sink))
	if err != nil {
		return Fail(ReasonIdentityMismatch, err.Error())
	}
	if update != nil {
		_ = identity.ApplyTrustRecordUpdate(c.cfg.TrustStore, *update, c.cfg.HandshakePolicy.AllowClassicFallback)
	}

	if len(msg.IdentityPublicKey.SEPublicKey) > 0 && len(msg.SESignature) > 0 {
		if err := verifySEPoPSignature(msg.IdentityPublicKey.SEPublicKey, seSigAPreimage(msg), msg.SESignature); err != nil {
			return Fail(ReasonSecureEnclaveSignatureInvalid, err.Error())
		}
	}

	c.peerDeviceID = peerDeviceID
	c.peerIdentityPub = msg.IdentityPublicKey
	c.peerCapabilitiesRaw = msg.Capabilities
	c.clientNonce = msg.ClientNonce
	c.offeredSuites = append([]suite.ID{}, msg.SupportedSuites...)
	c.peerKeyShares = make(map[suite.ID][]byte, len(msg.KeyShares))
	for _, ks := range msg.KeyShares {
		c.peerKeyShares[ks.Suite] = ks.Bytes
	}

	selected, err := selectSuite(msg.SupportedSuites, c.cfg.HandshakePolicy, c.cfg.CryptoPolicy)
	if err != nil {
		return err
	}
	c.negotiatedSuite = selected.WireID

	if selected.IsPQCGroup() {
		kemKP, err := c.cfg.IdentityManager.GetOrCreateKEMIdentityKey(selected.WireID)
		if err != nil {
			return Fail(ReasonCryptoError, err.Error())
		}
		share := c.peerKeyShares[selected.WireID]
		ss, err := kemKP.Decapsulate(share)
		if err != nil {
			return Fail(ReasonCryptoError, err.Error())
		}
		c.sharedSecret = ss
	}

	if err := RegisterMessageAReplay(c.clientNonce[:], c.serverNonce[:], selected.WireID); err != nil {
		return err
	}

	c.transcriptA = transcriptABytes(msg.Policy, msg)
	c.transcriptAHash = transcript.Hash(c.transcriptA)
	return nil
}

// selectSuite implements the responder half of spec §4.3: pick any
// suite from the offered set compatible with local policy. It always
// picks the first eligible suite in declaration order, which combined
// with §4.2's downgrade-detection check on the initiator side is what
// makes a downgrade observable.
func selectSuite(offered []suite.ID, hp policy.Handshake, cp policy.Crypto) (suite.Suite, error) {
	for _, id := range offered {
		s, err := suite.Lookup(id)
		if err != nil {
			continue
		}
		if s.Tier() < hp.MinimumTier {
			continue
		}
		if hp.RequirePQC && !s.IsPQCGroup() {
			continue
		}
		if s.IsHybrid && !cp.AdvertiseHybrid {
			continue
		}
		return s, nil
	}
	return suite.Suite{}, Fail(ReasonSuiteNegotiationFailed, "")
}

// BuildMessageB implements spec §4.2 "MessageB build (responder)".
func (c *Context) BuildMessageB() (*wire.MessageB, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkNotZeroized(); err != nil {
		return nil, nil, err
	}
	if c.isInitiator {
		return nil, nil, Fail(ReasonInvalidProviderType, "BuildMessageB called on an initiator context")
	}

	selected, err := suite.Lookup(c.negotiatedSuite)
	if err != nil {
		return nil, nil, Fail(ReasonSuiteNegotiationFailed, err.Error())
	}

	// The signing algorithm for sigB must match sigA's algorithm
	// (spec §4.3 suite-signature compatibility), which in turn is
	// determined by the negotiated suite's PQC-group membership.
	responderSigAlg := suite.SigEd25519
	if selected.IsPQCGroup() {
		responderSigAlg = suite.SigMLDSA65
	}
	pub, handle, err := c.cfg.IdentityManager.GetOrCreateProtocolSigningKey(responderSigAlg)
	if err != nil {
		return nil, nil, Fail(ReasonCryptoError, err.Error())
	}

	if _, err := rand.Read(c.serverNonce[:]); err != nil {
		return nil, nil, Fail(ReasonCryptoError, err.Error())
	}

	var responderShare []byte
	var payload wire.EncryptedPayload
	var sessionSharedSecret []byte

	if selected.IsPQCGroup() {
		nonce, ciphertext, err := sealPayload(c.sharedSecret, c.transcriptA, c.cfg.LocalCapabilities.Encode())
		if err != nil {
			return nil, nil, Fail(ReasonCryptoError, err.Error())
		}
		payload = wire.EncryptedPayload{Nonce: nonce, Ciphertext: ciphertext}
		sessionSharedSecret = c.sharedSecret
	} else {
		peerShare := c.peerKeyShares[c.negotiatedSuite]
		enc, ss, err := keys.EncapsulateX25519Raw(peerShare)
		if err != nil {
			return nil, nil, Fail(ReasonCryptoError, err.Error())
		}
		responderShare = enc
		nonce, ciphertext, err := sealPayload(ss, c.transcriptA, c.cfg.LocalCapabilities.Encode())
		if err != nil {
			return nil, nil, Fail(ReasonCryptoError, err.Error())
		}
		payload = wire.EncryptedPayload{EncapsulatedKey: responderShare, Nonce: nonce, Ciphertext: ciphertext}
		sessionSharedSecret = ss
	}
	c.sharedSecret = sessionSharedSecret

	idPub := wire.IdentityPublicKey{Algorithm: responderSigAlg, PublicKey: pub}
	if seH, seP, ok, _ := c.cfg.IdentityManager.SecureEnclavePoP(c.cfg.HandshakePolicy.RequireSecureEnclavePoP); ok {
		idPub.SEPublicKey = seP
		c.sePoPEnabled = true
		c.sePoPHandle = seH
		c.sePoPPubKey = seP
	}

	msg := &wire.MessageB{
		Version:           1,
		SelectedSuite:      c.negotiatedSuite,
		ResponderShare:     responderShare,
		ServerNonce:        c.serverNonce,
		EncryptedPayload:   payload,
		IdentityPublicKey:  idPub,
	}

	sig, err := handle.Sign(msg.SignaturePreimage(c.transcriptA))
	if err != nil {
		return nil, nil, Fail(ReasonCryptoError, err.Error())
	}
	msg.Signature = sig

	if c.sePoPEnabled {
		if seSig, err := c.sePoPHandle.Sign(seSigBPreimage(c.transcriptA, msg)); err == nil {
			msg.SESignature = seSig
		}
	}

	c.transcriptB = transcriptBBytes(c.transcriptA, msg)
	c.transcriptBHash = transcript.Hash(c.transcriptB)

	if c.negotiatedSuite != c.offeredSuitesFirst() {
		emitDowngrade(c.cfg.Sink, c.offeredSuitesFirst(), c.negotiatedSuite, c.cfg.HandshakePolicy, "suite_negotiation")
	}

	sk, err := transcript.DeriveSessionKeys(false, c.sharedSecret, c.negotiatedSuite, c.transcriptA, c.transcriptB, c.clientNonce[:], c.serverNonce[:])
	if err != nil {
		return nil, nil, Fail(ReasonCryptoError, err.Error())
	}
	c.sessionKeys = &sk

	return msg, c.sharedSecret, nil
}

func (c *Context) offeredSuitesFirst() suite.ID {
	if len(c.offeredSuites) == 0 {
		return c.negotiatedSuite
	}
	return c.offeredSuites[0]
}

func transcriptBBytes(transcriptA []byte, msg *wire.MessageB) []byte {
	f := transcript.Fields{
		ProtocolVersion:    1,
		SuiteWireID:        msg.SelectedSuite,
		ResponderPublicKey: msg.IdentityPublicKey.PublicKey,
		ResponderNonce:     msg.ServerNonce[:],
		MessageBBytes:      msg.Encode(),
	}
	enc, _ := transcript.Encode(transcript.V2, f)
	return append(append([]byte{}, transcriptA...), enc...)
}

// ProcessMessageB implements spec §4.2 "MessageB process (initiator)".
func (c *Context) ProcessMessageB(msg *wire.MessageB) (*transcript.SessionKeys, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkNotZeroized(); err != nil {
		return nil, err
	}
	if !c.isInitiator {
		return nil, Fail(ReasonInvalidProviderType, "ProcessMessageB called on a responder context")
	}

	selected, err := suite.Lookup(msg.SelectedSuite)
	if err != nil {
		return nil, Fail(ReasonSuiteNegotiationFailed, err.Error())
	}
	if c.cfg.HandshakePolicy.RequirePQC && !selected.IsPQCGroup() {
		return nil, Fail(ReasonSuiteNegotiationFailed, "peer selected a non-PQC suite under require_pqc")
	}
	if !suite.CompatibleWithSignature(selected, c.sigAlgorithm) {
		c.cfg.Sink.Emit("signature_algorithm_mismatch", map[string]any{
			"selected_suite": selected.Name,
			"sig_a_algorithm": string(c.sigAlgorithm),
		})
		return nil, Fail(ReasonSuiteSignatureMismatch, string(selected.Name))
	}

	if err := verifyProtocolSignature(msg.IdentityPublicKey, msg.SignaturePreimage(c.transcriptA), msg.Signature); err != nil {
		return nil, Fail(ReasonSignatureVerificationFailed, err.Error())
	}

	update, err := identity.VerifyPinning(c.cfg.TrustStore, c.cfg.PeerDeviceID, msg.IdentityPublicKey.PublicKey, msg.IdentityPublicKey.Algorithm, identitySink(c.cfg.Sink))
	if err != nil {
		return nil, Fail(ReasonIdentityMismatch, err.Error())
	}
	if update != nil {
		_ = identity.ApplyTrustRecordUpdate(c.cfg.TrustStore, *update, c.cfg.HandshakePolicy.AllowClassicFallback)
	}

	if len(msg.IdentityPublicKey.SEPublicKey) > 0 && len(msg.SESignature) > 0 {
		if err := verifySEPoPSignature(msg.IdentityPublicKey.SEPublicKey, seSigBPreimage(c.transcriptA, msg), msg.SESignature); err != nil {
			return nil, Fail(ReasonSecureEnclaveSignatureInvalid, err.Error())
		}
	}

	c.serverNonce = msg.ServerNonce
	if err := RegisterMessageBReplay(c.clientNonce[:], c.serverNonce[:], selected.WireID); err != nil {
		return nil, err
	}

	if c.cfg.HandshakePolicy.RequireHybridIfAvailable && hadHybridOffered(c.offeredSuites) && !selected.IsHybrid {
		return nil, Fail(ReasonSuiteNegotiationFailed, "local policy requires hybrid when available")
	}

	var sessionSecret []byte
	if selected.IsPQCGroup() {
		ss, ok := c.cachedSharedSecret[selected.WireID]
		if !ok {
			return nil, Fail(ReasonCryptoError, "no cached KEM shared secret for selected suite")
		}
		if _, err := openPayload(ss, c.transcriptA, msg.EncryptedPayload.Nonce, msg.EncryptedPayload.Ciphertext); err != nil {
			return nil, Fail(ReasonKeyConfirmationFailed, err.Error())
		}
		sessionSecret = ss
	} else {
		kp, ok := c.ephemeralClassical[selected.WireID]
		if !ok {
			return nil, Fail(ReasonCryptoError, "no ephemeral key for selected suite")
		}
		ss, err := kp.Decapsulate(msg.EncryptedPayload.EncapsulatedKey)
		if err != nil {
			return nil, Fail(ReasonKeyConfirmationFailed, err.Error())
		}
		if _, err := openPayload(ss, c.transcriptA, msg.EncryptedPayload.Nonce, msg.EncryptedPayload.Ciphertext); err != nil {
			return nil, Fail(ReasonKeyConfirmationFailed, err.Error())
		}
		sessionSecret = ss
	}
	c.sharedSecret = sessionSecret
	c.negotiatedSuite = selected.WireID

	if selected.WireID != c.offeredSuitesFirst() {
		emitDowngrade(c.cfg.Sink, c.offeredSuitesFirst(), selected.WireID, c.cfg.HandshakePolicy, "peer_selection")
	}

	c.transcriptB = transcriptBBytes(c.transcriptA, msg)
	c.transcriptBHash = transcript.Hash(c.transcriptB)

	sk, err := transcript.DeriveSessionKeys(true, c.sharedSecret, c.negotiatedSuite, c.transcriptA, c.transcriptB, c.clientNonce[:], c.serverNonce[:])
	if err != nil {
		return nil, Fail(ReasonCryptoError, err.Error())
	}
	c.sessionKeys = &sk
	return &sk, nil
}

func hadHybridOffered(offered []suite.ID) bool {
	for _, id := range offered {
		if s, err := suite.Lookup(id); err == nil && s.IsHybrid {
			return true
		}
	}
	return false
}

func emitDowngrade(sink EventSink, proposed, selected suite.ID, hp policy.Handshake, reason string) {
	sink.Emit("crypto_downgrade", map[string]any{
		"proposed_suite":                    proposed,
		"selected_suite":                    selected,
		"proposed_wire_id":                  uint16(proposed),
		"selected_wire_id":                  uint16(selected),
		"reason":                            reason,
		"policy_require_pqc":                hp.RequirePQC,
		"policy_allow_classic_fallback":     hp.AllowClassicFallback,
		"policy_minimum_tier":               hp.MinimumTier,
		"policy_require_secure_enclave_pop": hp.RequireSecureEnclavePoP,
		"policy_in_transcript":              true,
		"transcript_binding":                true,
		"downgrade_resistance":              "policy_gate+no_timeout_fallback+rate_limited",
	})
}

// identitySink adapts a handshake.EventSink to identity.EventSink
// (both are the same structural shape; this just documents the
// boundary crossing at the call site).
func identitySink(sink EventSink) identity.EventSink {
	if sink == nil {
		return nil
	}
	return sink
}

// TranscriptHashes exposes the computed transcript hashes for tests
// and metrics; not part of the spec's own data model but useful
// diagnostics that cost nothing to keep.
func (c *Context) TranscriptHashes() (a, b [32]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcriptAHash, c.transcriptBHash
}

// SessionKeys returns the derived keys once available.
func (c *Context) SessionKeys() (*transcript.SessionKeys, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionKeys, c.sessionKeys != nil
}
