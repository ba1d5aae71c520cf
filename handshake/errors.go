// Package handshake implements the two-message (MessageA -> MessageB)
// handshake state machine: per-session HandshakeContext (ephemeral
// keys, transcript, KEM/DEM, signing, zeroization) and the
// HandshakeDriver (timeouts, replay detection, cancellation, the
// single pending-result-slot completion contract).
package handshake

import "errors"

// Reason is the exhaustive failure-reason taxonomy (spec §7). Every
// failure funnels through transition_to_failed(reason) with one of
// these.
type Reason string

const (
	ReasonAlreadyInProgress            Reason = "already_in_progress"
	ReasonContextZeroized               Reason = "context_zeroized"
	ReasonTimeout                       Reason = "timeout"
	ReasonCancelled                     Reason = "cancelled"
	ReasonPeerRejected                  Reason = "peer_rejected"
	ReasonCryptoError                   Reason = "crypto_error"
	ReasonTransportError                Reason = "transport_error"
	ReasonVersionMismatch               Reason = "version_mismatch"
	ReasonSuiteNegotiationFailed        Reason = "suite_negotiation_failed"
	ReasonSignatureVerificationFailed   Reason = "signature_verification_failed"
	ReasonInvalidMessageFormat          Reason = "invalid_message_format"
	ReasonIdentityMismatch              Reason = "identity_mismatch"
	ReasonReplayDetected                Reason = "replay_detected"
	ReasonSecureEnclavePoPRequired      Reason = "secure_enclave_pop_required"
	ReasonSecureEnclaveSignatureInvalid Reason = "secure_enclave_signature_invalid"
	ReasonKeyConfirmationFailed         Reason = "key_confirmation_failed"
	ReasonSuiteSignatureMismatch        Reason = "suite_signature_mismatch"
	ReasonPQCProviderUnavailable        Reason = "pqc_provider_unavailable"
	ReasonSuiteNotSupported             Reason = "suite_not_supported"

	// Structural errors surfaced at initialization only.
	ReasonEmptyOfferedSuites               Reason = "empty_offered_suites"
	ReasonHomogeneityViolation             Reason = "homogeneity_violation"
	ReasonProviderAlgorithmMismatch        Reason = "provider_algorithm_mismatch"
	ReasonSignatureAlgorithmMismatch       Reason = "signature_algorithm_mismatch"
	ReasonInvalidProviderType              Reason = "invalid_provider_type"
	ReasonInvalidAlgorithmForProtocolSigning Reason = "invalid_algorithm_for_protocol_signing"
)

// FallbackWhitelist is the exact set of reasons the two-attempt
// manager may translate into a classic_only retry (spec §4.4 step 5).
var FallbackWhitelist = map[Reason]bool{
	ReasonPQCProviderUnavailable: true,
	ReasonSuiteNotSupported:      true,
	ReasonSuiteNegotiationFailed: true,
}

// Error wraps a Reason as a Go error, with optional detail for
// human-readable context (never part of equality/comparison logic —
// callers switch on Reason).
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "handshake: " + string(e.Reason)
	}
	return "handshake: " + string(e.Reason) + ": " + e.Detail
}

// Fail constructs an *Error for reason with an optional detail.
func Fail(reason Reason, detail string) *Error {
	return &Error{Reason: reason, Detail: detail}
}

// AsReason extracts the Reason from err if it (or something it wraps)
// is a *Error; otherwise it returns ReasonCryptoError as the catch-all
// for an unexpected underlying failure.
func AsReason(err error) Reason {
	var herr *Error
	if errors.As(err, &herr) {
		return herr.Reason
	}
	return ReasonCryptoError
}
