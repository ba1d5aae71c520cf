// Package events implements the security event sink shared by the
// handshake, identity, and fallback packages. Those packages each
// define their own EventSink interface — identical in shape
// (Emit(name string, fields map[string]any)) but never importing one
// another — so any concrete sink built here satisfies all of them
// without this package importing them either.
package events

import (
	"github.com/skybridge-project/skybridge/internal/logger"
)

// Named security events this pack emits. Kept as constants so callers
// and tests reference one spelling rather than repeating string
// literals.
const (
	CryptoDowngrade                = "crypto_downgrade"
	HandshakeFailed                = "handshake_failed"
	SignatureAlgorithmMismatch     = "signature_algorithm_mismatch"
	KeyMigrationCompleted          = "key_migration_completed"
	LegacySignatureAccepted        = "legacy_signature_accepted"
	SEPoPInconsistentStateDetected = "sePoP_inconsistent_state_detected"
)

// Sink receives a named security event with its structured fields.
// Matches handshake.EventSink, identity.EventSink, and the sink type
// fallback.Manager expects — all are this same shape.
type Sink interface {
	Emit(name string, fields map[string]any)
}

// LoggingSink emits every event as a structured log line at WARN
// level (security events always warrant operator attention, whether
// or not they indicate an attack) through the given logger.Logger.
type LoggingSink struct {
	log logger.Logger
}

// NewLoggingSink builds a LoggingSink writing through log. If log is
// nil, the package's default logger is used.
func NewLoggingSink(log logger.Logger) *LoggingSink {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &LoggingSink{log: log}
}

// Emit implements Sink.
func (s *LoggingSink) Emit(name string, fields map[string]any) {
	logFields := make([]logger.Field, 0, len(fields)+1)
	logFields = append(logFields, logger.String("event", name))
	for k, v := range fields {
		logFields = append(logFields, logger.Any(k, v))
	}
	s.log.Warn("security event", logFields...)
}

// NoopSink discards every event. Useful for tests and for callers
// that deliberately opt out of security-event reporting.
type NoopSink struct{}

// Emit implements Sink.
func (NoopSink) Emit(string, map[string]any) {}
