package events

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/skybridge-project/skybridge/internal/logger"
)

func TestLoggingSinkEmitsStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&buf, logger.DebugLevel)
	sink := NewLoggingSink(log)

	sink.Emit(CryptoDowngrade, map[string]any{
		"reason":         "suite_negotiation_failed",
		"cooldown_seconds": 300,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not valid JSON: %v", err)
	}
	if entry["event"] != CryptoDowngrade {
		t.Errorf("event = %v, want %v", entry["event"], CryptoDowngrade)
	}
	if entry["reason"] != "suite_negotiation_failed" {
		t.Errorf("reason = %v, want suite_negotiation_failed", entry["reason"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}

func TestNewLoggingSinkDefaultsToPackageLogger(t *testing.T) {
	sink := NewLoggingSink(nil)
	if sink.log == nil {
		t.Fatal("expected default logger to be used when nil is passed")
	}
}

func TestNoopSinkDiscardsEvents(t *testing.T) {
	var sink Sink = NoopSink{}
	// Must not panic regardless of arguments.
	sink.Emit(HandshakeFailed, map[string]any{"reason": "timeout"})
}

func TestEventConstantsMatchSpecNames(t *testing.T) {
	want := map[string]string{
		"CryptoDowngrade":                "crypto_downgrade",
		"HandshakeFailed":                "handshake_failed",
		"SignatureAlgorithmMismatch":     "signature_algorithm_mismatch",
		"KeyMigrationCompleted":          "key_migration_completed",
		"LegacySignatureAccepted":        "legacy_signature_accepted",
		"SEPoPInconsistentStateDetected": "sePoP_inconsistent_state_detected",
	}
	got := map[string]string{
		"CryptoDowngrade":                CryptoDowngrade,
		"HandshakeFailed":                HandshakeFailed,
		"SignatureAlgorithmMismatch":     SignatureAlgorithmMismatch,
		"KeyMigrationCompleted":          KeyMigrationCompleted,
		"LegacySignatureAccepted":        LegacySignatureAccepted,
		"SEPoPInconsistentStateDetected": SEPoPInconsistentStateDetected,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}
