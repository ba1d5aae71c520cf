package fallback

import (
	"github.com/skybridge-project/skybridge/handshake"
	"github.com/skybridge-project/skybridge/policy"
)

// Attempt runs one handshake attempt to completion and returns its
// result. Callers build this from a handshake.Driver: either
// InitiateHandshake(...).Wait or AcceptHandshake().Wait, already bound
// to a fixed suite offer for that attempt.
type Attempt func() handshake.Result

// Outcome reports which of the (up to) two attempts ultimately
// produced the result.
type Outcome struct {
	Result     handshake.Result
	IsFallback bool
	Attempts   int
}

// Manager implements the two-attempt PQC→classical fallback algorithm
// (spec §4.4 steps 4-6). Timeouts are never eligible for fallback: an
// attacker who can induce packet loss must not be able to force a
// downgrade by forcing a timeout, so ReasonTimeout is deliberately
// absent from handshake.FallbackWhitelist and this Manager never
// special-cases it.
type Manager struct {
	limiter *RateLimiter
	sink    handshake.EventSink
}

// NewManager constructs a Manager. A nil limiter is replaced with one
// running the default 300s cooldown; a nil sink silently discards
// events.
func NewManager(limiter *RateLimiter, sink handshake.EventSink) *Manager {
	if limiter == nil {
		limiter = NewRateLimiter(DefaultCooldown)
	}
	return &Manager{limiter: limiter, sink: sink}
}

// Run executes pqcAttempt. On success, or on a failure that the
// policy/whitelist/rate-limiter combination does not permit retrying,
// it returns that result directly. Otherwise it records the fallback,
// emits crypto_downgrade, and runs classicAttempt in its place.
func (m *Manager) Run(peer string, hp policy.Handshake, pqcAttempt, classicAttempt Attempt) Outcome {
	result := pqcAttempt()
	if result.Err == nil {
		return Outcome{Result: result, IsFallback: false, Attempts: 1}
	}

	reason := handshake.AsReason(result.Err)

	if !hp.AllowClassicFallback {
		return Outcome{Result: result, IsFallback: false, Attempts: 1}
	}
	if !handshake.FallbackWhitelist[reason] {
		return Outcome{Result: result, IsFallback: false, Attempts: 1}
	}

	allowed, remainingSeconds := m.limiter.Allow(peer)
	if !allowed {
		m.emit("handshake_failed", map[string]any{
			"reason": string(reason),
			"peer":   peer,
		})
		return Outcome{Result: result, IsFallback: false, Attempts: 1}
	}

	m.limiter.Record(peer)
	m.emitDowngrade(hp, reason, remainingSeconds)

	classicResult := classicAttempt()
	return Outcome{Result: classicResult, IsFallback: true, Attempts: 2}
}

func (m *Manager) emitDowngrade(hp policy.Handshake, reason handshake.Reason, cooldownRemaining int64) {
	m.emit("crypto_downgrade", map[string]any{
		"reason":                            string(reason),
		"from_strategy":                     "pqc_only",
		"to_strategy":                       "classic_only",
		"cooldown_seconds":                  int64(m.limiter.cooldown.Seconds()),
		"cooldown_remaining_seconds":        cooldownRemaining,
		"policy_require_pqc":                hp.RequirePQC,
		"policy_allow_classic_fallback":     hp.AllowClassicFallback,
		"policy_minimum_tier":               hp.MinimumTier,
		"policy_require_secure_enclave_pop": hp.RequireSecureEnclavePoP,
		"policy_in_transcript":              1,
		"transcript_binding":                1,
		"downgrade_resistance":              "policy_gate+no_timeout_fallback+rate_limited",
	})
}

func (m *Manager) emit(name string, fields map[string]any) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(name, fields)
}
