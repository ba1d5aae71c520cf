package handshake

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skybridge-project/skybridge/internal/metrics"
	"github.com/skybridge-project/skybridge/suite"
	"github.com/skybridge-project/skybridge/transcript"
	"github.com/skybridge-project/skybridge/wire"
)

// State names the driver's position in the state machine (spec §4.1).
type State string

const (
	StateIdle            State = "idle"
	StateSendingA        State = "sending_A"
	StateProcessingA     State = "processing_A"
	StateWaitingB        State = "waiting_B"
	StateProcessingB     State = "processing_B"
	StateSendingB        State = "sending_B"
	StateWaitingFinished State = "waiting_finished"
	StateEstablished     State = "established"
	StateFailed          State = "failed"
)

const (
	// DefaultTimeout and MaxTimeout bound the driver's deadline for a
	// single handshake attempt (spec §4.1 "Timeouts").
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 120 * time.Second

	// timeoutTolerance is the permitted scheduling slack on the
	// monotonic clock before a timeout is considered late rather than
	// spurious (spec §4.1: "bounded tolerance (100 ms)").
	timeoutTolerance = 100 * time.Millisecond
)

// Transport is the narrow send capability the driver needs; framing
// and the concrete connection live in the transport package.
type Transport interface {
	Send(peer string, frame []byte) error
}

// Result is what a completed (or failed) handshake attempt yields.
type Result struct {
	SessionKeys *transcript.SessionKeys
	Err         error
}

// PendingResult implements the single-resume invariant (spec §4.1 point
// 1): whichever of {peer message, timeout, cancel} resolves first
// fills the slot and wins; everyone else is a no-op.
type PendingResult struct {
	once   sync.Once
	done   chan struct{}
	result Result
}

func newPendingSlot() *PendingResult {
	return &PendingResult{done: make(chan struct{})}
}

func (p *PendingResult) resolve(r Result) {
	p.once.Do(func() {
		p.result = r
		close(p.done)
	})
}

// Driver runs one handshake attempt end to end: MessageA/B exchange,
// FINISHED confirmation, timeouts, cancellation, and the MessageB
// re-entrancy epoch guard (spec §4.1).
type Driver struct {
	mu sync.Mutex

	role      string // "initiator" or "responder"
	peer      string
	transport Transport
	sink      EventSink
	ctx       *Context

	state State
	epoch uint64

	timeout     time.Duration
	timer       *time.Timer
	slot        *PendingResult
	deadline    time.Time
	sessionKeys *transcript.SessionKeys

	// expectingFrom names which direction's FINISHED this driver still
	// needs to verify before it may transition to established.
	expectingFrom byte
}

// NewInitiatorDriver constructs a Driver for the initiator role bound
// to ctx (which must be an initiator Context).
func NewInitiatorDriver(ctx *Context, transport Transport, peer string, timeout time.Duration, sink EventSink) *Driver {
	if sink == nil {
		sink = noopSink{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return &Driver{
		role: "initiator", peer: peer, transport: transport, sink: sink,
		ctx: ctx, state: StateIdle, timeout: timeout,
	}
}

// NewResponderDriver constructs a Driver for the responder role.
func NewResponderDriver(ctx *Context, transport Transport, peer string, timeout time.Duration, sink EventSink) *Driver {
	d := NewInitiatorDriver(ctx, transport, peer, timeout, sink)
	d.role = "responder"
	return d
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// transitionToFailed is the single funnel for every failure path
// (spec §4.1 "Failure semantics"): it records metrics, emits
// handshake_failed, zeroizes the context, and resolves the pending
// slot (if one is installed and the slot has not already resolved).
// It also advances the epoch, so an in-flight MessageB pass is
// discarded when it completes.
func (d *Driver) transitionToFailed(reason Reason, slot *PendingResult) {
	d.mu.Lock()
	d.state = StateFailed
	atomic.AddUint64(&d.epoch, 1)
	d.mu.Unlock()

	metrics.HandshakesFailed.WithLabelValues(string(reason)).Inc()
	d.ctx.Zeroize()
	d.sink.Emit("handshake_failed", map[string]any{
		"reason": string(reason),
		"peer":   d.peer,
		"role":   d.role,
	})
	if slot != nil {
		slot.resolve(Result{Err: Fail(reason, "")})
	}
}

// InitiateHandshake implements the initiator's public entry point
// (spec §4.1 "initiate_handshake(peer) -> SessionKeys").
func (d *Driver) InitiateHandshake(offeredSuites []suite.ID) *PendingResult {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		slot := newPendingSlot()
		slot.resolve(Result{Err: Fail(ReasonAlreadyInProgress, "")})
		return slot
	}
	d.state = StateSendingA
	d.mu.Unlock()

	slot := newPendingSlot()
	d.mu.Lock()
	d.slot = slot
	d.mu.Unlock()

	msg, err := d.ctx.BuildMessageA(offeredSuites)
	if err != nil {
		d.transitionToFailed(AsReason(err), slot)
		return slot
	}
	if err := d.transport.Send(d.peer, msg.Encode()); err != nil {
		d.transitionToFailed(ReasonTransportError, slot)
		return slot
	}

	d.mu.Lock()
	// Guard against a reply that already raced ahead of this goroutine
	// on a very low-latency transport: only advance from sending_A, the
	// same reentrancy discipline as the MessageB epoch guard.
	if d.state == StateSendingA {
		d.state = StateWaitingB
		d.deadline = time.Now().Add(d.timeout)
	}
	d.mu.Unlock()
	d.armTimeout(slot)

	return slot
}

// AcceptHandshake is the responder's entry point: it treats the first
// inbound frame as MessageA.
func (d *Driver) AcceptHandshake() *PendingResult {
	slot := newPendingSlot()
	d.mu.Lock()
	d.slot = slot
	d.state = StateProcessingA
	d.deadline = time.Now().Add(d.timeout)
	d.mu.Unlock()
	d.armTimeout(slot)
	return slot
}

func (d *Driver) armTimeout(slot *PendingResult) {
	d.timer = time.AfterFunc(d.timeout+timeoutTolerance, func() {
		d.mu.Lock()
		st := d.state
		d.mu.Unlock()
		if st == StateEstablished || st == StateFailed {
			return
		}
		d.transitionToFailed(ReasonTimeout, slot)
	})
}

func (d *Driver) cancelTimer() {
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Cancel implements spec §4.1 "cancel()": safe from any goroutine,
// zeroizes first, then resolves the pending waiter with `cancelled`.
func (d *Driver) Cancel() {
	d.mu.Lock()
	slot := d.slot
	st := d.state
	d.mu.Unlock()
	if st == StateEstablished || st == StateFailed {
		return
	}
	d.cancelTimer()
	d.transitionToFailed(ReasonCancelled, slot)
}

// HandleMessage dispatches an inbound frame by current state (spec
// §4.1 "handle_message"): MessageA in idle/processing_A, MessageB in
// waiting_B/processing_B, FINISHED in waiting_finished (with
// early-arrival buffering handled by the caller retrying once the
// state reaches waiting_finished — the driver itself does not queue
// frames across states).
func (d *Driver) HandleMessage(frame []byte) {
	if wire.LooksLikeFinished(frame) {
		d.handleFinished(frame)
		return
	}

	d.mu.Lock()
	st := d.state
	d.mu.Unlock()

	switch st {
	case StateProcessingA, StateIdle:
		d.handleMessageA(frame)
	case StateWaitingB, StateProcessingB:
		d.handleMessageB(frame)
	default:
		// Stray frame for a state that no longer accepts one; ignored
		// rather than failed, since it may be a harmless retransmit.
	}
}

func (d *Driver) handleMessageA(frame []byte) {
	msg, err := wire.DecodeMessageA(frame)
	if err != nil {
		d.mu.Lock()
		slot := d.slot
		d.mu.Unlock()
		d.cancelTimer()
		d.transitionToFailed(ReasonInvalidMessageFormat, slot)
		return
	}
	if err := d.ctx.ProcessMessageA(msg, d.peer); err != nil {
		d.mu.Lock()
		slot := d.slot
		d.mu.Unlock()
		d.cancelTimer()
		d.transitionToFailed(AsReason(err), slot)
		return
	}

	d.mu.Lock()
	d.state = StateSendingB
	d.mu.Unlock()

	reply, _, err := d.ctx.BuildMessageB()
	if err != nil {
		d.mu.Lock()
		slot := d.slot
		d.mu.Unlock()
		d.cancelTimer()
		d.transitionToFailed(AsReason(err), slot)
		return
	}
	if err := d.transport.Send(d.peer, reply.Encode()); err != nil {
		d.mu.Lock()
		slot := d.slot
		d.mu.Unlock()
		d.cancelTimer()
		d.transitionToFailed(ReasonTransportError, slot)
		return
	}

	sk, _ := d.ctx.SessionKeys()
	d.mu.Lock()
	d.sessionKeys = sk
	d.state = StateWaitingFinished
	d.expectingFrom = wire.DirectionInitiatorToResponder
	d.mu.Unlock()

	// Responder sends its own R->I FINISHED before waiting (spec §4.1
	// "responder sends first").
	fin, err := d.buildFinished(wire.DirectionResponderToInitiator, sk)
	if err != nil {
		d.mu.Lock()
		slot := d.slot
		d.mu.Unlock()
		d.cancelTimer()
		d.transitionToFailed(ReasonCryptoError, slot)
		return
	}
	if err := d.transport.Send(d.peer, fin.Encode()); err != nil {
		d.mu.Lock()
		slot := d.slot
		d.mu.Unlock()
		d.cancelTimer()
		d.transitionToFailed(ReasonTransportError, slot)
		return
	}
}

// handleMessageB implements the MessageB re-entrancy guard (spec §4.1
// point 2): this pass's epoch is captured before any suspension point
// and re-checked before the result is allowed to mutate state.
func (d *Driver) handleMessageB(frame []byte) {
	d.mu.Lock()
	myEpoch := atomic.AddUint64(&d.epoch, 1)
	d.state = StateProcessingB
	slot := d.slot
	d.mu.Unlock()

	msg, err := wire.DecodeMessageB(frame)
	if err != nil {
		d.finishMessageBPass(myEpoch, slot, nil, Fail(ReasonInvalidMessageFormat, ""))
		return
	}
	sk, err := d.ctx.ProcessMessageB(msg)
	d.finishMessageBPass(myEpoch, slot, sk, err)
}

func (d *Driver) finishMessageBPass(epoch uint64, slot *PendingResult, sk *transcript.SessionKeys, err error) {
	d.mu.Lock()
	current := atomic.LoadUint64(&d.epoch)
	if current != epoch {
		// A newer MessageB pass (or a timeout/cancel) has already
		// moved the state machine on; this result is obsolete.
		d.mu.Unlock()
		return
	}
	if err != nil {
		d.mu.Unlock()
		d.cancelTimer()
		d.transitionToFailed(AsReason(err), slot)
		return
	}
	d.sessionKeys = sk
	d.state = StateWaitingFinished
	d.expectingFrom = wire.DirectionResponderToInitiator
	d.mu.Unlock()

	// The initiator replies with its own I->R FINISHED once it has
	// verified the responder's (handleFinished drives that reply);
	// nothing further to send here.
}

func (d *Driver) buildFinished(direction byte, sk *transcript.SessionKeys) (wire.Finished, error) {
	// The sender MACs with its own send_key, which by construction
	// of the symmetric key schedule equals the verifier's
	// receive_key for the same direction.
	fdir := transcript.FinishedR2I
	if direction == wire.DirectionInitiatorToResponder {
		fdir = transcript.FinishedI2R
	}
	macKey, err := transcript.DeriveFinishedMACKey(sk.SendKey[:], fdir, sk.FinalTranscriptHash[:])
	if err != nil {
		return wire.Finished{}, err
	}
	mac := hmac.New(sha256.New, macKey)
	mac.Write(sk.FinalTranscriptHash[:])
	var out wire.Finished
	out.Direction = direction
	copy(out.MAC[:], mac.Sum(nil))
	return out, nil
}

func (d *Driver) verifyFinished(f wire.Finished, sk *transcript.SessionKeys) error {
	fdir := transcript.FinishedI2R
	baseKey := sk.ReceiveKey[:]
	if f.Direction == wire.DirectionResponderToInitiator {
		fdir = transcript.FinishedR2I
	}
	macKey, err := transcript.DeriveFinishedMACKey(baseKey, fdir, sk.FinalTranscriptHash[:])
	if err != nil {
		return err
	}
	mac := hmac.New(sha256.New, macKey)
	mac.Write(sk.FinalTranscriptHash[:])
	expected := mac.Sum(nil)
	if !hmac.Equal(expected, f.MAC[:]) {
		return fmt.Errorf("handshake: FINISHED MAC mismatch")
	}
	return nil
}

func (d *Driver) handleFinished(frame []byte) {
	fin, err := wire.DecodeFinished(frame)
	if err != nil {
		return
	}

	d.mu.Lock()
	st := d.state
	sk := d.sessionKeys
	expecting := d.expectingFrom
	slot := d.slot
	d.mu.Unlock()

	if st != StateWaitingFinished || sk == nil {
		// Early arrival before this side reached waiting_finished is
		// not buffered by the driver itself; the transport layer is
		// expected to redeliver (see HandleMessage doc comment).
		return
	}
	if fin.Direction != expecting {
		return
	}

	if err := d.verifyFinished(fin, sk); err != nil {
		d.cancelTimer()
		d.transitionToFailed(ReasonKeyConfirmationFailed, slot)
		return
	}

	if d.role == "initiator" {
		// The initiator verified the responder's R->I FINISHED; now
		// send its own I->R FINISHED to complete confirmation.
		out, err := d.buildFinished(wire.DirectionInitiatorToResponder, sk)
		if err != nil {
			d.cancelTimer()
			d.transitionToFailed(ReasonCryptoError, slot)
			return
		}
		if err := d.transport.Send(d.peer, out.Encode()); err != nil {
			d.cancelTimer()
			d.transitionToFailed(ReasonTransportError, slot)
			return
		}
	}

	d.mu.Lock()
	d.state = StateEstablished
	d.mu.Unlock()
	d.cancelTimer()
	if slot != nil {
		slot.resolve(Result{SessionKeys: sk})
	}
}

// Wait blocks until slot resolves and returns its result. Callers
// that need a context.Context-bound wait should select on slot.Done()
// directly instead.
func (slot *PendingResult) Wait() Result {
	<-slot.done
	return slot.result
}

// Done exposes the completion channel for select-based waiting.
func (slot *PendingResult) Done() <-chan struct{} {
	return slot.done
}
