// Package transport defines the narrow byte-oriented interfaces that
// carry handshake and session frames across whatever concrete network
// a deployment chooses (spec.md names Bonjour/LAN/QUIC; this pack's
// working implementation, transport/wstransport, runs over
// WebSocket). The handshake and session packages never import this
// one — they depend only on these small structural interfaces, and a
// concrete transport.FrameSender satisfies handshake.Transport without
// either package knowing about the other.
package transport

// FrameSender is the outbound half of a transport: hand a fully
// wire-encoded frame (a MessageA, MessageB, or Finished produced by
// the wire package) to peer. Structurally identical to
// handshake.Transport.
type FrameSender interface {
	Send(peer string, frame []byte) error
}

// Receiver is the inbound half: deliver a frame received from a peer
// to whatever is waiting for it. Structurally identical to the
// HandleMessage method *handshake.Driver already exposes.
type Receiver interface {
	HandleMessage(frame []byte)
}

// Registry resolves a peer identifier to the Receiver that should
// process frames arriving from it. A concrete server-side transport
// looks up the Receiver for each inbound connection before handing
// off bytes, so one listener can serve many concurrently-handshaking
// peers.
type Registry interface {
	ReceiverFor(peer string) (Receiver, bool)
}

// StaticRegistry is a Registry backed by a fixed peer->Receiver map,
// useful for tests and single-peer deployments where the responder
// set is known up front rather than discovered dynamically.
type StaticRegistry map[string]Receiver

// ReceiverFor implements Registry.
func (r StaticRegistry) ReceiverFor(peer string) (Receiver, bool) {
	recv, ok := r[peer]
	return recv, ok
}
