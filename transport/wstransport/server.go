package wstransport

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skybridge-project/skybridge/transport"
)

// PeerParam is the URL query parameter an inbound connection uses to
// identify which peer it is — e.g. wss://host/handshake?peer=alice.
// A real deployment that authenticates peers via TLS client certs or
// a prior discovery step can substitute its own resolution by wiring
// a different transport.Registry; the query parameter is this pack's
// demo-friendly default.
const PeerParam = "peer"

// Server accepts inbound WebSocket connections, resolves the
// connecting peer against a transport.Registry, and thereafter
// dispatches every binary frame it receives from that peer to the
// Receiver the Registry returned. It also implements
// transport.FrameSender so the same already-open connection carries
// replies back out — handshakes and sessions in this pack are
// peer-to-peer, not request/response, so the server side must be able
// to push frames unprompted just as the client side can.
type Server struct {
	registry transport.Registry
	upgrader websocket.Upgrader

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu    sync.RWMutex
	conns map[string]*serverConn
}

type serverConn struct {
	conn *websocket.Conn
	// wmu serializes writes: gorilla/websocket permits at most one
	// concurrent writer per connection, but Send may be called
	// concurrently with the frame this connection's own read loop is
	// about to produce a reply for.
	wmu sync.Mutex
}

// NewServer constructs a Server that resolves inbound peers via
// registry.
func NewServer(registry transport.Registry) *Server {
	return &Server{
		registry:     registry,
		upgrader:     websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		readTimeout:  60 * time.Second,
		writeTimeout: 30 * time.Second,
		conns:        make(map[string]*serverConn),
	}
}

// WithTimeouts overrides the default read/write timeouts.
func (s *Server) WithTimeouts(read, write time.Duration) *Server {
	s.readTimeout, s.writeTimeout = read, write
	return s
}

// Handler returns an http.Handler that upgrades each request to a
// WebSocket connection, identifies the connecting peer from the
// PeerParam query parameter, and — if the Registry has a Receiver for
// that peer — starts relaying frames to it.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		peer := r.URL.Query().Get(PeerParam)
		if peer == "" {
			http.Error(w, "missing peer query parameter", http.StatusBadRequest)
			return
		}
		recv, ok := s.registry.ReceiverFor(peer)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown peer %q", peer), http.StatusNotFound)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		sc := &serverConn{conn: conn}
		s.addConn(peer, sc)
		defer s.removeConn(peer)

		s.readLoop(sc, recv)
	})
}

func (s *Server) readLoop(sc *serverConn, recv transport.Receiver) {
	defer sc.conn.Close()
	for {
		if err := sc.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return
		}
		_, frame, err := sc.conn.ReadMessage()
		if err != nil {
			return
		}
		recv.HandleMessage(frame)
	}
}

// Send implements transport.FrameSender, pushing frame out over the
// connection currently registered for peer. Returns an error if peer
// has no live connection.
func (s *Server) Send(peer string, frame []byte) error {
	s.mu.RLock()
	sc, ok := s.conns[peer]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("wstransport: no live connection for peer %q", peer)
	}

	sc.wmu.Lock()
	defer sc.wmu.Unlock()
	if err := sc.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return fmt.Errorf("wstransport: set write deadline: %w", err)
	}
	if err := sc.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("wstransport: write frame: %w", err)
	}
	return nil
}

func (s *Server) addConn(peer string, sc *serverConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[peer] = sc
}

func (s *Server) removeConn(peer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, peer)
}

// ConnectionCount reports how many peers currently have a live
// connection.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Close closes every live connection the server is tracking.
func (s *Server) Close() error {
	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.conns))
	for _, sc := range s.conns {
		conns = append(conns, sc)
	}
	s.conns = make(map[string]*serverConn)
	s.mu.Unlock()

	var firstErr error
	for _, sc := range conns {
		if err := sc.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
