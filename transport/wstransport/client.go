// Package wstransport carries handshake wire frames over a persistent
// WebSocket connection: each frame is one binary WebSocket message,
// with no additional length-prefix framing, since WebSocket already
// preserves message boundaries (unlike the raw stream transports
// transport.EncodeFrame/DecodeFrame target).
package wstransport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skybridge-project/skybridge/transport"
)

// Client dials out to a single named peer and keeps the connection
// open for the lifetime of the handshake and the session that
// follows it.
type Client struct {
	peer         string
	url          string
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn

	receiver transport.Receiver
}

// NewClient constructs a Client bound to a single peer. receiver is
// handed every binary frame that peer sends back — concretely, a
// *handshake.Driver's HandleMessage.
func NewClient(peer, wsURL string, receiver transport.Receiver) *Client {
	return &Client{
		peer:         peer,
		url:          wsURL,
		dialTimeout:  30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 30 * time.Second,
		receiver:     receiver,
	}
}

// WithTimeouts overrides the default dial/read/write timeouts.
func (c *Client) WithTimeouts(dial, read, write time.Duration) *Client {
	c.dialTimeout, c.readTimeout, c.writeTimeout = dial, read, write
	return c
}

// Connect dials the peer and starts the background frame reader. A
// second call while already connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	dialer := &websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("wstransport: dial %s failed (HTTP %d): %w", c.url, resp.StatusCode, err)
		}
		return fmt.Errorf("wstransport: dial %s failed: %w", c.url, err)
	}
	c.conn = conn

	go c.readLoop(conn)
	return nil
}

// Send implements transport.FrameSender. peer must match the peer
// this Client was constructed for — a single Client always talks to
// exactly one remote, so a mismatch indicates a wiring bug upstream
// rather than a routing decision this type is meant to make.
func (c *Client) Send(peer string, frame []byte) error {
	if peer != c.peer {
		return fmt.Errorf("wstransport: client bound to peer %q, got %q", c.peer, peer)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("wstransport: not connected to %q", peer)
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("wstransport: set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("wstransport: write frame: %w", err)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return
		}
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.receiver.HandleMessage(frame)
	}
}

// Close closes the underlying connection. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}
