package wstransport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skybridge-project/skybridge/transport"
)

type recordingReceiver struct {
	got chan []byte
}

func newRecordingReceiver() *recordingReceiver {
	return &recordingReceiver{got: make(chan []byte, 8)}
}

func (r *recordingReceiver) HandleMessage(frame []byte) {
	r.got <- frame
}

func waitFrame(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestClientSendsFrameServerReceives(t *testing.T) {
	serverRecv := newRecordingReceiver()
	registry := transport.StaticRegistry{"initiator": serverRecv}
	srv := NewServer(registry)

	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "?" + PeerParam + "=initiator"

	clientRecv := newRecordingReceiver()
	client := NewClient("responder", wsURL, clientRecv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if err := client.Send("responder", []byte("message-a")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := waitFrame(t, serverRecv.got)
	if string(got) != "message-a" {
		t.Fatalf("server got %q, want %q", got, "message-a")
	}
}

func TestServerSendsFrameBackOverSameConnection(t *testing.T) {
	serverRecv := newRecordingReceiver()
	registry := transport.StaticRegistry{"initiator": serverRecv}
	srv := NewServer(registry)

	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "?" + PeerParam + "=initiator"

	clientRecv := newRecordingReceiver()
	client := NewClient("responder", wsURL, clientRecv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	// Let the server register the connection before we push through it.
	if err := client.Send("responder", []byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFrame(t, serverRecv.got)

	if err := srv.Send("initiator", []byte("message-b")); err != nil {
		t.Fatalf("server Send: %v", err)
	}

	got := waitFrame(t, clientRecv.got)
	if string(got) != "message-b" {
		t.Fatalf("client got %q, want %q", got, "message-b")
	}
}

func TestClientSendRejectsMismatchedPeer(t *testing.T) {
	client := NewClient("responder", "ws://unused", newRecordingReceiver())
	if err := client.Send("someone-else", []byte("x")); err == nil {
		t.Fatal("expected error for mismatched peer")
	}
}

func TestServerHandlerRejectsUnknownPeer(t *testing.T) {
	registry := transport.StaticRegistry{}
	srv := NewServer(registry)
	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "?" + PeerParam + "=ghost"
	client := NewClient("ghost", wsURL, newRecordingReceiver())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err == nil {
		client.Close()
		t.Fatal("expected connect to fail for unknown peer")
	}
}

func TestServerHandlerRejectsMissingPeerParam(t *testing.T) {
	registry := transport.StaticRegistry{}
	srv := NewServer(registry)
	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http")
	client := NewClient("nobody", wsURL, newRecordingReceiver())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err == nil {
		client.Close()
		t.Fatal("expected connect to fail without peer query parameter")
	}
}

func TestServerConnectionCountTracksLifecycle(t *testing.T) {
	serverRecv := newRecordingReceiver()
	registry := transport.StaticRegistry{"initiator": serverRecv}
	srv := NewServer(registry)
	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "?" + PeerParam + "=initiator"
	client := NewClient("responder", wsURL, newRecordingReceiver())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := client.Send("responder", []byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFrame(t, serverRecv.got)

	if n := srv.ConnectionCount(); n != 1 {
		t.Fatalf("ConnectionCount = %d, want 1", n)
	}

	client.Close()
	time.Sleep(100 * time.Millisecond)

	if n := srv.ConnectionCount(); n != 0 {
		t.Fatalf("ConnectionCount after close = %d, want 0", n)
	}
}
