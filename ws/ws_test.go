package ws

import (
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/wscore/core/eventloop"
	"github.com/momentics/wscore/wsproto"
)

func newTestLoop(t *testing.T) *eventloop.EventLoop {
	t.Helper()
	loop := eventloop.NewEventLoop(32, 256, zap.NewNop())
	go loop.Run()
	t.Cleanup(loop.Stop)
	return loop
}

// TestServerClientHandshakeAndEcho drives a real TCP loopback connection
// through Server/Client, verifying the handshake completes and a text
// message sent by the client is echoed back by the server's OnMessage
// handler writing it straight back.
func TestServerClientHandshakeAndEcho(t *testing.T) {
	clientLoop := newTestLoop(t)

	srvConnected := make(chan struct{}, 1)
	srv := NewServer(Options{
		OnConnected: func(c *Conn) { srvConnected <- struct{}{} },
		OnMessage: func(c *Conn, msg wsproto.Message) {
			if msg.Kind == wsproto.MsgText {
				_ = c.WriteText(msg.Payload)
			}
		},
	}, 1, 32, 256, zap.NewNop())

	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(srv.Stop)

	echoed := make(chan string, 1)
	client := NewClient(clientLoop, zap.NewNop())
	conn, err := client.Connect(fmt.Sprintf("ws://%s/chat", srv.Addr().String()), Options{
		OnMessage: func(c *Conn, msg wsproto.Message) {
			if msg.Kind == wsproto.MsgText {
				echoed <- string(msg.Payload)
			}
		},
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-srvConnected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side handshake completion")
	}

	if err := conn.WriteText([]byte("hello world")); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	select {
	case got := <-echoed:
		if got != "hello world" {
			t.Fatalf("echoed payload mismatch: got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

// TestClientConnectRejectsNonWebSocketScheme exercises Connect's upfront URL
// validation without touching the network.
func TestClientConnectRejectsNonWebSocketScheme(t *testing.T) {
	loop := newTestLoop(t)
	client := NewClient(loop, zap.NewNop())
	if _, err := client.Connect("http://example.com/", Options{}); err == nil {
		t.Fatalf("expected error for non-ws scheme")
	}
}

// TestServerClosesOversizeMessageWith1009 sends a text message past the
// server's MaxMessageSize and asserts the server replies with a close frame
// carrying CloseMessageTooBig rather than the generic CloseProtocolError.
func TestServerClosesOversizeMessageWith1009(t *testing.T) {
	clientLoop := newTestLoop(t)

	srvConnected := make(chan struct{}, 1)
	srv := NewServer(Options{
		MaxMessageSize: 16,
		OnConnected:    func(c *Conn) { srvConnected <- struct{}{} },
	}, 1, 32, 256, zap.NewNop())

	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(srv.Stop)

	closeFrames := make(chan []byte, 1)
	client := NewClient(clientLoop, zap.NewNop())
	conn, err := client.Connect(fmt.Sprintf("ws://%s/chat", srv.Addr().String()), Options{
		HandleClose: true,
		OnMessage: func(c *Conn, msg wsproto.Message) {
			if msg.Kind == wsproto.MsgClose {
				closeFrames <- msg.Payload
			}
		},
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-srvConnected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side handshake completion")
	}

	if err := conn.WriteText(make([]byte, 64)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	select {
	case payload := <-closeFrames:
		if got := int(binary.BigEndian.Uint16(payload[:2])); got != wsproto.CloseMessageTooBig {
			t.Fatalf("expected CloseMessageTooBig, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close frame")
	}
}

func TestOptionsWithDefaultsFillsZeroValues(t *testing.T) {
	o := Options{}.withDefaults()
	if o.MaxHandshakeSize != 1024 {
		t.Fatalf("expected default MaxHandshakeSize 1024, got %d", o.MaxHandshakeSize)
	}
	if o.MaxMessageSize != 64*1024*1024 {
		t.Fatalf("expected default MaxMessageSize, got %d", o.MaxMessageSize)
	}
}
