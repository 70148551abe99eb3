// File: ws/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client dials a WebSocket server and drives the handshake/message engine
// through a dedicated Conn, per spec.md §4.8's "Client connection" section.

package ws

import (
	"fmt"
	"net"
	"net/url"

	"go.uber.org/zap"

	"github.com/momentics/wscore/core/eventloop"
)

// Client connects to a single WebSocket server. Each call to Connect
// produces its own Conn registered on the supplied loop.
type Client struct {
	loop *eventloop.EventLoop
	log  *zap.Logger
}

// NewClient wraps an already-running EventLoop for client connections. The
// caller owns the loop's lifecycle (Run/Stop).
func NewClient(loop *eventloop.EventLoop, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{loop: loop, log: log}
}

// Connect resolves rawURL (ws://host:port/path), dials it, registers the
// socket with the client's loop, and starts the handshake. OnConnected
// fires once the handshake completes; until then the returned Conn must
// not be used to write messages.
func (cl *Client) Connect(rawURL string, opts Options) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ws: parse url %q: %w", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("ws: unsupported scheme %q", u.Scheme)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	path := u.RequestURI()
	if path == "" {
		path = "/"
	}

	conn, err := net.Dial("tcp", host)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", host, err)
	}

	src, err := cl.loop.RegisterSocket(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ws: register socket: %w", err)
	}

	c := newConn(cl.loop, src, opts, true, cl.log)
	c.host = u.Hostname()
	c.path = path
	cl.loop.AddThread(c)
	return c, nil
}
