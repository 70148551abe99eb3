// File: wsblocking/conn.go
// Package wsblocking is a synchronous WebSocket façade built directly on
// net.Conn and wsproto, independent of core/eventloop — for callers that
// want a plain blocking read/write API instead of the event-driven ws
// package (spec.md §6.2's "analogous" blocking surface).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the teacher's protocol/connection.go WSConnection: the
// recvLoop's inline handleControl (auto-pong, pong no-op, echo-close then
// shutdown) is reproduced here synchronously inside ReadMessage instead of
// a background goroutine feeding channels, since this package has no event
// loop to delegate I/O scheduling to.

package wsblocking

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/internal/session"
	"github.com/momentics/wscore/wsproto"
)

// Options mirrors ws.Options' limits and control-frame handling knobs for
// the blocking façade.
type Options struct {
	MaxHandshakeSize uint64
	MaxMessageSize   uint64
	HandlePing       bool
	HandlePong       bool
	HandleClose      bool
}

func (o Options) withDefaults() Options {
	if o.MaxHandshakeSize == 0 {
		o.MaxHandshakeSize = 1024
	}
	if o.MaxMessageSize == 0 {
		o.MaxMessageSize = 64 * 1024 * 1024
	}
	return o
}

// Conn is a single blocking WebSocket connection wrapping a net.Conn.
type Conn struct {
	id       uuid.UUID
	nc       net.Conn
	isClient bool
	opts     Options

	writeMu sync.Mutex

	msgParser *wsproto.MessageParser
	readBuf   []byte
	rawBuf    []byte
	closed    bool

	ctxOnce sync.Once
	ctx     api.Context
}

func newConn(nc net.Conn, isClient bool, opts Options) *Conn {
	opts = opts.withDefaults()
	return &Conn{
		id:        uuid.New(),
		nc:        nc,
		isClient:  isClient,
		opts:      opts,
		msgParser: wsproto.NewMessageParser(opts.MaxMessageSize),
		rawBuf:    make([]byte, 32*1024),
	}
}

// Dial connects to a WebSocket server at rawURL and performs the client
// handshake, blocking until it completes (spec.md §4.8 "Client connection").
func Dial(rawURL string, opts Options) (*Conn, error) {
	host, path, err := parseWSURL(rawURL)
	if err != nil {
		return nil, err
	}
	nc, err := net.Dial("tcp", host)
	if err != nil {
		return nil, fmt.Errorf("wsblocking: dial %s: %w", host, err)
	}

	c := newConn(nc, true, opts)
	key, err := wsproto.NewClientKey()
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	if _, err := nc.Write(wsproto.BuildUpgradeRequest(hostnameOf(host), path, key)); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("wsblocking: send handshake: %w", err)
	}

	surplus, err := c.readHandshake(func(buf []byte) (int, error) {
		return wsproto.ParseResponse(buf, key)
	})
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	c.readBuf = surplus
	return c, nil
}

// Accept performs the server-side handshake over an already-accepted
// net.Conn, blocking until it completes or fails.
func Accept(nc net.Conn, opts Options) (*Conn, error) {
	c := newConn(nc, false, opts)
	var key string
	surplus, err := c.readHandshake(func(buf []byte) (int, error) {
		var headerLen int
		var perr error
		key, headerLen, perr = wsproto.ParseRequest(buf)
		return headerLen, perr
	})
	if err != nil {
		_, _ = nc.Write(wsproto.BuildBadRequest(err.Error()))
		_ = nc.Close()
		return nil, err
	}
	if _, err := nc.Write(wsproto.BuildUpgradeResponse(key)); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("wsblocking: send handshake response: %w", err)
	}
	c.readBuf = surplus
	return c, nil
}

// readHandshake accumulates bytes from nc until HeadersComplete, then runs
// parse; it returns the bytes following the header block.
func (c *Conn) readHandshake(parse func(buf []byte) (int, error)) ([]byte, error) {
	var buf []byte
	tmp := make([]byte, 4096)
	for {
		if uint64(len(buf)) > c.opts.MaxHandshakeSize {
			return nil, fmt.Errorf("wsblocking: handshake exceeds %d bytes", c.opts.MaxHandshakeSize)
		}
		if wsproto.HeadersComplete(buf) {
			headerLen, err := parse(buf)
			if err != nil {
				return nil, err
			}
			return append([]byte(nil), buf[headerLen:]...), nil
		}
		n, err := c.nc.Read(tmp)
		if err != nil {
			return nil, fmt.Errorf("wsblocking: read handshake: %w", err)
		}
		buf = append(buf, tmp[:n]...)
	}
}

// ID returns this connection's unique identifier, generated once at
// construction and stable for its lifetime.
func (c *Conn) ID() uuid.UUID { return c.id }

// Status reports this connection's lifecycle stage as an api.SessionStatus.
// A blocking Conn only ever exists post-handshake (Dial/Accept block until
// it completes), so the only transition tracked here is to SessionClosed.
func (c *Conn) Status() api.SessionStatus {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return api.SessionClosed
	}
	return api.SessionActive
}

// Ctx returns this connection's per-connection key/value context store,
// lazily created on first use.
func (c *Conn) Ctx() api.Context {
	c.ctxOnce.Do(func() { c.ctx = session.NewContextStore() })
	return c.ctx
}

// ReadMessage blocks until a complete application message (Text or Binary)
// is available, transparently auto-handling Ping/Pong/Close per Options
// exactly as ws.Conn does (spec.md §4.8's message-kind table).
func (c *Conn) ReadMessage() (wsproto.Message, error) {
	for {
		if len(c.readBuf) > 0 {
			consumed, msgs, err := c.msgParser.Consume(c.readBuf)
			c.readBuf = c.readBuf[consumed:]
			if err != nil {
				if errors.Is(err, wsproto.ErrMessageTooBig) {
					return wsproto.Message{}, c.protocolFailure(wsproto.CloseMessageTooBig, err)
				}
				return wsproto.Message{}, c.protocolFailure(wsproto.CloseProtocolError, err)
			}
			for _, msg := range msgs {
				done, out, err := c.handleOrEmit(msg)
				if done {
					return out, err
				}
			}
			if consumed > 0 {
				continue
			}
		}

		n, err := c.nc.Read(c.rawBuf)
		if err != nil {
			return wsproto.Message{}, fmt.Errorf("wsblocking: read: %w", err)
		}
		if n == 0 {
			return wsproto.Message{}, io.EOF
		}
		c.readBuf = append(c.readBuf, c.rawBuf[:n]...)
	}
}

// handleOrEmit applies the control-frame auto-handling rules and reports
// whether msg should be returned to the caller of ReadMessage.
func (c *Conn) handleOrEmit(msg wsproto.Message) (done bool, out wsproto.Message, err error) {
	switch msg.Kind {
	case wsproto.MsgText:
		if !utf8.Valid(msg.Payload) {
			return true, wsproto.Message{}, c.protocolFailure(wsproto.CloseInvalidPayload, fmt.Errorf("wsblocking: text message is not valid UTF-8"))
		}
		return true, msg, nil
	case wsproto.MsgBinary:
		return true, msg, nil
	case wsproto.MsgPing:
		if c.opts.HandlePing {
			return true, msg, nil
		}
		if werr := c.WritePong(msg.Payload); werr != nil {
			return true, wsproto.Message{}, werr
		}
		return false, wsproto.Message{}, nil
	case wsproto.MsgPong:
		if c.opts.HandlePong {
			return true, msg, nil
		}
		return false, wsproto.Message{}, nil
	case wsproto.MsgClose:
		if c.opts.HandleClose {
			return true, msg, nil
		}
		echoCode := wsproto.ParseCloseReceived(msg.Payload)
		_ = c.WriteClose(echoCode, "")
		_ = c.Close()
		return true, wsproto.Message{}, io.EOF
	default:
		return false, wsproto.Message{}, nil
	}
}

// protocolFailure sends a close frame with code and tears down the socket,
// returning a structured *api.Error so callers can branch on ErrorCode
// instead of string-matching the message.
func (c *Conn) protocolFailure(code int, cause error) error {
	_ = c.WriteClose(code, cause.Error())
	_ = c.Close()
	return api.Errf(errCodeForCloseCode(code), "wsblocking: %v", cause)
}

func errCodeForCloseCode(code int) api.ErrorCode {
	if code == wsproto.CloseMessageTooBig {
		return api.ErrCodeCapacity
	}
	return api.ErrCodeProtocol
}

func (c *Conn) writeFrame(op wsproto.Opcode, payload []byte) error {
	raw, err := wsproto.EncodeFrame(op, payload, c.isClient)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.nc.Write(raw)
	return err
}

// WriteText sends payload as a single unfragmented Text message.
func (c *Conn) WriteText(payload []byte) error { return c.writeFrame(wsproto.OpText, payload) }

// WriteBinary sends payload as a single unfragmented Binary message.
func (c *Conn) WriteBinary(payload []byte) error { return c.writeFrame(wsproto.OpBinary, payload) }

// WritePing sends a Ping frame carrying payload.
func (c *Conn) WritePing(payload []byte) error { return c.writeFrame(wsproto.OpPing, payload) }

// WritePong sends a Pong frame carrying payload.
func (c *Conn) WritePong(payload []byte) error { return c.writeFrame(wsproto.OpPong, payload) }

// WriteClose sends a Close frame with the given code and reason.
func (c *Conn) WriteClose(code int, reason string) error {
	raw, err := wsproto.EncodeClose(code, reason, c.isClient)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.nc.Write(raw)
	return err
}

// Close closes the underlying socket; it sends no close frame (ReadMessage's
// close and protocol-failure paths call WriteClose before it). Idempotent.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.writeMu.Unlock()
	if alreadyClosed {
		return nil
	}
	return c.nc.Close()
}
