// File: ws/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conn is the engine connection state machine of spec.md §4.8: it owns one
// core/eventloop.Source, drives it through Handshake -> ReadMessage ->
// Closed/Failed, and implements eventloop.EventThread so the loop delivers
// every completion event for its socket on the loop's single goroutine.
// Grounded on the teacher's internal/session/session.go for the
// done-channel/once shutdown shape and protocol/ws_connection.go for the
// overall read/write/close responsibilities, generalised onto the
// non-blocking event-loop model this module's transport layer requires.

package ws

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/core/eventloop"
	"github.com/momentics/wscore/internal/session"
	"github.com/momentics/wscore/wsproto"
)

// connState mirrors spec.md §3.10's {Handshake, ReadMessage, Closed, Failed}.
type connState int32

const (
	stateHandshake connState = iota
	stateReadMessage
	stateClosed
	stateFailed
)

// Conn is a single WebSocket connection's state machine, bound to one
// eventloop.Source. All of its Handle calls run on that source's owning
// loop's goroutine, so the fields below need no locking beyond
// pendingOutbound (touched by WriteX calls from arbitrary goroutines).
type Conn struct {
	id   uuid.UUID
	loop *eventloop.EventLoop
	src  *eventloop.Source
	log  *zap.Logger

	opts     Options
	isClient bool

	state int32 // connState, read and written atomically (Status and Close may run on any goroutine)

	handshakeBuf []byte
	clientKey    string // client-side: key sent, to verify the server's Accept
	host, path   string // client-side: for BuildUpgradeRequest

	msgParser *wsproto.MessageParser

	pendingOutbound atomic.Int64
	closeOnce       sync.Once
	closeErr        error

	ctxOnce sync.Once
	ctx     api.Context
}

func newConn(loop *eventloop.EventLoop, src *eventloop.Source, opts Options, isClient bool, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	c := &Conn{
		id:        uuid.New(),
		loop:      loop,
		src:       src,
		log:       log,
		opts:      opts,
		isClient:  isClient,
		msgParser: wsproto.NewMessageParser(opts.MaxMessageSize),
	}
	src.SetThread(c)
	return c
}

func (c *Conn) setState(s connState) { atomic.StoreInt32(&c.state, int32(s)) }
func (c *Conn) getState() connState  { return connState(atomic.LoadInt32(&c.state)) }

// ID returns this connection's unique identifier, stable for its lifetime
// and suitable for correlating log lines and metrics across the event loop.
func (c *Conn) ID() uuid.UUID { return c.id }

// Source returns the underlying event-loop source, for callers that need the
// raw net.Conn (logging, peer address, etc).
func (c *Conn) Source() *eventloop.Source { return c.src }

// IsClient reports whether this connection masks its outgoing frames.
func (c *Conn) IsClient() bool { return c.isClient }

// Status reports this connection's lifecycle stage as an api.SessionStatus,
// letting callers outside this package observe it without reaching into
// the unexported connState enum.
func (c *Conn) Status() api.SessionStatus {
	switch c.getState() {
	case stateHandshake:
		return api.SessionHandshake
	case stateReadMessage:
		return api.SessionActive
	case stateClosed:
		return api.SessionClosed
	case stateFailed:
		return api.SessionFailed
	default:
		return api.SessionUnknown
	}
}

// Ctx returns this connection's per-connection key/value context store,
// lazily created on first use, for attaching application state (auth
// principal, request-scoped tracing IDs) alongside the connection.
func (c *Conn) Ctx() api.Context {
	c.ctxOnce.Do(func() { c.ctx = session.NewContextStore() })
	return c.ctx
}

// Handle implements eventloop.EventThread (spec.md §3.7).
func (c *Conn) Handle(ev eventloop.Event) error {
	switch e := ev.(type) {
	case eventloop.Start:
		return c.onStart()
	case eventloop.Read:
		return c.onRead(e.Data)
	case eventloop.Write:
		return c.onWrite(e.Written)
	case eventloop.Error:
		return c.fail(e.Err)
	case eventloop.Closed:
		c.setState(stateClosed)
		return nil
	default:
		return nil
	}
}

func (c *Conn) onStart() error {
	if !c.isClient {
		return nil
	}
	key, err := wsproto.NewClientKey()
	if err != nil {
		return c.fail(err)
	}
	c.clientKey = key
	req := wsproto.BuildUpgradeRequest(c.host, c.path, key)
	if err := c.write(req); err != nil {
		return c.fail(err)
	}
	return c.loop.Read(c.src)
}

func (c *Conn) onRead(data []byte) error {
	if len(data) == 0 {
		return c.disconnect(fmt.Errorf("ws: peer closed connection"))
	}

	switch c.getState() {
	case stateHandshake:
		return c.onHandshakeBytes(data)
	case stateReadMessage:
		return c.onMessageBytes(data)
	default:
		return nil
	}
}

func (c *Conn) onHandshakeBytes(data []byte) error {
	c.handshakeBuf = append(c.handshakeBuf, data...)
	if uint64(len(c.handshakeBuf)) > c.opts.MaxHandshakeSize {
		_ = c.write(wsproto.BuildBadRequest("handshake too large"))
		return c.fail(fmt.Errorf("ws: handshake exceeds %d bytes", c.opts.MaxHandshakeSize))
	}
	if !wsproto.HeadersComplete(c.handshakeBuf) {
		return c.loop.Read(c.src)
	}

	if c.isClient {
		headerLen, err := wsproto.ParseResponse(c.handshakeBuf, c.clientKey)
		if err != nil {
			return c.fail(err)
		}
		surplus := append([]byte(nil), c.handshakeBuf[headerLen:]...)
		c.handshakeBuf = nil
		c.setState(stateReadMessage)
		if c.opts.OnConnected != nil {
			c.opts.OnConnected(c)
		}
		if len(surplus) > 0 {
			if err := c.onMessageBytes(surplus); err != nil {
				return err
			}
		}
		return c.loop.Read(c.src)
	}

	key, headerLen, err := wsproto.ParseRequest(c.handshakeBuf)
	if err != nil {
		_ = c.write(wsproto.BuildBadRequest(err.Error()))
		return c.fail(err)
	}
	surplus := append([]byte(nil), c.handshakeBuf[headerLen:]...)
	c.handshakeBuf = nil
	if err := c.write(wsproto.BuildUpgradeResponse(key)); err != nil {
		return c.fail(err)
	}
	c.setState(stateReadMessage)
	if c.opts.OnConnected != nil {
		c.opts.OnConnected(c)
	}
	if len(surplus) > 0 {
		if err := c.onMessageBytes(surplus); err != nil {
			return err
		}
	}
	return c.loop.Read(c.src)
}

func (c *Conn) onMessageBytes(data []byte) error {
	consumed := 0
	for consumed < len(data) {
		n, msgs, err := c.msgParser.Consume(data[consumed:])
		consumed += n
		if err != nil {
			if errors.Is(err, wsproto.ErrMessageTooBig) {
				return c.protocolFailure(wsproto.CloseMessageTooBig, err)
			}
			return c.protocolFailure(wsproto.CloseProtocolError, err)
		}
		for _, msg := range msgs {
			if err := c.dispatchMessage(msg); err != nil {
				return err
			}
			if c.getState() != stateReadMessage {
				return nil
			}
		}
		if n == 0 {
			break
		}
	}
	if c.getState() == stateReadMessage {
		return c.loop.Read(c.src)
	}
	return nil
}

func (c *Conn) dispatchMessage(msg wsproto.Message) error {
	switch msg.Kind {
	case wsproto.MsgText:
		if !utf8.Valid(msg.Payload) {
			return c.protocolFailure(wsproto.CloseInvalidPayload, fmt.Errorf("ws: text message is not valid UTF-8"))
		}
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(c, msg)
		}
	case wsproto.MsgBinary:
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(c, msg)
		}
	case wsproto.MsgPing:
		if c.opts.HandlePing {
			if c.opts.OnMessage != nil {
				c.opts.OnMessage(c, msg)
			}
			return nil
		}
		return c.writeFrame(wsproto.OpPong, msg.Payload)
	case wsproto.MsgPong:
		if c.opts.HandlePong && c.opts.OnMessage != nil {
			c.opts.OnMessage(c, msg)
		}
	case wsproto.MsgClose:
		if c.opts.HandleClose {
			if c.opts.OnMessage != nil {
				c.opts.OnMessage(c, msg)
			}
			return nil
		}
		return c.handleCloseProtocol(msg.Payload)
	}
	return nil
}

// handleCloseProtocol implements the receiver-side close protocol of
// spec.md §4.8.
func (c *Conn) handleCloseProtocol(payload []byte) error {
	echoCode := wsproto.ParseCloseReceived(payload)
	if err := c.WriteClose(echoCode, ""); err != nil {
		return c.fail(err)
	}
	c.setState(stateClosed)
	c.maybeFinishTeardown()
	return nil
}

// protocolFailure sends a close frame with code and transitions to Closed,
// matching spec.md §7's "protocol error -> close with selected code". The
// recorded cause is a structured *api.Error so OnDisconnected handlers can
// branch on ErrorCode instead of string-matching the message.
func (c *Conn) protocolFailure(code int, cause error) error {
	_ = c.WriteClose(code, cause.Error())
	c.setState(stateClosed)
	c.recordCloseErr(api.Errf(errCodeForCloseCode(code), "ws: %v", cause))
	c.maybeFinishTeardown()
	return nil
}

func errCodeForCloseCode(code int) api.ErrorCode {
	if code == wsproto.CloseMessageTooBig {
		return api.ErrCodeCapacity
	}
	return api.ErrCodeProtocol
}

func (c *Conn) onWrite(written int) error {
	c.pendingOutbound.Add(-int64(written))
	c.maybeFinishTeardown()
	return nil
}

// recordCloseErr remembers the error that triggered teardown, if none has
// been recorded yet; later calls (e.g. from a subsequent Write completion)
// never overwrite the original cause. Only ever called from the owning
// loop's goroutine, so no locking is needed.
func (c *Conn) recordCloseErr(err error) {
	if c.closeErr == nil {
		c.closeErr = err
	}
}

// maybeFinishTeardown implements spec.md §4.8's "Connection teardown &
// in-flight writes": only destroy once state is Closed and pending
// outbound bytes has drained to zero.
func (c *Conn) maybeFinishTeardown() {
	if c.getState() != stateClosed && c.getState() != stateFailed {
		return
	}
	if c.pendingOutbound.Load() > 0 {
		return
	}
	c.closeOnce.Do(func() {
		_ = c.src.Close()
		if c.opts.OnDisconnected != nil {
			c.opts.OnDisconnected(c, c.closeErr)
		}
	})
}

func (c *Conn) fail(err error) error {
	c.setState(stateFailed)
	c.recordCloseErr(err)
	c.maybeFinishTeardown()
	return nil
}

func (c *Conn) disconnect(err error) error {
	c.setState(stateClosed)
	c.recordCloseErr(err)
	c.maybeFinishTeardown()
	return nil
}

func (c *Conn) write(raw []byte) error {
	c.pendingOutbound.Add(int64(len(raw)))
	if err := c.loop.Write(c.src, raw); err != nil {
		c.pendingOutbound.Add(-int64(len(raw)))
		return err
	}
	return nil
}

func (c *Conn) writeFrame(op wsproto.Opcode, payload []byte) error {
	raw, err := wsproto.EncodeFrame(op, payload, c.isClient)
	if err != nil {
		return err
	}
	return c.write(raw)
}

// WriteText sends payload as a single unfragmented Text message.
func (c *Conn) WriteText(payload []byte) error { return c.writeFrame(wsproto.OpText, payload) }

// WriteBinary sends payload as a single unfragmented Binary message.
func (c *Conn) WriteBinary(payload []byte) error { return c.writeFrame(wsproto.OpBinary, payload) }

// WritePing sends a Ping frame carrying payload.
func (c *Conn) WritePing(payload []byte) error { return c.writeFrame(wsproto.OpPing, payload) }

// WritePong sends a Pong frame carrying payload.
func (c *Conn) WritePong(payload []byte) error { return c.writeFrame(wsproto.OpPong, payload) }

// WriteClose sends a Close frame with the given code and reason (spec.md
// §4.8 "Write framing").
func (c *Conn) WriteClose(code int, reason string) error {
	raw, err := wsproto.EncodeClose(code, reason, c.isClient)
	if err != nil {
		return err
	}
	return c.write(raw)
}

// Close initiates a normal close handshake: sends a Close(1000) frame and
// marks the connection Closed; actual socket teardown waits for the
// outbound bytes to drain (spec.md §4.8).
func (c *Conn) Close() error {
	if err := c.WriteClose(wsproto.CloseNormal, ""); err != nil {
		return err
	}
	c.setState(stateClosed)
	c.maybeFinishTeardown()
	return nil
}
