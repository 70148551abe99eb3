// File: ws/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server accepts TCP connections on a listener registered with an
// eventloop.Group and upgrades each one to a WebSocket Conn, mirroring the
// accept-loop shape of the teacher's server/server.go Serve method but
// driven by completion events instead of a blocking Accept call per
// connection.

package ws

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/momentics/wscore/core/eventloop"
)

// Server listens for WebSocket upgrade requests and dispatches each
// accepted connection's lifecycle through Options' callbacks.
type Server struct {
	opts  Options
	log   *zap.Logger
	group *eventloop.Group

	ln        net.Listener
	lnSrc     *eventloop.Source
	acceptThr *acceptThread
}

// NewServer creates a Server backed by an eventloop.Group of numLoops
// loops, each with the given batch size and inbox ring capacity.
func NewServer(opts Options, numLoops, batchSize, ringCapacity int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if numLoops < 1 {
		numLoops = 1
	}
	return &Server{
		opts:  opts.withDefaults(),
		log:   log,
		group: eventloop.NewGroup(numLoops, batchSize, ringCapacity, log),
	}
}

// Listen binds addr and starts accepting connections across the server's
// event-loop group.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ws: listen %s: %w", addr, err)
	}
	s.ln = ln
	s.group.StartAll()

	acceptLoop := s.group.Next()
	src, err := acceptLoop.RegisterListener(ln)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("ws: register listener: %w", err)
	}
	s.lnSrc = src
	s.acceptThr = &acceptThread{server: s, loop: acceptLoop, src: src}
	src.SetThread(s.acceptThr)
	return acceptLoop.Accept(src)
}

// Addr returns the bound listen address; valid only after Listen succeeds.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop tears down every loop in the server's group, closing all
// connections.
func (s *Server) Stop() {
	s.group.StopAll()
}

// acceptThread is the EventThread bound to the listening Source; each
// Accept event upgrades the new connection and re-arms the listener.
type acceptThread struct {
	server *Server
	loop   *eventloop.EventLoop
	src    *eventloop.Source
}

func (a *acceptThread) Handle(ev eventloop.Event) error {
	accept, ok := ev.(eventloop.Accept)
	if !ok {
		return nil
	}

	loop := a.server.group.Next()
	connSrc, err := loop.RegisterSocket(accept.Conn)
	if err != nil {
		_ = accept.Conn.Close()
	} else {
		conn := newConn(loop, connSrc, a.server.opts, false, a.server.log)
		if err := loop.Read(connSrc); err != nil {
			a.server.log.Warn("ws: arm initial read failed", zap.Error(err))
			_ = conn.src.Close()
		}
	}

	return a.loop.Accept(a.src)
}
