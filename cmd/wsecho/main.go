// File: cmd/wsecho/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// wsecho is a server/client example pair demonstrating the event-loop ws
// engine end to end, analogous to the teacher's examples/echo
// and examples/reactor_echo, now driven by pflag flags and a control.Config
// instead of hardcoded constants.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/momentics/wscore/adapters"
	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/control"
	"github.com/momentics/wscore/core/concurrency"
	"github.com/momentics/wscore/core/eventloop"
	"github.com/momentics/wscore/ws"
	"github.com/momentics/wscore/wsproto"
)

// serviceInfo describes this binary for the startup log line and anything
// (e.g. a future admin endpoint) that reports api.ServiceInfo externally.
var serviceInfo = api.ServiceInfo{Name: "wsecho", Version: "0.1.0"}

func main() {
	serviceInfo.StartedAt = time.Now()
	var (
		mode       = pflag.StringP("mode", "m", "server", "server or client")
		addr       = pflag.StringP("addr", "a", ":9001", "server listen address (server mode) or dial target host:port (client mode)")
		path       = pflag.StringP("path", "p", "/echo", "request path used in client mode")
		configPath = pflag.String("config", "", "YAML config file (optional)")
		logFile    = pflag.String("log-file", "", "rotate logs to this file via lumberjack instead of stderr")
		numLoops   = pflag.Int("loops", 1, "number of event loops in the server's loop group")
	)
	pflag.Parse()

	cfg := control.DefaultConfig()
	if *configPath != "" {
		loaded, err := control.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wsecho: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	log, err := control.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsecho: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	switch *mode {
	case "server":
		runServer(cfg, *addr, *numLoops, log)
	case "client":
		runClient(cfg, *addr, *path, log)
	default:
		fmt.Fprintf(os.Stderr, "wsecho: unknown mode %q (want server or client)\n", *mode)
		os.Exit(1)
	}
}

// connMessage pairs a connection with an inbound message so the echo logic
// can be wrapped in api.Handler's single-argument Handle(data any) shape.
type connMessage struct {
	conn *ws.Conn
	msg  wsproto.Message
}

func runServer(cfg *control.Config, addr string, numLoops int, log *zap.Logger) {
	metrics := control.NewMetricsRegistry(log)
	debug := control.NewDebugProbes()
	var openSessions atomic.Int64
	debug.RegisterProbe("open_sessions", func() any { return openSessions.Load() })

	ctrl := adapters.NewControlAdapter(control.NewConfigStore(cfg), metrics, debug)
	log.Info("service starting",
		zap.String("name", serviceInfo.Name),
		zap.String("version", serviceInfo.Version),
		zap.Any("config", ctrl.GetConfig()))

	// A small affinity-pinned thread pool used for work that should stay off
	// the event loop's own goroutines (here: the echo handler run for every
	// inbound message),
	// exercised through the api.Executor contract rather than calling the
	// concrete ThreadPool directly.
	pool, err := concurrency.NewThreadPoolWithAffinity(2, adapters.NewAffinityAdapter())
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsecho: %v\n", err)
		os.Exit(1)
	}
	defer pool.Stop()
	executor := adapters.NewExecutorAdapter(pool)

	onMessage := adapters.RecoveryMiddleware(adapters.LoggingMiddleware(log)(adapters.HandlerFunc(func(data any) error {
		pair := data.(connMessage)
		metrics.Incr("messages_echoed", 1)
		switch pair.msg.Kind {
		case wsproto.MsgText:
			return pair.conn.WriteText(pair.msg.Payload)
		case wsproto.MsgBinary:
			return pair.conn.WriteBinary(pair.msg.Payload)
		}
		return nil
	})))

	opts := ws.Options{
		MaxHandshakeSize: cfg.MaxHandshakeSize,
		MaxMessageSize:   cfg.MaxMessageSize,
		HandlePing:       cfg.HandlePing,
		HandlePong:       cfg.HandlePong,
		HandleClose:      cfg.HandleClose,
		OnConnected: func(c *ws.Conn) {
			openSessions.Add(1)
			metrics.Incr("connections_opened", 1)
			log.Info("connection established", zap.String("id", c.ID().String()), zap.Stringer("status", c.Status()))
		},
		OnMessage: func(c *ws.Conn, msg wsproto.Message) {
			_ = executor.Submit(func() {
				if err := onMessage.Handle(connMessage{conn: c, msg: msg}); err != nil {
					log.Warn("echo handler failed", zap.Error(err))
				}
			})
		},
		OnDisconnected: func(c *ws.Conn, err error) {
			openSessions.Add(-1)
			metrics.Incr("connections_closed", 1)
			log.Info("connection closed", zap.String("id", c.ID().String()), zap.Error(err))
		},
	}

	srv := ws.NewServer(opts, numLoops, cfg.EventLoopBatchSize, cfg.EventLoopRingCapacity, log)
	if err := srv.Listen(addr); err != nil {
		fmt.Fprintf(os.Stderr, "wsecho: %v\n", err)
		os.Exit(1)
	}
	log.Info("wsecho server listening", zap.String("addr", srv.Addr().String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	<-ctx.Done()

	executor.Flush()
	log.Info("shutting down", zap.Any("stats", ctrl.Stats()))
	srv.Stop()
}

func runClient(cfg *control.Config, addr, path string, log *zap.Logger) {
	loop := eventloop.NewEventLoop(cfg.EventLoopBatchSize, cfg.EventLoopRingCapacity, log)
	go loop.Run()
	defer loop.Stop()

	done := make(chan struct{})
	opts := ws.Options{
		MaxHandshakeSize: cfg.MaxHandshakeSize,
		MaxMessageSize:   cfg.MaxMessageSize,
		OnConnected: func(c *ws.Conn) {
			log.Info("connected", zap.String("id", c.ID().String()))
			_ = c.WriteText([]byte("hello from wsecho"))
		},
		OnMessage: func(c *ws.Conn, msg wsproto.Message) {
			fmt.Printf("received: %s\n", msg.Payload)
			_ = c.Close()
		},
		OnDisconnected: func(c *ws.Conn, err error) {
			close(done)
		},
	}

	client := ws.NewClient(loop, log)
	url := fmt.Sprintf("ws://%s%s", addr, path)
	if _, err := client.Connect(url, opts); err != nil {
		fmt.Fprintf(os.Stderr, "wsecho: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		fmt.Fprintln(os.Stderr, "wsecho: timed out waiting for echo round trip")
		os.Exit(1)
	}
}
