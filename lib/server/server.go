// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/tickwire/lib/bridge"
	"github.com/bureau-foundation/tickwire/lib/clock"
	"github.com/bureau-foundation/tickwire/lib/netutil"
	"github.com/bureau-foundation/tickwire/lib/protocol"
)

// DefaultAwaitTimeout bounds how long a connection waits for the
// emulation goroutine to execute one command.
const DefaultAwaitTimeout = 30 * time.Second

// writeTimeout bounds a single reply write. A client that stops
// reading is disconnected instead of wedging the server.
const writeTimeout = 10 * time.Second

// Config holds the server's settings and collaborators.
type Config struct {
	// Address is the TCP listen address, host:port.
	Address string

	Queue *bridge.Queue

	// Clock drives the await timeout. Defaults to clock.Real().
	Clock clock.Clock

	// AwaitTimeout defaults to DefaultAwaitTimeout.
	AwaitTimeout time.Duration

	// TimeoutEchoesID makes timeout replies carry the request id
	// instead of 0.
	TimeoutEchoesID bool

	// MaxFrameBytes defaults to protocol.DefaultMaxFrameBytes.
	MaxFrameBytes int

	Logger *slog.Logger
}

// Server is the TCP front end. Construct with New, then call Serve.
type Server struct {
	address         string
	queue           *bridge.Queue
	clock           clock.Clock
	awaitTimeout    time.Duration
	timeoutEchoesID bool
	maxFrameBytes   int
	logger          *slog.Logger

	stats Stats

	readyOnce sync.Once
	ready     chan struct{}
	addr      net.Addr
}

// New validates config and returns a server.
func New(config Config) (*Server, error) {
	if config.Address == "" {
		return nil, errors.New("server: address is required")
	}
	if config.Queue == nil {
		return nil, errors.New("server: queue is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.AwaitTimeout == 0 {
		config.AwaitTimeout = DefaultAwaitTimeout
	}
	if config.AwaitTimeout < 0 {
		return nil, fmt.Errorf("server: await timeout must be positive, got %v", config.AwaitTimeout)
	}
	if config.MaxFrameBytes == 0 {
		config.MaxFrameBytes = protocol.DefaultMaxFrameBytes
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		address:         config.Address,
		queue:           config.Queue,
		clock:           config.Clock,
		awaitTimeout:    config.AwaitTimeout,
		timeoutEchoesID: config.TimeoutEchoesID,
		maxFrameBytes:   config.MaxFrameBytes,
		logger:          config.Logger,
		ready:           make(chan struct{}),
	}, nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or nil while the server is not
// listening. It never blocks: a Serve that failed to bind leaves Ready
// open and Addr nil.
func (s *Server) Addr() net.Addr {
	select {
	case <-s.ready:
		return s.addr
	default:
		return nil
	}
}

// Stats returns the server's counters.
func (s *Server) Stats() *Stats {
	return &s.stats
}

// Serve listens and handles connections one at a time until ctx is
// cancelled. Cancelling ctx closes the listener and the active
// connection and abandons any in-progress await. Returns nil on
// cancellation.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := listen(s.address)
	if err != nil {
		return err
	}
	defer listener.Close()

	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	s.addr = listener.Addr()
	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("listening", "address", s.addr.String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.handleConnection(ctx, conn)
	}

	snapshot := s.stats.Snapshot()
	s.logger.Info("server stopped",
		"connections", snapshot.Connections,
		"frames", snapshot.Frames,
		"timeouts", snapshot.Timeouts,
	)
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	remote := conn.RemoteAddr().String()
	logger := s.logger.With("remote", remote)

	s.stats.connections.Add(1)
	s.stats.active.Add(1)
	defer s.stats.active.Add(-1)
	logger.Info("client connected")

	framer := protocol.NewFramer(conn, s.maxFrameBytes)
	served := 0
	for {
		frame, err := framer.Next()
		var reply []byte
		switch {
		case errors.Is(err, protocol.ErrFrameTooLong):
			s.stats.decodeErrors.Add(1)
			logger.Warn("discarding oversized frame", "limit", s.maxFrameBytes)
			reply = protocol.InvalidCommand()
		case err != nil:
			if ctx.Err() != nil || netutil.IsExpectedCloseError(err) {
				logger.Info("client disconnected", "requests", served)
			} else {
				logger.Warn("reading from client", "error", err, "requests", served)
			}
			return
		default:
			s.stats.frames.Add(1)
			reply = s.process(ctx, logger, frame)
			if reply == nil {
				return
			}
		}

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(reply); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				logger.Warn("writing reply", "error", err)
			}
			return
		}
		s.stats.replies.Add(1)
		served++
	}
}

// process turns one frame into one reply line. It returns nil only
// when ctx was cancelled mid-await, in which case no reply is sent.
func (s *Server) process(ctx context.Context, logger *slog.Logger, frame []byte) []byte {
	cmd, err := protocol.Decode(frame)
	if err != nil {
		s.stats.decodeErrors.Add(1)
		logger.Debug("rejecting frame", "error", err)
		return protocol.InvalidCommand()
	}

	result, err := s.queue.Call(ctx, s.clock, s.awaitTimeout, cmd)
	switch {
	case err == nil:
		return result
	case errors.Is(err, bridge.ErrTimeout):
		s.stats.timeouts.Add(1)
		logger.Warn("command timed out",
			"method", cmd.Kind.String(),
			"id", cmd.ID,
			"timeout", s.awaitTimeout,
		)
		id := 0
		if s.timeoutEchoesID {
			id = cmd.ID
		}
		return protocol.Timeout(id)
	default:
		logger.Debug("await abandoned", "method", cmd.Kind.String(), "error", err)
		return nil
	}
}
