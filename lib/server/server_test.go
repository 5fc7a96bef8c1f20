// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/tickwire/lib/bridge"
	"github.com/bureau-foundation/tickwire/lib/clock"
	"github.com/bureau-foundation/tickwire/lib/control"
	"github.com/bureau-foundation/tickwire/lib/host"
	"github.com/bureau-foundation/tickwire/lib/machine"
	"github.com/bureau-foundation/tickwire/lib/testutil"
)

const testWait = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	server *Server
	queue  *bridge.Queue
	cancel context.CancelFunc
	done   chan error
}

// startServer runs a server on an ephemeral port. With emulate set, a
// real host loop drains the queue; otherwise nothing does.
func startServer(t *testing.T, awaitClock clock.Clock, emulate bool, mutate func(*Config)) *testServer {
	t.Helper()
	logger := discardLogger()
	queue := &bridge.Queue{}
	config := Config{
		Address: "127.0.0.1:0",
		Queue:   queue,
		Clock:   awaitClock,
		Logger:  logger,
	}
	if mutate != nil {
		mutate(&config)
	}
	server, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	if emulate {
		emu := machine.New(logger)
		loop, err := host.New(host.Config{
			Emulator: emu,
			Executor: control.NewExecutor(emu, queue, logger),
			TickRate: 1000,
			Logger:   logger,
		})
		if err != nil {
			t.Fatalf("host.New: %v", err)
		}
		wg.Go(func() { loop.Run(ctx) })
	}

	done := make(chan error, 1)
	wg.Go(func() { done <- server.Serve(ctx) })
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	testutil.RequireClosed(t, server.Ready(), testWait, "waiting for listener")
	return &testServer{server: server, queue: queue, cancel: cancel, done: done}
}

type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, server *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) send(t *testing.T, lines ...string) {
	t.Helper()
	if _, err := io.WriteString(c.conn, strings.Join(lines, "\n")+"\n"); err != nil {
		t.Fatalf("writing request: %v", err)
	}
}

func (c *testClient) receive(t *testing.T) string {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(testWait))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	return strings.TrimSuffix(line, "\n")
}

func (c *testClient) call(t *testing.T, request, want string) {
	t.Helper()
	c.send(t, request)
	if got := c.receive(t); got != want {
		t.Errorf("%s\n got: %s\nwant: %s", request, got, want)
	}
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Queue: &bridge.Queue{}}); err == nil {
		t.Error("accepted empty address")
	}
	if _, err := New(Config{Address: "127.0.0.1:0"}); err == nil {
		t.Error("accepted nil queue")
	}
	if _, err := New(Config{Address: "127.0.0.1:0", Queue: &bridge.Queue{}, AwaitTimeout: -time.Second}); err == nil {
		t.Error("accepted negative timeout")
	}
}

func TestInitialGetState(t *testing.T) {
	t.Parallel()
	ts := startServer(t, clock.Real(), true, nil)
	client := dial(t, ts.server)

	client.call(t, `{"method":"get_state","id":1}`,
		`{"ok":true,"result":{"rom_loaded":false,"console_type":-1,"mode":"free_running"},"id":1}`)
}

func TestSession(t *testing.T) {
	t.Parallel()
	ts := startServer(t, clock.Real(), true, nil)
	client := dial(t, ts.server)
	rom := testutil.WriteFile(t, "game.nes", make([]byte, 1024))

	client.call(t, `{"method":"load_rom","id":2,"path":"game.rom"}`,
		`{"ok":false,"error":"failed to load ROM","id":2}`)
	client.call(t, `{"method":"step_frame","id":3}`,
		`{"ok":false,"error":"no ROM loaded","id":3}`)
	client.call(t, `{"method":"load_rom","id":4,"path":"`+rom+`"}`,
		`{"ok":true,"result":{"console_type":2,"path":"`+rom+`","mode":"external_controlled"},"id":4}`)
	client.call(t, `{"method":"write_memory","id":5,"address":10,"value":300}`,
		`{"ok":false,"error":"value must be 0-255","id":5}`)
	client.call(t, `{"method":"write_memory","id":6,"address":10,"value":77}`,
		`{"ok":true,"result":{"address":10,"value":77},"id":6}`)
	client.call(t, `{"method":"read_memory","id":7,"address":10}`,
		`{"ok":true,"result":{"value":77},"id":7}`)
	client.call(t, `{"method":"step_frame","id":8,"count":5000}`,
		`{"ok":true,"result":{"framesExecuted":3600,"frameCount":3600},"id":8}`)
	client.call(t, `{"method":"set_input","id":9,"port":0,"buttons":3}`,
		`{"ok":true,"result":{"port":0,"buttons":3},"id":9}`)
	client.call(t, `{"method":"read_memory","id":10,"address":16406}`,
		`{"ok":true,"result":{"value":0},"id":10}`)
	client.call(t, `{"method":"step_frame","id":11}`,
		`{"ok":true,"result":{"framesExecuted":1,"frameCount":3601},"id":11}`)
	client.call(t, `{"method":"read_memory","id":12,"address":16406}`,
		`{"ok":true,"result":{"value":3},"id":12}`)
}

func TestInvalidCommandSkipsBridge(t *testing.T) {
	t.Parallel()
	ts := startServer(t, clock.Real(), false, nil)
	client := dial(t, ts.server)

	for _, frame := range []string{`nonsense`, `{"id":5}`, `{"method":"reset","id":5}`, `[1,2]`} {
		client.call(t, frame, `{"ok":false,"error":"invalid command","id":0}`)
	}
	if ts.queue.Len() != 0 {
		t.Errorf("queue holds %d commands", ts.queue.Len())
	}
	if got := ts.server.Stats().Snapshot().DecodeErrors; got != 4 {
		t.Errorf("DecodeErrors = %d, want 4", got)
	}
}

func TestOversizedFrame(t *testing.T) {
	t.Parallel()
	ts := startServer(t, clock.Real(), true, func(config *Config) {
		config.MaxFrameBytes = 256
	})
	client := dial(t, ts.server)

	client.send(t, `{"method":"get_state","id":1,"pad":"`+strings.Repeat("x", 1000)+`"}`, `{"method":"get_state","id":2}`)
	if got := client.receive(t); got != `{"ok":false,"error":"invalid command","id":0}` {
		t.Errorf("oversized reply = %s", got)
	}
	if got := client.receive(t); !strings.HasSuffix(got, `"id":2}`) {
		t.Errorf("reply after oversized frame = %s", got)
	}
}

func TestPipelinedRequestsReplyInOrder(t *testing.T) {
	t.Parallel()
	ts := startServer(t, clock.Real(), true, nil)
	client := dial(t, ts.server)

	var lines []string
	for id := 1; id <= 20; id++ {
		lines = append(lines, `{"method":"get_state","id":`+strconv.Itoa(id)+`}`)
	}
	client.send(t, lines...)
	for id := 1; id <= 20; id++ {
		got := client.receive(t)
		if !strings.HasSuffix(got, `"id":`+strconv.Itoa(id)+`}`) {
			t.Fatalf("reply %d = %s", id, got)
		}
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		echoID bool
		want   string
	}{
		{"default id zero", false, `{"ok":false,"error":"timeout","id":0}`},
		{"echo id", true, `{"ok":false,"error":"timeout","id":42}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			fake := clock.Fake(time.Unix(1_700_000_000, 0))
			ts := startServer(t, fake, false, func(config *Config) {
				config.TimeoutEchoesID = test.echoID
			})
			client := dial(t, ts.server)

			client.send(t, `{"method":"get_state","id":42}`)
			fake.WaitForTimers(1)
			fake.Advance(DefaultAwaitTimeout - time.Millisecond)
			if ts.server.Stats().Snapshot().Timeouts != 0 {
				t.Fatal("timed out early")
			}
			fake.Advance(time.Millisecond)

			if got := client.receive(t); got != test.want {
				t.Errorf("reply = %s, want %s", got, test.want)
			}

			// The late command is still queued; draining it later is a
			// discard, not a reply on this connection.
			if ts.queue.Len() != 1 {
				t.Errorf("queue holds %d commands, want 1", ts.queue.Len())
			}
			batch := ts.queue.DrainAll()
			if err := batch[0].Publish([]byte("late\n")); !errors.Is(err, bridge.ErrAbandoned) {
				t.Errorf("late Publish error = %v, want ErrAbandoned", err)
			}
		})
	}
}

func TestOneConnectionAtATime(t *testing.T) {
	t.Parallel()
	ts := startServer(t, clock.Real(), true, nil)

	first := dial(t, ts.server)
	first.call(t, `{"method":"get_state","id":1}`,
		`{"ok":true,"result":{"rom_loaded":false,"console_type":-1,"mode":"free_running"},"id":1}`)

	second := dial(t, ts.server)
	second.send(t, `{"method":"get_state","id":2}`)
	second.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if line, err := second.reader.ReadString('\n'); err == nil {
		t.Fatalf("second client served while first was connected: %s", line)
	}

	first.conn.Close()
	if got := second.receive(t); !strings.HasSuffix(got, `"id":2}`) {
		t.Errorf("second reply = %s", got)
	}
}

func TestShutdownClosesConnection(t *testing.T) {
	t.Parallel()
	fake := clock.Fake(time.Unix(0, 0))
	ts := startServer(t, fake, false, nil)
	client := dial(t, ts.server)

	// Leave a request awaiting a result that never comes.
	client.send(t, `{"method":"get_state","id":1}`)
	fake.WaitForTimers(1)
	ts.cancel()

	if err := testutil.RequireReceive(t, ts.done, testWait, "waiting for Serve"); err != nil {
		t.Errorf("Serve: %v", err)
	}
	client.conn.SetReadDeadline(time.Now().Add(testWait))
	if _, err := client.reader.ReadString('\n'); err == nil {
		t.Error("got a reply after shutdown")
	}
}

func TestListenFailure(t *testing.T) {
	t.Parallel()
	ts := startServer(t, clock.Real(), false, nil)

	server, err := New(Config{Address: ts.server.Addr().String(), Queue: &bridge.Queue{}, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if server.Addr() != nil {
		t.Error("Addr is set before Serve")
	}
	if err := server.Serve(context.Background()); err == nil {
		t.Error("Serve succeeded on an address already in use")
	}
	if addr := server.Addr(); addr != nil {
		t.Errorf("Addr after failed listen = %v, want nil", addr)
	}
	select {
	case <-server.Ready():
		t.Error("Ready closed after failed listen")
	default:
	}
}
