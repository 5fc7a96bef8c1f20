// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/tickwire/lib/bridge"
	"github.com/bureau-foundation/tickwire/lib/clock"
	"github.com/bureau-foundation/tickwire/lib/config"
	"github.com/bureau-foundation/tickwire/lib/control"
	"github.com/bureau-foundation/tickwire/lib/host"
	"github.com/bureau-foundation/tickwire/lib/machine"
	"github.com/bureau-foundation/tickwire/lib/server"
	"github.com/bureau-foundation/tickwire/lib/service"
)

// daemon wires the emulation goroutine, the TCP server and the
// operator socket around one shared queue.
type daemon struct {
	config *config.Config
	clock  clock.Clock
	logger *slog.Logger

	machine  *machine.Machine
	queue    *bridge.Queue
	executor *control.Executor
	loop     *host.Loop
	server   *server.Server

	// ops is nil when the operator socket is disabled.
	ops *service.SocketServer

	started time.Time
}

func newDaemon(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (*daemon, error) {
	d := &daemon{
		config:  cfg,
		clock:   clk,
		logger:  logger,
		machine: machine.New(logger.With("component", "machine")),
		queue:   &bridge.Queue{},
	}
	d.executor = control.NewExecutor(d.machine, d.queue, logger.With("component", "executor"))

	loop, err := host.New(host.Config{
		Emulator: d.machine,
		Executor: d.executor,
		Clock:    clk,
		TickRate: cfg.Host.TickRate,
		Logger:   logger.With("component", "host"),
	})
	if err != nil {
		return nil, err
	}
	d.loop = loop

	srv, err := server.New(server.Config{
		Address:         cfg.ListenAddress(),
		Queue:           d.queue,
		Clock:           clk,
		AwaitTimeout:    cfg.Bridge.AwaitTimeout,
		TimeoutEchoesID: cfg.Bridge.TimeoutReplyEchoesID,
		MaxFrameBytes:   cfg.Bridge.MaxFrameBytes,
		Logger:          logger.With("component", "server"),
	})
	if err != nil {
		return nil, err
	}
	d.server = srv

	if cfg.Ops.SocketPath != "" {
		d.ops = service.NewSocketServer(cfg.Ops.SocketPath, logger.With("component", "ops"))
		d.registerActions()
	}
	return d, nil
}

// run preloads the configured ROM and serves until ctx is cancelled or
// a component fails. A listen failure cancels the other components.
func (d *daemon) run(ctx context.Context) error {
	if d.config.Host.ROM != "" {
		if err := d.loop.Preload(d.config.Host.ROM); err != nil {
			return fmt.Errorf("preloading ROM: %w", err)
		}
	}
	d.started = d.clock.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []error
	)
	component := func(name string, serve func(context.Context) error) {
		wg.Go(func() {
			if err := serve(ctx); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancel()
			}
		})
	}

	component("host loop", d.loop.Run)
	component("server", d.server.Serve)
	if d.ops != nil {
		component("operator socket", d.ops.Serve)
	}

	<-ctx.Done()
	d.logger.Info("shutting down")
	wg.Wait()
	return errors.Join(failed...)
}
