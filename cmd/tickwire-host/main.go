// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tickwire-host runs the emulation loop and serves the tickwire wire
// protocol on one TCP port. An optional operator socket reports status.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tickwire/lib/clock"
	"github.com/bureau-foundation/tickwire/lib/config"
	"github.com/bureau-foundation/tickwire/lib/process"
	"github.com/bureau-foundation/tickwire/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

// overrides holds flag values that replace config file settings when
// set.
type overrides struct {
	listen    string
	rom       string
	opsSocket string
	logLevel  string
}

func run() error {
	var (
		configPath  string
		showVersion bool
		flagValues  overrides
	)

	flags := pflag.NewFlagSet("tickwire-host", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to config file (.yaml, .yml, .json, .jsonc; default $"+config.EnvVar+")")
	flags.StringVar(&flagValues.listen, "listen", "", "TCP listen address host:port (overrides listen.*)")
	flags.StringVar(&flagValues.rom, "rom", "", "ROM to start free-running at startup (overrides host.rom)")
	flags.StringVar(&flagValues.opsSocket, "ops-socket", "", "operator socket path (overrides ops.socket_path)")
	flags.StringVar(&flagValues.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	if showVersion {
		version.Print(os.Stdout, "tickwire-host")
		return nil
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if err := flagValues.apply(cfg); err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	logger.Info("starting tickwire-host",
		"version", version.Info(),
		"listen", cfg.ListenAddress(),
		"tick_rate", cfg.Host.TickRate,
		"await_timeout", cfg.Bridge.AwaitTimeout,
	)

	d, err := newDaemon(cfg, clock.Real(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.run(ctx); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// apply writes the non-empty overrides into cfg and revalidates it.
func (o overrides) apply(cfg *config.Config) error {
	if o.listen != "" {
		host, portText, err := net.SplitHostPort(o.listen)
		if err != nil {
			return fmt.Errorf("--listen: %w", err)
		}
		port, err := strconv.Atoi(portText)
		if err != nil {
			return fmt.Errorf("--listen: invalid port %q", portText)
		}
		cfg.Listen.Address = host
		cfg.Listen.Port = port
	}
	if o.rom != "" {
		cfg.Host.ROM = o.rom
	}
	if o.opsSocket != "" {
		cfg.Ops.SocketPath = o.opsSocket
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
