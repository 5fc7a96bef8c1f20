// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tickwire is the command-line client for a tickwire-host.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/tickwire/cmd/tickwire/cli"
	"github.com/bureau-foundation/tickwire/cmd/tickwire/commands"
	"github.com/bureau-foundation/tickwire/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if os.Getenv("TICKWIRE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return commands.Root(os.Stdout, cli.NewCommandLogger(level)).Execute(ctx, os.Args[1:])
}
