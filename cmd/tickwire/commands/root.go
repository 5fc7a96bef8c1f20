// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the tickwire command tree.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tickwire/cmd/tickwire/cli"
	"github.com/bureau-foundation/tickwire/lib/client"
	"github.com/bureau-foundation/tickwire/lib/version"
)

// Environment variables that replace flag defaults.
const (
	AddressEnvVar   = "TICKWIRE_ADDRESS"
	OpsSocketEnvVar = "TICKWIRE_OPS_SOCKET"
)

const (
	defaultAddress = "127.0.0.1:12345"

	// defaultTimeout outlasts the host's default 30s await so a slow
	// command reports the host's "timeout" reply rather than a local
	// deadline.
	defaultTimeout = 35 * time.Second
)

// Root returns the tickwire command tree. Command output goes to out;
// diagnostics go to logger.
func Root(out io.Writer, logger *slog.Logger) *cli.Command {
	env := &environment{out: out, logger: logger}
	return &cli.Command{
		Name:    "tickwire",
		Summary: "Drive a tickwire emulator host",
		Description: `Drive a tickwire emulator host over its TCP wire protocol.

Every command opens one connection, sends its requests, prints the
result as JSON and disconnects. Addresses and values accept decimal,
0x hex, 0o octal or 0b binary.`,
		Subcommands: []*cli.Command{
			stateCommand(env),
			loadCommand(env),
			stepCommand(env),
			peekCommand(env),
			pokeCommand(env),
			inputCommand(env),
			rawCommand(env),
			statusCommand(env),
			monitorCommand(env),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string) error {
					version.Print(out, "tickwire")
					return nil
				},
			},
		},
	}
}

// environment is what every subcommand shares.
type environment struct {
	out    io.Writer
	logger *slog.Logger
}

// connection holds the flags every wire command takes.
type connection struct {
	address string
	timeout time.Duration
}

func (c *connection) addFlags(flagSet *pflag.FlagSet) {
	address := os.Getenv(AddressEnvVar)
	if address == "" {
		address = defaultAddress
	}
	flagSet.StringVarP(&c.address, "address", "a", address, "host address (default from $"+AddressEnvVar+")")
	flagSet.DurationVar(&c.timeout, "timeout", defaultTimeout, "deadline for the whole command")
}

// with dials, runs fn and closes the connection. The timeout covers
// the dial and every request fn makes.
func (c *connection) with(ctx context.Context, env *environment, fn func(context.Context, *client.Client) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := client.Dial(ctx, c.address)
	if err != nil {
		return err
	}
	defer conn.Close()
	env.logger.Debug("connected", "address", c.address)
	return fn(ctx, conn)
}
