// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tickwire/cmd/tickwire/cli"
	"github.com/bureau-foundation/tickwire/lib/client"
	"github.com/bureau-foundation/tickwire/lib/protocol"
)

func expectArgs(args []string, names ...string) error {
	if len(args) != len(names) {
		if len(names) == 0 {
			return fmt.Errorf("unexpected argument: %s", args[0])
		}
		return fmt.Errorf("expected %d argument(s) (%v), got %d", len(names), names, len(args))
	}
	return nil
}

// parseNumbers parses args positionally, naming the failing argument.
func parseNumbers(args []string, names ...string) ([]int, error) {
	if err := expectArgs(args, names...); err != nil {
		return nil, err
	}
	values := make([]int, len(args))
	for i, arg := range args {
		value, err := cli.ParseNumber(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		values[i] = value
	}
	return values, nil
}

func stateCommand(env *environment) *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "state",
		Summary: "Show whether a ROM is loaded, the control mode and the frame count",
		Usage:   "tickwire state [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("state", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args); err != nil {
				return err
			}
			return conn.with(ctx, env, func(ctx context.Context, c *client.Client) error {
				state, err := c.GetState(ctx)
				if err != nil {
					return err
				}
				return cli.WriteJSON(env.out, state)
			})
		},
	}
}

func loadCommand(env *environment) *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "load",
		Summary: "Load a ROM and take external control",
		Description: `Load a ROM and take external control of the emulator.

PATH is opened by the host, so a relative path is relative to the
host's working directory. After loading, frames only advance through
"tickwire step".`,
		Usage: "tickwire load PATH [flags]",
		Examples: []cli.Example{
			{Description: "Load a ROM on a local host", Command: "tickwire load /srv/roms/demo.nes"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("load", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, "PATH"); err != nil {
				return err
			}
			return conn.with(ctx, env, func(ctx context.Context, c *client.Client) error {
				loaded, err := c.LoadROM(ctx, args[0])
				if err != nil {
					return err
				}
				env.logger.Info("ROM loaded", "path", loaded.Path, "console_type", loaded.ConsoleType)
				return cli.WriteJSON(env.out, loaded)
			})
		},
	}
}

func stepCommand(env *environment) *cli.Command {
	var conn connection
	var count cli.NumberValue
	return &cli.Command{
		Name:    "step",
		Summary: "Run frames while under external control",
		Usage:   "tickwire step [flags]",
		Examples: []cli.Example{
			{Description: "Advance one second of NTSC frames", Command: "tickwire step --count 60"},
		},
		Flags: func() *pflag.FlagSet {
			count = 1
			flagSet := pflag.NewFlagSet("step", pflag.ContinueOnError)
			flagSet.VarP(&count, "count", "n", "frames to run (the host clamps to 1-3600)")
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args); err != nil {
				return err
			}
			return conn.with(ctx, env, func(ctx context.Context, c *client.Client) error {
				step, err := c.StepFrame(ctx, int(count))
				if err != nil {
					return err
				}
				return cli.WriteJSON(env.out, step)
			})
		},
	}
}

func peekCommand(env *environment) *cli.Command {
	var conn connection
	var size cli.NumberValue
	var dump bool
	return &cli.Command{
		Name:    "peek",
		Summary: "Read CPU memory",
		Usage:   "tickwire peek ADDR [flags]",
		Examples: []cli.Example{
			{Description: "Read one byte", Command: "tickwire peek 0x0010"},
			{Description: "Hex dump the zero page", Command: "tickwire peek 0 --size 256 --hex"},
		},
		Flags: func() *pflag.FlagSet {
			size = 1
			dump = false
			flagSet := pflag.NewFlagSet("peek", pflag.ContinueOnError)
			flagSet.VarP(&size, "size", "s", "bytes to read (the host clamps to 1-256)")
			flagSet.BoolVar(&dump, "hex", false, "print a hex dump instead of JSON")
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			values, err := parseNumbers(args, "ADDR")
			if err != nil {
				return err
			}
			address := values[0]
			return conn.with(ctx, env, func(ctx context.Context, c *client.Client) error {
				if size == 1 && !dump {
					value, err := c.ReadByteAt(ctx, address)
					if err != nil {
						return err
					}
					return cli.WriteJSON(env.out, protocol.ValueResult{Value: value})
				}
				data, err := c.ReadMemory(ctx, address, int(size))
				if err != nil {
					return err
				}
				if dump {
					_, err := fmt.Fprint(env.out, hex.Dump(data))
					return err
				}
				return cli.WriteJSON(env.out, protocol.BlockResult{Address: address, Size: len(data), Data: data})
			})
		},
	}
}

func pokeCommand(env *environment) *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "poke",
		Summary: "Write one byte of CPU memory",
		Usage:   "tickwire poke ADDR VALUE [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("poke", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			values, err := parseNumbers(args, "ADDR", "VALUE")
			if err != nil {
				return err
			}
			return conn.with(ctx, env, func(ctx context.Context, c *client.Client) error {
				written, err := c.WriteMemory(ctx, values[0], values[1])
				if err != nil {
					return err
				}
				env.logger.Info("memory written", "address", written.Address, "value", written.Value)
				return cli.WriteJSON(env.out, written)
			})
		},
	}
}

func inputCommand(env *environment) *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "input",
		Summary: "Set a controller's raw button state",
		Description: `Set a controller's raw button state.

BUTTONS is the console's raw button byte; only the low eight bits
reach the controller. The state stays latched until changed.`,
		Usage: "tickwire input PORT BUTTONS [flags]",
		Examples: []cli.Example{
			{Description: "Hold A and Start on port 0", Command: "tickwire input 0 0b00001001"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("input", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			values, err := parseNumbers(args, "PORT", "BUTTONS")
			if err != nil {
				return err
			}
			return conn.with(ctx, env, func(ctx context.Context, c *client.Client) error {
				input, err := c.SetInput(ctx, values[0], values[1])
				if err != nil {
					return err
				}
				return cli.WriteJSON(env.out, input)
			})
		},
	}
}

func rawCommand(env *environment) *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "raw",
		Summary: "Send one request line verbatim and print the reply",
		Usage:   "tickwire raw JSON [flags]",
		Examples: []cli.Example{
			{Command: `tickwire raw '{"method":"read_memory","address":16,"size":4,"id":7}'`},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("raw", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args, "JSON"); err != nil {
				return err
			}
			return conn.with(ctx, env, func(ctx context.Context, c *client.Client) error {
				reply, err := c.CallRaw(ctx, []byte(args[0]))
				if err != nil {
					return err
				}
				return cli.WriteRawJSON(env.out, reply)
			})
		},
	}
}
