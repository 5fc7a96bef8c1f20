// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tickwire/cmd/tickwire/cli"
	"github.com/bureau-foundation/tickwire/lib/service"
)

func statusCommand(env *environment) *cli.Command {
	var socketPath string
	var ping bool
	var timeout time.Duration
	return &cli.Command{
		Name:    "status",
		Summary: "Query the host's operator socket",
		Description: `Query the host's operator socket for counters and the current
control state. The host only opens the socket when ops.socket_path
is configured.`,
		Usage: "tickwire status [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", os.Getenv(OpsSocketEnvVar), "operator socket path (default from $"+OpsSocketEnvVar+")")
			flagSet.BoolVar(&ping, "ping", false, "only check that the host answers")
			flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "deadline for the request")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args); err != nil {
				return err
			}
			if socketPath == "" {
				return fmt.Errorf("--socket is required (or set $%s)", OpsSocketEnvVar)
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			ops := service.NewClient(socketPath)
			if ping {
				var pong string
				if err := ops.Call(ctx, "ping", nil, &pong); err != nil {
					return err
				}
				return cli.WriteJSON(env.out, map[string]string{"reply": pong})
			}

			var status map[string]any
			if err := ops.Call(ctx, "status", nil, &status); err != nil {
				return err
			}
			return cli.WriteJSON(env.out, status)
		},
	}
}
