// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bureau-foundation/tickwire/lib/bridge"
	"github.com/bureau-foundation/tickwire/lib/control"
	"github.com/bureau-foundation/tickwire/lib/protocol"
	"github.com/bureau-foundation/tickwire/lib/server"
	"github.com/bureau-foundation/tickwire/lib/version"
)

// stateProbeTimeout bounds the get_state round trip made by the status
// action. A wedged emulation goroutine still gets a status reply.
const stateProbeTimeout = 2 * time.Second

type romStatus struct {
	Path        string `cbor:"path"`
	Console     string `cbor:"console"`
	Compression string `cbor:"compression"`
	Bytes       int    `cbor:"bytes"`
	Blake3      string `cbor:"blake3"`
}

type statusResponse struct {
	Version       string                `cbor:"version"`
	UptimeSeconds float64               `cbor:"uptime_seconds"`
	Listen        string                `cbor:"listen,omitempty"` // empty until bound
	Ticks         uint64                `cbor:"ticks"`
	FreeFrames    uint64                `cbor:"free_frames"`
	QueueDepth    int                   `cbor:"queue_depth"`
	ROM           *romStatus            `cbor:"rom,omitempty"`
	Server        server.StatsSnapshot  `cbor:"server"`
	Executor      control.StatsSnapshot `cbor:"executor"`

	// State is the get_state result, read on the emulation goroutine.
	// StateError replaces it when the probe fails.
	State      *protocol.StateResult `cbor:"state,omitempty"`
	StateError string                `cbor:"state_error,omitempty"`
}

func (d *daemon) registerActions() {
	d.ops.Handle("ping", func(context.Context, []byte) (any, error) {
		return "pong", nil
	})
	d.ops.Handle("status", func(ctx context.Context, _ []byte) (any, error) {
		return d.status(ctx), nil
	})
}

func (d *daemon) status(ctx context.Context) statusResponse {
	response := statusResponse{
		Version:       version.Info(),
		UptimeSeconds: d.clock.Now().Sub(d.started).Seconds(),
		Ticks:         d.loop.Ticks(),
		FreeFrames:    d.loop.FreeFrames(),
		QueueDepth:    d.queue.Len(),
		Server:        d.server.Stats().Snapshot(),
		Executor:      d.executor.Stats().Snapshot(),
	}
	if addr := d.server.Addr(); addr != nil {
		response.Listen = addr.String()
	}
	if image := d.machine.Image(); image != nil {
		response.ROM = &romStatus{
			Path:        image.Path,
			Console:     image.Console.String(),
			Compression: string(image.Compression),
			Bytes:       len(image.Data),
			Blake3:      image.Digest.String(),
		}
	}

	state, err := d.probeState(ctx)
	if err != nil {
		response.StateError = err.Error()
	} else {
		response.State = &state
	}
	return response
}

// probeState runs get_state through the queue like any client request.
func (d *daemon) probeState(ctx context.Context) (protocol.StateResult, error) {
	var state protocol.StateResult
	timeout := min(d.config.Bridge.AwaitTimeout, stateProbeTimeout)
	line, err := d.queue.Call(ctx, d.clock, timeout, &bridge.Command{Kind: bridge.GetStatus})
	if err != nil {
		return state, fmt.Errorf("probing state: %w", err)
	}
	reply, err := protocol.ParseReply(line)
	if err != nil {
		return state, fmt.Errorf("probing state: %w", err)
	}
	if !reply.OK {
		return state, fmt.Errorf("probing state: %s", reply.Error)
	}
	if err := json.Unmarshal(reply.Result, &state); err != nil {
		return state, fmt.Errorf("decoding state: %w", err)
	}
	return state, nil
}
