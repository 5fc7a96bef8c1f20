// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"errors"
	"log/slog"

	"github.com/bureau-foundation/tickwire/lib/bridge"
	"github.com/bureau-foundation/tickwire/lib/emulator"
)

// Executor runs bridged commands on the emulation goroutine. Every
// method except Stats must be called from that goroutine.
type Executor struct {
	emulator emulator.Emulator
	queue    *bridge.Queue
	logger   *slog.Logger

	state State
	stats Stats
}

// NewExecutor returns an executor in the unloaded state, draining
// queue and acting on emu.
func NewExecutor(emu emulator.Emulator, queue *bridge.Queue, logger *slog.Logger) *Executor {
	return &Executor{
		emulator: emu,
		queue:    queue,
		logger:   logger,
		state:    Unloaded(),
	}
}

// State returns the current control state.
func (e *Executor) State() State {
	return e.state
}

// Stats returns the executor's counters. Safe from any goroutine.
func (e *Executor) Stats() *Stats {
	return &e.stats
}

// Drain executes every command queued since the last drain, oldest
// first, and publishes each reply. Commands enqueued while the batch
// runs wait for the next call. Returns the number executed.
func (e *Executor) Drain() int {
	batch := e.queue.DrainAll()
	if len(batch) == 0 {
		return 0
	}
	e.stats.drains.Add(1)

	for _, cmd := range batch {
		reply := e.Execute(cmd)
		switch err := cmd.Publish(reply); {
		case err == nil:
		case errors.Is(err, bridge.ErrAbandoned):
			e.stats.lateResults.Add(1)
			e.logger.Warn("discarding late result",
				"method", cmd.Kind.String(),
				"id", cmd.ID,
			)
		default:
			e.logger.Error("publishing result",
				"method", cmd.Kind.String(),
				"id", cmd.ID,
				"error", err,
			)
		}
	}
	return len(batch)
}

// Execute runs one command and returns its reply line. It does not
// publish.
func (e *Executor) Execute(cmd *bridge.Command) []byte {
	var answer outcome
	switch cmd.Kind {
	case bridge.LoadProgram:
		answer = e.loadProgram(cmd)
	case bridge.StepTicks:
		answer = e.stepTicks(cmd)
	case bridge.ReadMemory:
		answer = e.readMemory(cmd)
	case bridge.WriteMemory:
		answer = e.writeMemory(cmd)
	case bridge.SetInput:
		answer = e.setInput(cmd)
	case bridge.GetStatus:
		answer = e.getStatus(cmd)
	default:
		answer = fail("unknown command type")
	}

	e.stats.countExecuted(cmd.Kind)
	if answer.failed {
		e.stats.failed.Add(1)
	}
	return answer.encode(cmd)
}

// HandleStopped records that the emulator stopped on its own while a
// program was loaded. The state returns to unloaded. Calling it when
// nothing is loaded does nothing.
func (e *Executor) HandleStopped() {
	if !e.state.ROMLoaded {
		return
	}
	e.logger.Info("emulation stopped, control state reset",
		"console", e.state.ConsoleType.String(),
	)
	e.state = Unloaded()
	e.stats.stops.Add(1)
}
