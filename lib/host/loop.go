// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/tickwire/lib/clock"
	"github.com/bureau-foundation/tickwire/lib/control"
	"github.com/bureau-foundation/tickwire/lib/emulator"
)

// DefaultTickRate is the loop frequency in ticks per second.
const DefaultTickRate = 60

// Config holds the loop's collaborators.
type Config struct {
	Emulator emulator.Emulator
	Executor *control.Executor

	// Clock drives the ticker. Defaults to clock.Real().
	Clock clock.Clock

	// TickRate is ticks per second. Defaults to DefaultTickRate.
	TickRate int

	Logger *slog.Logger
}

// Loop is the emulation goroutine. Construct with New.
type Loop struct {
	emulator emulator.Emulator
	executor *control.Executor
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	ticks      atomic.Uint64
	freeFrames atomic.Uint64
}

// New validates config and returns a loop.
func New(config Config) (*Loop, error) {
	if config.Emulator == nil {
		return nil, errors.New("host: emulator is required")
	}
	if config.Executor == nil {
		return nil, errors.New("host: executor is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.TickRate == 0 {
		config.TickRate = DefaultTickRate
	}
	if config.TickRate < 0 {
		return nil, fmt.Errorf("host: tick rate must be positive, got %d", config.TickRate)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Loop{
		emulator: config.Emulator,
		executor: config.Executor,
		clock:    config.Clock,
		interval: time.Second / time.Duration(config.TickRate),
		logger:   config.Logger,
	}, nil
}

// Preload starts path free-running before any client connects. The
// control state stays unloaded: a client still has to load_rom to take
// control. Call before Run.
func (l *Loop) Preload(path string) error {
	if err := l.emulator.LoadProgram(path); err != nil {
		return fmt.Errorf("preloading %s: %w", path, err)
	}
	l.logger.Info("preloaded ROM", "path", path, "console", l.emulator.ConsoleType().String())
	return nil
}

// Run ticks until ctx is done. It returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("emulation loop started", "interval", l.interval)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("emulation loop stopped",
				"ticks", l.ticks.Load(),
				"free_frames", l.freeFrames.Load(),
			)
			if l.emulator.IsRunning() {
				l.emulator.Stop()
			}
			return nil
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Tick performs one iteration. Run calls it; tests call it directly.
func (l *Loop) Tick() {
	l.ticks.Add(1)
	l.executor.Drain()

	state := l.executor.State()
	if state.ROMLoaded && !l.emulator.IsRunning() {
		l.executor.HandleStopped()
		return
	}
	if state.ExternalControl || !l.emulator.IsRunning() {
		return
	}
	if console := l.emulator.Console(); console != nil {
		console.RunFrame()
		l.freeFrames.Add(1)
	}
}

// Ticks returns the number of ticks run. Safe from any goroutine.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// FreeFrames returns the number of frames run outside external
// control. Safe from any goroutine.
func (l *Loop) FreeFrames() uint64 {
	return l.freeFrames.Load()
}
