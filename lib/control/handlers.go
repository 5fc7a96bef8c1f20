// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"fmt"

	"github.com/bureau-foundation/tickwire/lib/bridge"
	"github.com/bureau-foundation/tickwire/lib/protocol"
)

// Failure messages. Clients match on these strings.
const (
	msgMissingPath       = "missing path"
	msgLoadFailed        = "failed to load ROM"
	msgNotLoaded         = "no ROM loaded"
	msgNoConsole         = "no active console"
	msgInvalidAddress    = "invalid address"
	msgValueRange        = "value must be 0-255"
	msgNoDebugger        = "debugger not available"
	msgNoControlManager  = "no control manager"
	msgNoControllerOnFmt = "no controller on port %d"
)

// Clamp bounds for step_frame and read_memory.
const (
	MaxStepFrames = 3600
	MaxReadBytes  = 256
)

// outcome is a handler's answer before it is encoded for the wire.
type outcome struct {
	failed  bool
	message string
	result  any
}

func ok(result any) outcome {
	return outcome{result: result}
}

func fail(message string) outcome {
	return outcome{failed: true, message: message}
}

// encode renders o as the reply line for cmd.
func (o outcome) encode(cmd *bridge.Command) []byte {
	if o.failed {
		return protocol.Failure(cmd.ID, o.message)
	}
	return protocol.Success(cmd.ID, o.result)
}

func clamp(value, low, high int) int {
	return max(low, min(value, high))
}

func (e *Executor) loadProgram(cmd *bridge.Command) outcome {
	if cmd.Path == "" {
		return fail(msgMissingPath)
	}

	if e.emulator.IsRunning() {
		e.emulator.Stop()
	}

	if err := e.emulator.LoadProgram(cmd.Path); err != nil {
		e.state = Unloaded()
		e.logger.Warn("loading ROM failed", "path", cmd.Path, "error", err)
		return fail(msgLoadFailed)
	}

	consoleType := e.emulator.ConsoleType()
	e.state = State{
		ROMLoaded:       true,
		ConsoleType:     consoleType,
		ExternalControl: true,
	}
	e.logger.Info("ROM loaded", "path", cmd.Path, "console", consoleType.String())

	return ok(protocol.LoadResult{
		ConsoleType: int(consoleType),
		Path:        cmd.Path,
		Mode:        protocol.ModeExternalControlled,
	})
}

func (e *Executor) stepTicks(cmd *bridge.Command) outcome {
	if !e.state.ROMLoaded {
		return fail(msgNotLoaded)
	}

	count := clamp(cmd.Count, 1, MaxStepFrames)

	console := e.emulator.Console()
	if console == nil {
		return fail(msgNoConsole)
	}
	for range count {
		console.RunFrame()
	}

	return ok(protocol.StepResult{
		FramesExecuted: count,
		FrameCount:     e.emulator.FrameCount(),
	})
}

func (e *Executor) readMemory(cmd *bridge.Command) outcome {
	if !e.state.ROMLoaded {
		return fail(msgNotLoaded)
	}
	if cmd.Address < 0 {
		return fail(msgInvalidAddress)
	}

	memory := e.state.ConsoleType.CPUMemory()
	debugger := e.emulator.Debugger()
	if debugger == nil {
		return fail(msgNoDebugger)
	}

	size := clamp(cmd.Size, 1, MaxReadBytes)
	address := uint32(cmd.Address)

	if size == 1 {
		return ok(protocol.ValueResult{Value: debugger.MemoryValue(memory, address)})
	}

	data := make([]byte, size)
	debugger.MemoryValues(memory, address, data)
	return ok(protocol.BlockResult{
		Address: cmd.Address,
		Size:    size,
		Data:    data,
	})
}

func (e *Executor) writeMemory(cmd *bridge.Command) outcome {
	if !e.state.ROMLoaded {
		return fail(msgNotLoaded)
	}
	if cmd.Address < 0 {
		return fail(msgInvalidAddress)
	}
	if cmd.Value < 0 || cmd.Value > 0xFF {
		return fail(msgValueRange)
	}

	memory := e.state.ConsoleType.CPUMemory()
	debugger := e.emulator.Debugger()
	if debugger == nil {
		return fail(msgNoDebugger)
	}

	debugger.SetMemoryValue(memory, uint32(cmd.Address), uint8(cmd.Value))
	return ok(protocol.WriteResult{Address: cmd.Address, Value: cmd.Value})
}

func (e *Executor) setInput(cmd *bridge.Command) outcome {
	if !e.state.ROMLoaded {
		return fail(msgNotLoaded)
	}

	console := e.emulator.Console()
	if console == nil {
		return fail(msgNoConsole)
	}
	manager := console.ControlManager()
	if manager == nil {
		return fail(msgNoControlManager)
	}
	device := manager.ControlDevice(cmd.Port)
	if device == nil {
		return fail(fmt.Sprintf(msgNoControllerOnFmt, cmd.Port))
	}

	// Only the low byte reaches the device; the reply echoes the
	// request as sent.
	device.SetRawState([]byte{byte(cmd.Buttons & 0xFF)})
	return ok(protocol.InputResult{Port: cmd.Port, Buttons: cmd.Buttons})
}

func (e *Executor) getStatus(cmd *bridge.Command) outcome {
	result := protocol.StateResult{
		ROMLoaded:   e.state.ROMLoaded,
		ConsoleType: int(e.state.ConsoleType),
		Mode:        e.state.Mode(),
	}
	if e.state.ROMLoaded {
		frameCount := e.emulator.FrameCount()
		result.FrameCount = &frameCount
		if debugger := e.emulator.Debugger(); debugger != nil {
			pc := debugger.ProgramCounter(e.state.ConsoleType.MainCPU())
			result.PC = &pc
		}
	}
	return ok(result)
}
