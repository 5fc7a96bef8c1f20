// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package emulator

// Emulator is a loaded-or-empty emulation core.
type Emulator interface {
	// IsRunning reports whether a program is loaded and executing.
	IsRunning() bool

	// Stop halts the running program and releases it. Stopping an
	// emulator that is not running is a no-op.
	Stop()

	// LoadProgram loads the program at path, detects its console type
	// and starts it. On error nothing is running.
	LoadProgram(path string) error

	// ConsoleType returns the type of the loaded program, or
	// ConsoleNone.
	ConsoleType() ConsoleType

	// FrameCount returns the number of frames run since the program
	// was loaded.
	FrameCount() uint32

	// Console returns the active console, or nil when nothing is
	// loaded.
	Console() Console

	// Debugger returns the introspection interface, or nil when the
	// core cannot provide one right now.
	Debugger() Debugger
}

// Console is a running machine.
type Console interface {
	// RunFrame advances emulation by exactly one frame.
	RunFrame()

	// ControlManager returns the input subsystem, or nil.
	ControlManager() ControlManager
}

// ControlManager enumerates input devices by port.
type ControlManager interface {
	// ControlDevice returns the device plugged into port, or nil.
	ControlDevice(port int) ControlDevice
}

// ControlDevice is a single controller.
type ControlDevice interface {
	// SetRawState replaces the device's button state. Each byte is a
	// bitmask of pressed buttons in the device's native order.
	SetRawState(state []byte)
}

// Debugger gives byte-level access to memory and CPU state.
type Debugger interface {
	// MemoryValue reads one byte.
	MemoryValue(memory MemoryType, address uint32) uint8

	// MemoryValues reads len(out) consecutive bytes starting at start.
	MemoryValues(memory MemoryType, start uint32, out []byte)

	// SetMemoryValue writes one byte.
	SetMemoryValue(memory MemoryType, address uint32, value uint8)

	// ProgramCounter returns the program counter of the given CPU.
	ProgramCounter(cpu CPUType) uint32
}
