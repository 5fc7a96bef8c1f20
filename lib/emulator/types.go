// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package emulator

import "fmt"

// ConsoleType identifies the machine a program targets. The numeric
// values are part of the wire protocol (get_state's console_type).
type ConsoleType int

const (
	ConsoleNone     ConsoleType = -1
	ConsoleSnes     ConsoleType = 0
	ConsoleGameboy  ConsoleType = 1
	ConsoleNes      ConsoleType = 2
	ConsolePcEngine ConsoleType = 3
	ConsoleSms      ConsoleType = 4
	ConsoleGba      ConsoleType = 5
	ConsoleWs       ConsoleType = 6
)

func (c ConsoleType) String() string {
	switch c {
	case ConsoleNone:
		return "none"
	case ConsoleSnes:
		return "snes"
	case ConsoleGameboy:
		return "gameboy"
	case ConsoleNes:
		return "nes"
	case ConsolePcEngine:
		return "pcengine"
	case ConsoleSms:
		return "sms"
	case ConsoleGba:
		return "gba"
	case ConsoleWs:
		return "ws"
	default:
		return fmt.Sprintf("console(%d)", int(c))
	}
}

// MemoryType selects an address space.
type MemoryType int

// CPU address spaces, one per console family.
const (
	NesMemory MemoryType = iota
	SnesMemory
	GameboyMemory
	PceMemory
	SmsMemory
	GbaMemory
	WsMemory
)

// CPUType selects a processor.
type CPUType int

const (
	CPUNes CPUType = iota
	CPUSnes
	CPUGameboy
	CPUPce
	CPUSms
	CPUGba
	CPUWs
)

// CPUMemory returns the CPU address space of the console. Consoles
// without a mapping fall back to NES memory.
func (c ConsoleType) CPUMemory() MemoryType {
	switch c {
	case ConsoleSnes:
		return SnesMemory
	case ConsoleGameboy:
		return GameboyMemory
	case ConsolePcEngine:
		return PceMemory
	case ConsoleSms:
		return SmsMemory
	case ConsoleGba:
		return GbaMemory
	default:
		return NesMemory
	}
}

// MainCPU returns the console's primary processor. Consoles without a
// mapping fall back to the NES CPU.
func (c ConsoleType) MainCPU() CPUType {
	switch c {
	case ConsoleSnes:
		return CPUSnes
	case ConsoleGameboy:
		return CPUGameboy
	case ConsolePcEngine:
		return CPUPce
	case ConsoleGba:
		return CPUGba
	default:
		return CPUNes
	}
}
