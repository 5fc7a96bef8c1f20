// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"errors"

	"github.com/bureau-foundation/tickwire/lib/emulator"
)

// fakeEmulator records what the executor asks of it. A path missing
// from roms makes LoadProgram fail.
type fakeEmulator struct {
	roms    map[string]emulator.ConsoleType
	running bool
	console emulator.ConsoleType
	frames  uint32
	stops   int
	loads   []string

	memory map[uint32]uint8
	pc     uint32

	noConsole  bool
	noDebugger bool
	noManager  bool
	devices    map[int]*fakeDevice
}

func newFakeEmulator() *fakeEmulator {
	return &fakeEmulator{
		roms: map[string]emulator.ConsoleType{
			"game.nes": emulator.ConsoleNes,
			"game.sfc": emulator.ConsoleSnes,
		},
		console: emulator.ConsoleNone,
		memory:  make(map[uint32]uint8),
		devices: map[int]*fakeDevice{0: {}, 1: {}},
	}
}

func (f *fakeEmulator) IsRunning() bool { return f.running }

func (f *fakeEmulator) Stop() {
	f.stops++
	f.running = false
	f.console = emulator.ConsoleNone
}

func (f *fakeEmulator) LoadProgram(path string) error {
	f.loads = append(f.loads, path)
	consoleType, ok := f.roms[path]
	if !ok {
		return errors.New("unsupported file")
	}
	f.running = true
	f.console = consoleType
	f.frames = 0
	return nil
}

func (f *fakeEmulator) ConsoleType() emulator.ConsoleType { return f.console }

func (f *fakeEmulator) FrameCount() uint32 { return f.frames }

func (f *fakeEmulator) Console() emulator.Console {
	if f.noConsole || !f.running {
		return nil
	}
	return fakeConsole{f}
}

func (f *fakeEmulator) Debugger() emulator.Debugger {
	if f.noDebugger {
		return nil
	}
	return fakeDebugger{f}
}

type fakeConsole struct{ emu *fakeEmulator }

func (c fakeConsole) RunFrame() {
	c.emu.frames++
	c.emu.pc += 3
}

func (c fakeConsole) ControlManager() emulator.ControlManager {
	if c.emu.noManager {
		return nil
	}
	return fakeManager{c.emu}
}

type fakeManager struct{ emu *fakeEmulator }

func (m fakeManager) ControlDevice(port int) emulator.ControlDevice {
	device, ok := m.emu.devices[port]
	if !ok {
		return nil
	}
	return device
}

type fakeDevice struct {
	state []byte
}

func (d *fakeDevice) SetRawState(state []byte) {
	d.state = append([]byte(nil), state...)
}

type fakeDebugger struct{ emu *fakeEmulator }

func (d fakeDebugger) MemoryValue(_ emulator.MemoryType, address uint32) uint8 {
	return d.emu.memory[address]
}

func (d fakeDebugger) MemoryValues(_ emulator.MemoryType, start uint32, out []byte) {
	for i := range out {
		out[i] = d.emu.memory[start+uint32(i)]
	}
}

func (d fakeDebugger) SetMemoryValue(_ emulator.MemoryType, address uint32, value uint8) {
	d.emu.memory[address] = value
}

func (d fakeDebugger) ProgramCounter(emulator.CPUType) uint32 { return d.emu.pc }
