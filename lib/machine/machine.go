// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package machine

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bureau-foundation/tickwire/lib/emulator"
	"github.com/bureau-foundation/tickwire/lib/romfile"
)

// Ports is the number of controller ports every console gets.
const Ports = 4

// Machine implements emulator.Emulator. Only IsRunning, FrameCount and
// Image may be called off the emulation goroutine.
type Machine struct {
	logger *slog.Logger

	running atomic.Bool
	frames  atomic.Uint32
	image   atomic.Pointer[romfile.Image]

	profile Profile
	memory  *Memory
	mapped  uint32
	pc      uint32
	ports   [Ports]Port
}

var _ emulator.Emulator = (*Machine)(nil)

// New returns a machine with nothing loaded.
func New(logger *slog.Logger) *Machine {
	return &Machine{logger: logger}
}

// IsRunning reports whether an image is loaded and running.
func (m *Machine) IsRunning() bool {
	return m.running.Load()
}

// Stop unloads the current image.
func (m *Machine) Stop() {
	if !m.running.Swap(false) {
		return
	}
	m.logger.Info("machine stopped",
		"path", m.image.Load().Path,
		"frames", m.frames.Load(),
	)
	m.image.Store(nil)
	m.memory = nil
	m.mapped = 0
	m.pc = 0
	m.ports = [Ports]Port{}
}

// LoadProgram loads the image at path and starts it from frame zero.
// On error the machine is left stopped.
func (m *Machine) LoadProgram(path string) error {
	m.Stop()

	image, err := romfile.Load(path)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}

	profile := ProfileFor(image.Console)
	memory := NewMemory(profile.AddressMask)
	mapped := memory.Map(profile.ImageBase, image.Data)

	m.image.Store(image)
	m.profile = profile
	m.memory = memory
	m.mapped = uint32(mapped)
	m.pc = profile.ImageBase
	m.frames.Store(0)
	m.running.Store(true)

	m.logger.Info("machine started",
		"path", path,
		"console", image.Console.String(),
		"bytes", len(image.Data),
		"compression", string(image.Compression),
		"blake3", image.Digest.Short(),
	)
	return nil
}

// Image returns the loaded image, or nil.
func (m *Machine) Image() *romfile.Image {
	return m.image.Load()
}

// ConsoleType returns the loaded console type, or ConsoleNone.
func (m *Machine) ConsoleType() emulator.ConsoleType {
	image := m.image.Load()
	if image == nil {
		return emulator.ConsoleNone
	}
	return image.Console
}

// FrameCount returns the frames run since the image was loaded.
func (m *Machine) FrameCount() uint32 {
	return m.frames.Load()
}

// Console returns the running console, or nil.
func (m *Machine) Console() emulator.Console {
	if !m.running.Load() {
		return nil
	}
	return console{m}
}

// Debugger returns the debugger, or nil when nothing is loaded.
func (m *Machine) Debugger() emulator.Debugger {
	if !m.running.Load() {
		return nil
	}
	return debugger{m}
}

// runFrame latches input, moves the program counter and counts the
// frame.
func (m *Machine) runFrame() {
	if !m.running.Load() {
		return
	}
	for index := range m.ports {
		m.memory.Write(m.profile.InputBase+uint32(index), m.ports[index].Buttons())
	}
	if m.mapped > 0 {
		offset := (m.pc - m.profile.ImageBase + m.profile.Stride) % m.mapped
		m.pc = m.profile.ImageBase + offset
	}
	m.frames.Add(1)
}

type console struct{ machine *Machine }

func (c console) RunFrame() { c.machine.runFrame() }

func (c console) ControlManager() emulator.ControlManager { return controlManager{c.machine} }

type controlManager struct{ machine *Machine }

func (c controlManager) ControlDevice(port int) emulator.ControlDevice {
	if port < 0 || port >= Ports {
		return nil
	}
	return &c.machine.ports[port]
}

// Port is one controller port.
type Port struct {
	state []byte
}

// SetRawState replaces the port's state. Only the first byte is
// latched.
func (p *Port) SetRawState(state []byte) {
	p.state = append(p.state[:0], state...)
}

// Buttons returns the latched button byte.
func (p *Port) Buttons() uint8 {
	if len(p.state) == 0 {
		return 0
	}
	return p.state[0]
}

type debugger struct{ machine *Machine }

// The machine has a single address space per console, so the memory
// type only selects the mask already baked into Memory.

func (d debugger) MemoryValue(_ emulator.MemoryType, address uint32) uint8 {
	return d.machine.memory.Read(address)
}

func (d debugger) MemoryValues(_ emulator.MemoryType, start uint32, out []byte) {
	d.machine.memory.ReadInto(start, out)
}

func (d debugger) SetMemoryValue(_ emulator.MemoryType, address uint32, value uint8) {
	d.machine.memory.Write(address, value)
}

func (d debugger) ProgramCounter(emulator.CPUType) uint32 {
	return d.machine.pc
}
