// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package machine

import "github.com/bureau-foundation/tickwire/lib/emulator"

// Profile is the memory layout the machine gives a console type.
type Profile struct {
	// AddressMask is applied to every debugger address, so reads and
	// writes wrap at the CPU's bus width.
	AddressMask uint32

	// ImageBase is where the first image byte is mapped, and where the
	// program counter starts.
	ImageBase uint32

	// InputBase is the register for port 0; port N latches at
	// InputBase+N.
	InputBase uint32

	// Stride is how far the program counter moves per frame.
	Stride uint32
}

var profiles = map[emulator.ConsoleType]Profile{
	emulator.ConsoleNes:      {AddressMask: 0xFFFF, ImageBase: 0x8000, InputBase: 0x4016, Stride: 113},
	emulator.ConsoleSnes:     {AddressMask: 0xFFFFFF, ImageBase: 0x008000, InputBase: 0x4218, Stride: 227},
	emulator.ConsoleGameboy:  {AddressMask: 0xFFFF, ImageBase: 0x0000, InputBase: 0xFF00, Stride: 70},
	emulator.ConsolePcEngine: {AddressMask: 0x1FFFFF, ImageBase: 0x0000, InputBase: 0x1000, Stride: 119},
	emulator.ConsoleSms:      {AddressMask: 0xFFFF, ImageBase: 0x0000, InputBase: 0x00DC, Stride: 228},
	emulator.ConsoleGba:      {AddressMask: 0xFFFFFFFF, ImageBase: 0x08000000, InputBase: 0x04000130, Stride: 1232},
	emulator.ConsoleWs:       {AddressMask: 0xFFFFF, ImageBase: 0x40000, InputBase: 0x00B5, Stride: 159},
}

// ProfileFor returns the profile for console. Unknown types get the
// NES layout.
func ProfileFor(console emulator.ConsoleType) Profile {
	if profile, ok := profiles[console]; ok {
		return profile
	}
	return profiles[emulator.ConsoleNes]
}
